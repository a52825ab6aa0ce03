package passwordcredential

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nais/msgraph.go/ptr"
	msgraph "github.com/nais/msgraph.go/v1.0"

	"github.com/deploykit/azsp/pkg/azure"
	"github.com/deploykit/azsp/pkg/config"
	"github.com/deploykit/azsp/pkg/transaction"
)

type passwordCredential struct {
	azure.RuntimeClient
}

func NewPasswordCredential(runtimeClient azure.RuntimeClient) azure.PasswordCredential {
	return passwordCredential{RuntimeClient: runtimeClient}
}

// Ensure issues a client secret for the application unless one already
// exists. Secret material cannot be read back after creation, so if the
// application holds any password credential the existing one is retained and
// the sentinel returned in place of the value.
func (p passwordCredential) Ensure(tx transaction.Transaction) (azure.Secret, error) {
	objectId := tx.Identity.ObjectId

	app, err := p.GraphClient().Applications().ID(objectId).Request().Get(tx.Ctx)
	if err != nil {
		return azure.Secret{}, fmt.Errorf("fetching application '%s': %w", objectId, err)
	}

	if HasCredentials(*app) {
		tx.Logger.WithField("count", len(app.PasswordCredentials)).
			Info("application already has password credentials; retaining existing secret")
		return azure.Secret{Value: azure.SecretSentinel}, nil
	}

	request := p.toAddRequest(tx.Config.Application.SecretName, tx.Config.Application.SecretExpiry)
	response, err := p.GraphClient().Applications().ID(objectId).AddPassword(request).Request().Post(tx.Ctx)
	if err != nil {
		return azure.Secret{}, fmt.Errorf("adding password credential for application: %w", err)
	}

	tx.Logger.WithFields(map[string]any{
		"key_id":  string(*response.KeyID),
		"expires": response.EndDateTime,
	}).Info("client secret created")

	return azure.Secret{
		Value:   *response.SecretText,
		KeyId:   string(*response.KeyID),
		Created: true,
	}, nil
}

func (p passwordCredential) toAddRequest(secretName string, expiry config.SecretExpiry) *msgraph.ApplicationAddPasswordRequestParameter {
	startDateTime := time.Now()
	endDateTime := Expiry(startDateTime, expiry)
	keyId := msgraph.UUID(uuid.New().String())

	return &msgraph.ApplicationAddPasswordRequestParameter{
		PasswordCredential: &msgraph.PasswordCredential{
			StartDateTime: &startDateTime,
			EndDateTime:   &endDateTime,
			KeyID:         &keyId,
			DisplayName:   ptr.String(secretName),
		},
	}
}

// HasCredentials reports whether the application holds any password
// credential, expired or not. Presence alone suppresses issuing a new secret.
func HasCredentials(app msgraph.Application) bool {
	return len(app.PasswordCredentials) > 0
}

// Expiry computes the credential end date as now plus the configured years,
// months and days.
func Expiry(now time.Time, expiry config.SecretExpiry) time.Time {
	return now.AddDate(expiry.Years, expiry.Months, expiry.Days)
}
