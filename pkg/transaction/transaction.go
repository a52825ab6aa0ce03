package transaction

import (
	"context"

	msgraph "github.com/nais/msgraph.go/v1.0"
	log "github.com/sirupsen/logrus"

	"github.com/deploykit/azsp/pkg/config"
)

// Transaction carries the context, configuration and logger for a single
// provisioning or teardown run, together with the identifiers discovered so
// far. The With* methods return updated copies so each step can record what
// it resolved without mutating its caller's view.
type Transaction struct {
	Ctx      context.Context
	Config   *config.Config
	Logger   *log.Entry
	ID       string
	Identity Identity
}

// Identity is the application/service principal pair a run operates on.
// Zero-valued fields mean "not yet resolved".
type Identity struct {
	DisplayName        string
	ClientId           string
	ObjectId           string
	ServicePrincipalId string
}

func New(ctx context.Context, cfg *config.Config, logger *log.Entry, id string) Transaction {
	return Transaction{
		Ctx:    ctx,
		Config: cfg,
		Logger: logger,
		ID:     id,
		Identity: Identity{
			DisplayName: cfg.Application.Name,
		},
	}
}

func (t Transaction) WithApplication(app msgraph.Application) Transaction {
	if app.AppID != nil {
		t.Identity.ClientId = *app.AppID
	}
	if app.ID != nil {
		t.Identity.ObjectId = *app.ID
	}
	return t
}

func (t Transaction) WithServicePrincipal(sp msgraph.ServicePrincipal) Transaction {
	if sp.ID != nil {
		t.Identity.ServicePrincipalId = *sp.ID
	}
	return t
}
