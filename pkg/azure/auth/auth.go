package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/nais/msgraph.go/msauth"
	"golang.org/x/oauth2"
)

// ErrAuthentication wraps any failure to establish an interactive login.
var ErrAuthentication = errors.New("azure authentication failed")

var scopes = []string{msauth.DefaultMSGraphScope}

// Login opens a browser for an interactive sign-in against the given tenant
// and returns the resulting credential for use with both the directory and
// authorization APIs.
func Login(tenantId string) (azcore.TokenCredential, error) {
	cred, err := azidentity.NewInteractiveBrowserCredential(&azidentity.InteractiveBrowserCredentialOptions{
		TenantID: tenantId,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	return cred, nil
}

// CredentialTokenSource adapts an azcore.TokenCredential into an
// oauth2.TokenSource so the Graph client's HTTP transport can use it.
type CredentialTokenSource struct {
	cred azcore.TokenCredential
	ctx  context.Context
	opts policy.TokenRequestOptions
}

func (in *CredentialTokenSource) Token() (*oauth2.Token, error) {
	tok, err := in.cred.GetToken(in.ctx, in.opts)
	if err != nil {
		return nil, fmt.Errorf("fetching azure token: %w", err)
	}

	return &oauth2.Token{
		AccessToken: tok.Token,
		TokenType:   "bearer",
		Expiry:      tok.ExpiresOn,
	}, nil
}

func NewCredentialTokenSource(ctx context.Context, cred azcore.TokenCredential) oauth2.TokenSource {
	ts := &CredentialTokenSource{
		cred: cred,
		ctx:  ctx,
		opts: policy.TokenRequestOptions{
			Scopes: scopes,
		},
	}

	return oauth2.ReuseTokenSource(nil, ts)
}
