package provisioner

import (
	"fmt"

	"github.com/deploykit/azsp/pkg/azure"
	"github.com/deploykit/azsp/pkg/transaction"
)

// Provisioner sequences the directory and authorization operations for a
// setup or teardown run. All remote calls are issued sequentially; any setup
// failure is fatal to the whole run, while teardown is best-effort per
// resource.
type Provisioner struct {
	client azure.Client
}

func New(client azure.Client) Provisioner {
	return Provisioner{client: client}
}

// Environment holds the values a CI/CD pipeline needs to authenticate as the
// provisioned service principal.
type Environment struct {
	ClientId       string
	ClientSecret   string
	TenantId       string
	SubscriptionId string
}

// ExportLines renders the environment as shell export statements.
func (e Environment) ExportLines() []string {
	return []string{
		fmt.Sprintf("export AZURE_CLIENT_ID=%s", e.ClientId),
		fmt.Sprintf("export AZURE_CLIENT_SECRET=%s", e.ClientSecret),
		fmt.Sprintf("export AZURE_TENANT_ID=%s", e.TenantId),
		fmt.Sprintf("export AZURE_SUBSCRIPTION_ID=%s", e.SubscriptionId),
	}
}

type SetupResult struct {
	Identity                transaction.Identity
	Secret                  azure.Secret
	CreatedApplication      bool
	CreatedServicePrincipal bool
	AssignedRoles           int
	Environment             Environment
}

// Setup provisions the application registration, service principal, client
// secret and role assignments, in that order.
func (p Provisioner) Setup(tx transaction.Transaction) (*SetupResult, error) {
	app, createdApp, err := p.client.Application().FindOrCreate(tx)
	if err != nil {
		return nil, fmt.Errorf("ensuring application registration: %w", err)
	}
	tx = tx.WithApplication(*app)

	sp, createdSp, err := p.client.ServicePrincipal().Ensure(tx)
	if err != nil {
		return nil, fmt.Errorf("ensuring service principal: %w", err)
	}
	tx = tx.WithServicePrincipal(sp)

	secret, err := p.client.PasswordCredential().Ensure(tx)
	if err != nil {
		return nil, fmt.Errorf("ensuring client secret: %w", err)
	}

	scope := tx.Config.Azure.SubscriptionScope()
	assigned := 0
	for _, role := range tx.Config.Application.Roles {
		if _, _, err := p.client.RoleAssignments().Assign(tx, tx.Identity.ServicePrincipalId, role, scope); err != nil {
			return nil, fmt.Errorf("assigning role '%s': %w", role, err)
		}
		assigned++
	}

	return &SetupResult{
		Identity:                tx.Identity,
		Secret:                  secret,
		CreatedApplication:      createdApp,
		CreatedServicePrincipal: createdSp,
		AssignedRoles:           assigned,
		Environment: Environment{
			ClientId:       tx.Identity.ClientId,
			ClientSecret:   secret.Value,
			TenantId:       tx.Config.Azure.TenantId,
			SubscriptionId: tx.Config.Azure.SubscriptionId,
		},
	}, nil
}
