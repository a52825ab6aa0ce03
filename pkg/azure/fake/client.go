package fake

import (
	"context"
	"errors"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/nais/msgraph.go/ptr"
	msgraph "github.com/nais/msgraph.go/v1.0"

	"github.com/deploykit/azsp/pkg/azure"
	"github.com/deploykit/azsp/pkg/transaction"
)

// Client is a configurable in-memory azure.Client for orchestrator tests.
// Zero value behaves like an empty tenant: lookups find nothing and creates
// succeed with canned identifiers.
type Client struct {
	// Pre-existing state.
	ExistingApplication      *msgraph.Application
	ExistingServicePrincipal *msgraph.ServicePrincipal
	ExistingSecret           bool

	// Injected failures.
	AssignErr            error
	RemoveAssignmentsErr error
	DeletePrincipalErr   error
	DeleteApplicationErr error

	// Call records.
	AssignedRoles   []string
	RemovedRoles    []string
	RemovalTargets  []azure.RemovalTarget
	DeletedApps     []azure.ObjectId
	DeletedSps      []azure.ServicePrincipalId
	SecretEnsured   bool
	RemovalOutcomes []azure.RemovalResult
}

const (
	ClientId           = "fake-client-id"
	ObjectId           = "fake-object-id"
	ServicePrincipalId = "fake-sp-object-id"
	SecretValue        = "fake-secret-value"
)

func (c *Client) Application() azure.Application {
	return fakeApplication{c}
}

func (c *Client) ServicePrincipal() azure.ServicePrincipal {
	return fakeServicePrincipal{c}
}

func (c *Client) PasswordCredential() azure.PasswordCredential {
	return fakePasswordCredential{c}
}

func (c *Client) RoleAssignments() azure.RoleAssignments {
	return fakeRoleAssignments{c}
}

func Application(name string) *msgraph.Application {
	return &msgraph.Application{
		DisplayName:     ptr.String(name),
		AppID:           ptr.String(ClientId),
		DirectoryObject: msgraph.DirectoryObject{Entity: msgraph.Entity{ID: ptr.String(ObjectId)}},
	}
}

func ServicePrincipal(name string) *msgraph.ServicePrincipal {
	return &msgraph.ServicePrincipal{
		DisplayName:     ptr.String(name),
		AppID:           ptr.String(ClientId),
		DirectoryObject: msgraph.DirectoryObject{Entity: msgraph.Entity{ID: ptr.String(ServicePrincipalId)}},
	}
}

type fakeApplication struct{ c *Client }

func (f fakeApplication) FindOrCreate(tx transaction.Transaction) (*msgraph.Application, bool, error) {
	if f.c.ExistingApplication != nil {
		return f.c.ExistingApplication, false, nil
	}
	return Application(tx.Identity.DisplayName), true, nil
}

func (f fakeApplication) FindByName(_ context.Context, name azure.DisplayName) (*msgraph.Application, bool, error) {
	if f.c.ExistingApplication != nil {
		return f.c.ExistingApplication, true, nil
	}
	return nil, false, nil
}

func (f fakeApplication) GetByObjectId(_ context.Context, _ azure.ObjectId) (*msgraph.Application, bool, error) {
	if f.c.ExistingApplication != nil {
		return f.c.ExistingApplication, true, nil
	}
	return nil, false, errors.New("application not found")
}

func (f fakeApplication) Delete(_ context.Context, id azure.ObjectId) error {
	if f.c.DeleteApplicationErr != nil {
		return f.c.DeleteApplicationErr
	}
	f.c.DeletedApps = append(f.c.DeletedApps, id)
	return nil
}

type fakeServicePrincipal struct{ c *Client }

func (f fakeServicePrincipal) Ensure(tx transaction.Transaction) (msgraph.ServicePrincipal, bool, error) {
	if f.c.ExistingServicePrincipal != nil {
		return *f.c.ExistingServicePrincipal, false, nil
	}
	return *ServicePrincipal(tx.Identity.DisplayName), true, nil
}

func (f fakeServicePrincipal) FindByClientId(_ context.Context, _ azure.ClientId) (msgraph.ServicePrincipal, bool, error) {
	if f.c.ExistingServicePrincipal != nil {
		return *f.c.ExistingServicePrincipal, true, nil
	}
	return msgraph.ServicePrincipal{}, false, nil
}

func (f fakeServicePrincipal) FindAllByName(_ context.Context, _ azure.DisplayName) ([]azure.ServicePrincipalId, error) {
	if f.c.ExistingServicePrincipal != nil {
		return []azure.ServicePrincipalId{*f.c.ExistingServicePrincipal.ID}, nil
	}
	return nil, nil
}

func (f fakeServicePrincipal) Delete(_ context.Context, id azure.ServicePrincipalId) error {
	if f.c.DeletePrincipalErr != nil {
		return f.c.DeletePrincipalErr
	}
	f.c.DeletedSps = append(f.c.DeletedSps, id)
	return nil
}

type fakePasswordCredential struct{ c *Client }

func (f fakePasswordCredential) Ensure(_ transaction.Transaction) (azure.Secret, error) {
	f.c.SecretEnsured = true
	if f.c.ExistingSecret {
		return azure.Secret{Value: azure.SecretSentinel}, nil
	}
	return azure.Secret{Value: SecretValue, KeyId: "fake-key-id", Created: true}, nil
}

type fakeRoleAssignments struct{ c *Client }

func (f fakeRoleAssignments) Assign(_ transaction.Transaction, _ azure.ServicePrincipalId, roleName, _ string) (*armauthorization.RoleAssignment, bool, error) {
	if f.c.AssignErr != nil {
		return nil, false, f.c.AssignErr
	}
	f.c.AssignedRoles = append(f.c.AssignedRoles, roleName)
	return &armauthorization.RoleAssignment{}, true, nil
}

func (f fakeRoleAssignments) RemoveAll(_ transaction.Transaction, target azure.RemovalTarget, roleName, _ string) (azure.RemovalResult, error) {
	if f.c.RemoveAssignmentsErr != nil {
		return azure.RemovalResult{}, f.c.RemoveAssignmentsErr
	}
	f.c.RemovedRoles = append(f.c.RemovedRoles, roleName)
	f.c.RemovalTargets = append(f.c.RemovalTargets, target)

	if len(f.c.RemovalOutcomes) > 0 {
		outcome := f.c.RemovalOutcomes[0]
		f.c.RemovalOutcomes = f.c.RemovalOutcomes[1:]
		return outcome, nil
	}
	return azure.RemovalResult{}, nil
}
