package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	msgraph "github.com/nais/msgraph.go/v1.0"

	"github.com/deploykit/azsp/pkg/config"
	"github.com/deploykit/azsp/pkg/transaction"
)

type Client interface {
	Application() Application
	ServicePrincipal() ServicePrincipal
	PasswordCredential() PasswordCredential
	RoleAssignments() RoleAssignments
}

type Application interface {
	// FindOrCreate returns the application registration matching the
	// transaction's display name, registering a new one if none exists.
	// The returned bool indicates whether a registration was created.
	FindOrCreate(tx transaction.Transaction) (*msgraph.Application, bool, error)
	// FindByName returns the first application with an exact display name
	// match, if any.
	FindByName(ctx context.Context, name DisplayName) (*msgraph.Application, bool, error)
	GetByObjectId(ctx context.Context, id ObjectId) (*msgraph.Application, bool, error)
	// Delete removes the application registration. An already-absent
	// registration is treated as success.
	Delete(ctx context.Context, id ObjectId) error
}

type ServicePrincipal interface {
	// Ensure returns the service principal for the transaction's client ID,
	// registering one if absent. The returned bool indicates creation.
	Ensure(tx transaction.Transaction) (msgraph.ServicePrincipal, bool, error)
	FindByClientId(ctx context.Context, id ClientId) (msgraph.ServicePrincipal, bool, error)
	// FindAllByName returns the object IDs of every service principal with
	// the given display name.
	FindAllByName(ctx context.Context, name DisplayName) ([]ServicePrincipalId, error)
	// Delete removes the service principal. An already-absent principal is
	// treated as success.
	Delete(ctx context.Context, id ServicePrincipalId) error
}

type PasswordCredential interface {
	// Ensure issues a new client secret unless the application already holds
	// one or more password credentials, in which case the existing secret is
	// retained and the sentinel value returned.
	Ensure(tx transaction.Transaction) (Secret, error)
}

type RoleAssignments interface {
	// Assign grants the named role to the principal at the given scope.
	// Idempotent: an existing (principal, role definition) assignment at the
	// scope is returned as-is with created=false.
	Assign(tx transaction.Transaction, principalId ServicePrincipalId, roleName, scope string) (*armauthorization.RoleAssignment, bool, error)
	// RemoveAll deletes every assignment held by the target principal(s),
	// sweeping for orphaned assignments when the target is name-based.
	// Individual deletion failures are logged and do not abort the batch.
	RemoveAll(tx transaction.Transaction, target RemovalTarget, roleName, scope string) (RemovalResult, error)
}

// RuntimeClient is the shared plumbing the entity sub-clients are built on.
type RuntimeClient interface {
	Config() *config.Config
	GraphClient() *msgraph.GraphServiceRequestBuilder
	RoleDefinitionsAPI() RoleDefinitionsAPI
	RoleAssignmentsAPI() RoleAssignmentsAPI
	MaxNumberOfPagesToFetch() int
}

// RoleDefinitionsAPI is the subset of the authorization management API used
// to resolve role definitions.
type RoleDefinitionsAPI interface {
	NewListPager(scope string, options *armauthorization.RoleDefinitionsClientListOptions) *runtime.Pager[armauthorization.RoleDefinitionsClientListResponse]
	GetByID(ctx context.Context, roleID string, options *armauthorization.RoleDefinitionsClientGetByIDOptions) (armauthorization.RoleDefinitionsClientGetByIDResponse, error)
}

// RoleAssignmentsAPI is the subset of the authorization management API used
// to list, create and delete role assignments.
type RoleAssignmentsAPI interface {
	NewListForScopePager(scope string, options *armauthorization.RoleAssignmentsClientListForScopeOptions) *runtime.Pager[armauthorization.RoleAssignmentsClientListForScopeResponse]
	NewListForSubscriptionPager(options *armauthorization.RoleAssignmentsClientListForSubscriptionOptions) *runtime.Pager[armauthorization.RoleAssignmentsClientListForSubscriptionResponse]
	Create(ctx context.Context, scope string, roleAssignmentName string, parameters armauthorization.RoleAssignmentCreateParameters, options *armauthorization.RoleAssignmentsClientCreateOptions) (armauthorization.RoleAssignmentsClientCreateResponse, error)
	DeleteByID(ctx context.Context, roleAssignmentID string, options *armauthorization.RoleAssignmentsClientDeleteByIDOptions) (armauthorization.RoleAssignmentsClientDeleteByIDResponse, error)
}
