package roleassignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	cache "github.com/Code-Hex/go-generics-cache"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/deploykit/azsp/pkg/azure"
	"github.com/deploykit/azsp/pkg/azure/util"
	"github.com/deploykit/azsp/pkg/retry"
	"github.com/deploykit/azsp/pkg/transaction"
)

var (
	// ErrRoleNotFound is returned when a role name resolves to no role
	// definition at the requested scope.
	ErrRoleNotFound = errors.New("role not found")
	// ErrNoPrincipal is returned when removal is requested without a service
	// principal object ID or display name to target.
	ErrNoPrincipal = errors.New("either service principal object ID or display name must be provided")
)

// UnknownRoleName substitutes a role name in log output when best-effort
// resolution of a role definition fails.
const UnknownRoleName = "Unknown"

const (
	// A freshly registered service principal may not have replicated to the
	// authorization API yet; creation is retried on PrincipalNotFound.
	replicationRetryBase = 5 * time.Second
	replicationRetryMax  = 2 * time.Minute
)

var (
	roleDefinitionIdCache = cache.New[string, string]()
	roleNameCache         = cache.New[string, string]()
)

// PrincipalResolver resolves a display name to service principal object IDs,
// for name-based removal.
type PrincipalResolver interface {
	FindAllByName(ctx context.Context, name azure.DisplayName) ([]azure.ServicePrincipalId, error)
}

type roleAssignments struct {
	azure.RuntimeClient
	principals PrincipalResolver
}

func NewRoleAssignments(runtimeClient azure.RuntimeClient, principals PrincipalResolver) azure.RoleAssignments {
	return roleAssignments{
		RuntimeClient: runtimeClient,
		principals:    principals,
	}
}

// Assign grants roleName to the principal at scope. If an assignment binding
// the principal to the resolved role definition already exists at the scope,
// it is returned unchanged.
func (r roleAssignments) Assign(tx transaction.Transaction, principalId azure.ServicePrincipalId, roleName, scope string) (*armauthorization.RoleAssignment, bool, error) {
	logger := tx.Logger.WithFields(log.Fields{
		"principal_id": principalId,
		"role":         roleName,
		"scope":        scope,
	})

	roleDefinitionId, err := r.roleDefinitionId(tx.Ctx, scope, roleName)
	if err != nil {
		return nil, false, err
	}

	existing, err := r.listForScope(tx.Ctx, scope)
	if err != nil {
		return nil, false, err
	}

	if assignment := existing.Find(principalId, roleDefinitionId); assignment != nil {
		logger.WithField("assignment_id", *assignment.ID).Info("role assignment already exists")
		return assignment, false, nil
	}

	assignment, err := r.create(tx.Ctx, principalId, roleDefinitionId, scope)
	if err != nil {
		return nil, false, fmt.Errorf("creating role assignment for role '%s' at scope '%s': %w", roleName, scope, err)
	}

	logger.WithField("assignment_id", *assignment.ID).Info("role assignment created")
	return assignment, true, nil
}

// RemoveAll removes every assignment held by the target principals, plus
// orphan candidates in name-based mode. Deletions are attempted
// independently: a failed delete is logged and the batch continues.
func (r roleAssignments) RemoveAll(tx transaction.Transaction, target azure.RemovalTarget, roleName, scope string) (azure.RemovalResult, error) {
	if target.ByName() && target.DisplayName == "" {
		return azure.RemovalResult{}, ErrNoPrincipal
	}

	targetIds := target.ServicePrincipalIds
	if target.ByName() {
		ids, err := r.principals.FindAllByName(tx.Ctx, target.DisplayName)
		if err != nil {
			return azure.RemovalResult{}, fmt.Errorf("resolving service principals by name '%s': %w", target.DisplayName, err)
		}
		if len(ids) == 0 {
			tx.Logger.WithField("name", target.DisplayName).
				Info("no service principals found; checking for orphaned role assignments")
		}
		targetIds = ids
	}

	// Orphan detection has to inspect assignments that may reference deleted
	// principals, so the whole subscription is scanned rather than the
	// requested scope.
	all, err := r.listForSubscription(tx.Ctx)
	if err != nil {
		return azure.RemovalResult{}, err
	}

	direct, orphans := Partition(all, targetIds, target.ByName(), scope, roleName, r.resolver(tx.Ctx))

	result := azure.RemovalResult{Found: len(direct) + len(orphans)}
	if result.Found == 0 {
		tx.Logger.Info("no role assignments found for service principal or orphaned assignments")
		return result, nil
	}

	tx.Logger.WithFields(log.Fields{
		"direct":   len(direct),
		"orphaned": len(orphans),
	}).Info("removing role assignments")

	result.Removed += r.removeBatch(tx, direct, "direct")
	result.Removed += r.removeBatch(tx, orphans, "orphaned")

	return result, nil
}

func (r roleAssignments) removeBatch(tx transaction.Transaction, assignments List, kind string) int {
	removed := 0
	resolve := r.resolver(tx.Ctx)

	for _, assignment := range assignments {
		roleName := UnknownRoleName
		if assignment.Properties.RoleDefinitionID != nil {
			if name, ok := resolve(*assignment.Properties.RoleDefinitionID); ok {
				roleName = name
			}
		}

		scope := ""
		if assignment.Properties.Scope != nil {
			scope = *assignment.Properties.Scope
		}

		logger := tx.Logger.WithFields(log.Fields{
			"assignment_id": *assignment.ID,
			"kind":          kind,
			"role":          roleName,
			"scope":         scope,
		})

		if _, err := r.RoleAssignmentsAPI().DeleteByID(tx.Ctx, *assignment.ID, nil); err != nil {
			logger.WithError(err).Error("failed to remove role assignment; continuing")
			continue
		}

		logger.Info("role assignment removed")
		removed++
	}

	return removed
}

func (r roleAssignments) create(ctx context.Context, principalId, roleDefinitionId, scope string) (*armauthorization.RoleAssignment, error) {
	name := uuid.New().String()
	parameters := armauthorization.RoleAssignmentCreateParameters{
		Properties: &armauthorization.RoleAssignmentProperties{
			PrincipalID:      to.Ptr(principalId),
			PrincipalType:    to.Ptr(armauthorization.PrincipalTypeServicePrincipal),
			RoleDefinitionID: to.Ptr(roleDefinitionId),
		},
	}

	var assignment *armauthorization.RoleAssignment

	backoff := retry.Fibonacci(replicationRetryBase).WithMaxDuration(replicationRetryMax)
	err := backoff.Do(ctx, func(ctx context.Context) error {
		response, err := r.RoleAssignmentsAPI().Create(ctx, scope, name, parameters, nil)
		if err != nil {
			var responseErr *azcore.ResponseError
			if errors.As(err, &responseErr) && responseErr.ErrorCode == "PrincipalNotFound" {
				return retry.RetryableError(err)
			}
			return err
		}
		assignment = &response.RoleAssignment
		return nil
	})
	if err != nil {
		return nil, err
	}

	return assignment, nil
}

func (r roleAssignments) roleDefinitionId(ctx context.Context, scope, roleName string) (string, error) {
	key := scope + "#" + roleName
	if id, found := roleDefinitionIdCache.Get(key); found {
		return id, nil
	}

	options := &armauthorization.RoleDefinitionsClientListOptions{
		Filter: to.Ptr(util.FilterByRoleName(roleName)),
	}

	pager := r.RoleDefinitionsAPI().NewListPager(scope, options)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("listing role definitions at scope '%s': %w", scope, err)
		}
		for _, definition := range page.Value {
			if definition.Properties == nil || definition.Properties.RoleName == nil {
				continue
			}
			if *definition.Properties.RoleName == roleName {
				roleDefinitionIdCache.Set(key, *definition.ID)
				return *definition.ID, nil
			}
		}
	}

	return "", fmt.Errorf("%w: '%s' at scope '%s'", ErrRoleNotFound, roleName, scope)
}

// resolver returns a best-effort role definition ID to role name lookup.
func (r roleAssignments) resolver(ctx context.Context) RoleNameResolver {
	return func(roleDefinitionId string) (string, bool) {
		if name, found := roleNameCache.Get(roleDefinitionId); found {
			return name, true
		}

		response, err := r.RoleDefinitionsAPI().GetByID(ctx, roleDefinitionId, nil)
		if err != nil || response.Properties == nil || response.Properties.RoleName == nil {
			return "", false
		}

		name := *response.Properties.RoleName
		roleNameCache.Set(roleDefinitionId, name)
		return name, true
	}
}

func (r roleAssignments) listForScope(ctx context.Context, scope string) (List, error) {
	assignments := make(List, 0)

	pager := r.RoleAssignmentsAPI().NewListForScopePager(scope, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing role assignments at scope '%s': %w", scope, err)
		}
		assignments = append(assignments, page.Value...)
	}

	return assignments, nil
}

func (r roleAssignments) listForSubscription(ctx context.Context) (List, error) {
	assignments := make(List, 0)

	pager := r.RoleAssignmentsAPI().NewListForSubscriptionPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing role assignments for subscription: %w", err)
		}
		assignments = append(assignments, page.Value...)
	}

	return assignments, nil
}
