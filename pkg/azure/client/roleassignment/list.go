package roleassignment

import (
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
)

type List []*armauthorization.RoleAssignment

// RoleNameResolver maps a role definition ID to its role name. The second
// return value is false when the definition could not be resolved, in which
// case an assignment is not considered an orphan candidate.
type RoleNameResolver func(roleDefinitionId string) (string, bool)

// Partition splits the assignments into those held directly by one of the
// target principals and, when no explicit object ID was supplied (name-based
// mode), candidates that look orphaned: their scope relates to the requested
// scope and their role definition resolves to the requested role name.
func Partition(all List, targetIds []string, byName bool, scope, roleName string, resolve RoleNameResolver) (direct List, orphans List) {
	direct = make(List, 0)
	orphans = make(List, 0)

	for _, assignment := range all {
		if assignment == nil || assignment.Properties == nil {
			continue
		}

		if principalIn(assignment, targetIds) {
			direct = append(direct, assignment)
			continue
		}

		if !byName || scope == "" || roleName == "" {
			continue
		}
		if assignment.Properties.Scope == nil || !ScopesRelated(scope, *assignment.Properties.Scope) {
			continue
		}
		if assignment.Properties.RoleDefinitionID == nil {
			continue
		}
		if name, ok := resolve(*assignment.Properties.RoleDefinitionID); ok && name == roleName {
			orphans = append(orphans, assignment)
		}
	}

	return direct, orphans
}

// Find returns the assignment binding the principal to the role definition,
// or nil. This is the uniqueness check for the create path.
func (l List) Find(principalId, roleDefinitionId string) *armauthorization.RoleAssignment {
	for _, assignment := range l {
		if assignment == nil || assignment.Properties == nil {
			continue
		}
		equalPrincipalId := assignment.Properties.PrincipalID != nil && *assignment.Properties.PrincipalID == principalId
		equalRoleDefinitionId := assignment.Properties.RoleDefinitionID != nil && *assignment.Properties.RoleDefinitionID == roleDefinitionId

		if equalPrincipalId && equalRoleDefinitionId {
			return assignment
		}
	}
	return nil
}

// ScopesRelated is the loose bidirectional substring match used for orphan
// detection: orphaned assignments may have been created at a child or parent
// scope of the requested one. Deliberately looser than hierarchical scope
// containment.
func ScopesRelated(requested, actual string) bool {
	return strings.Contains(actual, requested) || strings.Contains(requested, actual)
}

func principalIn(assignment *armauthorization.RoleAssignment, ids []string) bool {
	if assignment.Properties.PrincipalID == nil {
		return false
	}
	for _, id := range ids {
		if *assignment.Properties.PrincipalID == id {
			return true
		}
	}
	return false
}
