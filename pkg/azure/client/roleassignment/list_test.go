package roleassignment_test

import (
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/stretchr/testify/assert"

	"github.com/deploykit/azsp/pkg/azure/client/roleassignment"
)

const (
	subscriptionScope = "/subscriptions/00000000-0000-0000-0000-000000000001"
	contributorDefId  = subscriptionScope + "/providers/Microsoft.Authorization/roleDefinitions/contributor"
	readerDefId       = subscriptionScope + "/providers/Microsoft.Authorization/roleDefinitions/reader"
)

func assignment(id, principalId, roleDefinitionId, scope string) *armauthorization.RoleAssignment {
	return &armauthorization.RoleAssignment{
		ID:   to.Ptr(id),
		Name: to.Ptr(id),
		Properties: &armauthorization.RoleAssignmentProperties{
			PrincipalID:      to.Ptr(principalId),
			RoleDefinitionID: to.Ptr(roleDefinitionId),
			Scope:            to.Ptr(scope),
		},
	}
}

func resolveRoles(roleDefinitionId string) (string, bool) {
	switch roleDefinitionId {
	case contributorDefId:
		return "Contributor", true
	case readerDefId:
		return "Reader", true
	default:
		return "", false
	}
}

func TestPartition(t *testing.T) {
	direct1 := assignment("assignment-1", "sp-1", contributorDefId, subscriptionScope)
	orphan := assignment("assignment-2", "deleted-sp", contributorDefId, subscriptionScope+"/resourceGroups/rg-1")
	otherRole := assignment("assignment-3", "deleted-sp", readerDefId, subscriptionScope)
	unrelated := assignment("assignment-4", "deleted-sp", contributorDefId, "/subscriptions/other-subscription")
	all := roleassignment.List{direct1, orphan, otherRole, unrelated}

	t.Run("explicit object id never yields orphan candidates", func(t *testing.T) {
		direct, orphans := roleassignment.Partition(all, []string{"sp-1"}, false, subscriptionScope, "Contributor", resolveRoles)

		assert.Equal(t, roleassignment.List{direct1}, direct)
		assert.Empty(t, orphans)
	})

	t.Run("name-based mode sweeps related scopes with matching role", func(t *testing.T) {
		direct, orphans := roleassignment.Partition(all, []string{"sp-1"}, true, subscriptionScope, "Contributor", resolveRoles)

		assert.Equal(t, roleassignment.List{direct1}, direct)
		assert.Equal(t, roleassignment.List{orphan}, orphans)
	})

	t.Run("role name mismatch excludes candidate", func(t *testing.T) {
		_, orphans := roleassignment.Partition(roleassignment.List{otherRole}, nil, true, subscriptionScope, "Contributor", resolveRoles)
		assert.Empty(t, orphans)
	})

	t.Run("unresolvable role definition excludes candidate", func(t *testing.T) {
		unknown := assignment("assignment-5", "deleted-sp", "no-such-definition", subscriptionScope)
		_, orphans := roleassignment.Partition(roleassignment.List{unknown}, nil, true, subscriptionScope, "Contributor", resolveRoles)
		assert.Empty(t, orphans)
	})

	t.Run("no targets and no criteria yields nothing", func(t *testing.T) {
		direct, orphans := roleassignment.Partition(all, nil, true, "", "", resolveRoles)
		assert.Empty(t, direct)
		assert.Empty(t, orphans)
	})
}

func TestList_Find(t *testing.T) {
	existing := assignment("assignment-1", "sp-1", contributorDefId, subscriptionScope)
	list := roleassignment.List{existing}

	t.Run("matching principal and role definition", func(t *testing.T) {
		assert.Equal(t, existing, list.Find("sp-1", contributorDefId))
	})

	t.Run("different principal", func(t *testing.T) {
		assert.Nil(t, list.Find("sp-2", contributorDefId))
	})

	t.Run("different role definition", func(t *testing.T) {
		assert.Nil(t, list.Find("sp-1", readerDefId))
	})
}

func TestScopesRelated(t *testing.T) {
	t.Run("child scope relates to parent", func(t *testing.T) {
		assert.True(t, roleassignment.ScopesRelated(subscriptionScope, subscriptionScope+"/resourceGroups/rg-1"))
	})

	t.Run("parent scope relates to child", func(t *testing.T) {
		assert.True(t, roleassignment.ScopesRelated(subscriptionScope+"/resourceGroups/rg-1", subscriptionScope))
	})

	t.Run("identical scopes relate", func(t *testing.T) {
		assert.True(t, roleassignment.ScopesRelated(subscriptionScope, subscriptionScope))
	})

	t.Run("disjoint scopes do not relate", func(t *testing.T) {
		assert.False(t, roleassignment.ScopesRelated(subscriptionScope, "/subscriptions/other-subscription"))
	})
}
