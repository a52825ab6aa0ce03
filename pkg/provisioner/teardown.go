package provisioner

import (
	"fmt"

	"github.com/deploykit/azsp/pkg/azure"
	"github.com/deploykit/azsp/pkg/transaction"
)

type TeardownResult struct {
	Assignments             azure.RemovalResult
	ServicePrincipalRemoved bool
	ApplicationRemoved      bool
}

// Teardown removes role assignments, the service principal and the
// application registration, in reverse creation order. Resolution failures
// are fatal, but each removal is attempted independently: a failed removal is
// logged and the remaining steps still run. Already-absent resources count
// as removed.
func (p Provisioner) Teardown(tx transaction.Transaction) (*TeardownResult, error) {
	name := tx.Identity.DisplayName
	result := &TeardownResult{}

	app, appFound, err := p.client.Application().FindByName(tx.Ctx, name)
	if err != nil {
		return nil, fmt.Errorf("looking up application registration: %w", err)
	}

	// Fall back to name-based removal (with orphan sweep) unless a live
	// service principal pins down an explicit object ID.
	target := azure.RemovalTarget{DisplayName: name}

	if appFound {
		tx = tx.WithApplication(*app)

		sp, spFound, err := p.client.ServicePrincipal().FindByClientId(tx.Ctx, tx.Identity.ClientId)
		if err != nil {
			return nil, fmt.Errorf("looking up service principal: %w", err)
		}
		if spFound {
			tx = tx.WithServicePrincipal(sp)
			target = azure.RemovalTarget{
				ServicePrincipalIds: []azure.ServicePrincipalId{tx.Identity.ServicePrincipalId},
			}
		}
	} else {
		tx.Logger.WithField("name", name).
			Info("application registration not found; will check for orphaned resources")
	}

	scope := tx.Config.Azure.SubscriptionScope()
	for _, role := range tx.Config.Application.Roles {
		removal, err := p.client.RoleAssignments().RemoveAll(tx, target, role, scope)
		if err != nil {
			tx.Logger.WithError(err).WithField("role", role).
				Error("removing role assignments failed; continuing")
			continue
		}
		result.Assignments.Found += removal.Found
		result.Assignments.Removed += removal.Removed
	}

	if tx.Identity.ServicePrincipalId != "" {
		if err := p.client.ServicePrincipal().Delete(tx.Ctx, tx.Identity.ServicePrincipalId); err != nil {
			tx.Logger.WithError(err).Error("removing service principal failed; continuing")
		} else {
			result.ServicePrincipalRemoved = true
			tx.Logger.Info("service principal removed")
		}
	}

	if tx.Identity.ObjectId != "" {
		if err := p.client.Application().Delete(tx.Ctx, tx.Identity.ObjectId); err != nil {
			tx.Logger.WithError(err).Error("removing application registration failed; continuing")
		} else {
			result.ApplicationRemoved = true
			tx.Logger.Info("application registration removed")
		}
	}

	return result, nil
}
