package serviceprincipal

import (
	"context"
	"fmt"

	cache "github.com/Code-Hex/go-generics-cache"
	"github.com/nais/msgraph.go/ptr"
	msgraph "github.com/nais/msgraph.go/v1.0"

	"github.com/deploykit/azsp/pkg/azure"
	"github.com/deploykit/azsp/pkg/azure/util"
	"github.com/deploykit/azsp/pkg/transaction"
)

var servicePrincipalIdCache = cache.New[azure.ClientId, azure.ServicePrincipalId]()

type servicePrincipal struct {
	azure.RuntimeClient
}

func NewServicePrincipal(runtimeClient azure.RuntimeClient) azure.ServicePrincipal {
	return servicePrincipal{RuntimeClient: runtimeClient}
}

// Ensure returns the service principal linked to the transaction's client ID,
// registering one if it does not exist yet.
func (s servicePrincipal) Ensure(tx transaction.Transaction) (msgraph.ServicePrincipal, bool, error) {
	clientId := tx.Identity.ClientId

	sp, found, err := s.FindByClientId(tx.Ctx, clientId)
	if err != nil {
		return msgraph.ServicePrincipal{}, false, err
	}
	if found {
		tx.Logger.WithField("service_principal_id", *sp.ID).Info("service principal already exists")
		return sp, false, nil
	}

	sp, err = s.register(tx.Ctx, clientId)
	if err != nil {
		return msgraph.ServicePrincipal{}, false, err
	}

	tx.Logger.WithField("service_principal_id", *sp.ID).Info("service principal created")
	return sp, true, nil
}

func (s servicePrincipal) FindByClientId(ctx context.Context, id azure.ClientId) (msgraph.ServicePrincipal, bool, error) {
	r := s.GraphClient().ServicePrincipals().Request()
	r.Filter(util.FilterByAppId(id))
	sps, err := r.GetN(ctx, s.MaxNumberOfPagesToFetch())
	if err != nil {
		return msgraph.ServicePrincipal{}, false, fmt.Errorf("failed to lookup service principal: %w", err)
	}
	if len(sps) == 0 {
		return msgraph.ServicePrincipal{}, false, nil
	}

	sp := sps[0]
	servicePrincipalIdCache.Set(*sp.AppID, *sp.ID)

	return sp, true, nil
}

func (s servicePrincipal) FindAllByName(ctx context.Context, name azure.DisplayName) ([]azure.ServicePrincipalId, error) {
	r := s.GraphClient().ServicePrincipals().Request()
	r.Filter(util.FilterByName(name))
	sps, err := r.GetN(ctx, s.MaxNumberOfPagesToFetch())
	if err != nil {
		return nil, fmt.Errorf("failed to list service principals: %w", err)
	}

	ids := make([]azure.ServicePrincipalId, 0)
	for _, sp := range sps {
		if sp.DisplayName != nil && *sp.DisplayName == name && sp.ID != nil {
			ids = append(ids, *sp.ID)
		}
	}
	return ids, nil
}

// Delete removes the service principal, treating an already-absent principal
// as success.
func (s servicePrincipal) Delete(ctx context.Context, id azure.ServicePrincipalId) error {
	if _, err := s.GraphClient().ServicePrincipals().ID(id).Request().Get(ctx); err != nil {
		return nil
	}
	if err := s.GraphClient().ServicePrincipals().ID(id).Request().Delete(ctx); err != nil {
		return fmt.Errorf("deleting service principal: %w", err)
	}
	return nil
}

func (s servicePrincipal) register(ctx context.Context, clientId azure.ClientId) (msgraph.ServicePrincipal, error) {
	request := &msgraph.ServicePrincipal{
		AppID:          &clientId,
		AccountEnabled: ptr.Bool(true),
	}
	sp, err := s.GraphClient().ServicePrincipals().Request().Add(ctx, request)
	if err != nil {
		return msgraph.ServicePrincipal{}, fmt.Errorf("failed to register service principal: %w", err)
	}

	servicePrincipalIdCache.Set(clientId, *sp.ID)
	return *sp, nil
}
