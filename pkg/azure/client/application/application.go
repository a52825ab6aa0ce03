package application

import (
	"context"
	"fmt"

	"github.com/nais/msgraph.go/ptr"
	msgraph "github.com/nais/msgraph.go/v1.0"

	"github.com/deploykit/azsp/pkg/azure"
	"github.com/deploykit/azsp/pkg/azure/util"
	"github.com/deploykit/azsp/pkg/transaction"
)

type application struct {
	azure.RuntimeClient
}

func NewApplication(runtimeClient azure.RuntimeClient) azure.Application {
	return application{RuntimeClient: runtimeClient}
}

// FindOrCreate looks up the application registration by display name,
// registering a new one if no exact match exists. The listing API has no
// server-side exact match for every key we need, so matching is a linear
// scan over the filtered result.
func (a application) FindOrCreate(tx transaction.Transaction) (*msgraph.Application, bool, error) {
	name := tx.Identity.DisplayName

	existing, found, err := a.FindByName(tx.Ctx, name)
	if err != nil {
		return nil, false, err
	}

	if found {
		tx.Logger.WithFields(map[string]any{
			"application_id":        *existing.AppID,
			"application_object_id": *existing.ID,
		}).Info("application registration already exists")
		return existing, false, nil
	}

	app, err := a.register(tx, name)
	if err != nil {
		return nil, false, err
	}

	tx.Logger.WithFields(map[string]any{
		"application_id":        *app.AppID,
		"application_object_id": *app.ID,
	}).Info("application registration created")
	return app, true, nil
}

func (a application) FindByName(ctx context.Context, name azure.DisplayName) (*msgraph.Application, bool, error) {
	apps, err := a.getAll(ctx, util.FilterByName(name))
	if err != nil {
		return nil, false, fmt.Errorf("listing applications: %w", err)
	}

	if existing := Find(apps, name); existing != nil {
		return existing, true, nil
	}
	return nil, false, nil
}

func (a application) GetByObjectId(ctx context.Context, id azure.ObjectId) (*msgraph.Application, bool, error) {
	app, err := a.GraphClient().Applications().ID(id).Request().Get(ctx)
	if err != nil {
		return nil, false, err
	}
	return app, true, nil
}

// Delete removes the application registration. The registration is fetched
// first; a failed fetch is taken to mean it is already gone, which teardown
// treats as success.
func (a application) Delete(ctx context.Context, id azure.ObjectId) error {
	if _, found, _ := a.GetByObjectId(ctx, id); !found {
		return nil
	}
	if err := a.GraphClient().Applications().ID(id).Request().Delete(ctx); err != nil {
		return fmt.Errorf("deleting application: %w", err)
	}
	return nil
}

func (a application) register(tx transaction.Transaction, name azure.DisplayName) (*msgraph.Application, error) {
	req := &msgraph.Application{
		DisplayName: ptr.String(name),
	}

	app, err := a.GraphClient().Applications().Request().Add(tx.Ctx, req)
	if err != nil {
		return nil, fmt.Errorf("registering application: %w", err)
	}

	return app, nil
}

func (a application) getAll(ctx context.Context, filters ...azure.Filter) ([]msgraph.Application, error) {
	r := a.GraphClient().Applications().Request()
	r.Filter(util.MapFiltersToFilter(filters))
	applications, err := r.GetN(ctx, a.MaxNumberOfPagesToFetch())
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return applications, nil
}

// Find returns the first application with an exact display name match,
// or nil.
func Find(apps []msgraph.Application, name azure.DisplayName) *msgraph.Application {
	for i, app := range apps {
		if app.DisplayName != nil && *app.DisplayName == name {
			return &apps[i]
		}
	}
	return nil
}
