package client

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	msgraph "github.com/nais/msgraph.go/v1.0"
	"golang.org/x/oauth2"

	"github.com/deploykit/azsp/pkg/azure"
	"github.com/deploykit/azsp/pkg/azure/auth"
	"github.com/deploykit/azsp/pkg/azure/client/application"
	"github.com/deploykit/azsp/pkg/azure/client/passwordcredential"
	"github.com/deploykit/azsp/pkg/azure/client/roleassignment"
	"github.com/deploykit/azsp/pkg/azure/client/serviceprincipal"
	"github.com/deploykit/azsp/pkg/config"
)

const MaxNumberOfPagesToFetch = 1000

type client struct {
	config             *config.Config
	graphClient        *msgraph.GraphServiceRequestBuilder
	roleDefinitions    azure.RoleDefinitionsAPI
	roleAssignmentsAPI azure.RoleAssignmentsAPI
}

func New(ctx context.Context, cfg *config.Config, credential azcore.TokenCredential) (azure.Client, error) {
	ts := auth.NewCredentialTokenSource(ctx, credential)
	graphClient := msgraph.NewClient(oauth2.NewClient(ctx, ts))

	roleDefinitions, err := armauthorization.NewRoleDefinitionsClient(credential, nil)
	if err != nil {
		return nil, fmt.Errorf("instantiating role definitions client: %w", err)
	}

	roleAssignments, err := armauthorization.NewRoleAssignmentsClient(cfg.Azure.SubscriptionId, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("instantiating role assignments client: %w", err)
	}

	return client{
		config:             cfg,
		graphClient:        graphClient,
		roleDefinitions:    roleDefinitions,
		roleAssignmentsAPI: roleAssignments,
	}, nil
}

func (c client) Config() *config.Config {
	return c.config
}

func (c client) GraphClient() *msgraph.GraphServiceRequestBuilder {
	return c.graphClient
}

func (c client) RoleDefinitionsAPI() azure.RoleDefinitionsAPI {
	return c.roleDefinitions
}

func (c client) RoleAssignmentsAPI() azure.RoleAssignmentsAPI {
	return c.roleAssignmentsAPI
}

func (c client) MaxNumberOfPagesToFetch() int {
	return MaxNumberOfPagesToFetch
}

func (c client) Application() azure.Application {
	return application.NewApplication(c)
}

func (c client) ServicePrincipal() azure.ServicePrincipal {
	return serviceprincipal.NewServicePrincipal(c)
}

func (c client) PasswordCredential() azure.PasswordCredential {
	return passwordcredential.NewPasswordCredential(c)
}

func (c client) RoleAssignments() azure.RoleAssignments {
	return roleassignment.NewRoleAssignments(c, serviceprincipal.NewServicePrincipal(c))
}
