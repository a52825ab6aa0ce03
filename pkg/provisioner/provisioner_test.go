package provisioner_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/nais/msgraph.go/ptr"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploykit/azsp/pkg/azure"
	"github.com/deploykit/azsp/pkg/azure/fake"
	"github.com/deploykit/azsp/pkg/config"
	"github.com/deploykit/azsp/pkg/provisioner"
	"github.com/deploykit/azsp/pkg/transaction"
)

func testTransaction(t *testing.T) transaction.Transaction {
	t.Helper()

	logger := log.New()
	logger.Out = io.Discard

	cfg := &config.Config{}
	cfg.Azure.TenantId = "tenant-id"
	cfg.Azure.SubscriptionId = "subscription-id"
	cfg.Application.Name = "some-app"
	cfg.Application.SecretName = "some-secret"
	cfg.Application.Roles = []string{"Contributor", "Reader"}

	return transaction.New(context.Background(), cfg, log.NewEntry(logger), "test")
}

func TestSetup(t *testing.T) {
	t.Run("empty tenant creates everything", func(t *testing.T) {
		c := &fake.Client{}
		result, err := provisioner.New(c).Setup(testTransaction(t))
		require.NoError(t, err)

		assert.True(t, result.CreatedApplication)
		assert.True(t, result.CreatedServicePrincipal)
		assert.True(t, result.Secret.Created)
		assert.Equal(t, fake.SecretValue, result.Secret.Value)
		assert.Equal(t, []string{"Contributor", "Reader"}, c.AssignedRoles)
		assert.Equal(t, 2, result.AssignedRoles)

		assert.Equal(t, fake.ClientId, result.Identity.ClientId)
		assert.Equal(t, fake.ObjectId, result.Identity.ObjectId)
		assert.Equal(t, fake.ServicePrincipalId, result.Identity.ServicePrincipalId)
	})

	t.Run("existing resources are reused", func(t *testing.T) {
		c := &fake.Client{
			ExistingApplication:      fake.Application("some-app"),
			ExistingServicePrincipal: fake.ServicePrincipal("some-app"),
			ExistingSecret:           true,
		}
		result, err := provisioner.New(c).Setup(testTransaction(t))
		require.NoError(t, err)

		assert.False(t, result.CreatedApplication)
		assert.False(t, result.CreatedServicePrincipal)
		assert.False(t, result.Secret.Created)
		assert.Equal(t, azure.SecretSentinel, result.Secret.Value)
		assert.Equal(t, 2, result.AssignedRoles)
	})

	t.Run("assignment failure aborts the run", func(t *testing.T) {
		c := &fake.Client{AssignErr: errors.New("boom")}
		result, err := provisioner.New(c).Setup(testTransaction(t))
		assert.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("environment reflects the provisioned identity", func(t *testing.T) {
		c := &fake.Client{}
		result, err := provisioner.New(c).Setup(testTransaction(t))
		require.NoError(t, err)

		env := result.Environment
		assert.Equal(t, fake.ClientId, env.ClientId)
		assert.Equal(t, fake.SecretValue, env.ClientSecret)
		assert.Equal(t, "tenant-id", env.TenantId)
		assert.Equal(t, "subscription-id", env.SubscriptionId)

		lines := env.ExportLines()
		require.Len(t, lines, 4)
		assert.Equal(t, "export AZURE_CLIENT_ID=fake-client-id", lines[0])
		assert.Equal(t, "export AZURE_CLIENT_SECRET=fake-secret-value", lines[1])
		assert.Equal(t, "export AZURE_TENANT_ID=tenant-id", lines[2])
		assert.Equal(t, "export AZURE_SUBSCRIPTION_ID=subscription-id", lines[3])
	})
}

func TestTeardown(t *testing.T) {
	t.Run("live principal is targeted by explicit object id", func(t *testing.T) {
		c := &fake.Client{
			ExistingApplication:      fake.Application("some-app"),
			ExistingServicePrincipal: fake.ServicePrincipal("some-app"),
			RemovalOutcomes: []azure.RemovalResult{
				{Found: 2, Removed: 2},
				{Found: 1, Removed: 1},
			},
		}
		result, err := provisioner.New(c).Teardown(testTransaction(t))
		require.NoError(t, err)

		require.Len(t, c.RemovalTargets, 2)
		for _, target := range c.RemovalTargets {
			assert.False(t, target.ByName())
			assert.Equal(t, []azure.ServicePrincipalId{fake.ServicePrincipalId}, target.ServicePrincipalIds)
		}
		assert.Equal(t, azure.RemovalResult{Found: 3, Removed: 3}, result.Assignments)
		assert.True(t, result.ServicePrincipalRemoved)
		assert.True(t, result.ApplicationRemoved)
		assert.Equal(t, []azure.ServicePrincipalId{fake.ServicePrincipalId}, c.DeletedSps)
		assert.Equal(t, []azure.ObjectId{fake.ObjectId}, c.DeletedApps)
	})

	t.Run("missing application falls back to name-based removal", func(t *testing.T) {
		c := &fake.Client{}
		result, err := provisioner.New(c).Teardown(testTransaction(t))
		require.NoError(t, err)

		require.Len(t, c.RemovalTargets, 2)
		for _, target := range c.RemovalTargets {
			assert.True(t, target.ByName())
			assert.Equal(t, "some-app", target.DisplayName)
		}
		assert.False(t, result.ServicePrincipalRemoved)
		assert.False(t, result.ApplicationRemoved)
		assert.Empty(t, c.DeletedSps)
		assert.Empty(t, c.DeletedApps)
	})

	t.Run("application without live principal is still deleted", func(t *testing.T) {
		c := &fake.Client{ExistingApplication: fake.Application("some-app")}
		result, err := provisioner.New(c).Teardown(testTransaction(t))
		require.NoError(t, err)

		require.Len(t, c.RemovalTargets, 2)
		assert.True(t, c.RemovalTargets[0].ByName())
		assert.False(t, result.ServicePrincipalRemoved)
		assert.True(t, result.ApplicationRemoved)
	})

	t.Run("removal failures do not block later steps", func(t *testing.T) {
		c := &fake.Client{
			ExistingApplication:      fake.Application("some-app"),
			ExistingServicePrincipal: fake.ServicePrincipal("some-app"),
			RemoveAssignmentsErr:     errors.New("transient"),
		}
		result, err := provisioner.New(c).Teardown(testTransaction(t))
		require.NoError(t, err)

		assert.Equal(t, azure.RemovalResult{}, result.Assignments)
		assert.True(t, result.ServicePrincipalRemoved)
		assert.True(t, result.ApplicationRemoved)
	})

	t.Run("principal deletion failure does not block application removal", func(t *testing.T) {
		c := &fake.Client{
			ExistingApplication:      fake.Application("some-app"),
			ExistingServicePrincipal: fake.ServicePrincipal("some-app"),
			DeletePrincipalErr:       errors.New("locked"),
		}
		result, err := provisioner.New(c).Teardown(testTransaction(t))
		require.NoError(t, err)

		assert.False(t, result.ServicePrincipalRemoved)
		assert.True(t, result.ApplicationRemoved)
	})
}

func TestTransactionWith(t *testing.T) {
	tx := testTransaction(t)
	app := fake.Application("some-app")
	app.AppID = ptr.String("other-client-id")

	updated := tx.WithApplication(*app)
	assert.Equal(t, "other-client-id", updated.Identity.ClientId)
	assert.Empty(t, tx.Identity.ClientId, "original transaction is unchanged")
}
