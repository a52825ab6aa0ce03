package main

import (
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploykit/azsp/pkg/azure"
	"github.com/deploykit/azsp/pkg/provisioner"
	"github.com/deploykit/azsp/pkg/transaction"
)

func setupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Provision the application registration, service principal, client secret and role assignments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, azureClient, err := setup(ctx)
			if err != nil {
				return err
			}

			tx := transaction.New(ctx, cfg, log.WithField("correlation_id", uuid.New().String()), "setup")

			result, err := provisioner.New(azureClient).Setup(tx)
			if err != nil {
				return err
			}

			log.WithFields(log.Fields{
				"client_id":                 result.Identity.ClientId,
				"object_id":                 result.Identity.ObjectId,
				"service_principal_id":      result.Identity.ServicePrincipalId,
				"created_application":       result.CreatedApplication,
				"created_service_principal": result.CreatedServicePrincipal,
				"created_secret":            result.Secret.Created,
				"assigned_roles":            result.AssignedRoles,
			}).Info("setup complete")

			if result.Secret.Value == azure.SecretSentinel {
				log.Warn("application already has a client secret; existing secret values are not retrievable")
			}

			for _, line := range result.Environment.ExportLines() {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}
