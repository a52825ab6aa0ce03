package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploykit/azsp/pkg/provisioner"
	"github.com/deploykit/azsp/pkg/transaction"
)

func teardownCommand() *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Remove the role assignments, service principal and application registration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, azureClient, err := setup(ctx)
			if err != nil {
				return err
			}

			if !assumeYes {
				confirmed, err := confirm(cmd, cfg.Application.Name)
				if err != nil {
					return err
				}
				if !confirmed {
					log.Info("teardown cancelled")
					return nil
				}
			}

			tx := transaction.New(ctx, cfg, log.WithField("correlation_id", uuid.New().String()), "teardown")

			result, err := provisioner.New(azureClient).Teardown(tx)
			if err != nil {
				return err
			}

			log.WithFields(log.Fields{
				"assignments_found":         result.Assignments.Found,
				"assignments_removed":       result.Assignments.Removed,
				"service_principal_removed": result.ServicePrincipalRemoved,
				"application_removed":       result.ApplicationRemoved,
			}).Info("teardown complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&assumeYes, "yes", false, "Skip the confirmation prompt")
	return cmd
}

func confirm(cmd *cobra.Command, name string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "This will delete the application '%s', its service principal and all of its role assignments.\n", name)
	fmt.Fprint(cmd.OutOrStdout(), "Continue? (yes/no): ")

	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y", nil
}
