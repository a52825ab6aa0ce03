package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/deploykit/azsp/pkg/azure"
	"github.com/deploykit/azsp/pkg/azure/auth"
	"github.com/deploykit/azsp/pkg/azure/client"
	"github.com/deploykit/azsp/pkg/config"
	"github.com/deploykit/azsp/pkg/logger"
)

func main() {
	err := run()

	if err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func run() error {
	root := &cobra.Command{
		Use:           "azsp",
		Short:         "Provision and tear down Azure service principals for automation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	// The config package registers its flags on the shared pflag set.
	root.PersistentFlags().AddFlagSet(flag.CommandLine)

	root.AddCommand(setupCommand())
	root.AddCommand(teardownCommand())
	root.AddCommand(filterSkusCommand())

	return root.ExecuteContext(context.Background())
}

// setup resolves configuration, authenticates interactively and builds the
// directory/authorization client shared by the setup and teardown commands.
func setup(ctx context.Context) (*config.Config, azure.Client, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}

	logger.Setup(cfg.Debug)
	cfg.Print(nil)

	err = cfg.Validate([]string{
		config.AzureTenantId,
		config.AzureSubscriptionId,
		config.ApplicationName,
		config.ApplicationSecretName,
	})
	if err != nil {
		return nil, nil, err
	}

	credential, err := auth.Login(cfg.Azure.TenantId)
	if err != nil {
		return nil, nil, err
	}

	azureClient, err := client.New(ctx, cfg, credential)
	if err != nil {
		return nil, nil, err
	}

	return cfg, azureClient, nil
}
