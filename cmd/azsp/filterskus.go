package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploykit/azsp/pkg/skufilter"
)

func filterSkusCommand() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "filter-skus <location>",
		Short: "Filter a SKU listing from stdin down to the SKUs fully available in a location",
		Long: "Reads the JSON array produced by 'az vm list-skus' from standard input and writes " +
			"a timestamped JSON file containing only the SKUs that are not restricted for the " +
			"subscription in the given location. Zone-level restrictions are retained.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := skufilter.Run(cmd.InOrStdin(), args[0], outputDir)
			if err != nil {
				return err
			}

			log.WithField("path", path).Info("filtered SKU listing written")
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "output", "Directory the filtered listing is written to")
	return cmd
}
