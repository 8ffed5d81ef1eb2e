package cmd

import (
	"fmt"

	"github.com/ajuraforce/photo-product-analyzer/internal/config"
	"github.com/ajuraforce/photo-product-analyzer/internal/resilience"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the number of cataloged products",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			writer, err := newCatalog(cfg, resilience.NewExecutor(resilience.DefaultPolicy()))
			if err != nil {
				return err
			}
			count, err := writer.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Products cataloged: %d\n", count)
			return nil
		},
	}
}
