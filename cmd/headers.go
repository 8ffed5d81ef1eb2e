package cmd

import (
	"fmt"

	"github.com/ajuraforce/photo-product-analyzer/internal/config"
	"github.com/ajuraforce/photo-product-analyzer/internal/resilience"
	"github.com/spf13/cobra"
)

func newHeadersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "headers",
		Short: "Write the catalog header row if the sheet is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			writer, err := newCatalog(cfg, resilience.NewExecutor(resilience.DefaultPolicy()))
			if err != nil {
				return err
			}
			if err := writer.EnsureHeaders(cmd.Context()); err != nil {
				return fmt.Errorf("failed to setup sheet headers: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Catalog headers are in place")
			return nil
		},
	}
}
