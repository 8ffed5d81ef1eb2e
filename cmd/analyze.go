package cmd

import (
	"fmt"

	"github.com/ajuraforce/photo-product-analyzer/internal/config"
	"github.com/ajuraforce/photo-product-analyzer/internal/resilience"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newAnalyzeCmd() *cobra.Command {
	var userContext string

	cmd := &cobra.Command{
		Use:   "analyze <image-url>",
		Short: "Run the vision analysis once and print the normalized result",
		Long: `Sends one publicly reachable image URL to the configured vision provider
and prints the normalized analysis as YAML. Useful for checking prompt, model or
vocabulary changes without going through Telegram.`,
		Example: `  # Analyze a stored upload with the default provider
  catalogbot analyze http://localhost:8000/uploads/3f2a.jpg

  # Use Ollama and pass extra context
  VISION_PROVIDER=ollama catalogbot analyze https://example.com/shoe.jpg --context "running shoe"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			analyzer, err := newAnalyzer(cfg, resilience.NewExecutor(resilience.DefaultPolicy()))
			if err != nil {
				return err
			}

			analysis := analyzer.Analyze(cmd.Context(), args[0], userContext)

			out, err := yaml.Marshal(analysis)
			if err != nil {
				return fmt.Errorf("failed to encode analysis: %w", err)
			}
			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return err
			}
			if analysis.Error {
				return fmt.Errorf("analysis degraded: %s", analysis.AnalysisNotes)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userContext, "context", "", "Additional context passed to the model")

	return cmd
}
