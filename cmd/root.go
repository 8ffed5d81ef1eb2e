package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "catalogbot",
		Short: "Telegram bot that turns product photos into catalog rows",
		Long: `Catalogbot receives product photos over Telegram, analyzes them with a
vision-capable LLM (OpenAI, Ollama or Gemini), asks the operator for pricing and
appends one row per product to a Google Sheet or a local parquet journal.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			setupLogging(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHeadersCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newStatsCmd())

	return cmd
}

func setupLogging(verbose bool) {
	logLevel := parseLevel(os.Getenv("LOG_LEVEL"))
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
