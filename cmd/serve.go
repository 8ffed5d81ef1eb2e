package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ajuraforce/photo-product-analyzer/internal/bot"
	"github.com/ajuraforce/photo-product-analyzer/internal/config"
	"github.com/ajuraforce/photo-product-analyzer/internal/handlers"
	"github.com/ajuraforce/photo-product-analyzer/internal/images"
	"github.com/ajuraforce/photo-product-analyzer/internal/metrics"
	"github.com/ajuraforce/photo-product-analyzer/internal/resilience"
	"github.com/ajuraforce/photo-product-analyzer/internal/storage"
	"github.com/ajuraforce/photo-product-analyzer/internal/telegram"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port    string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the media server and the Telegram bot",
		Long: `Starts the HTTP server that exposes stored product photos to the vision
model, then long-polls Telegram for product photos and operator commands.`,
		Example: `  # Start with settings from .env
  catalogbot serve

  # Serve media on a custom port
  catalogbot serve --port 9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.StaticServerPort = port
			}
			ctx := cmd.Context()

			m := metrics.New()
			executor := resilience.NewExecutor(resilience.DefaultPolicy())

			analyzer, err := newAnalyzer(cfg, executor)
			if err != nil {
				return err
			}
			writer, err := newCatalog(cfg, executor)
			if err != nil {
				return err
			}
			if err := writer.EnsureHeaders(ctx); err != nil {
				slog.Warn("Failed to setup catalog headers", "err", err)
			}

			client, err := telegram.NewClient(cfg.BotToken)
			if err != nil {
				return err
			}
			intake, err := images.NewIntake(client, cfg.UploadPath, cfg.DomainURL, cfg.MaxFileSize, cfg.AllowedExtensions)
			if err != nil {
				return err
			}

			catalogBot := bot.New(storage.New(), intake, analyzer, writer, client, m, bot.Options{
				PhotoTimeout: cfg.PhotoTimeout,
				Provider:     cfg.VisionProvider,
				Model:        cfg.VisionModel(),
				Version:      cmd.Root().Version,
			})

			addr := ":" + cfg.StaticServerPort
			server := &http.Server{
				Addr:              addr,
				Handler:           handlers.New(cfg.UploadPath, m).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Media server available", "addr", addr, "url", cfg.DomainURL)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			dispatcher := telegram.NewDispatcher(catalogBot, client, workers, cfg.PhotoRatePerMinute)
			dispatcher.Start(ctx)

			pollCtx, stopPolling := context.WithCancel(ctx)
			defer stopPolling()
			polling := make(chan struct{})
			go func() {
				defer close(polling)
				client.Run(pollCtx, dispatcher)
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-ctx.Done():
				slog.Info("Shutting down...")
			case err = <-serverErr:
				slog.Error("Media server failed", "err", err)
			}

			stopPolling()
			<-polling
			dispatcher.Close()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
				slog.Error("Server shutdown failed", "err", shutdownErr)
				return shutdownErr
			}
			slog.Info("Server stopped")
			return err
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port for the media server (overrides STATIC_SERVER_PORT)")
	cmd.Flags().IntVar(&workers, "workers", 8, "Number of message workers")

	return cmd
}
