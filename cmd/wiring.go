package cmd

import (
	"fmt"

	"github.com/ajuraforce/photo-product-analyzer/internal/catalog"
	"github.com/ajuraforce/photo-product-analyzer/internal/cataloging"
	"github.com/ajuraforce/photo-product-analyzer/internal/config"
	"github.com/ajuraforce/photo-product-analyzer/internal/resilience"
)

func newAnalyzer(cfg config.Config, executor *resilience.Executor) (*cataloging.Service, error) {
	provider, err := cataloging.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision provider: %w", err)
	}
	return cataloging.NewService(provider, cfg.Vocabulary, executor, cataloging.Options{
		Model:       cfg.VisionModel(),
		Temperature: cfg.VisionTemperature,
		MaxTokens:   cfg.VisionMaxTokens,
		Timeout:     cfg.VisionTimeout,
	}), nil
}

func newCatalog(cfg config.Config, executor *resilience.Executor) (catalog.Writer, error) {
	writer, err := catalog.New(cfg, executor)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog writer: %w", err)
	}
	return writer, nil
}
