package cataloging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ajuraforce/photo-product-analyzer/internal/config"
	"github.com/ajuraforce/photo-product-analyzer/internal/gemini"
	"github.com/ajuraforce/photo-product-analyzer/internal/models"
	"github.com/ajuraforce/photo-product-analyzer/internal/normalize"
	"github.com/ajuraforce/photo-product-analyzer/internal/ollama"
	"github.com/ajuraforce/photo-product-analyzer/internal/openai"
	"github.com/ajuraforce/photo-product-analyzer/internal/providers"
	"github.com/ajuraforce/photo-product-analyzer/internal/resilience"
)

// Options tune a single vision request
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Service builds the product prompt, calls the vision provider and normalizes the answer
type Service struct {
	provider   providers.Provider
	normalizer *normalize.Normalizer
	vocab      config.Vocabulary
	executor   *resilience.Executor
	opts       Options
}

// NewService wires a Service around an already constructed provider
func NewService(provider providers.Provider, vocab config.Vocabulary, executor *resilience.Executor, opts Options) *Service {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultPolicy())
	}
	return &Service{
		provider:   provider,
		normalizer: normalize.New(vocab),
		vocab:      vocab,
		executor:   executor,
		opts:       opts,
	}
}

// NewProvider returns the provider selected by cfg.VisionProvider
func NewProvider(cfg config.Config) (providers.Provider, error) {
	httpClient := &http.Client{Timeout: cfg.VisionTimeout}
	switch cfg.VisionProvider {
	case "openai":
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, httpClient), nil
	case "ollama":
		return ollama.New(cfg.OllamaURL, httpClient), nil
	case "gemini":
		return gemini.New(cfg.GeminiAPIKey, httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.VisionProvider)
	}
}

// Analyze runs the vision model on imageURL. It never fails: transport or parse
// problems yield a degraded Analysis with Error set.
func (s *Service) Analyze(ctx context.Context, imageURL, userContext string) models.Analysis {
	start := time.Now()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	request := providers.Config{
		Model:       s.opts.Model,
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
		Prompt:      s.BuildPrompt(userContext),
		ImageURL:    imageURL,
	}

	var result providers.Result
	err := s.executor.Execute(ctx, "vision", func(ctx context.Context) error {
		var err error
		result, err = s.provider.ExtractText(ctx, request)
		return err
	}, nil)
	if err != nil {
		slog.Error("AI vision analysis failed", "image_url", imageURL, "err", err)
		return s.fallback(imageURL, err, time.Since(start))
	}

	analysis, err := s.normalizer.Normalize(result.Text)
	if err != nil {
		slog.Error("Failed to parse AI response", "err", err, "raw", result.Text)
		return s.fallback(imageURL, err, time.Since(start))
	}

	analysis.ProcessingTime = time.Since(start).Round(10 * time.Millisecond)
	analysis.ModelUsed = s.opts.Model
	analysis.ImageURL = imageURL
	analysis.Usage = result.Usage

	slog.Info("AI analysis completed", "processing_time", analysis.ProcessingTime, "model", s.opts.Model, "tokens", result.Usage.TotalTokens)
	return analysis
}

// fallback is the deterministic degraded result used when the model is unusable
func (s *Service) fallback(imageURL string, cause error, took time.Duration) models.Analysis {
	notes := "AI processing failed: " + cause.Error()
	if resilience.IsCircuitOpen(cause) {
		notes = "AI processing skipped: vision service is failing repeatedly, retry in a minute"
	}
	return models.Analysis{
		Title:           "Product (Analysis Failed)",
		Description:     "AI analysis unavailable - manual review required",
		Type:            config.FallbackType,
		Color:           config.FallbackColor,
		SecondaryColors: []string{},
		Brand:           normalize.DefaultBrand,
		Material:        normalize.DefaultMaterial,
		StyleFeatures:   []string{},
		Condition:       normalize.DefaultCondition,
		AnalysisNotes:   notes,
		Error:           true,
		ProcessingTime:  took.Round(10 * time.Millisecond),
		ModelUsed:       s.opts.Model,
		ImageURL:        imageURL,
	}
}

// BuildPrompt embeds both closed vocabularies and the required JSON schema
func (s *Service) BuildPrompt(userContext string) string {
	contextText := ""
	if strings.TrimSpace(userContext) != "" {
		contextText = "\n\nAdditional context: " + strings.TrimSpace(userContext)
	}

	return fmt.Sprintf(`You are an expert product cataloger. Analyze this product image and provide detailed information in JSON format.

STRICT VOCABULARY REQUIREMENTS:
- Type: MUST be exactly one of: %s
- Color: MUST be exactly one of: %s

REQUIRED JSON RESPONSE:
{
  "title": "Concise product title (max %d characters)",
  "description": "Detailed product description focusing on visible features (max %d characters)",
  "type": "Product type from the vocabulary list above",
  "color": "Primary/dominant color from the vocabulary list above",
  "secondary_colors": ["additional", "colors", "if", "any"],
  "brand": "Brand name if clearly visible, otherwise 'unknown'",
  "material": "Visible material type (cotton, leather, denim, etc.) or 'unknown'",
  "style_features": ["key", "style", "elements", "visible"],
  "condition": "new/used/vintage assessment",
  "confidence_score": 85,
  "brand_confidence": 45,
  "analysis_notes": "Any important details or uncertainties"
}

ANALYSIS GUIDELINES:
- Focus on clearly visible features only
- Use conservative confidence scoring (0-100)
- If the brand is unclear or brand confidence is below 70, use 'unknown'
- Be specific about style features (collar type, fit, closures, etc.)
- Note any damage, wear, or quality indicators%s

Provide ONLY the JSON response, no additional text.`,
		strings.Join(s.vocab.ProductTypes, ", "),
		strings.Join(s.vocab.Colors, ", "),
		normalize.MaxTitleLength,
		normalize.MaxDescriptionLength,
		contextText,
	)
}
