package gemini

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ajuraforce/photo-product-analyzer/internal/models"
	"github.com/ajuraforce/photo-product-analyzer/internal/providers"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini is a provider for Google Gemini
type Gemini struct {
	apiKey     string
	httpClient *http.Client
}

// New returns a new Gemini provider
func New(apiKey string, httpClient *http.Client) *Gemini {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Gemini{apiKey: apiKey, httpClient: httpClient}
}

// ExtractText sends the prompt together with the inline image to Gemini
func (g *Gemini) ExtractText(ctx context.Context, config providers.Config) (providers.Result, error) {
	if g.apiKey == "" {
		return providers.Result{}, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	parts := []genai.Part{genai.Text(config.Prompt)}
	if config.ImageURL != "" {
		imageData, format, err := providers.FetchImage(ctx, g.httpClient, config.ImageURL)
		if err != nil {
			return providers.Result{}, err
		}
		parts = append(parts, genai.ImageData(format, imageData))
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return providers.Result{}, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))
	if config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(config.MaxTokens))
	}
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return providers.Result{}, fmt.Errorf("failed to generate content: %w", err)
	}

	return toResult(resp)
}

// toResult takes the first text part of the first candidate
func toResult(resp *genai.GenerateContentResponse) (providers.Result, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return providers.Result{}, fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return providers.Result{}, fmt.Errorf("empty content returned from Gemini")
	}

	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return providers.Result{}, fmt.Errorf("unexpected response format from Gemini")
	}

	result := providers.Result{Text: string(txt)}
	if resp.UsageMetadata != nil {
		result.Usage = models.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return result, nil
}
