package providers

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/ajuraforce/photo-product-analyzer/internal/models"
)

// Config represents the configuration for a single vision request
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Prompt      string
	ImageURL    string
}

// Result is the raw model output plus token accounting
type Result struct {
	Text  string
	Usage models.Usage
}

// Provider defines the interface for a vision-capable LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (Result, error)
}

// HTTPStatusError is returned when a provider answers with a non-200 status
type HTTPStatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s API returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, body)
}

// HTTPStatus exposes the status code to retry classification
func (e *HTTPStatusError) HTTPStatus() int {
	return e.StatusCode
}

// FetchImage downloads the image behind imageURL for providers that need inline bytes.
// The returned format is a short subtype such as "jpeg" or "png".
func FetchImage(ctx context.Context, client *http.Client, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}

	return data, imageFormat(resp.Header.Get("Content-Type"), imageURL), nil
}

func imageFormat(contentType, imageURL string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && strings.HasPrefix(mediaType, "image/") {
		return strings.TrimPrefix(mediaType, "image/")
	}
	switch strings.ToLower(path.Ext(imageURL)) {
	case ".png":
		return "png"
	case ".webp":
		return "webp"
	default:
		return "jpeg"
	}
}
