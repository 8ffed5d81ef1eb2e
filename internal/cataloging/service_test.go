package cataloging

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ajuraforce/photo-product-analyzer/internal/config"
	"github.com/ajuraforce/photo-product-analyzer/internal/models"
	"github.com/ajuraforce/photo-product-analyzer/internal/providers"
	"github.com/ajuraforce/photo-product-analyzer/internal/resilience"
)

type stubProvider struct {
	text  string
	err   error
	delay time.Duration
	calls int
	last  providers.Config
}

func (p *stubProvider) ExtractText(ctx context.Context, cfg providers.Config) (providers.Result, error) {
	p.calls++
	p.last = cfg
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return providers.Result{}, ctx.Err()
		}
	}
	if p.err != nil {
		return providers.Result{}, p.err
	}
	return providers.Result{Text: p.text, Usage: models.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}, nil
}

func newTestService(p providers.Provider, timeout time.Duration) *Service {
	exec := resilience.NewExecutor(resilience.Policy{MaxAttempts: 1, InitialBackoff: time.Millisecond})
	return NewService(p, config.DefaultVocabulary(), exec, Options{
		Model:       "gpt-4o",
		Temperature: 0.1,
		MaxTokens:   500,
		Timeout:     timeout,
	})
}

func TestAnalyzeNormalizesModelOutput(t *testing.T) {
	p := &stubProvider{text: "Here you go: {\"title\":\"Red Hoodie\",\"type\":\"hoodie\",\"color\":\"crimson\",\"confidence_score\":120}"}
	svc := newTestService(p, 0)

	a := svc.Analyze(context.Background(), "http://media/uploads/a.jpg", "")

	if a.Error {
		t.Fatalf("unexpected degraded analysis: %s", a.AnalysisNotes)
	}
	if a.Title != "Red Hoodie" || a.Type != "hoodie" {
		t.Errorf("unexpected analysis: %+v", a)
	}
	if a.Color != config.FallbackColor {
		t.Errorf("Color = %q, want fallback", a.Color)
	}
	if a.ConfidenceScore != 100 {
		t.Errorf("ConfidenceScore = %d, want 100", a.ConfidenceScore)
	}
	if a.ModelUsed != "gpt-4o" || a.ImageURL != "http://media/uploads/a.jpg" || a.Usage.TotalTokens != 15 {
		t.Errorf("metadata not populated: %+v", a)
	}
	if p.last.MaxTokens != 500 || p.last.Temperature != 0.1 || p.last.ImageURL == "" {
		t.Errorf("request not configured: %+v", p.last)
	}
}

func TestAnalyzeFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		provider *stubProvider
		timeout  time.Duration
		reason   string
	}{
		{
			name:     "transport failure",
			provider: &stubProvider{err: errors.New("connection refused")},
			reason:   "connection refused",
		},
		{
			name:     "non-200",
			provider: &stubProvider{err: &providers.HTTPStatusError{Provider: "openai", StatusCode: 401, Body: "bad key"}},
			reason:   "status 401",
		},
		{
			name:     "malformed response",
			provider: &stubProvider{text: "I cannot see a product here."},
			reason:   "malformed model response",
		},
		{
			name:     "timeout",
			provider: &stubProvider{text: "{}", delay: time.Second},
			timeout:  20 * time.Millisecond,
			reason:   "deadline exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestService(tt.provider, tt.timeout).Analyze(context.Background(), "http://media/uploads/b.jpg", "")

			if !a.Error {
				t.Fatal("expected degraded analysis")
			}
			if a.Type != "other" || a.Color != "multicolor" || a.ConfidenceScore != 0 {
				t.Errorf("fallback not deterministic: %+v", a)
			}
			if !strings.Contains(a.AnalysisNotes, tt.reason) {
				t.Errorf("AnalysisNotes = %q, want it to mention %q", a.AnalysisNotes, tt.reason)
			}
		})
	}
}

func TestAnalyzeOpenCircuit(t *testing.T) {
	exec := resilience.NewExecutor(resilience.Policy{
		MaxAttempts:         1,
		InitialBackoff:      time.Millisecond,
		BreakerEnabled:      true,
		BreakerMinRequests:  1,
		BreakerFailureRatio: 1,
		BreakerOpenTimeout:  time.Minute,
	})
	p := &stubProvider{err: errors.New("connection refused")}
	svc := NewService(p, config.DefaultVocabulary(), exec, Options{Model: "gpt-4o"})

	first := svc.Analyze(context.Background(), "http://media/uploads/c.jpg", "")
	if !strings.Contains(first.AnalysisNotes, "connection refused") {
		t.Fatalf("first failure notes = %q", first.AnalysisNotes)
	}

	second := svc.Analyze(context.Background(), "http://media/uploads/c.jpg", "")
	if !second.Error || !strings.Contains(second.AnalysisNotes, "failing repeatedly") {
		t.Errorf("open circuit notes = %q", second.AnalysisNotes)
	}
	if p.calls != 1 {
		t.Errorf("provider called %d times, want 1 while the circuit is open", p.calls)
	}
}

func TestBuildPrompt(t *testing.T) {
	svc := newTestService(&stubProvider{}, 0)
	vocab := config.DefaultVocabulary()

	prompt := svc.BuildPrompt("")
	if !strings.Contains(prompt, strings.Join(vocab.ProductTypes, ", ")) {
		t.Error("prompt must embed the product type vocabulary verbatim")
	}
	if !strings.Contains(prompt, strings.Join(vocab.Colors, ", ")) {
		t.Error("prompt must embed the color vocabulary verbatim")
	}
	if strings.Contains(prompt, "Additional context") {
		t.Error("empty context must not be rendered")
	}
	if !strings.HasSuffix(prompt, "Provide ONLY the JSON response, no additional text.") {
		t.Error("prompt must end with the JSON-only instruction")
	}

	withContext := svc.BuildPrompt("  vintage 90s windbreaker ")
	if !strings.Contains(withContext, "Additional context: vintage 90s windbreaker") {
		t.Error("context not embedded")
	}
}
