package normalize

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ajuraforce/photo-product-analyzer/internal/config"
)

func newTestNormalizer() *Normalizer {
	return New(config.DefaultVocabulary())
}

func TestNormalizeVocabulary(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantType  string
		wantColor string
		repaired  int
	}{
		{
			name:      "valid values kept",
			raw:       `{"type":"sneakers","color":"navy"}`,
			wantType:  "sneakers",
			wantColor: "navy",
		},
		{
			name:      "unknown type replaced",
			raw:       `{"type":"sneaker","color":"black"}`,
			wantType:  "other",
			wantColor: "black",
			repaired:  1,
		},
		{
			name:      "unknown color replaced",
			raw:       `{"type":"dress","color":"turquoise"}`,
			wantType:  "dress",
			wantColor: "multicolor",
			repaired:  1,
		},
		{
			name:      "case folded into vocabulary",
			raw:       `{"type":"T-Shirt","color":"Red"}`,
			wantType:  "t-shirt",
			wantColor: "red",
		},
		{
			name:      "non-string values replaced",
			raw:       `{"type":42,"color":["red"]}`,
			wantType:  "other",
			wantColor: "multicolor",
		},
		{
			name:      "missing fields defaulted",
			raw:       `{}`,
			wantType:  "other",
			wantColor: "multicolor",
		},
	}

	n := newTestNormalizer()
	vocab := config.DefaultVocabulary()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := n.Normalize(tt.raw)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if a.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", a.Type, tt.wantType)
			}
			if a.Color != tt.wantColor {
				t.Errorf("Color = %q, want %q", a.Color, tt.wantColor)
			}
			if !vocab.HasType(a.Type) || !vocab.HasColor(a.Color) {
				t.Errorf("output escaped vocabulary: %q/%q", a.Type, a.Color)
			}
			if tt.repaired > 0 && len(a.Repaired) != tt.repaired {
				t.Errorf("Repaired = %v, want %d entries", a.Repaired, tt.repaired)
			}
		})
	}
}

func TestNormalizeConfidenceClamp(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"in range", `85`, 85},
		{"negative", `-12`, 0},
		{"above max", `150`, 100},
		{"fractional", `72.9`, 72},
		{"numeric string", `"64"`, 64},
		{"text", `"high"`, 0},
		{"null", `null`, 0},
		{"bool", `true`, 0},
		{"object", `{"v":1}`, 0},
	}

	n := newTestNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"confidence_score":` + tt.value + `,"brand_confidence":` + tt.value + `}`
			a, err := n.Normalize(raw)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if a.ConfidenceScore != tt.want {
				t.Errorf("ConfidenceScore = %d, want %d", a.ConfidenceScore, tt.want)
			}
			if a.BrandConfidence != tt.want {
				t.Errorf("BrandConfidence = %d, want %d", a.BrandConfidence, tt.want)
			}
		})
	}
}

func TestNormalizeMalformed(t *testing.T) {
	inputs := map[string]string{
		"no braces":       "I could not identify the product.",
		"empty":           "",
		"reversed braces": "} nothing {",
		"broken json":     `{"title": "Shirt", }`,
		"trailing object": `{"title":"A","type":"shirt"} and also {"x":1}`,
	}

	n := newTestNormalizer()
	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := n.Normalize(raw)
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestNormalizeToleratesProse(t *testing.T) {
	raw := "Sure! Here is the analysis:\n```json\n{\"title\":\"Denim Jacket\",\"type\":\"jacket\",\"color\":\"blue\",\"brand\":\" Levi's \"}\n```\nLet me know if you need more."

	a, err := newTestNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if a.Title != "Denim Jacket" || a.Type != "jacket" || a.Color != "blue" {
		t.Errorf("unexpected analysis: %+v", a)
	}
	if a.Brand != "Levi's" {
		t.Errorf("Brand = %q, want trimmed", a.Brand)
	}
}

func TestNormalizeTruncation(t *testing.T) {
	longTitle := strings.Repeat("t", 75)
	longDesc := strings.Repeat("é", 300)

	a, err := newTestNormalizer().Normalize(`{"title":"` + longTitle + `","description":"` + longDesc + `"}`)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got := len([]rune(a.Title)); got != MaxTitleLength {
		t.Errorf("title length = %d, want %d", got, MaxTitleLength)
	}
	if got := len([]rune(a.Description)); got != MaxDescriptionLength {
		t.Errorf("description length = %d, want %d", got, MaxDescriptionLength)
	}
	if strings.HasSuffix(a.Title, "...") {
		t.Error("truncation must not add an ellipsis")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	a, err := newTestNormalizer().Normalize(`{"secondary_colors":"red","style_features":["zip", 3, ""]}`)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if a.Title != DefaultTitle || a.Description != DefaultDescription || a.Brand != DefaultBrand {
		t.Errorf("required defaults not applied: %+v", a)
	}
	if a.Material != DefaultMaterial || a.Condition != DefaultCondition || a.AnalysisNotes != "" {
		t.Errorf("optional defaults not applied: %+v", a)
	}
	if a.SecondaryColors == nil || len(a.SecondaryColors) != 0 {
		t.Errorf("SecondaryColors = %#v, want empty slice", a.SecondaryColors)
	}
	if len(a.StyleFeatures) != 2 || a.StyleFeatures[0] != "zip" || a.StyleFeatures[1] != "3" {
		t.Errorf("StyleFeatures = %#v", a.StyleFeatures)
	}
}

func TestNormalizeConfiguredVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	if err := os.WriteFile(path, []byte("product_types: [T-Shirt, other]\ncolors: [Navy, multicolor]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	vocab, err := config.LoadVocabulary(path)
	if err != nil {
		t.Fatalf("LoadVocabulary() error = %v", err)
	}

	a, err := New(vocab).Normalize(`{"type":"T-Shirt","color":"Navy"}`)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if a.Type != "t-shirt" || a.Color != "navy" {
		t.Errorf("Type/Color = %q/%q, want t-shirt/navy", a.Type, a.Color)
	}
	if len(a.Repaired) != 0 {
		t.Errorf("Repaired = %v, want none", a.Repaired)
	}
}
