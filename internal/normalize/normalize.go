// Package normalize turns untrusted vision-model text into a complete,
// vocabulary-safe models.Analysis.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/ajuraforce/photo-product-analyzer/internal/config"
	"github.com/ajuraforce/photo-product-analyzer/internal/models"
)

const (
	MaxTitleLength       = 60
	MaxDescriptionLength = 250

	DefaultTitle       = "Product"
	DefaultDescription = "Product analysis available"
	DefaultBrand       = "unknown"
	DefaultMaterial    = "unknown"
	DefaultCondition   = "unknown"
)

// ErrMalformedResponse is returned when no JSON object can be recovered from the model output
var ErrMalformedResponse = errors.New("malformed model response")

// Normalizer validates and repairs model output against a closed vocabulary
type Normalizer struct {
	vocab config.Vocabulary
}

// New returns a Normalizer bound to vocab
func New(vocab config.Vocabulary) *Normalizer {
	return &Normalizer{vocab: vocab}
}

// Normalize parses rawText and returns a fully populated Analysis. It fails only
// when no JSON object can be located or the located text is not a JSON object.
func (n *Normalizer) Normalize(rawText string) (models.Analysis, error) {
	fields, err := extractObject(rawText)
	if err != nil {
		return models.Analysis{}, err
	}

	a := models.Analysis{
		Title:           truncate(stringField(fields, "title", DefaultTitle), MaxTitleLength),
		Description:     truncate(stringField(fields, "description", DefaultDescription), MaxDescriptionLength),
		Brand:           stringField(fields, "brand", DefaultBrand),
		Material:        stringField(fields, "material", DefaultMaterial),
		Condition:       stringField(fields, "condition", DefaultCondition),
		AnalysisNotes:   stringField(fields, "analysis_notes", ""),
		SecondaryColors: listField(fields, "secondary_colors"),
		StyleFeatures:   listField(fields, "style_features"),
		ConfidenceScore: scoreField(fields, "confidence_score"),
		BrandConfidence: scoreField(fields, "brand_confidence"),
	}

	rawType := stringField(fields, "type", config.FallbackType)
	a.Type = strings.ToLower(rawType)
	if !n.vocab.HasType(a.Type) {
		slog.Warn("Invalid product type, using fallback", "type", rawType, "fallback", config.FallbackType)
		a.Type = config.FallbackType
		a.Repaired = append(a.Repaired, "type")
	}

	rawColor := stringField(fields, "color", config.FallbackColor)
	a.Color = strings.ToLower(rawColor)
	if !n.vocab.HasColor(a.Color) {
		slog.Warn("Invalid color, using fallback", "color", rawColor, "fallback", config.FallbackColor)
		a.Color = config.FallbackColor
		a.Repaired = append(a.Repaired, "color")
	}

	return a, nil
}

// extractObject locates the outermost {...} span and decodes it
func extractObject(rawText string) (map[string]any, error) {
	start := strings.Index(rawText, "{")
	end := strings.LastIndex(rawText, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(rawText[start : end+1])))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	// the whole span has to be one value
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrMalformedResponse)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedResponse)
	}
	return fields, nil
}

func stringField(fields map[string]any, key, fallback string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return fallback
	}

	var s string
	switch val := v.(type) {
	case string:
		s = val
	case json.Number:
		s = val.String()
	case bool:
		s = strconv.FormatBool(val)
	default:
		return fallback
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return s
}

func listField(fields map[string]any, key string) []string {
	out := []string{}
	items, ok := fields[key].([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		switch val := item.(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				out = append(out, s)
			}
		case json.Number:
			out = append(out, val.String())
		}
	}
	return out
}

// scoreField clamps a confidence into [0,100]; anything non-numeric becomes 0
func scoreField(fields map[string]any, key string) int {
	var f float64
	switch val := fields[key].(type) {
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Trunc(f))))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
