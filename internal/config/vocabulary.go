package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FallbackType  = "other"
	FallbackColor = "multicolor"
)

// Vocabulary holds the closed sets the vision output is coerced into
type Vocabulary struct {
	ProductTypes []string `yaml:"product_types"`
	Colors       []string `yaml:"colors"`
}

// DefaultVocabulary returns the built-in product types and colors
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		ProductTypes: []string{
			"shirt", "t-shirt", "blouse", "top",
			"pants", "jeans", "trousers", "shorts",
			"dress", "skirt", "jumpsuit",
			"shoes", "sneakers", "boots", "sandals",
			"jacket", "coat", "hoodie", "sweater",
			"accessories", "bag", "hat", "jewelry",
			"underwear", "swimwear", "socks",
			"other",
		},
		Colors: []string{
			"black", "white", "gray", "grey",
			"red", "blue", "green", "yellow",
			"pink", "purple", "orange", "brown",
			"beige", "navy", "maroon", "teal",
			"multicolor", "pattern", "floral", "striped",
		},
	}
}

// LoadVocabulary reads a YAML vocabulary file
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}

	v.ProductTypes = cleanTerms(v.ProductTypes)
	v.Colors = cleanTerms(v.Colors)
	if err := v.Validate(); err != nil {
		return Vocabulary{}, fmt.Errorf("invalid vocabulary file %s: %w", path, err)
	}
	return v, nil
}

// Validate checks that both sets are present and contain their fallback value
func (v Vocabulary) Validate() error {
	if !slices.Contains(v.ProductTypes, FallbackType) {
		return fmt.Errorf("product_types must contain %q", FallbackType)
	}
	if !slices.Contains(v.Colors, FallbackColor) {
		return fmt.Errorf("colors must contain %q", FallbackColor)
	}
	return nil
}

// HasType reports whether t is a member of the product-type set
func (v Vocabulary) HasType(t string) bool {
	return slices.Contains(v.ProductTypes, t)
}

// HasColor reports whether c is a member of the color set
func (v Vocabulary) HasColor(c string) bool {
	return slices.Contains(v.Colors, c)
}

// cleanTerms trims, lowercases and dedupes terms to match the normalizer's case folding
func cleanTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
