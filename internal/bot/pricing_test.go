package bot

import (
	"errors"
	"testing"
	"time"

	"github.com/ajuraforce/photo-product-analyzer/internal/models"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input   string
		want    models.Prices
		wantErr bool
	}{
		{"29.99", models.Prices{Discounted: 29.99, Full: 29.99, Set: true}, false},
		{"24.99 29.99", models.Prices{Discounted: 24.99, Full: 29.99, Set: true}, false},
		{"  24.99   29.99 ", models.Prices{Discounted: 24.99, Full: 29.99, Set: true}, false},
		{"$15", models.Prices{Discounted: 15, Full: 15, Set: true}, false},
		{"skip", models.Prices{}, false},
		{"SKIP", models.Prices{}, false},
		{"/skip", models.Prices{}, false},
		{"", models.Prices{}, false},
		{"a b c", models.Prices{}, true},
		{"1 2 3", models.Prices{}, true},
		{"abc", models.Prices{}, true},
		{"10 ten", models.Prices{}, true},
		{"-5", models.Prices{}, true},
		{"NaN", models.Prices{}, true},
		{"Inf", models.Prices{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPriceFormat) {
					t.Fatalf("ParsePrice(%q) error = %v, want ErrInvalidPriceFormat", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrice(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePrice(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatPrice(t *testing.T) {
	tests := map[float64]string{
		29.99: "29.99",
		30:    "30",
		0.5:   "0.5",
	}
	for in, want := range tests {
		if got := FormatPrice(in); got != want {
			t.Errorf("FormatPrice(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestProductID(t *testing.T) {
	now := time.Date(2024, 3, 9, 8, 7, 6, 0, time.UTC)
	if got := ProductID(now, "a1b2c3d4e5"); got != "PROD_20240309_080706_a1b2c3" {
		t.Errorf("ProductID() = %q", got)
	}
}

func pending(a models.Analysis) *models.PendingProduct {
	return &models.PendingProduct{
		ProductID:   "PROD_X",
		PhotoURL:    "http://localhost:8000/uploads/x.jpg",
		Analysis:    a,
		CreatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		RequesterID: 99,
	}
}

func TestMerge(t *testing.T) {
	confident := models.Analysis{Title: "Jacket", Type: "jacket", Color: "black", Brand: "Nike", ConfidenceScore: 90, BrandConfidence: 95}

	tests := []struct {
		name      string
		analysis  models.Analysis
		prices    models.Prices
		overrides models.Overrides
		check     func(t *testing.T, rec models.CatalogRecord)
	}{
		{
			name:     "defaults",
			analysis: confident,
			check: func(t *testing.T, rec models.CatalogRecord) {
				if rec.Gender != "U" || rec.Supplier != "" || rec.Brand != "Nike" {
					t.Errorf("unexpected defaults: %+v", rec)
				}
				if rec.DiscountedPrice != "" || rec.FullPrice != "" || rec.Flags != "" {
					t.Errorf("expected empty prices and flags: %+v", rec)
				}
				if rec.RequesterID != 99 || rec.PhotoLinks == "" || rec.ProductID != "PROD_X" {
					t.Errorf("pending fields not carried: %+v", rec)
				}
			},
		},
		{
			name:      "overrides replace ai values",
			analysis:  confident,
			prices:    models.Prices{Discounted: 24.99, Full: 29.99, Set: true},
			overrides: models.Overrides{DefaultGender: "F", DefaultSupplier: "Acme", BrandOverride: "Adidas"},
			check: func(t *testing.T, rec models.CatalogRecord) {
				if rec.Gender != "F" || rec.Supplier != "Acme" || rec.Brand != "Adidas" {
					t.Errorf("overrides not applied: %+v", rec)
				}
				if rec.DiscountedPrice != "24.99" || rec.FullPrice != "29.99" {
					t.Errorf("prices = %s/%s", rec.DiscountedPrice, rec.FullPrice)
				}
				if rec.Flags != FlagBrandOverride {
					t.Errorf("Flags = %q", rec.Flags)
				}
			},
		},
		{
			name:      "price override used on skip",
			analysis:  confident,
			overrides: models.Overrides{PriceOverride: &models.Prices{Discounted: 10, Full: 20, Set: true}},
			check: func(t *testing.T, rec models.CatalogRecord) {
				if rec.DiscountedPrice != "10" || rec.FullPrice != "20" || rec.Flags != FlagPriceOverride {
					t.Errorf("unexpected record: %+v", rec)
				}
			},
		},
		{
			name:      "typed price wins over price override",
			analysis:  confident,
			prices:    models.Prices{Discounted: 5, Full: 5, Set: true},
			overrides: models.Overrides{PriceOverride: &models.Prices{Discounted: 10, Full: 20, Set: true}},
			check: func(t *testing.T, rec models.CatalogRecord) {
				if rec.DiscountedPrice != "5" || rec.FullPrice != "5" || rec.Flags != "" {
					t.Errorf("unexpected record: %+v", rec)
				}
			},
		},
		{
			name:     "degraded analysis is flagged",
			analysis: models.Analysis{Title: "Product (Analysis Failed)", Brand: "unknown", Error: true},
			check: func(t *testing.T, rec models.CatalogRecord) {
				if rec.Flags != "ai_error,low_confidence" {
					t.Errorf("Flags = %q", rec.Flags)
				}
			},
		},
		{
			name:     "uncertain brand is flagged",
			analysis: models.Analysis{Brand: "Gucci", ConfidenceScore: 60, BrandConfidence: 50},
			check: func(t *testing.T, rec models.CatalogRecord) {
				if rec.Flags != FlagBrandUnverified {
					t.Errorf("Flags = %q", rec.Flags)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Merge(pending(tt.analysis), tt.prices, tt.overrides))
		})
	}
}
