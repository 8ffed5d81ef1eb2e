package bot

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ajuraforce/photo-product-analyzer/internal/models"
	"github.com/ajuraforce/photo-product-analyzer/internal/normalize"
)

// ErrInvalidPriceFormat is returned for price input that is neither skip nor one or two numbers
var ErrInvalidPriceFormat = errors.New("invalid price format")

// Confidence thresholds used for presentation and flags
const (
	HighConfidence = 70
	LowConfidence  = 40
)

// Flag values written to the Flags column
const (
	FlagAIError         = "ai_error"
	FlagLowConfidence   = "low_confidence"
	FlagBrandUnverified = "brand_unverified"
	FlagBrandOverride   = "brand_override"
	FlagPriceOverride   = "price_override"
)

// ParsePrice parses "skip", "<price>" or "<discounted> <full>".
// A skip yields a zero Prices with Set=false.
func ParsePrice(text string) (models.Prices, error) {
	text = strings.TrimSpace(text)
	switch strings.ToLower(text) {
	case "", "skip", "/skip":
		return models.Prices{}, nil
	}

	fields := strings.Fields(text)
	if len(fields) != 1 && len(fields) != 2 {
		return models.Prices{}, fmt.Errorf("%w: expected 1 or 2 values, got %d", ErrInvalidPriceFormat, len(fields))
	}

	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := parseAmount(f)
		if err != nil {
			return models.Prices{}, err
		}
		values[i] = v
	}

	if len(values) == 1 {
		return models.Prices{Discounted: values[0], Full: values[0], Set: true}, nil
	}
	return models.Prices{Discounted: values[0], Full: values[1], Set: true}, nil
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimPrefix(s, "$"), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: %q is not a price", ErrInvalidPriceFormat, s)
	}
	return v, nil
}

// FormatPrice renders a price without trailing zeros
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Merge builds the catalog row from a pending product, the parsed prices and the
// overrides in effect at confirmation time. Typed prices win over a price override.
func Merge(p *models.PendingProduct, prices models.Prices, o models.Overrides) models.CatalogRecord {
	a := p.Analysis
	rec := models.CatalogRecord{
		ProductID:       p.ProductID,
		Title:           a.Title,
		Description:     a.Description,
		Type:            a.Type,
		Color:           a.Color,
		Brand:           a.Brand,
		PhotoLinks:      p.PhotoURL,
		Gender:          models.GenderUnisex,
		Supplier:        o.DefaultSupplier,
		AIConfidence:    a.ConfidenceScore,
		BrandConfidence: a.BrandConfidence,
		CreatedDate:     p.CreatedAt,
		RequesterID:     p.RequesterID,
		ProcessingTime:  a.ProcessingTime,
	}

	var flags []string
	if a.Error {
		flags = append(flags, FlagAIError)
	}
	if a.ConfidenceScore <= LowConfidence {
		flags = append(flags, FlagLowConfidence)
	}

	if o.DefaultGender != "" {
		rec.Gender = o.DefaultGender
	}

	if o.BrandOverride != "" {
		rec.Brand = o.BrandOverride
		flags = append(flags, FlagBrandOverride)
	} else if a.Brand != normalize.DefaultBrand && a.BrandConfidence <= HighConfidence {
		flags = append(flags, FlagBrandUnverified)
	}

	switch {
	case prices.Set:
		rec.DiscountedPrice = FormatPrice(prices.Discounted)
		rec.FullPrice = FormatPrice(prices.Full)
	case o.PriceOverride != nil:
		rec.DiscountedPrice = FormatPrice(o.PriceOverride.Discounted)
		rec.FullPrice = FormatPrice(o.PriceOverride.Full)
		flags = append(flags, FlagPriceOverride)
	}

	rec.Flags = strings.Join(flags, ",")
	return rec
}

// ProductID formats PROD_<date>_<time>_<6 hex chars>
func ProductID(now time.Time, suffix string) string {
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return "PROD_" + now.Format("20060102_150405") + "_" + suffix
}
