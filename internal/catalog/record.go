package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ajuraforce/photo-product-analyzer/internal/config"
	"github.com/ajuraforce/photo-product-analyzer/internal/models"
	"github.com/ajuraforce/photo-product-analyzer/internal/resilience"
)

// DateLayout is how CreatedDate is rendered in the store
const DateLayout = "2006-01-02T15:04:05"

// ErrNotConfigured is returned when the backend lacks credentials or a target
var ErrNotConfigured = errors.New("catalog store not configured")

// Headers is the fixed column order of the catalog sheet
var Headers = []string{
	"Product ID", "Title", "Description", "Type", "Color", "Brand",
	"Photo Links", "Discounted Price", "Full Price", "Gender",
	"Supplier", "AI Confidence", "Brand Confidence", "Created Date",
	"Flags", "User ID", "Processing Time",
}

// Writer persists catalog records
type Writer interface {
	Append(ctx context.Context, rec models.CatalogRecord) error
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	EnsureHeaders(ctx context.Context) error
}

// New returns the Writer selected by cfg.CatalogBackend
func New(cfg config.Config, executor *resilience.Executor) (Writer, error) {
	switch cfg.CatalogBackend {
	case "sheets":
		return NewSheetsWriter(cfg.GoogleCredentialsFile, cfg.GoogleSheetID, executor), nil
	case "parquet":
		return NewJournal(cfg.CatalogJournal), nil
	default:
		return nil, fmt.Errorf("unsupported catalog backend: %s", cfg.CatalogBackend)
	}
}

// Row renders rec in Headers order
func Row(rec models.CatalogRecord) []interface{} {
	return []interface{}{
		rec.ProductID,
		rec.Title,
		rec.Description,
		rec.Type,
		rec.Color,
		rec.Brand,
		rec.PhotoLinks,
		rec.DiscountedPrice,
		rec.FullPrice,
		rec.Gender,
		rec.Supplier,
		rec.AIConfidence,
		rec.BrandConfidence,
		rec.CreatedDate.Format(DateLayout),
		rec.Flags,
		rec.RequesterID,
		Seconds(rec.ProcessingTime),
	}
}

// Seconds renders a duration as seconds with two decimals
func Seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
