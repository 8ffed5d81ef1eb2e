package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ajuraforce/photo-product-analyzer/internal/models"
	"github.com/parquet-go/parquet-go"
)

// JournalRow is the parquet layout of one catalog record
type JournalRow struct {
	ProductID       string  `parquet:"product_id"`
	Title           string  `parquet:"title"`
	Description     string  `parquet:"description"`
	Type            string  `parquet:"type"`
	Color           string  `parquet:"color"`
	Brand           string  `parquet:"brand"`
	PhotoLinks      string  `parquet:"photo_links"`
	DiscountedPrice string  `parquet:"discounted_price"`
	FullPrice       string  `parquet:"full_price"`
	Gender          string  `parquet:"gender"`
	Supplier        string  `parquet:"supplier"`
	AIConfidence    int32   `parquet:"ai_confidence"`
	BrandConfidence int32   `parquet:"brand_confidence"`
	CreatedDate     string  `parquet:"created_date"`
	Flags           string  `parquet:"flags"`
	UserID          int64   `parquet:"user_id"`
	ProcessingTime  float64 `parquet:"processing_time"`
}

func journalRow(rec models.CatalogRecord) JournalRow {
	return JournalRow{
		ProductID:       rec.ProductID,
		Title:           rec.Title,
		Description:     rec.Description,
		Type:            rec.Type,
		Color:           rec.Color,
		Brand:           rec.Brand,
		PhotoLinks:      rec.PhotoLinks,
		DiscountedPrice: rec.DiscountedPrice,
		FullPrice:       rec.FullPrice,
		Gender:          rec.Gender,
		Supplier:        rec.Supplier,
		AIConfidence:    int32(rec.AIConfidence),
		BrandConfidence: int32(rec.BrandConfidence),
		CreatedDate:     rec.CreatedDate.Format(DateLayout),
		Flags:           rec.Flags,
		UserID:          rec.RequesterID,
		ProcessingTime:  Seconds(rec.ProcessingTime),
	}
}

// Journal is a local parquet file holding the catalog, used instead of a spreadsheet
type Journal struct {
	path string
	mu   sync.Mutex
}

func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Append rewrites the journal with rec added at the end
func (j *Journal) Append(_ context.Context, rec models.CatalogRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.readAll()
	if err != nil {
		return err
	}
	rows = append(rows, journalRow(rec))

	if err := j.writeAll(rows); err != nil {
		return err
	}
	slog.Info("Added product to journal", "product_id", rec.ProductID, "path", j.path)
	return nil
}

// Count returns the number of rows in the journal
func (j *Journal) Count(_ context.Context) (int, error) {
	rows, err := j.Rows()
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Ping checks that the journal directory is writable
func (j *Journal) Ping(_ context.Context) error {
	dir := filepath.Dir(j.path)
	f, err := os.CreateTemp(dir, ".ping-*")
	if err != nil {
		return fmt.Errorf("journal directory not writable: %w", err)
	}
	f.Close()
	return os.Remove(f.Name())
}

// EnsureHeaders is a no-op, the parquet schema carries the column names
func (j *Journal) EnsureHeaders(context.Context) error {
	return nil
}

// Rows returns every record in the journal
func (j *Journal) Rows() ([]JournalRow, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.readAll()
}

func (j *Journal) readAll() ([]JournalRow, error) {
	file, err := os.Open(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat journal: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[JournalRow](pf)
	defer reader.Close()

	records := make([]JournalRow, 0, pf.NumRows())
	batch := make([]JournalRow, 128)
	for {
		n, err := reader.Read(batch)
		records = append(records, batch[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read journal: %w", err)
		}
	}
	return records, nil
}

// writeAll replaces the journal atomically through a temp file
func (j *Journal) writeAll(rows []JournalRow) error {
	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".journal-*.parquet")
	if err != nil {
		return fmt.Errorf("failed to create temp journal: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := parquet.NewGenericWriter[JournalRow](tmp)
	if _, err := writer.Write(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write journal rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush journal: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp journal: %w", err)
	}

	if err := os.Rename(tmp.Name(), j.path); err != nil {
		return fmt.Errorf("failed to replace journal: %w", err)
	}
	return nil
}
