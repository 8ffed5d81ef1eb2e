package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/ajuraforce/photo-product-analyzer/internal/models"
	"github.com/ajuraforce/photo-product-analyzer/internal/resilience"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsWriter appends catalog rows to the first worksheet of a Google spreadsheet
type SheetsWriter struct {
	credentialsFile string
	sheetID         string
	executor        *resilience.Executor
	clientOpts      []option.ClientOption

	mu  sync.Mutex
	srv *sheets.Service
}

// NewSheetsWriter creates a writer; the API client is built on first use.
// When opts are given they replace the service-account credentials file.
func NewSheetsWriter(credentialsFile, sheetID string, executor *resilience.Executor, opts ...option.ClientOption) *SheetsWriter {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultPolicy())
	}
	return &SheetsWriter{
		credentialsFile: credentialsFile,
		sheetID:         sheetID,
		executor:        executor,
		clientOpts:      opts,
	}
}

// service lazily builds the Sheets client. A failed init is retried on the next call.
func (w *SheetsWriter) service() (*sheets.Service, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.srv != nil {
		return w.srv, nil
	}
	if w.sheetID == "" || (w.credentialsFile == "" && len(w.clientOpts) == 0) {
		return nil, ErrNotConfigured
	}

	// the token source outlives any single request
	ctx := context.Background()
	opts := w.clientOpts
	if len(opts) == 0 {
		data, err := os.ReadFile(w.credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials: %w", err)
		}
		opts = []option.ClientOption{option.WithCredentials(creds)}
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	slog.Info("Google Sheets client initialized", "sheet_id", w.sheetID)
	w.srv = srv
	return srv, nil
}

func (w *SheetsWriter) do(ctx context.Context, fn func(context.Context, *sheets.Service) error) error {
	srv, err := w.service()
	if err != nil {
		return err
	}
	return w.executor.Execute(ctx, "sheets", func(ctx context.Context) error {
		return fn(ctx, srv)
	}, resilience.IsTransient)
}

// Append adds rec as a new row after the last used one. Values are written RAW
// so model or operator text starting with "=" is never evaluated as a formula.
func (w *SheetsWriter) Append(ctx context.Context, rec models.CatalogRecord) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{Row(rec)}}
	err := w.do(ctx, func(ctx context.Context, srv *sheets.Service) error {
		_, err := srv.Spreadsheets.Values.Append(w.sheetID, "A1", vr).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to add row to sheet: %w", err)
	}
	slog.Info("Added product to sheet", "product_id", rec.ProductID)
	return nil
}

// Count returns the number of product rows, excluding the header
func (w *SheetsWriter) Count(ctx context.Context) (int, error) {
	var rows int
	err := w.do(ctx, func(ctx context.Context, srv *sheets.Service) error {
		resp, err := srv.Spreadsheets.Values.Get(w.sheetID, "A:A").Context(ctx).Do()
		if err != nil {
			return err
		}
		rows = len(resp.Values)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get products count: %w", err)
	}
	return max(0, rows-1), nil
}

// Ping checks that the spreadsheet is reachable with the configured credentials
func (w *SheetsWriter) Ping(ctx context.Context) error {
	err := w.do(ctx, func(ctx context.Context, srv *sheets.Service) error {
		_, err := srv.Spreadsheets.Get(w.sheetID).Fields("spreadsheetId").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("google sheets connection test failed: %w", err)
	}
	return nil
}

// EnsureHeaders writes the header row when the first row is empty
func (w *SheetsWriter) EnsureHeaders(ctx context.Context) error {
	return w.do(ctx, func(ctx context.Context, srv *sheets.Service) error {
		resp, err := srv.Spreadsheets.Values.Get(w.sheetID, "1:1").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to read header row: %w", err)
		}
		if hasValues(resp.Values) {
			slog.Info("Sheet headers already exist")
			return nil
		}

		header := make([]interface{}, len(Headers))
		for i, h := range Headers {
			header[i] = h
		}
		_, err = srv.Spreadsheets.Values.Update(w.sheetID, "A1", &sheets.ValueRange{Values: [][]interface{}{header}}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write header row: %w", err)
		}
		slog.Info("Sheet headers created")
		return nil
	})
}

func hasValues(rows [][]interface{}) bool {
	for _, row := range rows {
		for _, v := range row {
			if s, ok := v.(string); !ok || s != "" {
				return true
			}
		}
	}
	return false
}
