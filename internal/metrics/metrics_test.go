package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestMetrics(t *testing.T) {
	m := New()

	m.PhotoReceived()
	m.PhotoReceived()
	m.IntakeFailed("size_exceeded")
	m.Analysis(false, 2*time.Second, []string{"color"})
	m.Analysis(true, time.Second, nil)
	m.CatalogWrite(true)
	m.CatalogWrite(false)
	m.PendingAdded()
	m.PendingAdded()
	m.PendingDropped()
	m.Sessions(3)

	body := scrape(t, m)
	for _, want := range []string{
		"catalogbot_photos_received_total 2",
		`catalogbot_intake_failures_total{kind="size_exceeded"} 1`,
		`catalogbot_analyses_total{outcome="ok"} 1`,
		`catalogbot_analyses_total{outcome="degraded"} 1`,
		`catalogbot_vocabulary_repairs_total{field="color"} 1`,
		`catalogbot_catalog_writes_total{status="failure"} 1`,
		`catalogbot_catalog_writes_total{status="success"} 1`,
		"catalogbot_pending_products 1",
		"catalogbot_sessions 3",
		"catalogbot_vision_duration_seconds_count 2",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
