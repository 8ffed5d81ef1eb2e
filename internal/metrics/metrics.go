package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the counters exposed on /metrics
type Metrics struct {
	registry *prometheus.Registry

	photosReceived  prometheus.Counter
	intakeFailures  *prometheus.CounterVec
	analyses        *prometheus.CounterVec
	visionDuration  prometheus.Histogram
	vocabRepairs    *prometheus.CounterVec
	catalogWrites   *prometheus.CounterVec
	pendingProducts prometheus.Gauge
	sessions        prometheus.Gauge
}

// New builds a Metrics with its own registry
func New() *Metrics {
	m := &Metrics{
		photosReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "catalogbot",
			Name:      "photos_received_total",
			Help:      "Photos received from operators.",
		}),
		intakeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalogbot",
			Name:      "intake_failures_total",
			Help:      "Photo intake failures by kind.",
		}, []string{"kind"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalogbot",
			Name:      "analyses_total",
			Help:      "Vision analyses by outcome.",
		}, []string{"outcome"}),
		visionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "catalogbot",
			Name:      "vision_duration_seconds",
			Help:      "Vision model call duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 3, 5, 10, 20, 30, 60},
		}),
		vocabRepairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalogbot",
			Name:      "vocabulary_repairs_total",
			Help:      "Model values coerced into the closed vocabulary, by field.",
		}, []string{"field"}),
		catalogWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalogbot",
			Name:      "catalog_writes_total",
			Help:      "Catalog row appends by status.",
		}, []string{"status"}),
		pendingProducts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "catalogbot",
			Name:      "pending_products",
			Help:      "Products waiting for a price.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "catalogbot",
			Name:      "sessions",
			Help:      "Operator sessions held in memory.",
		}),
	}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.photosReceived,
		m.intakeFailures,
		m.analyses,
		m.visionDuration,
		m.vocabRepairs,
		m.catalogWrites,
		m.pendingProducts,
		m.sessions,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) PhotoReceived() {
	m.photosReceived.Inc()
}

func (m *Metrics) IntakeFailed(kind string) {
	m.intakeFailures.WithLabelValues(kind).Inc()
}

// Analysis records one vision call
func (m *Metrics) Analysis(degraded bool, took time.Duration, repaired []string) {
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	m.analyses.WithLabelValues(outcome).Inc()
	m.visionDuration.Observe(took.Seconds())
	for _, field := range repaired {
		m.vocabRepairs.WithLabelValues(field).Inc()
	}
}

func (m *Metrics) CatalogWrite(ok bool) {
	status := "success"
	if !ok {
		status = "failure"
	}
	m.catalogWrites.WithLabelValues(status).Inc()
}

func (m *Metrics) PendingAdded() {
	m.pendingProducts.Inc()
}

func (m *Metrics) PendingDropped() {
	m.pendingProducts.Dec()
}

// Sessions records the number of sessions in the store
func (m *Metrics) Sessions(n int) {
	m.sessions.Set(float64(n))
}
