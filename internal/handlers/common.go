package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/ajuraforce/photo-product-analyzer/internal/metrics"
)

// Handler serves stored product photos and operational endpoints
type Handler struct {
	uploadsDir string
	metrics    *metrics.Metrics
}

func New(uploadsDir string, m *metrics.Metrics) *Handler {
	return &Handler{
		uploadsDir: uploadsDir,
		metrics:    m,
	}
}

// Routes registers every endpoint on a new mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.HandleRoot)
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /uploads/{filename}", h.HandleUpload)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Warn(message, "code", code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"detail": message}); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) absUploadsDir() string {
	abs, err := filepath.Abs(h.uploadsDir)
	if err != nil {
		return h.uploadsDir
	}
	return abs
}
