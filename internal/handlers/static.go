package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{
		"message": "Product Cataloger Static Server",
		"status":  "running",
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{
		"status":      "healthy",
		"uploads_dir": h.absUploadsDir(),
	})
}

// HandleUpload serves one stored photo by its generated filename
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	// Prevent directory traversal attacks
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		h.writeError(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	fullPath := filepath.Join(h.uploadsDir, filename)
	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		h.writeError(w, "File not found", http.StatusNotFound)
		return
	}

	http.ServeFile(w, r, fullPath)
}
