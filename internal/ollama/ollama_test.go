package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ajuraforce/photo-product-analyzer/internal/providers"
)

func TestExtractTextInlinesImage(t *testing.T) {
	imageBytes := []byte("fake-jpeg")
	var got struct {
		Model   string                 `json:"model"`
		Format  string                 `json:"format"`
		Stream  bool                   `json:"stream"`
		Images  []string               `json:"images"`
		Options map[string]interface{} `json:"options"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/uploads/a.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(imageBytes)
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"response":"{\"title\":\"Bag\"}","prompt_eval_count":30,"eval_count":12}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, err := New(srv.URL, srv.Client()).ExtractText(context.Background(), providers.Config{
		Model:     "llava",
		MaxTokens: 500,
		Prompt:    "describe",
		ImageURL:  srv.URL + "/uploads/a.jpg",
	})
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}

	if res.Text != `{"title":"Bag"}` || res.Usage.TotalTokens != 42 {
		t.Errorf("unexpected result: %+v", res)
	}
	if got.Model != "llava" || got.Format != "json" || got.Stream {
		t.Errorf("unexpected request: %+v", got)
	}
	if len(got.Images) != 1 || got.Images[0] != base64.StdEncoding.EncodeToString(imageBytes) {
		t.Errorf("image not inlined: %v", got.Images)
	}
	if got.Options["num_predict"] != float64(500) {
		t.Errorf("num_predict = %v", got.Options["num_predict"])
	}
}

func TestExtractTextStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client()).ExtractText(context.Background(), providers.Config{Model: "missing"})
	var se *providers.HTTPStatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
}
