package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestImageFormat(t *testing.T) {
	tests := []struct {
		contentType, url, want string
	}{
		{"image/png", "http://x/a.jpg", "png"},
		{"image/webp; charset=binary", "http://x/a", "webp"},
		{"application/octet-stream", "http://x/a.PNG", "png"},
		{"", "http://x/a.webp", "webp"},
		{"", "http://x/a", "jpeg"},
	}
	for _, tt := range tests {
		if got := imageFormat(tt.contentType, tt.url); got != tt.want {
			t.Errorf("imageFormat(%q, %q) = %q, want %q", tt.contentType, tt.url, got, tt.want)
		}
	}
}

func TestFetchImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	data, format, err := FetchImage(context.Background(), srv.Client(), srv.URL+"/a.png")
	if err != nil || string(data) != "png-bytes" || format != "png" {
		t.Fatalf("FetchImage() = %q, %q, %v", data, format, err)
	}

	if _, _, err := FetchImage(context.Background(), srv.Client(), srv.URL+"/missing.jpg"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected HTTP 404 error, got %v", err)
	}
}

func TestHTTPStatusError(t *testing.T) {
	err := &HTTPStatusError{Provider: "openai", StatusCode: 503, Body: " overloaded \n"}
	if err.Error() != "openai API returned status 503: overloaded" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.HTTPStatus() != 503 {
		t.Errorf("HTTPStatus() = %d", err.HTTPStatus())
	}
}
