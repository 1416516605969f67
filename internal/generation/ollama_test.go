package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
)

func TestOllamaBackendGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "qwen2.5:1.5b" {
			t.Fatalf("unexpected model: %q", req.Model)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "generated text", Done: true})
	}))
	defer srv.Close()

	backend := NewOllamaBackend(resty.New(), srv.URL, "qwen2.5:1.5b")
	out, err := backend.Generate(context.Background(), "system", "prompt", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "generated text" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestOllamaBackendGenerateStreamSplitsWords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "alpha beta", Done: true})
	}))
	defer srv.Close()

	backend := NewOllamaBackend(resty.New(), srv.URL, "qwen2.5:1.5b")
	var tokens []string
	err := backend.GenerateStream(context.Background(), "", "prompt", Options{}, func(tok string) {
		tokens = append(tokens, tok)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
}
