package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"marketintel/internal/config"
	"marketintel/internal/embedding"
	"marketintel/internal/orchestrator"
	"marketintel/internal/repository/memory"
	"marketintel/internal/retrieve"
)

func testMux(t *testing.T) (*http.ServeMux, *memory.Store) {
	t.Helper()
	repo := memory.New()
	embed := embedding.New(resty.New(), "http://127.0.0.1:1", "nomic-embed-text", 8)
	retriever := retrieve.New(repo, embed, zerolog.Nop())
	cfg := &config.Settings{
		IntelligencePipelineTimeoutSeconds: 5,
		RefreshMinEvidence:                 5,
		RefreshStaleAfterHours:             24,
		APIWriteKey:                        "test-key",
		APICORSOrigins:                     []string{"http://localhost:3000"},
	}
	o := orchestrator.New(repo, nil, nil, retriever, nil, nil, nil, nil, nil, cfg, zerolog.Nop())
	mux := NewMux(o, repo, nil, cfg, zerolog.Nop())
	return mux, repo
}

func TestSearchQueryReturnsReport(t *testing.T) {
	mux, _ := testMux(t)
	body, _ := json.Marshal(searchQueryRequest{Query: "Apple earnings", Limit: 10})
	req := httptest.NewRequest(http.MethodPost, "/search/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if report["search_id"] == "" || report["search_id"] == nil {
		t.Fatal("expected a non-empty search_id")
	}
}

func TestSearchQueryRejectsEmptyQuery(t *testing.T) {
	mux, _ := testMux(t)
	body, _ := json.Marshal(searchQueryRequest{Query: ""})
	req := httptest.NewRequest(http.MethodPost, "/search/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSourcesEndpointRequiresWriteKey(t *testing.T) {
	mux, _ := testMux(t)
	body, _ := json.Marshal(addSourceRequest{Name: "SEC filings", URL: "https://example.com/feed", ConnectorType: "rss"})
	req := httptest.NewRequest(http.MethodPost, "/sources", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without write key, got %d", rec.Code)
	}
}

func TestSourcesEndpointSucceedsWithWriteKey(t *testing.T) {
	mux, _ := testMux(t)
	body, _ := json.Marshal(addSourceRequest{Name: "SEC filings", URL: "https://example.com/feed", ConnectorType: "rss"})
	req := httptest.NewRequest(http.MethodPost, "/sources", bytes.NewReader(body))
	req.Header.Set("X-Write-Key", "test-key")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAutocompleteReturnsEmptyListWithoutQuery(t *testing.T) {
	mux, _ := testMux(t)
	req := httptest.NewRequest(http.MethodGet, "/search/autocomplete", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var suggestions []any
	if err := json.Unmarshal(rec.Body.Bytes(), &suggestions); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(suggestions) != 0 {
		t.Fatalf("expected an empty list, got %d", len(suggestions))
	}
}

func TestAgentsEnqueueUnavailableWithoutQueue(t *testing.T) {
	mux, _ := testMux(t)
	body, _ := json.Marshal(enqueueIngestionRequest{Query: "Tesla"})
	req := httptest.NewRequest(http.MethodPost, "/agents/ingest", bytes.NewReader(body))
	req.Header.Set("X-Write-Key", "test-key")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with no queue configured, got %d", rec.Code)
	}
}
