package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"marketintel/internal/embedding"
	"marketintel/internal/model"
	"marketintel/internal/repository/memory"
)

func newTestWorker(t *testing.T, contentServerURL string) (*Worker, *memory.Store, model.Source) {
	t.Helper()
	repo := memory.New()
	source, err := repo.AddSource(context.Background(), "Acme Blog", contentServerURL, model.ConnectorWeb)
	if err != nil {
		t.Fatalf("failed to seed source: %v", err)
	}

	policy := NewPolicyEngine(resty.New(), "TestBot/0.1", nil, false, false)
	connectors := NewConnectorRegistry(resty.New())
	embed := embedding.New(resty.New(), "http://127.0.0.1:1", "nomic-embed-text", 8)
	worker := NewWorker(repo, policy, connectors, embed, time.Minute, zerolog.Nop())
	return worker, repo, source
}

func TestExecuteFirstRunIsBaselineChange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>Acme reported record earnings this quarter.</p></body></html>"))
	}))
	defer srv.Close()

	worker, repo, source := newTestWorker(t, srv.URL)
	result, err := worker.Execute(context.Background(), source.ID, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Changed {
		t.Fatal("expected baseline run to report a change")
	}
	if result.Chunks == 0 {
		t.Fatal("expected at least one chunk stored")
	}

	insights, _ := repo.LatestInsightsBySource(context.Background(), source.ID, 10)
	if len(insights) != 1 {
		t.Fatalf("expected one insight recorded, got %d", len(insights))
	}
}

func TestExecuteSecondRunNoChange(t *testing.T) {
	const page = "<html><body><p>Static content that never changes.</p></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	worker, _, source := newTestWorker(t, srv.URL)
	if _, err := worker.Execute(context.Background(), source.ID, false); err != nil {
		t.Fatalf("unexpected error on first run: %v", err)
	}
	result, err := worker.Execute(context.Background(), source.ID, true)
	if err != nil {
		t.Fatalf("unexpected error on second run: %v", err)
	}
	if result.Changed {
		t.Fatal("expected second run over identical content to report no change")
	}
}

func TestExecuteThrottlesWithoutForceRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>content</body></html>"))
	}))
	defer srv.Close()

	worker, _, source := newTestWorker(t, srv.URL)
	if _, err := worker.Execute(context.Background(), source.ID, false); err != nil {
		t.Fatalf("unexpected error on first run: %v", err)
	}
	result, err := worker.Execute(context.Background(), source.ID, false)
	if err != nil {
		t.Fatalf("unexpected error on throttled run: %v", err)
	}
	if !result.Skipped || result.Reason != "min_interval_not_elapsed" {
		t.Fatalf("expected throttled skip, got %+v", result)
	}
}

func TestExecuteUnknownSource(t *testing.T) {
	worker, _, _ := newTestWorker(t, "http://127.0.0.1:1/unused")
	if _, err := worker.Execute(context.Background(), 999, false); err == nil {
		t.Fatal("expected error for unknown source id")
	}
}
