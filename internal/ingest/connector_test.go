package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/model"
)

func TestWebConnectorFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>hi</body></html>"))
	}))
	defer srv.Close()

	registry := NewConnectorRegistry(resty.New())
	conn, err := registry.Get(model.ConnectorWeb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content, err := conn.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected fetch error: %v", err)
	}
	if content == "" {
		t.Fatal("expected non-empty content")
	}
}

const sampleRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel>
<title>Example Feed</title>
<item><title>First</title><description>First summary</description><link>https://example.com/1</link></item>
<item><title>Second</title><description>Second summary</description><link>https://example.com/2</link></item>
</channel></rss>`

func TestRSSConnectorFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	registry := NewConnectorRegistry(resty.New())
	conn, err := registry.Get(model.ConnectorRSS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content, err := conn.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected fetch error: %v", err)
	}
	if !contains(content, "First summary") || !contains(content, "Second summary") {
		t.Fatalf("expected both feed items in output, got %q", content)
	}
}

func TestConnectorRegistryUnsupportedType(t *testing.T) {
	registry := NewConnectorRegistry(resty.New())
	if _, err := registry.Get(model.ConnectorType("unknown")); err == nil {
		t.Fatal("expected error for unsupported connector type")
	}
}
