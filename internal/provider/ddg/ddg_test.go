package ddg

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/provider"
	"marketintel/internal/repository/memory"
)

const sampleResults = `
<html><body>
<a class="result__a" href="https://example.com/article-1">Acme Corp Q2 outlook</a>
<a class="result__a" href="https://example.com/article-2">Acme Corp earnings beat</a>
</body></html>`

func TestFetchCompanyDataRegistersSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleResults))
	}))
	defer srv.Close()

	p := NewWithBaseURLs(resty.New(), srv.URL, srv.URL, memory.New())
	results := p.FetchCompanyData(context.Background(), provider.Entity{Ticker: "ACME", Name: "Acme Corp"})
	if len(results) != 2 {
		t.Fatalf("expected web + news results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Success || r.RecordsStored != 2 {
			t.Fatalf("expected 2 registered sources for %s, got %+v", r.DataType, r)
		}
	}
}

func TestIsConfiguredAlwaysTrue(t *testing.T) {
	p := New(resty.New(), memory.New())
	if !p.IsConfigured() {
		t.Fatal("ddg provider needs no auth and should always be configured")
	}
}
