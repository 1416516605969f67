package fred

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/provider"
	"marketintel/internal/repository/memory"
)

func TestFetchCompanyDataIgnoresEntityAndRefreshesCoreSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"observations":[{"date":"2024-06-01","value":"3.1"}]}`))
	}))
	defer srv.Close()

	p := NewWithBaseURL(resty.New(), srv.URL, "test-key", memory.New())
	results := p.FetchCompanyData(context.Background(), provider.Entity{})
	if len(results) != len(CoreSeries) {
		t.Fatalf("expected %d results, got %d", len(CoreSeries), len(results))
	}
	for _, r := range results {
		if !r.Success {
			t.Fatalf("expected %s to succeed", r.DataType)
		}
	}
}

func TestStoreSeriesSkipsMissingValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"observations":[{"date":"2024-06-01","value":"."},{"date":"","value":"1.0"}]}`))
	}))
	defer srv.Close()

	p := NewWithBaseURL(resty.New(), srv.URL, "test-key", memory.New())
	if got := p.storeSeries(context.Background(), "GDP", "Gross Domestic Product"); got != 0 {
		t.Fatalf("expected 0 stored, got %d", got)
	}
}
