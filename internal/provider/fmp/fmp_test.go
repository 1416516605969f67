package fmp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/provider"
	"marketintel/internal/repository/memory"
)

func TestFetchCompanyDataStoresAllFourStatements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case containsPath(r.URL.Path, "income-statement"):
			w.Write([]byte(`[{"date":"2024-06-30","calendarYear":"2024","period":"Q2","revenue":1000,"netIncome":100}]`))
		case containsPath(r.URL.Path, "balance-sheet-statement"):
			w.Write([]byte(`[{"date":"2024-06-30","totalAssets":5000}]`))
		case containsPath(r.URL.Path, "cash-flow-statement"):
			w.Write([]byte(`[{"date":"2024-06-30","operatingCashFlow":200}]`))
		case containsPath(r.URL.Path, "key-metrics"):
			w.Write([]byte(`[{"date":"2024-06-30","peRatio":15.2}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := resty.New()
	repo := memory.New()
	p := NewWithBaseURL(client, srv.URL, "test-key", repo)

	results := p.FetchCompanyData(context.Background(), provider.Entity{Ticker: "ACME"})
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
}

func TestIsConfiguredRequiresAPIKey(t *testing.T) {
	p := New(resty.New(), "", nil)
	if p.IsConfigured() {
		t.Fatal("expected IsConfigured to be false without an API key")
	}
}

func containsPath(path, substr string) bool {
	for i := 0; i+len(substr) <= len(path); i++ {
		if path[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
