package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/provider"
	"marketintel/internal/repository/memory"
)

func TestFetchCompanyDataStoresFourStatementTypes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("function") {
		case "INCOME_STATEMENT":
			w.Write([]byte(`{"quarterlyReports":[{"fiscalDateEnding":"2024-06-30","totalRevenue":"1000","netIncome":"100"}]}`))
		case "BALANCE_SHEET":
			w.Write([]byte(`{"quarterlyReports":[{"fiscalDateEnding":"2024-06-30","totalAssets":"5000"}]}`))
		case "CASH_FLOW":
			w.Write([]byte(`{"quarterlyReports":[{"fiscalDateEnding":"2024-06-30","operatingCashflow":"200"}]}`))
		case "EARNINGS":
			w.Write([]byte(`{"quarterlyEarnings":[{"fiscalDateEnding":"2024-06-30","reportedEPS":"1.5"}]}`))
		}
	}))
	defer srv.Close()

	p := NewWithBaseURL(resty.New(), srv.URL, "test-key", memory.New())
	results := p.FetchCompanyData(context.Background(), provider.Entity{Ticker: "ACME"})
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Success {
			t.Fatalf("expected %s to succeed, got error %q", r.DataType, r.Error)
		}
	}
}

func TestGetRejectsRateLimitNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Note":"daily limit reached"}`))
	}))
	defer srv.Close()

	p := NewWithBaseURL(resty.New(), srv.URL, "test-key", memory.New())
	if out := p.get(context.Background(), "INCOME_STATEMENT", "ACME"); out != nil {
		t.Fatal("expected get to return nil on a rate-limit Note")
	}
}
