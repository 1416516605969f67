package polygon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/provider"
	"marketintel/internal/repository/memory"
)

func TestFetchCompanyDataStoresQuarterlyPeriods(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"end_date":"2024-06-30","financials":{
			"income_statement":{"revenues":{"value":1000},"net_income_loss":{"value":100}},
			"balance_sheet":{"assets":{"value":5000}},
			"cash_flow_statement":{"net_cash_flow_from_operating_activities":{"value":200}}
		}}]}`))
	}))
	defer srv.Close()

	p := NewWithBaseURL(resty.New(), srv.URL, "test-key", memory.New())
	results := p.FetchCompanyData(context.Background(), provider.Entity{Ticker: "ACME"})
	if len(results) != 1 || !results[0].Success || results[0].RecordsStored != 1 {
		t.Fatalf("expected one stored financial period, got %+v", results)
	}
}

func TestIsConfiguredRequiresAPIKey(t *testing.T) {
	p := New(resty.New(), "", nil)
	if p.IsConfigured() {
		t.Fatal("expected IsConfigured to be false without an API key")
	}
}
