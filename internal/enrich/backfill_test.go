package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/repository/memory"
)

func TestYahooQuarterlyBackfillStoresAllThreeStatements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"quoteSummary": {
				"result": [{
					"incomeStatementHistoryQuarterly": {
						"incomeStatementHistory": [{"endDate": {"raw": 1719705600}, "totalRevenue": {"raw": 1000}, "netIncome": {"raw": 100}}]
					},
					"balanceSheetHistoryQuarterly": {
						"balanceSheetStatements": [{"endDate": {"raw": 1719705600}, "totalAssets": {"raw": 5000}}]
					},
					"cashflowStatementHistoryQuarterly": {
						"cashflowStatements": [{"endDate": {"raw": 1719705600}, "totalCashFromOperatingActivities": {"raw": 200}}]
					}
				}]
			}
		}`))
	}))
	defer srv.Close()

	repo := memory.New()
	b := NewYahooQuarterlyBackfillWithBaseURL(resty.New(), srv.URL, repo)

	stored, err := b.BackfillQuarterly(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored != 3 {
		t.Fatalf("expected 3 periods stored, got %d", stored)
	}
}

func TestYahooQuarterlyBackfillRequiresTicker(t *testing.T) {
	b := NewYahooQuarterlyBackfill(resty.New(), memory.New())
	if _, err := b.BackfillQuarterly(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty ticker")
	}
}
