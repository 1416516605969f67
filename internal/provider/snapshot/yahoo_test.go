package snapshot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/model"
)

func TestSearchFiltersToEquityAndETF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"quotes":[
			{"symbol":"BTCUSD","quoteType":"CRYPTOCURRENCY"},
			{"symbol":"ACME","shortname":"Acme Corp","exchange":"NASDAQ","quoteType":"EQUITY"},
			{"symbol":"SPY","shortname":"SPDR S&P 500","exchange":"NYSEARCA","quoteType":"ETF"}
		]}`))
	}))
	defer srv.Close()

	y := NewWithBaseURL(resty.New(), srv.URL)
	matches, err := y.Search(context.Background(), "acme", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches (equity + etf), got %d: %+v", len(matches), matches)
	}
	if matches[0].Ticker != "ACME" || matches[0].EntityType != model.EntityTypeCompany {
		t.Fatalf("unexpected first match: %+v", matches[0])
	}
	if matches[1].Ticker != "SPY" || matches[1].EntityType != model.EntityTypeETF {
		t.Fatalf("unexpected second match: %+v", matches[1])
	}
}
