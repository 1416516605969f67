package finra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/provider"
	"marketintel/internal/repository/memory"
)

func TestFetchCompanyDataHighShortInterestIsBearish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><table><tr><td>Short Interest % Float</td><td>25.5%</td></tr></table></body></html>`))
	}))
	defer srv.Close()

	repo := memory.New()
	p := NewWithBaseURL(resty.New(), srv.URL, repo)
	results := p.FetchCompanyData(context.Background(), provider.Entity{Ticker: "ACME"})
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected success, got %+v", results)
	}
	signals, err := repo.GetSocialSignals(context.Background(), "ACME", 2)
	if err != nil || len(signals) != 1 || signals[0].AvgSentiment >= 0 {
		t.Fatalf("expected one bearish (negative sentiment) signal, got %+v (err %v)", signals, err)
	}
}

func TestExtractShortInterestFallsBackToInlineText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>Short Interest 4.20 %</p></body></html>`))
	}))
	defer srv.Close()

	p := NewWithBaseURL(resty.New(), srv.URL, memory.New())
	results := p.FetchCompanyData(context.Background(), provider.Entity{Ticker: "ACME"})
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected success via inline fallback, got %+v", results)
	}
}
