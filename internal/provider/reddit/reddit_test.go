package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/provider"
	"marketintel/internal/repository/memory"
)

func TestSimpleSentimentScoresKeywords(t *testing.T) {
	if got := simpleSentiment("this stock is bullish, a breakout is coming"); got <= 0 {
		t.Fatalf("expected positive sentiment, got %v", got)
	}
	if got := simpleSentiment("bearish crash incoming, sell now"); got >= 0 {
		t.Fatalf("expected negative sentiment, got %v", got)
	}
	if got := simpleSentiment("the weather today is mild"); got != 0 {
		t.Fatalf("expected neutral sentiment for unrelated text, got %v", got)
	}
}

func TestFetchCompanyDataStoresOneSignalRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"children":[
			{"data":{"title":"ACME to the moon, bullish breakout","score":100,"num_comments":20,"permalink":"/r/stocks/1"}}
		]}}`))
	}))
	defer srv.Close()

	p := NewWithBaseURL(resty.New(), srv.URL, memory.New())
	results := p.FetchCompanyData(context.Background(), provider.Entity{Ticker: "ACME", Name: "Acme Corp"})
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected one successful result, got %+v", results)
	}
}

func TestIsConfiguredAlwaysTrue(t *testing.T) {
	p := New(resty.New(), memory.New())
	if !p.IsConfigured() {
		t.Fatal("reddit provider needs no auth and should always be configured")
	}
}
