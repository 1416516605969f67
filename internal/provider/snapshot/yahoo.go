// Package snapshot implements Yahoo Finance's public, unauthenticated
// quote-search endpoint, satisfying internal/resolver.SymbolSearcher.
// Grounded on original_source/core/entities.py's _resolve_via_yahoo
// and autocomplete_tickers.
package snapshot

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/model"
	"marketintel/internal/resolver"
)

const defaultBaseURL = "https://query2.finance.yahoo.com/v1/finance/search"

// YahooSearcher implements resolver.SymbolSearcher over Yahoo Finance's
// public quote search API.
type YahooSearcher struct {
	http    *resty.Client
	baseURL string
}

func New(http *resty.Client) *YahooSearcher {
	return &YahooSearcher{http: http, baseURL: defaultBaseURL}
}

func NewWithBaseURL(http *resty.Client, baseURL string) *YahooSearcher {
	return &YahooSearcher{http: http, baseURL: baseURL}
}

type yahooQuote struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortname"`
	LongName  string `json:"longname"`
	Exchange  string `json:"exchange"`
	QuoteType string `json:"quoteType"`
}

type yahooSearchResponse struct {
	Quotes []yahooQuote `json:"quotes"`
}

// Search queries Yahoo Finance's quote search, returning equity/ETF
// matches only (futures, crypto, and indices are filtered out), newest
// API result order preserved, capped at limit.
func (y *YahooSearcher) Search(ctx context.Context, query string, limit int) ([]resolver.SymbolMatch, error) {
	var resp yahooSearchResponse
	httpResp, err := y.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; MarketIntelBot/0.1)").
		SetQueryParams(map[string]string{"q": strings.TrimSpace(query), "quotesCount": strconv.Itoa(maxInt(limit, 1)), "newsCount": "0"}).
		SetResult(&resp).
		Get(y.baseURL)
	if err != nil || !httpResp.IsSuccess() {
		return nil, err
	}

	var matches []resolver.SymbolMatch
	for _, q := range resp.Quotes {
		qtype := strings.ToUpper(q.QuoteType)
		if qtype != "EQUITY" && qtype != "ETF" {
			continue
		}
		name := q.ShortName
		if name == "" {
			name = q.LongName
		}
		entityType := model.EntityTypeCompany
		if qtype == "ETF" {
			entityType = model.EntityTypeETF
		}
		matches = append(matches, resolver.SymbolMatch{
			Ticker:     q.Symbol,
			Name:       name,
			Exchange:   q.Exchange,
			EntityType: entityType,
		})
		if len(matches) >= limit {
			break
		}
	}
	return matches, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

const chartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

type yahooChartMeta struct {
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	Currency            string   `json:"currency"`
	MarketCap           *float64 `json:"marketCap"`
	FiftyTwoWeekLow     *float64 `json:"fiftyTwoWeekLow"`
	FiftyTwoWeekHigh    *float64 `json:"fiftyTwoWeekHigh"`
	TrailingPE          *float64 `json:"trailingPE"`
}

type yahooChartResult struct {
	Meta yahooChartMeta `json:"meta"`
}

type yahooChartPayload struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
	} `json:"chart"`
}

// FetchSnapshot satisfies internal/orchestrator.FinancialSnapshotProvider
// over Yahoo's public chart endpoint, the Go-portable equivalent of
// fetch_financial_snapshot's httpx fallback path (there is no Go
// equivalent of the yfinance library the primary path used).
func (y *YahooSearcher) FetchSnapshot(ctx context.Context, ticker string) (model.FinancialSnapshot, error) {
	var payload yahooChartPayload
	httpResp, err := y.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; MarketIntelBot/0.1)").
		SetQueryParams(map[string]string{"range": "1mo", "interval": "1d"}).
		SetResult(&payload).
		Get(chartBaseURL + ticker)
	if err != nil {
		return model.FinancialSnapshot{}, err
	}
	if !httpResp.IsSuccess() || len(payload.Chart.Result) == 0 {
		return model.FinancialSnapshot{}, nil
	}

	meta := payload.Chart.Result[0].Meta
	snap := model.FinancialSnapshot{
		Symbol:           ticker,
		Source:           "yahoo_chart",
		Price:            meta.RegularMarketPrice,
		Currency:         meta.Currency,
		MarketCap:        meta.MarketCap,
		TrailingPE:       meta.TrailingPE,
		FiftyTwoWeekLow:  meta.FiftyTwoWeekLow,
		FiftyTwoWeekHigh: meta.FiftyTwoWeekHigh,
	}
	if meta.FiftyTwoWeekLow != nil && meta.FiftyTwoWeekHigh != nil {
		snap.FiftyTwoWeekRange = strconv.FormatFloat(*meta.FiftyTwoWeekLow, 'f', 2, 64) + " - " + strconv.FormatFloat(*meta.FiftyTwoWeekHigh, 'f', 2, 64)
	}
	return snap, nil
}
