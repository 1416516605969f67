// Package fred implements the FRED (Federal Reserve Economic Data)
// macro provider. FRED series are global, not company-specific, so
// FetchCompanyData ignores the entity and refreshes the same core
// series set every time it runs. Grounded on
// original_source/connectors/providers/fred.py.
package fred

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/model"
	"marketintel/internal/provider"
	"marketintel/internal/repository"
)

const defaultBaseURL = "https://api.stlouisfed.org/fred"

// CoreSeries are the macro indicators refreshed on every fetch.
var CoreSeries = map[string]string{
	"GDP":          "Gross Domestic Product",
	"CPIAUCSL":     "Consumer Price Index (All Urban Consumers)",
	"UNRATE":       "Unemployment Rate",
	"DFF":          "Federal Funds Effective Rate",
	"T10YIE":       "10-Year Breakeven Inflation Rate",
	"VIXCLS":       "CBOE Volatility Index (VIX)",
	"SP500":        "S&P 500 Index",
	"DTWEXBGS":     "Trade Weighted US Dollar Index",
	"DGS10":        "10-Year Treasury Constant Maturity Rate",
	"DGS2":         "2-Year Treasury Constant Maturity Rate",
	"FEDFUNDS":     "Federal Funds Rate",
	"MORTGAGE30US": "30-Year Fixed Rate Mortgage Average",
}

// Provider is the FRED macro provider.
type Provider struct {
	http    *resty.Client
	baseURL string
	apiKey  string
	repo    repository.Repository
}

func New(http *resty.Client, apiKey string, repo repository.Repository) *Provider {
	return &Provider{http: http, baseURL: defaultBaseURL, apiKey: apiKey, repo: repo}
}

func NewWithBaseURL(http *resty.Client, baseURL, apiKey string, repo repository.Repository) *Provider {
	return &Provider{http: http, baseURL: baseURL, apiKey: apiKey, repo: repo}
}

func (p *Provider) Name() string       { return "fred" }
func (p *Provider) IsConfigured() bool { return p.apiKey != "" }

type fredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type fredObservationsResponse struct {
	Observations []fredObservation `json:"observations"`
}

func (p *Provider) seriesObservations(ctx context.Context, seriesID string) []fredObservation {
	var resp fredObservationsResponse
	startDate := time.Now().UTC().AddDate(-2, 0, 0).Format("2006-01-02")
	httpResp, err := p.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"series_id":         seriesID,
			"api_key":           p.apiKey,
			"file_type":         "json",
			"observation_start": startDate,
			"sort_order":        "desc",
			"limit":             "100",
		}).
		SetResult(&resp).
		Get(p.baseURL + "/series/observations")
	if err != nil || !httpResp.IsSuccess() {
		return nil
	}
	return resp.Observations
}

func (p *Provider) storeSeries(ctx context.Context, seriesID, seriesName string) int {
	stored := 0
	for _, obs := range p.seriesObservations(ctx, seriesID) {
		if obs.Date == "" || obs.Value == "" || obs.Value == "." {
			continue
		}
		value, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			continue
		}
		obsDate, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			continue
		}
		err = p.repo.UpsertMacro(ctx, model.MacroObservation{
			SeriesID:   seriesID,
			SeriesName: seriesName,
			Date:       obsDate,
			Value:      value,
		})
		if err == nil {
			stored++
		}
	}
	return stored
}

// FetchAllCoreSeries refreshes every series in CoreSeries, one
// ProviderResult per series.
func (p *Provider) FetchAllCoreSeries(ctx context.Context) []provider.Result {
	now := time.Now().UTC()
	results := make([]provider.Result, 0, len(CoreSeries))
	for seriesID, seriesName := range CoreSeries {
		count := p.storeSeries(ctx, seriesID, seriesName)
		results = append(results, provider.Result{
			Provider:      p.Name(),
			DataType:      fmt.Sprintf("macro:%s", seriesID),
			RecordsStored: count,
			Success:       count > 0,
			FetchedAt:     now,
		})
	}
	return results
}

// FetchCompanyData ignores entity: FRED data is global macro context,
// refreshed alongside any per-entity enrichment pass.
func (p *Provider) FetchCompanyData(ctx context.Context, entity provider.Entity) []provider.Result {
	return p.FetchAllCoreSeries(ctx)
}
