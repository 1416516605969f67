// Package polygon implements the Polygon.io structured financials
// provider (quarterly XBRL-derived statements). Grounded on
// original_source/connectors/providers/polygon.py.
package polygon

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/model"
	"marketintel/internal/provider"
	"marketintel/internal/repository"
)

const defaultBaseURL = "https://api.polygon.io/vX/reference/financials"

// Provider is the Polygon.io financials provider.
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

func (p *Provider) Name() string       { return "polygon" }
func (p *Provider) IsConfigured() bool { return p.apiKey != "" }

type polygonValue struct {
	Value float64 `json:"value"`
}

type polygonFinancials struct {
	IncomeStatement   map[string]polygonValue `json:"income_statement"`
	BalanceSheet      map[string]polygonValue `json:"balance_sheet"`
	CashFlowStatement map[string]polygonValue `json:"cash_flow_statement"`
}

type polygonResultItem struct {
	EndDate    string            `json:"end_date"`
	Financials polygonFinancials `json:"financials"`
}

type polygonResponse struct {
	Results []polygonResultItem `json:"results"`
}

func extractVal(m map[string]polygonValue, key string) *float64 {
	v, ok := m[key]
	if !ok {
		return nil
	}
	out := v.Value
	return &out
}

// FetchCompanyData stores up to four quarterly financial periods of
// XBRL-derived income/balance/cash-flow data for entity.
func (p *Provider) FetchCompanyData(ctx context.Context, entity provider.Entity) []provider.Result {
	now := time.Now().UTC()
	if entity.Ticker == "" {
		return []provider.Result{{Provider: p.Name(), DataType: "financials", Success: false, Error: "no ticker", FetchedAt: now}}
	}

	var data polygonResponse
	resp, err := p.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ticker":    entity.Ticker,
			"timeframe": "quarterly",
			"limit":     "4",
			"apiKey":    p.apiKey,
		}).
		SetResult(&data).
		Get(p.baseURL)
	if err != nil || !resp.IsSuccess() {
		return []provider.Result{{Provider: p.Name(), DataType: "financials", Success: false, Error: "polygon financials unavailable", FetchedAt: now}}
	}

	stored := 0
	for _, item := range data.Results {
		if item.EndDate == "" {
			continue
		}
		periodEnd, err := time.Parse("2006-01-02", item.EndDate)
		if err != nil {
			continue
		}
		_, err = p.repo.UpsertFinancialPeriod(ctx, model.FinancialPeriod{
			EntityID:       entity.ID,
			Ticker:         entity.Ticker,
			PeriodType:     model.PeriodQuarterly,
			PeriodEnd:      periodEnd,
			SourceProvider: p.Name(),
			Income: model.IncomeStatement{
				TotalRevenue:    extractVal(item.Financials.IncomeStatement, "revenues"),
				GrossProfit:     extractVal(item.Financials.IncomeStatement, "gross_profit"),
				OperatingIncome: extractVal(item.Financials.IncomeStatement, "operating_income_loss"),
				NetIncome:       extractVal(item.Financials.IncomeStatement, "net_income_loss"),
			},
			Balance: model.BalanceSheet{
				TotalAssets:      extractVal(item.Financials.BalanceSheet, "assets"),
				TotalLiabilities: extractVal(item.Financials.BalanceSheet, "liabilities"),
				TotalEquity:      extractVal(item.Financials.BalanceSheet, "equity"),
			},
			CashFlow: model.CashFlowStatement{
				OperatingCashFlow: extractVal(item.Financials.CashFlowStatement, "net_cash_flow_from_operating_activities"),
			},
		})
		if err == nil {
			stored++
		}
	}

	return []provider.Result{{Provider: p.Name(), DataType: "financials", RecordsStored: stored, Success: stored > 0 || resp.IsSuccess(), FetchedAt: now}}
}
