// Package alphavantage implements the Alpha Vantage structured data
// provider: quarterly income/balance/cash-flow statements plus earnings
// history, all via one query-function API. Grounded on
// original_source/connectors/providers/alpha_vantage.py.
package alphavantage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/model"
	"marketintel/internal/provider"
	"marketintel/internal/repository"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

// Free tier allows 25 calls/day.
const dailyLimit = 25

// Provider is the Alpha Vantage provider.
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

func (p *Provider) Name() string       { return "alpha_vantage" }
func (p *Provider) IsConfigured() bool { return p.apiKey != "" }
func (p *Provider) DailyLimit() int    { return dailyLimit }

// get performs one authenticated call, returning nil on transport
// error, non-2xx, or Alpha Vantage's in-body "Error Message"/"Note"
// rate-limit signal.
func (p *Provider) get(ctx context.Context, function, symbol string) map[string]any {
	out := map[string]any{}
	resp, err := p.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"function": function, "symbol": symbol, "apikey": p.apiKey}).
		SetResult(&out).
		Get(p.baseURL)
	if err != nil || !resp.IsSuccess() {
		return nil
	}
	if _, bad := out["Error Message"]; bad {
		return nil
	}
	if _, bad := out["Note"]; bad {
		return nil
	}
	return out
}

func safeFloat(v any) *float64 {
	s, ok := v.(string)
	if !ok || s == "" || s == "None" {
		return nil
	}
	var f float64
	if _, err := fmt.Sscanf(s, "%f", &f); err != nil {
		return nil
	}
	return &f
}

func reports(out map[string]any, key string) []map[string]any {
	raw, ok := out[key].([]any)
	if !ok {
		return nil
	}
	items := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items
}

func periodEndOf(item map[string]any) (time.Time, bool) {
	s, _ := item["fiscalDateEnding"].(string)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	return t, err == nil
}

func (p *Provider) fetchIncomeStatements(ctx context.Context, entity provider.Entity) int {
	out := p.get(ctx, "INCOME_STATEMENT", entity.Ticker)
	if out == nil {
		return 0
	}
	stored := 0
	for _, item := range reports(out, "quarterlyReports") {
		periodEnd, ok := periodEndOf(item)
		if !ok {
			continue
		}
		_, err := p.repo.UpsertFinancialPeriod(ctx, model.FinancialPeriod{
			EntityID:       entity.ID,
			Ticker:         entity.Ticker,
			PeriodType:     model.PeriodQuarterly,
			PeriodEnd:      periodEnd,
			SourceProvider: p.Name(),
			Income: model.IncomeStatement{
				TotalRevenue:    safeFloat(item["totalRevenue"]),
				CostOfRevenue:   safeFloat(item["costOfRevenue"]),
				GrossProfit:     safeFloat(item["grossProfit"]),
				OperatingIncome: safeFloat(item["operatingIncome"]),
				NetIncome:       safeFloat(item["netIncome"]),
				Extra:           map[string]float64{},
			},
		})
		if err == nil {
			stored++
		}
	}
	return stored
}

func (p *Provider) fetchBalanceSheets(ctx context.Context, entity provider.Entity) int {
	out := p.get(ctx, "BALANCE_SHEET", entity.Ticker)
	if out == nil {
		return 0
	}
	stored := 0
	for _, item := range reports(out, "quarterlyReports") {
		periodEnd, ok := periodEndOf(item)
		if !ok {
			continue
		}
		_, err := p.repo.UpsertFinancialPeriod(ctx, model.FinancialPeriod{
			EntityID:       entity.ID,
			Ticker:         entity.Ticker,
			PeriodType:     model.PeriodQuarterly,
			PeriodEnd:      periodEnd,
			SourceProvider: p.Name(),
			Balance: model.BalanceSheet{
				TotalAssets:      safeFloat(item["totalAssets"]),
				TotalLiabilities: safeFloat(item["totalLiabilities"]),
				TotalEquity:      safeFloat(item["totalShareholderEquity"]),
				CashAndEquiv:     safeFloat(item["cashAndCashEquivalentsAtCarryingValue"]),
				TotalDebt:        safeFloat(item["longTermDebt"]),
			},
		})
		if err == nil {
			stored++
		}
	}
	return stored
}

func (p *Provider) fetchCashFlows(ctx context.Context, entity provider.Entity) int {
	out := p.get(ctx, "CASH_FLOW", entity.Ticker)
	if out == nil {
		return 0
	}
	stored := 0
	for _, item := range reports(out, "quarterlyReports") {
		periodEnd, ok := periodEndOf(item)
		if !ok {
			continue
		}
		_, err := p.repo.UpsertFinancialPeriod(ctx, model.FinancialPeriod{
			EntityID:       entity.ID,
			Ticker:         entity.Ticker,
			PeriodType:     model.PeriodQuarterly,
			PeriodEnd:      periodEnd,
			SourceProvider: p.Name(),
			CashFlow: model.CashFlowStatement{
				OperatingCashFlow:  safeFloat(item["operatingCashflow"]),
				CapitalExpenditure: safeFloat(item["capitalExpenditures"]),
			},
		})
		if err == nil {
			stored++
		}
	}
	return stored
}

func (p *Provider) fetchEarnings(ctx context.Context, entity provider.Entity) int {
	out := p.get(ctx, "EARNINGS", entity.Ticker)
	if out == nil {
		return 0
	}
	stored := 0
	for _, item := range reports(out, "quarterlyEarnings") {
		periodEnd, ok := periodEndOf(item)
		if !ok {
			continue
		}
		extra := map[string]float64{}
		if v := safeFloat(item["surprise"]); v != nil {
			extra["surprise"] = *v
		}
		_, err := p.repo.UpsertFinancialPeriod(ctx, model.FinancialPeriod{
			EntityID:       entity.ID,
			Ticker:         entity.Ticker,
			PeriodType:     model.PeriodQuarterly,
			PeriodEnd:      periodEnd,
			SourceProvider: p.Name(),
			Metrics: model.KeyMetrics{
				Extra: extra,
			},
		})
		if err == nil {
			stored++
		}
	}
	return stored
}

// FetchCompanyData stores income, balance, cash flow, and earnings
// history for entity, one call per statement type (four of the 25
// daily calls).
func (p *Provider) FetchCompanyData(ctx context.Context, entity provider.Entity) []provider.Result {
	now := time.Now().UTC()
	if entity.Ticker == "" {
		return []provider.Result{{Provider: p.Name(), DataType: "all", Success: false, Error: "no ticker", FetchedAt: now}}
	}

	inc := p.fetchIncomeStatements(ctx, entity)
	bal := p.fetchBalanceSheets(ctx, entity)
	cf := p.fetchCashFlows(ctx, entity)
	earn := p.fetchEarnings(ctx, entity)

	return []provider.Result{
		{Provider: p.Name(), DataType: "income_statement", RecordsStored: inc, Success: inc > 0, FetchedAt: now},
		{Provider: p.Name(), DataType: "balance_sheet", RecordsStored: bal, Success: bal > 0, FetchedAt: now},
		{Provider: p.Name(), DataType: "cash_flow", RecordsStored: cf, Success: cf > 0, FetchedAt: now},
		{Provider: p.Name(), DataType: "earnings", RecordsStored: earn, Success: earn > 0, FetchedAt: now},
	}
}
