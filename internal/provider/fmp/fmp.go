// Package fmp implements the Financial Modeling Prep structured data
// provider: income statements, balance sheets, cash flows, key metrics,
// and company profile enrichment. Grounded on
// original_source/connectors/providers/fmp.py.
package fmp

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/model"
	"marketintel/internal/provider"
	"marketintel/internal/repository"
)

const defaultBaseURL = "https://financialmodelingprep.com/api/v3"

// Free-tier FMP allows 250 calls/day.
const dailyLimit = 250

// Provider is the FMP structured data provider.
type Provider struct {
	http    *resty.Client
	baseURL string
	apiKey  string
	repo    repository.Repository
}

// New builds a Provider against the production FMP API. apiKey empty
// means IsConfigured() returns false.
func New(http *resty.Client, apiKey string, repo repository.Repository) *Provider {
	return &Provider{http: http, baseURL: defaultBaseURL, apiKey: apiKey, repo: repo}
}

// NewWithBaseURL builds a Provider against a non-default base URL, for
// tests that stand up a local stub server.
func NewWithBaseURL(http *resty.Client, baseURL, apiKey string, repo repository.Repository) *Provider {
	return &Provider{http: http, baseURL: baseURL, apiKey: apiKey, repo: repo}
}

func (p *Provider) Name() string       { return "fmp" }
func (p *Provider) IsConfigured() bool { return p.apiKey != "" }
func (p *Provider) DailyLimit() int    { return dailyLimit }

func (p *Provider) get(ctx context.Context, path string, params map[string]string, out any) bool {
	req := p.http.R().SetContext(ctx).SetQueryParam("apikey", p.apiKey).SetResult(out)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}
	resp, err := req.Get(fmt.Sprintf("%s/%s", p.baseURL, path))
	return err == nil && resp.IsSuccess()
}

type fmpIncomeItem struct {
	Date            string   `json:"date"`
	CalendarYear    string   `json:"calendarYear"`
	Period          string   `json:"period"`
	Revenue         *float64 `json:"revenue"`
	CostOfRevenue   *float64 `json:"costOfRevenue"`
	GrossProfit     *float64 `json:"grossProfit"`
	OperatingIncome *float64 `json:"operatingIncome"`
	NetIncome       *float64 `json:"netIncome"`
	EPS             *float64 `json:"eps"`
	EPSDiluted      *float64 `json:"epsdiluted"`
}

type fmpBalanceItem struct {
	Date                    string   `json:"date"`
	TotalAssets             *float64 `json:"totalAssets"`
	TotalLiabilities        *float64 `json:"totalLiabilities"`
	TotalStockholdersEquity *float64 `json:"totalStockholdersEquity"`
	CashAndCashEquivalents  *float64 `json:"cashAndCashEquivalents"`
	TotalDebt               *float64 `json:"totalDebt"`
}

type fmpCashFlowItem struct {
	Date               string   `json:"date"`
	OperatingCashFlow  *float64 `json:"operatingCashFlow"`
	CapitalExpenditure *float64 `json:"capitalExpenditure"`
	FreeCashFlow       *float64 `json:"freeCashFlow"`
}

type fmpKeyMetricsItem struct {
	Date                   string   `json:"date"`
	PERatio                *float64 `json:"peRatio"`
	MarketCap              *float64 `json:"marketCap"`
	RevenuePerShare        *float64 `json:"revenuePerShare"`
	NetIncomePerShare      *float64 `json:"netIncomePerShare"`
}

type fmpProfileItem struct {
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
	CompanyName string `json:"companyName"`
}

// Profile satisfies internal/resolver.ProfileEnricher.
func (p *Provider) Profile(ctx context.Context, ticker string) (sector, industry, name string, err error) {
	var data []fmpProfileItem
	if !p.get(ctx, "profile/"+ticker, nil, &data) || len(data) == 0 {
		return "", "", "", fmt.Errorf("fmp profile unavailable for %s", ticker)
	}
	item := data[0]
	return item.Sector, item.Industry, item.CompanyName, nil
}

func fiscalQuarter(period string) int {
	if len(period) == 2 && period[0] == 'Q' {
		switch period[1] {
		case '1':
			return 1
		case '2':
			return 2
		case '3':
			return 3
		case '4':
			return 4
		}
	}
	return 0
}

func parsePeriodEnd(date string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", date)
	return t, err == nil
}

func (p *Provider) fetchIncomeStatements(ctx context.Context, entity provider.Entity) int {
	var data []fmpIncomeItem
	if !p.get(ctx, "income-statement/"+entity.Ticker, map[string]string{"period": "quarter", "limit": "20"}, &data) {
		return 0
	}
	stored := 0
	for _, item := range data {
		periodEnd, ok := parsePeriodEnd(item.Date)
		if !ok {
			continue
		}
		var fy int
		fmt.Sscanf(item.CalendarYear, "%d", &fy)
		_, err := p.repo.UpsertFinancialPeriod(ctx, model.FinancialPeriod{
			EntityID:       entity.ID,
			Ticker:         entity.Ticker,
			PeriodType:     model.PeriodQuarterly,
			PeriodEnd:      periodEnd,
			FiscalYear:     fy,
			FiscalQuarter:  fiscalQuarter(item.Period),
			SourceProvider: p.Name(),
			Income: model.IncomeStatement{
				TotalRevenue:    item.Revenue,
				CostOfRevenue:   item.CostOfRevenue,
				GrossProfit:     item.GrossProfit,
				OperatingIncome: item.OperatingIncome,
				NetIncome:       item.NetIncome,
				EPSBasic:        item.EPS,
				EPSDiluted:      item.EPSDiluted,
			},
		})
		if err == nil {
			stored++
		}
	}
	return stored
}

func (p *Provider) fetchBalanceSheets(ctx context.Context, entity provider.Entity) int {
	var data []fmpBalanceItem
	if !p.get(ctx, "balance-sheet-statement/"+entity.Ticker, map[string]string{"period": "quarter", "limit": "20"}, &data) {
		return 0
	}
	stored := 0
	for _, item := range data {
		periodEnd, ok := parsePeriodEnd(item.Date)
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
				TotalAssets:      item.TotalAssets,
				TotalLiabilities: item.TotalLiabilities,
				TotalEquity:      item.TotalStockholdersEquity,
				CashAndEquiv:     item.CashAndCashEquivalents,
				TotalDebt:        item.TotalDebt,
			},
		})
		if err == nil {
			stored++
		}
	}
	return stored
}

func (p *Provider) fetchCashFlows(ctx context.Context, entity provider.Entity) int {
	var data []fmpCashFlowItem
	if !p.get(ctx, "cash-flow-statement/"+entity.Ticker, map[string]string{"period": "quarter", "limit": "20"}, &data) {
		return 0
	}
	stored := 0
	for _, item := range data {
		periodEnd, ok := parsePeriodEnd(item.Date)
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
				OperatingCashFlow:  item.OperatingCashFlow,
				CapitalExpenditure: item.CapitalExpenditure,
				FreeCashFlow:       item.FreeCashFlow,
			},
		})
		if err == nil {
			stored++
		}
	}
	return stored
}

func (p *Provider) fetchKeyMetrics(ctx context.Context, entity provider.Entity) int {
	var data []fmpKeyMetricsItem
	if !p.get(ctx, "key-metrics/"+entity.Ticker, map[string]string{"period": "quarter", "limit": "20"}, &data) {
		return 0
	}
	stored := 0
	for _, item := range data {
		periodEnd, ok := parsePeriodEnd(item.Date)
		if !ok {
			continue
		}
		_, err := p.repo.UpsertFinancialPeriod(ctx, model.FinancialPeriod{
			EntityID:       entity.ID,
			Ticker:         entity.Ticker,
			PeriodType:     model.PeriodQuarterly,
			PeriodEnd:      periodEnd,
			SourceProvider: p.Name(),
			Metrics: model.KeyMetrics{
				PERatio:   item.PERatio,
				MarketCap: item.MarketCap,
			},
		})
		if err == nil {
			stored++
		}
	}
	return stored
}

// FetchCompanyData stores income, balance, cash flow, and key metrics
// quarterly periods for entity, one ProviderResult per statement type.
func (p *Provider) FetchCompanyData(ctx context.Context, entity provider.Entity) []provider.Result {
	if entity.Ticker == "" {
		return []provider.Result{{Provider: p.Name(), DataType: "all", Success: false, Error: "no ticker", FetchedAt: time.Now().UTC()}}
	}

	inc := p.fetchIncomeStatements(ctx, entity)
	bal := p.fetchBalanceSheets(ctx, entity)
	cf := p.fetchCashFlows(ctx, entity)
	km := p.fetchKeyMetrics(ctx, entity)

	now := time.Now().UTC()
	return []provider.Result{
		{Provider: p.Name(), DataType: "income_statement", RecordsStored: inc, Success: inc > 0, FetchedAt: now},
		{Provider: p.Name(), DataType: "balance_sheet", RecordsStored: bal, Success: bal > 0, FetchedAt: now},
		{Provider: p.Name(), DataType: "cash_flow", RecordsStored: cf, Success: cf > 0, FetchedAt: now},
		{Provider: p.Name(), DataType: "key_metrics", RecordsStored: km, Success: km > 0, FetchedAt: now},
	}
}
