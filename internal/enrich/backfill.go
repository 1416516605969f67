package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"marketintel/internal/model"
	"marketintel/internal/repository"
)

const defaultQuoteSummaryBaseURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary"

// YahooQuarterlyBackfill implements QuarterlyBackfillProvider against
// Yahoo Finance's public quoteSummary endpoint, the same data source the
// yfinance library scrapes for its quarterly income/balance/cash-flow
// statements. Grounded on
// original_source/core/pipeline/yfinance_inline.go's per-statement upsert
// shape, adapted to the resty request-builder style the structured data
// providers already use.
type YahooQuarterlyBackfill struct {
	http    *resty.Client
	baseURL string
	repo    repository.Repository
}

func NewYahooQuarterlyBackfill(http *resty.Client, repo repository.Repository) *YahooQuarterlyBackfill {
	return &YahooQuarterlyBackfill{http: http, baseURL: defaultQuoteSummaryBaseURL, repo: repo}
}

func NewYahooQuarterlyBackfillWithBaseURL(http *resty.Client, baseURL string, repo repository.Repository) *YahooQuarterlyBackfill {
	return &YahooQuarterlyBackfill{http: http, baseURL: baseURL, repo: repo}
}

type quoteSummaryEnvelope struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
	} `json:"quoteSummary"`
}

type quoteSummaryResult struct {
	IncomeStatementHistoryQuarterly struct {
		Statements []quoteSummaryIncomeRow `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistoryQuarterly"`
	BalanceSheetHistoryQuarterly struct {
		Statements []quoteSummaryBalanceRow `json:"balanceSheetStatements"`
	} `json:"balanceSheetHistoryQuarterly"`
	CashflowStatementHistoryQuarterly struct {
		Statements []quoteSummaryCashflowRow `json:"cashflowStatements"`
	} `json:"cashflowStatementHistoryQuarterly"`
}

type rawValue struct {
	Raw *float64 `json:"raw"`
}

type quoteSummaryIncomeRow struct {
	EndDate         rawValue `json:"endDate"`
	TotalRevenue    rawValue `json:"totalRevenue"`
	CostOfRevenue   rawValue `json:"costOfRevenue"`
	GrossProfit     rawValue `json:"grossProfit"`
	OperatingIncome rawValue `json:"operatingIncome"`
	NetIncome       rawValue `json:"netIncome"`
}

type quoteSummaryBalanceRow struct {
	EndDate                 rawValue `json:"endDate"`
	TotalAssets             rawValue `json:"totalAssets"`
	TotalLiab               rawValue `json:"totalLiab"`
	TotalStockholderEquity  rawValue `json:"totalStockholderEquity"`
	Cash                    rawValue `json:"cash"`
	ShortLongTermDebtTotal  rawValue `json:"shortLongTermDebtTotal"`
}

type quoteSummaryCashflowRow struct {
	EndDate               rawValue `json:"endDate"`
	TotalCashFromOperating rawValue `json:"totalCashFromOperatingActivities"`
	CapitalExpenditures   rawValue `json:"capitalExpenditures"`
}

func fiscalQuarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

func periodEndFromRaw(raw *float64) (time.Time, bool) {
	if raw == nil {
		return time.Time{}, false
	}
	return time.Unix(int64(*raw), 0).UTC(), true
}

// BackfillQuarterly fetches quarterly income, balance, and cash-flow
// statements for ticker and upserts them as FinancialPeriod rows. Returns
// the number of successful statement upserts: each statement is upserted
// on its own, so one quarter with all three statements counts three.
func (b *YahooQuarterlyBackfill) BackfillQuarterly(ctx context.Context, ticker string) (int, error) {
	if ticker == "" {
		return 0, fmt.Errorf("yahoo quarterly backfill: ticker required")
	}

	var envelope quoteSummaryEnvelope
	resp, err := b.http.R().
		SetContext(ctx).
		SetQueryParam("modules", "incomeStatementHistoryQuarterly,balanceSheetHistoryQuarterly,cashflowStatementHistoryQuarterly").
		SetResult(&envelope).
		Get(fmt.Sprintf("%s/%s", b.baseURL, ticker))
	if err != nil {
		return 0, fmt.Errorf("yahoo quarterly backfill: request: %w", err)
	}
	if !resp.IsSuccess() || len(envelope.QuoteSummary.Result) == 0 {
		return 0, fmt.Errorf("yahoo quarterly backfill: no data for %s", ticker)
	}

	result := envelope.QuoteSummary.Result[0]
	stored := 0

	for _, row := range result.IncomeStatementHistoryQuarterly.Statements {
		periodEnd, ok := periodEndFromRaw(row.EndDate.Raw)
		if !ok {
			continue
		}
		_, err := b.repo.UpsertFinancialPeriod(ctx, model.FinancialPeriod{
			Ticker:         ticker,
			PeriodType:     model.PeriodQuarterly,
			PeriodEnd:      periodEnd,
			FiscalYear:     periodEnd.Year(),
			FiscalQuarter:  fiscalQuarterOf(periodEnd),
			SourceProvider: "yahoo_quarterly_backfill",
			Income: model.IncomeStatement{
				TotalRevenue:    row.TotalRevenue.Raw,
				CostOfRevenue:   row.CostOfRevenue.Raw,
				GrossProfit:     row.GrossProfit.Raw,
				OperatingIncome: row.OperatingIncome.Raw,
				NetIncome:       row.NetIncome.Raw,
			},
		})
		if err == nil {
			stored++
		}
	}

	for _, row := range result.BalanceSheetHistoryQuarterly.Statements {
		periodEnd, ok := periodEndFromRaw(row.EndDate.Raw)
		if !ok {
			continue
		}
		_, err := b.repo.UpsertFinancialPeriod(ctx, model.FinancialPeriod{
			Ticker:         ticker,
			PeriodType:     model.PeriodQuarterly,
			PeriodEnd:      periodEnd,
			FiscalYear:     periodEnd.Year(),
			FiscalQuarter:  fiscalQuarterOf(periodEnd),
			SourceProvider: "yahoo_quarterly_backfill",
			Balance: model.BalanceSheet{
				TotalAssets:      row.TotalAssets.Raw,
				TotalLiabilities: row.TotalLiab.Raw,
				TotalEquity:      row.TotalStockholderEquity.Raw,
				CashAndEquiv:     row.Cash.Raw,
				TotalDebt:        row.ShortLongTermDebtTotal.Raw,
			},
		})
		if err == nil {
			stored++
		}
	}

	for _, row := range result.CashflowStatementHistoryQuarterly.Statements {
		periodEnd, ok := periodEndFromRaw(row.EndDate.Raw)
		if !ok {
			continue
		}
		_, err := b.repo.UpsertFinancialPeriod(ctx, model.FinancialPeriod{
			Ticker:         ticker,
			PeriodType:     model.PeriodQuarterly,
			PeriodEnd:      periodEnd,
			FiscalYear:     periodEnd.Year(),
			FiscalQuarter:  fiscalQuarterOf(periodEnd),
			SourceProvider: "yahoo_quarterly_backfill",
			CashFlow: model.CashFlowStatement{
				OperatingCashFlow:  row.TotalCashFromOperating.Raw,
				CapitalExpenditure: row.CapitalExpenditures.Raw,
			},
		})
		if err == nil {
			stored++
		}
	}

	return stored, nil
}
