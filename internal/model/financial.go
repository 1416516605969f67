package model

import "time"

// PeriodType distinguishes quarterly from annual financial periods.
type PeriodType string

const (
	PeriodQuarterly PeriodType = "quarterly"
	PeriodAnnual    PeriodType = "annual"
)

// FinancialSnapshot is the real-time quote/profile data gathered at
// query time. Its one producer in this module is the Yahoo chart
// endpoint (snapshot.YahooSearcher.FetchSnapshot); fields that response
// lacks stay nil, and no second provider fills them in.
type FinancialSnapshot struct {
	Symbol   string
	Source   string
	Price    *float64
	Currency string

	MarketCap     *float64
	TrailingPE    *float64
	ForwardPE     *float64
	PEGRatio      *float64
	DividendYield *float64
	AvgVolume     *float64
	Employees     *float64
	Beta          *float64

	RevenueGrowth   *float64
	EarningsGrowth  *float64
	GrossMargin     *float64
	OperatingMargin *float64
	ProfitMargin    *float64

	DebtToEquity     *float64
	CurrentRatio     *float64
	NextEarningsDate string

	FiftyTwoWeekLow   *float64
	FiftyTwoWeekHigh  *float64
	FiftyTwoWeekRange string

	Sector   string
	Industry string
}

// IncomeStatement holds the commonly-tagged income statement fields as
// optional numbers, plus a sparse Extra map for provider-specific keys
// that don't have a named field here.
type IncomeStatement struct {
	TotalRevenue    *float64           `json:"total_revenue,omitempty"`
	CostOfRevenue   *float64           `json:"cost_of_revenue,omitempty"`
	GrossProfit     *float64           `json:"gross_profit,omitempty"`
	OperatingIncome *float64           `json:"operating_income,omitempty"`
	NetIncome       *float64           `json:"net_income,omitempty"`
	EPSBasic        *float64           `json:"eps_basic,omitempty"`
	EPSDiluted      *float64           `json:"eps_diluted,omitempty"`
	Extra           map[string]float64 `json:"extra,omitempty"`
}

// BalanceSheet holds the commonly-tagged balance sheet fields.
type BalanceSheet struct {
	TotalAssets      *float64           `json:"total_assets,omitempty"`
	TotalLiabilities *float64           `json:"total_liabilities,omitempty"`
	TotalEquity      *float64           `json:"total_equity,omitempty"`
	CashAndEquiv     *float64           `json:"cash_and_equiv,omitempty"`
	TotalDebt        *float64           `json:"total_debt,omitempty"`
	Extra            map[string]float64 `json:"extra,omitempty"`
}

// CashFlowStatement holds the commonly-tagged cash flow fields.
type CashFlowStatement struct {
	OperatingCashFlow  *float64           `json:"operating_cash_flow,omitempty"`
	CapitalExpenditure *float64           `json:"capital_expenditure,omitempty"`
	FreeCashFlow       *float64           `json:"free_cash_flow,omitempty"`
	Extra              map[string]float64 `json:"extra,omitempty"`
}

// KeyMetrics holds derived ratios a provider may supply directly.
type KeyMetrics struct {
	PERatio         *float64           `json:"pe_ratio,omitempty"`
	MarketCap       *float64           `json:"market_cap,omitempty"`
	RevenueGrowth   *float64           `json:"revenue_growth,omitempty"`
	EarningsGrowth  *float64           `json:"earnings_growth,omitempty"`
	GrossMargin     *float64           `json:"gross_margin,omitempty"`
	OperatingMargin *float64           `json:"operating_margin,omitempty"`
	Extra           map[string]float64 `json:"extra,omitempty"`
}

// FinancialPeriod is unique by (ticker, period_type, period_end_date, source_provider).
type FinancialPeriod struct {
	EntityID       *int64
	Ticker         string
	PeriodType     PeriodType
	PeriodEnd      time.Time
	FiscalYear     int
	FiscalQuarter  int
	SourceProvider string

	Income   IncomeStatement
	Balance  BalanceSheet
	CashFlow CashFlowStatement
	Metrics  KeyMetrics
}

// mergeFloatPtr prefers incoming (EXCLUDED) when it is set, else keeps existing.
func mergeFloatPtr(existing, incoming *float64) *float64 {
	if incoming != nil {
		return incoming
	}
	return existing
}

func mergeExtra(existing, incoming map[string]float64) map[string]float64 {
	if len(incoming) == 0 {
		return existing
	}
	out := make(map[string]float64, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

// DeepMergeIncome implements the field-by-field "prefer incoming if set"
// deep-merge policy: an empty incoming sub-document leaves the existing
// document untouched, and otherwise each incoming key wins over the
// corresponding existing key.
func DeepMergeIncome(existing, incoming IncomeStatement) IncomeStatement {
	return IncomeStatement{
		TotalRevenue:    mergeFloatPtr(existing.TotalRevenue, incoming.TotalRevenue),
		CostOfRevenue:   mergeFloatPtr(existing.CostOfRevenue, incoming.CostOfRevenue),
		GrossProfit:     mergeFloatPtr(existing.GrossProfit, incoming.GrossProfit),
		OperatingIncome: mergeFloatPtr(existing.OperatingIncome, incoming.OperatingIncome),
		NetIncome:       mergeFloatPtr(existing.NetIncome, incoming.NetIncome),
		EPSBasic:        mergeFloatPtr(existing.EPSBasic, incoming.EPSBasic),
		EPSDiluted:      mergeFloatPtr(existing.EPSDiluted, incoming.EPSDiluted),
		Extra:           mergeExtra(existing.Extra, incoming.Extra),
	}
}

func DeepMergeBalance(existing, incoming BalanceSheet) BalanceSheet {
	return BalanceSheet{
		TotalAssets:      mergeFloatPtr(existing.TotalAssets, incoming.TotalAssets),
		TotalLiabilities: mergeFloatPtr(existing.TotalLiabilities, incoming.TotalLiabilities),
		TotalEquity:      mergeFloatPtr(existing.TotalEquity, incoming.TotalEquity),
		CashAndEquiv:     mergeFloatPtr(existing.CashAndEquiv, incoming.CashAndEquiv),
		TotalDebt:        mergeFloatPtr(existing.TotalDebt, incoming.TotalDebt),
		Extra:            mergeExtra(existing.Extra, incoming.Extra),
	}
}

func DeepMergeCashFlow(existing, incoming CashFlowStatement) CashFlowStatement {
	return CashFlowStatement{
		OperatingCashFlow:  mergeFloatPtr(existing.OperatingCashFlow, incoming.OperatingCashFlow),
		CapitalExpenditure: mergeFloatPtr(existing.CapitalExpenditure, incoming.CapitalExpenditure),
		FreeCashFlow:       mergeFloatPtr(existing.FreeCashFlow, incoming.FreeCashFlow),
		Extra:              mergeExtra(existing.Extra, incoming.Extra),
	}
}

func DeepMergeMetrics(existing, incoming KeyMetrics) KeyMetrics {
	return KeyMetrics{
		PERatio:         mergeFloatPtr(existing.PERatio, incoming.PERatio),
		MarketCap:       mergeFloatPtr(existing.MarketCap, incoming.MarketCap),
		RevenueGrowth:   mergeFloatPtr(existing.RevenueGrowth, incoming.RevenueGrowth),
		EarningsGrowth:  mergeFloatPtr(existing.EarningsGrowth, incoming.EarningsGrowth),
		GrossMargin:     mergeFloatPtr(existing.GrossMargin, incoming.GrossMargin),
		OperatingMargin: mergeFloatPtr(existing.OperatingMargin, incoming.OperatingMargin),
		Extra:           mergeExtra(existing.Extra, incoming.Extra),
	}
}

// DeepMerge merges incoming (EXCLUDED) onto existing using the field-by-field
// policy above, satisfying DeepMerge(existing, empty) == existing.
func (existing FinancialPeriod) DeepMerge(incoming FinancialPeriod) FinancialPeriod {
	merged := existing
	merged.Income = DeepMergeIncome(existing.Income, incoming.Income)
	merged.Balance = DeepMergeBalance(existing.Balance, incoming.Balance)
	merged.CashFlow = DeepMergeCashFlow(existing.CashFlow, incoming.CashFlow)
	merged.Metrics = DeepMergeMetrics(existing.Metrics, incoming.Metrics)
	return merged
}
