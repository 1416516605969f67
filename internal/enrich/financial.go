package enrich

import (
	"strings"

	"marketintel/internal/model"
)

// Valuation holds a snapshot's multiples.
type Valuation struct {
	TrailingPE *float64
	ForwardPE  *float64
	PEGRatio   *float64
}

// Growth holds formatted year-over-year growth figures.
type Growth struct {
	RevenueGrowthYoY  string
	EarningsGrowthYoY string
}

// Profitability holds formatted margin figures.
type Profitability struct {
	GrossMargin     string
	OperatingMargin string
	NetMargin       string
}

// Liquidity holds balance-sheet health figures, passed through unformatted.
type Liquidity struct {
	DebtToEquity     *float64
	CurrentRatio     *float64
	NextEarningsDate string
}

// FinancialPerformance is the typed equivalent of enrichment.py's
// _build_financial_performance return dict.
type FinancialPerformance struct {
	Summary       string
	MarketCap     *float64
	Beta          *float64
	Sector        string
	Industry      string
	Valuation     Valuation
	Growth        Growth
	Profitability Profitability
	Liquidity     Liquidity
}

const noSnapshotSummary = "No reliable financial snapshot was available from free public finance data at query time."

// BuildFinancialPerformance formats a real-time provider snapshot into
// the structured block a report renders. Grounded on
// enrichment.py's _build_financial_performance.
func BuildFinancialPerformance(snapshot model.FinancialSnapshot) FinancialPerformance {
	var summaryParts []string
	if snapshot.Symbol != "" {
		summaryParts = append(summaryParts, "Symbol: "+snapshot.Symbol)
	}
	if snapshot.Price != nil {
		priceLine := strings.TrimSpace(formatCompactNumber(snapshot.Price) + " " + snapshot.Currency)
		summaryParts = append(summaryParts, "Market Price: "+priceLine)
	}
	if snapshot.MarketCap != nil {
		summaryParts = append(summaryParts, "Market Cap: "+formatCompactNumber(snapshot.MarketCap))
	}
	if snapshot.FiftyTwoWeekRange != "" {
		summaryParts = append(summaryParts, "52W Range: "+snapshot.FiftyTwoWeekRange)
	}

	summary := noSnapshotSummary
	if len(summaryParts) > 0 {
		summary = strings.Join(summaryParts, "; ")
	}

	return FinancialPerformance{
		Summary:   summary,
		MarketCap: snapshot.MarketCap,
		Beta:      snapshot.Beta,
		Sector:    snapshot.Sector,
		Industry:  snapshot.Industry,
		Valuation: Valuation{
			TrailingPE: snapshot.TrailingPE,
			ForwardPE:  snapshot.ForwardPE,
			PEGRatio:   snapshot.PEGRatio,
		},
		Growth: Growth{
			RevenueGrowthYoY:  formatRatioPercent(snapshot.RevenueGrowth),
			EarningsGrowthYoY: formatRatioPercent(snapshot.EarningsGrowth),
		},
		Profitability: Profitability{
			GrossMargin:     formatRatioPercent(snapshot.GrossMargin),
			OperatingMargin: formatRatioPercent(snapshot.OperatingMargin),
			NetMargin:       formatRatioPercent(snapshot.ProfitMargin),
		},
		Liquidity: Liquidity{
			DebtToEquity:     snapshot.DebtToEquity,
			CurrentRatio:     snapshot.CurrentRatio,
			NextEarningsDate: snapshot.NextEarningsDate,
		},
	}
}
