package enrich

import (
	"context"

	"github.com/rs/zerolog"

	"marketintel/internal/model"
	"marketintel/internal/repository"
)

// QuarterlyBackfillProvider fetches and stores missing quarterly financials
// for a ticker when the stored history has no revenue figures at all,
// the Go equivalent of the inline yfinance quarterly backfill. Returns
// the number of rows it upserted (zero when nothing was stored).
type QuarterlyBackfillProvider interface {
	BackfillQuarterly(ctx context.Context, ticker string) (int, error)
}

// PeriodPoint is one quarter or year of extracted financial history,
// the typed equivalent of enrichment.py's _extract_period.
type PeriodPoint struct {
	PeriodEnd       string
	FiscalYear      int
	FiscalQuarter   int
	Revenue         *float64
	NetIncome       *float64
	GrossProfit     *float64
	OperatingIncome *float64
	EPS             *float64
	TotalAssets     *float64
	TotalDebt       *float64
	SourceProvider  string
}

// HistoricalTrends is the typed equivalent of
// enrichment.py's _build_historical_trends return dict.
type HistoricalTrends struct {
	Available        bool
	TrendDirection    string
	QuartersAvailable int
	Quarters          []PeriodPoint
	Annual            []PeriodPoint
}

func extractPeriod(p model.FinancialPeriod) PeriodPoint {
	return PeriodPoint{
		PeriodEnd:       p.PeriodEnd.Format("2006-01-02"),
		FiscalYear:      p.FiscalYear,
		FiscalQuarter:   p.FiscalQuarter,
		Revenue:         p.Income.TotalRevenue,
		NetIncome:       p.Income.NetIncome,
		GrossProfit:     p.Income.GrossProfit,
		OperatingIncome: p.Income.OperatingIncome,
		EPS:             p.Income.EPSBasic,
		TotalAssets:     p.Balance.TotalAssets,
		TotalDebt:       p.Balance.TotalDebt,
		SourceProvider:  p.SourceProvider,
	}
}

func hasAnyRevenue(points []model.FinancialPeriod) bool {
	for _, p := range points {
		if p.Income.TotalRevenue != nil {
			return true
		}
	}
	return false
}

// BuildHistoricalTrends loads stored quarterly/annual financial
// history for ticker, triggers backfill when no quarter has revenue,
// and derives a simple trend direction from the two most recent
// quarters. Grounded on enrichment.py's _build_historical_trends.
func BuildHistoricalTrends(ctx context.Context, repo repository.Repository, backfill QuarterlyBackfillProvider, ticker string, log zerolog.Logger) HistoricalTrends {
	empty := HistoricalTrends{TrendDirection: "stable"}
	if ticker == "" {
		return empty
	}

	quarterly, err := repo.GetFinancialHistory(ctx, ticker, model.PeriodQuarterly, 12)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("failed to load quarterly financial history")
		return empty
	}
	annual, err := repo.GetFinancialHistory(ctx, ticker, model.PeriodAnnual, 5)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("failed to load annual financial history")
		return empty
	}

	if !hasAnyRevenue(quarterly) && backfill != nil {
		fetched, err := backfill.BackfillQuarterly(ctx, ticker)
		if err != nil {
			log.Warn().Err(err).Str("ticker", ticker).Msg("quarterly backfill failed")
		} else if fetched > 0 {
			quarterly, err = repo.GetFinancialHistory(ctx, ticker, model.PeriodQuarterly, 12)
			if err != nil {
				log.Warn().Err(err).Str("ticker", ticker).Msg("failed to reload quarterly history after backfill")
				quarterly = nil
			}
			log.Info().Int("quarters", fetched).Str("ticker", ticker).Msg("backfill populated quarterly history")
		}
	}

	qData := make([]PeriodPoint, 0, len(quarterly))
	for _, p := range quarterly {
		qData = append(qData, extractPeriod(p))
	}
	aData := make([]PeriodPoint, 0, len(annual))
	for _, p := range annual {
		aData = append(aData, extractPeriod(p))
	}

	trend := "stable"
	if len(qData) >= 2 && qData[0].Revenue != nil && qData[1].Revenue != nil && *qData[1].Revenue != 0 {
		change := (*qData[0].Revenue - *qData[1].Revenue) / absFloat(*qData[1].Revenue)
		switch {
		case change > 0.05:
			trend = "growing"
		case change < -0.05:
			trend = "declining"
		}
	}

	return HistoricalTrends{
		Available:         len(qData) > 0 || len(aData) > 0,
		TrendDirection:    trend,
		QuartersAvailable: len(qData),
		Quarters:          capPoints(qData, 8),
		Annual:            capPoints(aData, 5),
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func capPoints(points []PeriodPoint, n int) []PeriodPoint {
	if len(points) < n {
		return points
	}
	return points[:n]
}
