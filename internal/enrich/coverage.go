package enrich

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"marketintel/internal/model"
	"marketintel/internal/repository"
)

// coverageWeights mirror enrichment.py's weighted coverage-score sum;
// the six axes sum to 1.0 so the score is already normalized.
var coverageWeights = map[string]float64{
	"has_financials": 0.25,
	"has_filings":    0.15,
	"has_macro":      0.10,
	"has_social":     0.10,
	"has_news":       0.20,
	"has_price":      0.20,
}

// BuildCoverageAssessment loads the stored coverage row for ticker,
// overlays real-time financial/social signals onto its booleans,
// recomputes the weighted score, takes the higher of the stored and
// recomputed scores, persists the result, and returns it. Grounded on
// enrichment.py's _build_coverage_assessment.
func BuildCoverageAssessment(ctx context.Context, repo repository.Repository, ticker string, financial FinancialPerformance, hasPrice bool, social SocialSentiment, log zerolog.Logger) model.EntityCoverage {
	if ticker == "" {
		return model.EntityCoverage{}
	}

	stored, err := repo.GetCoverage(ctx, ticker)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("failed to load coverage")
		stored = nil
	}

	breakdown := model.EntityCoverage{Ticker: ticker}
	if stored != nil {
		breakdown = *stored
		breakdown.Ticker = ticker
	}

	if financial.Valuation.TrailingPE != nil {
		breakdown.HasFinancials = true
	}
	if hasPrice {
		breakdown.HasPrice = true
	}
	if social.Available {
		breakdown.HasSocial = true
	}

	flags := map[string]bool{
		"has_financials": breakdown.HasFinancials,
		"has_filings":    breakdown.HasFilings,
		"has_macro":      breakdown.HasMacro,
		"has_social":     breakdown.HasSocial,
		"has_news":       breakdown.HasNews,
		"has_price":      breakdown.HasPrice,
	}

	scoreParts, totalWeight := 0.0, 0.0
	for key, weight := range coverageWeights {
		totalWeight += weight
		if flags[key] {
			scoreParts += weight
		}
	}
	computedScore := 0.0
	if totalWeight > 0 {
		computedScore = round4(scoreParts / totalWeight)
	}

	dbScore := 0.0
	if stored != nil {
		dbScore = round4(stored.Score)
	}
	breakdown.Score = math.Max(dbScore, computedScore)

	updated, err := repo.UpdateCoverage(ctx, breakdown)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("failed to persist coverage")
		return breakdown
	}
	return updated
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
