package postgres

import (
	"context"
	"fmt"

	"marketintel/internal/model"
)

// UpdateCoverage recomputes and upserts the coverage score for ticker by
// counting rows across the financial, filing, macro, social, news, and
// price-source tables, then combining the six presence signals into a
// single weighted score in [0, 1]: financials and filings scale with
// their fill ratio toward a reference depth (8 quarters, 5 filings),
// the other four are flat bonuses once any recent signal exists.
func (s *Store) UpdateCoverage(ctx context.Context, c model.EntityCoverage) (model.EntityCoverage, error) {
	var finQuarters int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM financial_periods WHERE ticker = $1 AND period_type = 'quarterly'`,
		c.Ticker).Scan(&finQuarters); err != nil {
		return model.EntityCoverage{}, fmt.Errorf("count financial quarters: %w", err)
	}

	var filingCount int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM entity_filings WHERE ticker = $1`, c.Ticker).Scan(&filingCount); err != nil {
		return model.EntityCoverage{}, fmt.Errorf("count filings: %w", err)
	}

	var macroCount int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM macro_indicators WHERE observation_date > CURRENT_DATE - 30`).Scan(&macroCount); err != nil {
		return model.EntityCoverage{}, fmt.Errorf("count macro observations: %w", err)
	}

	var socialCount int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM social_signals WHERE ticker = $1 AND signal_date > CURRENT_DATE - 7`,
		c.Ticker).Scan(&socialCount); err != nil {
		return model.EntityCoverage{}, fmt.Errorf("count social signals: %w", err)
	}

	var newsCount int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM insights WHERE source_url ILIKE '%news%' AND source_name ILIKE $1`,
		"%"+c.Ticker+"%").Scan(&newsCount); err != nil {
		return model.EntityCoverage{}, fmt.Errorf("count news insights: %w", err)
	}

	var priceCount int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sources WHERE url ILIKE $1 AND url ILIKE '%yahoo%'`,
		"%"+c.Ticker+"%").Scan(&priceCount); err != nil {
		return model.EntityCoverage{}, fmt.Errorf("count price sources: %w", err)
	}

	out := model.EntityCoverage{
		EntityID:          c.EntityID,
		Ticker:            c.Ticker,
		HasFinancials:     finQuarters > 0,
		FinancialQuarters: finQuarters,
		HasFilings:        filingCount > 0,
		FilingCount:       filingCount,
		HasMacro:          macroCount > 0,
		HasSocial:         socialCount > 0,
		HasNews:           newsCount > 0,
		HasPrice:          priceCount > 0,
	}
	out.Score = coverageScore(out)

	row := s.pool.QueryRow(ctx, `
		INSERT INTO entity_coverage
			(entity_id, ticker, has_financials, financials_quarters,
			 has_filings, filings_count, has_macro, has_social,
			 has_news, has_price, coverage_score, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (ticker) DO UPDATE SET
			entity_id = EXCLUDED.entity_id,
			has_financials = EXCLUDED.has_financials,
			financials_quarters = EXCLUDED.financials_quarters,
			has_filings = EXCLUDED.has_filings,
			filings_count = EXCLUDED.filings_count,
			has_macro = EXCLUDED.has_macro,
			has_social = EXCLUDED.has_social,
			has_news = EXCLUDED.has_news,
			has_price = EXCLUDED.has_price,
			coverage_score = EXCLUDED.coverage_score,
			last_updated = NOW()
		RETURNING entity_id, ticker, has_financials, financials_quarters,
			has_filings, filings_count, has_macro, has_social, has_news,
			has_price, coverage_score, last_updated
	`, out.EntityID, out.Ticker, out.HasFinancials, out.FinancialQuarters,
		out.HasFilings, out.FilingCount, out.HasMacro, out.HasSocial,
		out.HasNews, out.HasPrice, roundTo(out.Score, 4))

	var saved model.EntityCoverage
	if err := row.Scan(&saved.EntityID, &saved.Ticker, &saved.HasFinancials, &saved.FinancialQuarters,
		&saved.HasFilings, &saved.FilingCount, &saved.HasMacro, &saved.HasSocial, &saved.HasNews,
		&saved.HasPrice, &saved.Score, &saved.LastUpdated); err != nil {
		return model.EntityCoverage{}, fmt.Errorf("upsert coverage %s: %w", c.Ticker, err)
	}
	s.audit(ctx, "coverage_updated", "entity", c.Ticker, fmt.Sprintf("score=%.4f", saved.Score))
	return saved, nil
}

// GetCoverage returns the stored coverage row for ticker, or nil if none.
func (s *Store) GetCoverage(ctx context.Context, ticker string) (*model.EntityCoverage, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT entity_id, ticker, has_financials, financials_quarters,
			has_filings, filings_count, has_macro, has_social, has_news,
			has_price, coverage_score, last_updated
		FROM entity_coverage WHERE ticker = $1
	`, ticker)

	var c model.EntityCoverage
	if err := row.Scan(&c.EntityID, &c.Ticker, &c.HasFinancials, &c.FinancialQuarters,
		&c.HasFilings, &c.FilingCount, &c.HasMacro, &c.HasSocial, &c.HasNews,
		&c.HasPrice, &c.Score, &c.LastUpdated); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coverage %s: %w", ticker, err)
	}
	return &c, nil
}

func coverageScore(c model.EntityCoverage) float64 {
	var score float64
	if c.HasFinancials {
		score += 0.30 * minF(float64(c.FinancialQuarters)/8.0, 1.0)
	}
	if c.HasFilings {
		score += 0.20 * minF(float64(c.FilingCount)/5.0, 1.0)
	}
	if c.HasMacro {
		score += 0.15
	}
	if c.HasSocial {
		score += 0.10
	}
	if c.HasNews {
		score += 0.15
	}
	if c.HasPrice {
		score += 0.10
	}
	return score
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func roundTo(v float64, places int) float64 {
	mult := 1.0
	for i := 0; i < places; i++ {
		mult *= 10
	}
	return float64(int64(v*mult+0.5)) / mult
}
