package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"marketintel/internal/model"
)

// UpsertFinancialPeriod writes a financial_periods row keyed on
// (ticker, period_type, period_end_date, source_provider). The JSONB
// sub-documents merge rather than replace: an empty incoming object
// leaves the stored one untouched, otherwise Postgres's || operator
// overlays incoming keys onto the existing document field by field.
func (s *Store) UpsertFinancialPeriod(ctx context.Context, p model.FinancialPeriod) (model.FinancialPeriod, error) {
	income, err := json.Marshal(p.Income)
	if err != nil {
		return model.FinancialPeriod{}, fmt.Errorf("marshal income statement: %w", err)
	}
	balance, err := json.Marshal(p.Balance)
	if err != nil {
		return model.FinancialPeriod{}, fmt.Errorf("marshal balance sheet: %w", err)
	}
	cashFlow, err := json.Marshal(p.CashFlow)
	if err != nil {
		return model.FinancialPeriod{}, fmt.Errorf("marshal cash flow: %w", err)
	}
	metrics, err := json.Marshal(p.Metrics)
	if err != nil {
		return model.FinancialPeriod{}, fmt.Errorf("marshal key metrics: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO financial_periods
			(entity_id, ticker, period_type, period_end_date, fiscal_year,
			 fiscal_quarter, source_provider, income_statement, balance_sheet,
			 cash_flow, key_metrics)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10::jsonb, $11::jsonb)
		ON CONFLICT (ticker, period_type, period_end_date, source_provider) DO UPDATE SET
			entity_id = COALESCE(EXCLUDED.entity_id, financial_periods.entity_id),
			fiscal_year = COALESCE(NULLIF(EXCLUDED.fiscal_year, 0), financial_periods.fiscal_year),
			fiscal_quarter = COALESCE(NULLIF(EXCLUDED.fiscal_quarter, 0), financial_periods.fiscal_quarter),
			income_statement = CASE
				WHEN EXCLUDED.income_statement::text = '{}' THEN financial_periods.income_statement
				ELSE financial_periods.income_statement || EXCLUDED.income_statement
			END,
			balance_sheet = CASE
				WHEN EXCLUDED.balance_sheet::text = '{}' THEN financial_periods.balance_sheet
				ELSE financial_periods.balance_sheet || EXCLUDED.balance_sheet
			END,
			cash_flow = CASE
				WHEN EXCLUDED.cash_flow::text = '{}' THEN financial_periods.cash_flow
				ELSE financial_periods.cash_flow || EXCLUDED.cash_flow
			END,
			key_metrics = CASE
				WHEN EXCLUDED.key_metrics::text = '{}' THEN financial_periods.key_metrics
				ELSE financial_periods.key_metrics || EXCLUDED.key_metrics
			END
		RETURNING entity_id, ticker, period_type, period_end_date, fiscal_year,
			fiscal_quarter, source_provider, income_statement, balance_sheet, cash_flow, key_metrics
	`, p.EntityID, p.Ticker, string(p.PeriodType), p.PeriodEnd, p.FiscalYear,
		p.FiscalQuarter, p.SourceProvider, income, balance, cashFlow, metrics)

	out, err := scanFinancialPeriod(row)
	if err != nil {
		return model.FinancialPeriod{}, fmt.Errorf("upsert financial period %s/%s/%s: %w", p.Ticker, p.PeriodType, p.SourceProvider, err)
	}
	s.audit(ctx, "financial_period_upserted", "entity", p.Ticker,
		fmt.Sprintf("period_type=%s period_end=%s provider=%s", p.PeriodType, p.PeriodEnd.Format("2006-01-02"), p.SourceProvider))
	return out, nil
}

// GetFinancialHistory returns up to limit periods for ticker, newest first.
func (s *Store) GetFinancialHistory(ctx context.Context, ticker string, periodType model.PeriodType, limit int) ([]model.FinancialPeriod, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT entity_id, ticker, period_type, period_end_date, fiscal_year,
			fiscal_quarter, source_provider, income_statement, balance_sheet, cash_flow, key_metrics
		FROM financial_periods
		WHERE ticker = $1 AND period_type = $2
		ORDER BY period_end_date DESC
		LIMIT $3
	`, ticker, string(periodType), limit)
	if err != nil {
		return nil, fmt.Errorf("get financial history %s: %w", ticker, err)
	}
	defer rows.Close()

	var out []model.FinancialPeriod
	for rows.Next() {
		p, err := scanFinancialPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan financial period row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanFinancialPeriod(row pgxRow) (model.FinancialPeriod, error) {
	var p model.FinancialPeriod
	var periodType string
	var income, balance, cashFlow, metrics []byte
	if err := row.Scan(&p.EntityID, &p.Ticker, &periodType, &p.PeriodEnd, &p.FiscalYear,
		&p.FiscalQuarter, &p.SourceProvider, &income, &balance, &cashFlow, &metrics); err != nil {
		return model.FinancialPeriod{}, err
	}
	p.PeriodType = model.PeriodType(periodType)
	if err := json.Unmarshal(income, &p.Income); err != nil {
		return model.FinancialPeriod{}, fmt.Errorf("unmarshal income statement: %w", err)
	}
	if err := json.Unmarshal(balance, &p.Balance); err != nil {
		return model.FinancialPeriod{}, fmt.Errorf("unmarshal balance sheet: %w", err)
	}
	if err := json.Unmarshal(cashFlow, &p.CashFlow); err != nil {
		return model.FinancialPeriod{}, fmt.Errorf("unmarshal cash flow: %w", err)
	}
	if err := json.Unmarshal(metrics, &p.Metrics); err != nil {
		return model.FinancialPeriod{}, fmt.Errorf("unmarshal key metrics: %w", err)
	}
	return p, nil
}
