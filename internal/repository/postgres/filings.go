package postgres

import (
	"context"
	"fmt"

	"marketintel/internal/model"
)

// UpsertFiling stores one SEC filing, keyed by accession number.
func (s *Store) UpsertFiling(ctx context.Context, f model.EntityFiling) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO entity_filings (ticker, cik, accession_number, filing_type, filing_date, filing_url, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (accession_number) DO UPDATE SET
			filing_url = EXCLUDED.filing_url,
			description = EXCLUDED.description
	`, f.Ticker, f.CIK, f.AccessionNumber, f.FilingType, f.FilingDate, f.FilingURL, f.Description)
	if err != nil {
		return fmt.Errorf("upsert filing %s: %w", f.AccessionNumber, err)
	}
	return nil
}

// GetFilings returns up to limit filings for ticker, optionally
// restricted to one filing type, newest first.
func (s *Store) GetFilings(ctx context.Context, ticker string, filingType string, limit int) ([]model.EntityFiling, error) {
	var rows interface {
		Next() bool
		Scan(dest ...any) error
		Err() error
		Close()
	}
	var err error
	if filingType == "" {
		rows, err = s.pool.Query(ctx, `
			SELECT ticker, cik, accession_number, filing_type, filing_date, filing_url, description
			FROM entity_filings
			WHERE ticker = $1
			ORDER BY filing_date DESC
			LIMIT $2
		`, ticker, limit)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT ticker, cik, accession_number, filing_type, filing_date, filing_url, description
			FROM entity_filings
			WHERE ticker = $1 AND filing_type = $2
			ORDER BY filing_date DESC
			LIMIT $3
		`, ticker, filingType, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("get filings %s: %w", ticker, err)
	}
	defer rows.Close()

	var out []model.EntityFiling
	for rows.Next() {
		var f model.EntityFiling
		if err := rows.Scan(&f.Ticker, &f.CIK, &f.AccessionNumber, &f.FilingType, &f.FilingDate, &f.FilingURL, &f.Description); err != nil {
			return nil, fmt.Errorf("scan filing row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
