package postgres

import (
	"context"
	"fmt"

	"marketintel/internal/model"
)

// UpsertMacro stores one (series_id, observation_date) macro reading.
func (s *Store) UpsertMacro(ctx context.Context, m model.MacroObservation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO macro_indicators (series_id, series_name, observation_date, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (series_id, observation_date) DO UPDATE SET
			series_name = EXCLUDED.series_name,
			value = EXCLUDED.value
	`, m.SeriesID, m.SeriesName, m.Date, m.Value)
	if err != nil {
		return fmt.Errorf("upsert macro observation %s: %w", m.SeriesID, err)
	}
	return nil
}

// LatestMacroValues returns the most recent observation for each series
// in seriesIDs.
func (s *Store) LatestMacroValues(ctx context.Context, seriesIDs []string) ([]model.MacroObservation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (series_id) series_id, series_name, observation_date, value
		FROM macro_indicators
		WHERE series_id = ANY($1)
		ORDER BY series_id, observation_date DESC
	`, seriesIDs)
	if err != nil {
		return nil, fmt.Errorf("latest macro values: %w", err)
	}
	defer rows.Close()

	var out []model.MacroObservation
	for rows.Next() {
		var m model.MacroObservation
		if err := rows.Scan(&m.SeriesID, &m.SeriesName, &m.Date, &m.Value); err != nil {
			return nil, fmt.Errorf("scan macro observation row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
