package postgres

import (
	"context"
	"fmt"
	"time"

	"marketintel/internal/model"
)

// AddSource registers an ingestible URL. Re-adding an existing URL
// returns the existing row rather than erroring.
func (s *Store) AddSource(ctx context.Context, name, url string, connectorType model.ConnectorType) (model.Source, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO sources (name, url, connector_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (url) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, url, connector_type, created_at, deleted_at
	`, name, url, string(connectorType))

	var out model.Source
	var connType string
	if err := row.Scan(&out.ID, &out.Name, &out.URL, &connType, &out.CreatedAt, &out.DeletedAt); err != nil {
		return model.Source{}, fmt.Errorf("add source %s: %w", url, err)
	}
	out.ConnectorType = model.ConnectorType(connType)
	s.audit(ctx, "source_added", "source", fmt.Sprintf("%d", out.ID), url)
	return out, nil
}

// GetSource fetches a source by id, including soft-deleted rows.
func (s *Store) GetSource(ctx context.Context, id int64) (*model.Source, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, url, connector_type, created_at, deleted_at
		FROM sources WHERE id = $1
	`, id)

	var out model.Source
	var connType string
	if err := row.Scan(&out.ID, &out.Name, &out.URL, &connType, &out.CreatedAt, &out.DeletedAt); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get source %d: %w", id, err)
	}
	out.ConnectorType = model.ConnectorType(connType)
	return &out, nil
}

// ListSources pages through every registered source (including
// soft-deleted rows, oldest ID first), for background jobs that need
// to score or sweep every source rather than one ID at a time.
func (s *Store) ListSources(ctx context.Context, limit, offset int) ([]model.Source, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, url, connector_type, created_at, deleted_at
		FROM sources
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var out []model.Source
	for rows.Next() {
		var src model.Source
		var connType string
		if err := rows.Scan(&src.ID, &src.Name, &src.URL, &connType, &src.CreatedAt, &src.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		src.ConnectorType = model.ConnectorType(connType)
		out = append(out, src)
	}
	return out, rows.Err()
}

// GetLatestSnapshotHash returns the content hash of the most recent
// snapshot for sourceID, or "" if none exists yet — used by the
// ingestion worker to skip unchanged content.
func (s *Store) GetLatestSnapshotHash(ctx context.Context, sourceID int64) (string, error) {
	var hash string
	err := s.pool.QueryRow(ctx, `
		SELECT content_hash FROM source_snapshots
		WHERE source_id = $1
		ORDER BY observed_at DESC
		LIMIT 1
	`, sourceID).Scan(&hash)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("get latest snapshot hash %d: %w", sourceID, err)
	}
	return hash, nil
}

// GetLastIngestTime returns when sourceID was last ingested, or nil.
func (s *Store) GetLastIngestTime(ctx context.Context, sourceID int64) (*time.Time, error) {
	var t time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT observed_at FROM source_snapshots
		WHERE source_id = $1
		ORDER BY observed_at DESC
		LIMIT 1
	`, sourceID).Scan(&t)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get last ingest time %d: %w", sourceID, err)
	}
	return &t, nil
}

// InsertSnapshot records a new observation of a source's content.
func (s *Store) InsertSnapshot(ctx context.Context, snap model.SourceSnapshot) (model.SourceSnapshot, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO source_snapshots (source_id, content_hash, excerpt, observed_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, source_id, content_hash, excerpt, observed_at
	`, snap.SourceID, snap.ContentHash, snap.Excerpt)

	var out model.SourceSnapshot
	if err := row.Scan(&out.ID, &out.SourceID, &out.ContentHash, &out.Excerpt, &out.ObservedAt); err != nil {
		return model.SourceSnapshot{}, fmt.Errorf("insert snapshot for source %d: %w", snap.SourceID, err)
	}
	return out, nil
}

// LogIngestRun records the outcome of one ingestion attempt.
func (s *Store) LogIngestRun(ctx context.Context, sourceID int64, status, detail string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingest_runs (source_id, status, detail, created_at)
		VALUES ($1, $2, $3, NOW())
	`, sourceID, status, detail)
	if err != nil {
		return fmt.Errorf("log ingest run for source %d: %w", sourceID, err)
	}
	return nil
}

// LogFailedIngestion records a terminal ingestion failure after retries
// are exhausted, tagged with the apperr.Kind that classified it.
func (s *Store) LogFailedIngestion(ctx context.Context, sourceID int64, errKind, detail string, retryable bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO failed_ingestions (source_id, error_kind, detail, retryable, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, sourceID, errKind, detail, retryable)
	if err != nil {
		return fmt.Errorf("log failed ingestion for source %d: %w", sourceID, err)
	}
	return nil
}
