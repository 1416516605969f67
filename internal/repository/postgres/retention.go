package postgres

import (
	"context"
	"fmt"
	"time"

	"marketintel/internal/repository"
)

// DeleteSourceRecords cascades the deletion of one source: every table
// that references source_id is purged, then the source itself is
// soft-deleted (name replaced, deleted_at set) rather than removed, so
// referential history in audit_events remains meaningful.
func (s *Store) DeleteSourceRecords(ctx context.Context, sourceID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete source records tx: %w", err)
	}
	defer tx.Rollback(ctx)

	counts := map[string]int64{}
	for table, col := range map[string]string{
		"search_evidence":   "source_id",
		"reports":           "source_id",
		"insights":          "source_id",
		"source_snapshots":  "source_id",
		"ingest_runs":       "source_id",
		"failed_ingestions": "source_id",
		"memory_chunks":     "source_id",
		"source_evidence_relations": "source_id",
	} {
		tag, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, col), sourceID)
		if err != nil {
			return fmt.Errorf("delete from %s for source %d: %w", table, sourceID, err)
		}
		counts[table] = tag.RowsAffected()
	}

	tag, err := tx.Exec(ctx, `
		UPDATE sources SET name = $1, deleted_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`, fmt.Sprintf("[deleted-source-%d]", sourceID), sourceID)
	if err != nil {
		return fmt.Errorf("soft-delete source %d: %w", sourceID, err)
	}
	sourcesSoftDeleted := tag.RowsAffected()

	detail := fmt.Sprintf(
		"source_soft_deleted=%d;snapshots=%d;insights=%d;reports=%d;search_evidence=%d;ingest_runs=%d;failed_ingestions=%d",
		sourcesSoftDeleted, counts["source_snapshots"], counts["insights"], counts["reports"],
		counts["search_evidence"], counts["ingest_runs"], counts["failed_ingestions"])

	if _, err := tx.Exec(ctx, `
		INSERT INTO audit_events (event_type, entity_type, entity_id, detail)
		VALUES ($1, $2, $3, $4)
	`, "source_deleted", "source", fmt.Sprintf("%d", sourceID), detail); err != nil {
		return fmt.Errorf("audit source deletion %d: %w", sourceID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete source records tx: %w", err)
	}
	return nil
}

// RunRetentionPurge deletes rows older than each configured retention
// window and records the run in retention_runs.
func (s *Store) RunRetentionPurge(ctx context.Context, windows repository.RetentionWindows) (repository.RetentionResult, error) {
	now := time.Now().UTC()
	cutoffInsights := now.AddDate(0, 0, -windows.InsightsDays)
	cutoffSnapshots := now.AddDate(0, 0, -windows.SnapshotsDays)
	cutoffReports := now.AddDate(0, 0, -windows.ReportsDays)
	cutoffSearch := now.AddDate(0, 0, -windows.SearchDays)
	cutoffAudit := now.AddDate(0, 0, -windows.AuditDays)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return repository.RetentionResult{}, fmt.Errorf("begin retention purge tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var result repository.RetentionResult

	tag, err := tx.Exec(ctx, `DELETE FROM insights WHERE created_at < $1`, cutoffInsights)
	if err != nil {
		return repository.RetentionResult{}, fmt.Errorf("purge insights: %w", err)
	}
	result.InsightsDeleted = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `DELETE FROM source_snapshots WHERE observed_at < $1`, cutoffSnapshots)
	if err != nil {
		return repository.RetentionResult{}, fmt.Errorf("purge snapshots: %w", err)
	}
	result.SnapshotsDeleted = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `DELETE FROM reports WHERE created_at < $1`, cutoffReports)
	if err != nil {
		return repository.RetentionResult{}, fmt.Errorf("purge reports: %w", err)
	}
	result.ReportsDeleted = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `
		DELETE FROM search_queries
		WHERE created_at < $1
	`, cutoffSearch)
	if err != nil {
		return repository.RetentionResult{}, fmt.Errorf("purge search queries: %w", err)
	}
	result.SearchDeleted = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `DELETE FROM audit_events WHERE created_at < $1`, cutoffAudit)
	if err != nil {
		return repository.RetentionResult{}, fmt.Errorf("purge audit events: %w", err)
	}
	result.AuditDeleted = int(tag.RowsAffected())

	detail := fmt.Sprintf("insights=%d snapshots=%d reports=%d search=%d audit=%d",
		result.InsightsDeleted, result.SnapshotsDeleted, result.ReportsDeleted, result.SearchDeleted, result.AuditDeleted)
	if _, err := tx.Exec(ctx, `
		INSERT INTO retention_runs (status, detail, created_at)
		VALUES ($1, $2, NOW())
	`, "completed", detail); err != nil {
		return repository.RetentionResult{}, fmt.Errorf("log retention run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return repository.RetentionResult{}, fmt.Errorf("commit retention purge tx: %w", err)
	}
	return result, nil
}
