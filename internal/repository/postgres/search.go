package postgres

import (
	"context"
	"fmt"

	"marketintel/internal/model"
)

// SaveSearchResult persists an executed query and its cited evidence,
// returning the new search_queries id.
func (s *Store) SaveSearchResult(ctx context.Context, q model.SearchQuery, evidence []model.SearchEvidence) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO search_queries (query, answer, confidence, risk_level, recommendation, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id
	`, q.Query, q.Answer, q.Confidence, q.RiskLevel, q.Recommendation).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save search query: %w", err)
	}

	for _, e := range evidence {
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO search_evidence (search_query_id, source_name, evidence_ref, rank_score)
			VALUES ($1, $2, $3, $4)
		`, id, e.SourceName, e.EvidenceRef, e.RankScore); err != nil {
			return 0, fmt.Errorf("save search evidence for query %d: %w", id, err)
		}
	}

	s.audit(ctx, "search_executed", "search_query", fmt.Sprintf("%d", id), q.Query)
	return id, nil
}

// GetSearchHistory returns a page of past queries, newest first.
func (s *Store) GetSearchHistory(ctx context.Context, page, pageSize int) ([]model.SearchQuery, error) {
	offset := page * pageSize
	rows, err := s.pool.Query(ctx, `
		SELECT id, query, answer, confidence, risk_level, recommendation, created_at
		FROM search_queries
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("get search history: %w", err)
	}
	defer rows.Close()

	var out []model.SearchQuery
	for rows.Next() {
		var q model.SearchQuery
		if err := rows.Scan(&q.ID, &q.Query, &q.Answer, &q.Confidence, &q.RiskLevel, &q.Recommendation, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search query row: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
