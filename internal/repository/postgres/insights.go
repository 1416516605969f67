package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"marketintel/internal/model"
	"marketintel/internal/repository"
)

// InsertInsight stores one atomic piece of evidence produced by ingestion.
func (s *Store) InsertInsight(ctx context.Context, i model.Insight) (model.Insight, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO insights
			(source_id, source_name, source_url, text, recommendation,
			 threat_level, evidence_ref, content_hash, confidence, critic_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id, source_id, source_name, source_url, text, recommendation,
			threat_level, evidence_ref, content_hash, confidence, critic_status, created_at
	`, i.SourceID, i.SourceName, i.SourceURL, i.Text, i.Recommendation,
		string(i.ThreatLevel), i.EvidenceRef, i.ContentHash, i.Confidence, string(i.CriticStatus))

	out, err := scanInsight(row)
	if err != nil {
		return model.Insight{}, fmt.Errorf("insert insight for source %d: %w", i.SourceID, err)
	}
	s.audit(ctx, "insight_created", "source", fmt.Sprintf("%d", i.SourceID), i.EvidenceRef)
	return out, nil
}

// SearchInsightsByText runs a full-text search over insight bodies and
// returns candidate evidence items with TextRank populated from
// Postgres's ts_rank; retrieval signals beyond TextRank are filled in
// by internal/retrieve after merging with the semantic/graph results.
func (s *Store) SearchInsightsByText(ctx context.Context, query string, limit int) ([]model.EvidenceItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_id, source_name, source_url, text, recommendation,
			threat_level, evidence_ref, content_hash, confidence, critic_status, created_at,
			ts_rank(to_tsvector('english', text), plainto_tsquery('english', $1)) AS text_rank
		FROM insights
		WHERE to_tsvector('english', text) @@ plainto_tsquery('english', $1)
		ORDER BY text_rank DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search insights by text %q: %w", query, err)
	}
	defer rows.Close()

	var out []model.EvidenceItem
	for rows.Next() {
		var ins model.Insight
		var threatLevel, criticStatus string
		var textRank float64
		if err := rows.Scan(&ins.ID, &ins.SourceID, &ins.SourceName, &ins.SourceURL, &ins.Text,
			&ins.Recommendation, &threatLevel, &ins.EvidenceRef, &ins.ContentHash, &ins.Confidence,
			&criticStatus, &ins.CreatedAt, &textRank); err != nil {
			return nil, fmt.Errorf("scan text search row: %w", err)
		}
		ins.ThreatLevel = model.ThreatLevel(threatLevel)
		ins.CriticStatus = model.CriticStatus(criticStatus)
		createdAt := ins.CreatedAt
		out = append(out, model.EvidenceItem{
			SourceID:       ins.SourceID,
			SourceName:     ins.SourceName,
			SourceURL:      ins.SourceURL,
			Insight:        ins.Text,
			Recommendation: ins.Recommendation,
			ThreatLevel:    ins.ThreatLevel,
			EvidenceRef:    ins.EvidenceRef,
			Confidence:     ins.Confidence,
			CriticStatus:   ins.CriticStatus,
			CreatedAt:      &createdAt,
			TextRank:       textRank,
		})
	}
	return out, rows.Err()
}

// SemanticSearch runs a cosine-distance nearest-neighbor search over
// memory_chunks using pgvector's <=> operator.
func (s *Store) SemanticSearch(ctx context.Context, queryVec []float32, limit int) ([]model.MemoryChunk, error) {
	vecStr := formatPgvector(queryVec)
	rows, err := s.pool.Query(ctx, `
		SELECT source_id, source_name, source_url, chunk_text, evidence_ref,
			1 - (embedding <=> $1::vector) AS similarity_score
		FROM memory_chunks
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`, vecStr, limit)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	defer rows.Close()

	var out []model.MemoryChunk
	for rows.Next() {
		var c model.MemoryChunk
		if err := rows.Scan(&c.SourceID, &c.SourceName, &c.SourceURL, &c.ChunkText, &c.EvidenceRef, &c.Similarity); err != nil {
			return nil, fmt.Errorf("scan semantic search row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertMemoryChunk stores one embedded chunk, keyed by
// (source_id, content_hash, chunk_index); re-ingesting an unchanged
// chunk refreshes its embedding and evidence_ref.
func (s *Store) UpsertMemoryChunk(ctx context.Context, c model.MemoryChunk) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO memory_chunks
			(source_id, source_name, source_url, content_hash, chunk_index, chunk_text, evidence_ref, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::vector)
		ON CONFLICT (source_id, content_hash, chunk_index) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			chunk_text = EXCLUDED.chunk_text,
			evidence_ref = EXCLUDED.evidence_ref
	`, c.SourceID, c.SourceName, c.SourceURL, c.ContentHash, c.ChunkIndex, c.ChunkText, c.EvidenceRef, formatPgvector(c.Embedding))
	if err != nil {
		return fmt.Errorf("upsert memory chunk for source %d: %w", c.SourceID, err)
	}
	return nil
}

// UpsertEvidenceRelation links a source to a shared evidence reference,
// the edge the graph-traversal queries walk.
func (s *Store) UpsertEvidenceRelation(ctx context.Context, r model.SourceEvidenceRelation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO source_evidence_relations (source_id, evidence_ref, threat_level)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_id, evidence_ref) DO UPDATE SET threat_level = EXCLUDED.threat_level
	`, r.SourceID, r.EvidenceRef, string(r.ThreatLevel))
	if err != nil {
		return fmt.Errorf("upsert evidence relation for source %d: %w", r.SourceID, err)
	}
	return nil
}

// GraphRelatedSources finds sources whose name matches entityName,
// ranked by threat level, via source_evidence_relations.
func (s *Store) GraphRelatedSources(ctx context.Context, entityName string, limit int) ([]model.SourceEvidenceRelation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.name, s.url, r.threat_level, r.evidence_ref
		FROM source_evidence_relations r
		JOIN sources s ON r.source_id = s.id
		WHERE s.name ILIKE $1
		ORDER BY CASE r.threat_level WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC
		LIMIT $2
	`, "%"+entityName+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("graph related sources for %q: %w", entityName, err)
	}
	defer rows.Close()

	var out []model.SourceEvidenceRelation
	for rows.Next() {
		var r model.SourceEvidenceRelation
		var threatLevel string
		if err := rows.Scan(&r.SourceID, &r.SourceName, &r.SourceURL, &threatLevel, &r.EvidenceRef); err != nil {
			return nil, fmt.Errorf("scan graph related source row: %w", err)
		}
		r.ThreatLevel = model.ThreatLevel(threatLevel)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GraphConnectedEntities finds other sources that share an evidence_ref
// with any source matching entityName, ordered by overlap count.
func (s *Store) GraphConnectedEntities(ctx context.Context, entityName string, limit int) ([]repository.ConnectedEntity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s2.name, s2.url, count(r2.evidence_ref)
		FROM source_evidence_relations r1
		JOIN sources s1 ON r1.source_id = s1.id
		JOIN source_evidence_relations r2 ON r1.evidence_ref = r2.evidence_ref
		JOIN sources s2 ON r2.source_id = s2.id
		WHERE s1.name ILIKE $1 AND s1.id != s2.id
		GROUP BY s2.id, s2.name, s2.url
		ORDER BY count(r2.evidence_ref) DESC
		LIMIT $2
	`, "%"+entityName+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("graph connected entities for %q: %w", entityName, err)
	}
	defer rows.Close()

	var out []repository.ConnectedEntity
	for rows.Next() {
		var c repository.ConnectedEntity
		if err := rows.Scan(&c.RelatedSource, &c.URL, &c.SharedEvidenceCount); err != nil {
			return nil, fmt.Errorf("scan connected entity row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LatestInsightsBySource returns the most recent insights tied to one
// source, used by the ingestion worker's needs_refresh freshness check.
func (s *Store) LatestInsightsBySource(ctx context.Context, sourceID int64, limit int) ([]model.Insight, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_id, source_name, source_url, text, recommendation,
			threat_level, evidence_ref, content_hash, confidence, critic_status, created_at
		FROM insights
		WHERE source_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("latest insights by source %d: %w", sourceID, err)
	}
	defer rows.Close()

	var out []model.Insight
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan insight row: %w", err)
		}
		out = append(out, ins)
	}
	return out, rows.Err()
}

func scanInsight(row pgxRow) (model.Insight, error) {
	var ins model.Insight
	var threatLevel, criticStatus string
	if err := row.Scan(&ins.ID, &ins.SourceID, &ins.SourceName, &ins.SourceURL, &ins.Text,
		&ins.Recommendation, &threatLevel, &ins.EvidenceRef, &ins.ContentHash, &ins.Confidence,
		&criticStatus, &ins.CreatedAt); err != nil {
		return model.Insight{}, err
	}
	ins.ThreatLevel = model.ThreatLevel(threatLevel)
	ins.CriticStatus = model.CriticStatus(criticStatus)
	return ins, nil
}

// formatPgvector renders a float slice as pgvector's literal syntax,
// e.g. "[0.1,-0.2,0.3]".
func formatPgvector(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
