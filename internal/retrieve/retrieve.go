// Package retrieve implements hybrid evidence retrieval: Postgres
// full-text search merged with pgvector semantic search and a Neo4j-
// equivalent graph lookup for related sources. Grounded on
// original_source/core/pipeline/retrieval.py's _hybrid_retrieve.
package retrieve

import (
	"context"

	"github.com/rs/zerolog"

	"marketintel/internal/embedding"
	"marketintel/internal/model"
	"marketintel/internal/repository"
)

// Result bundles the three retrieval channels, matching the
// (merged_evidence, semantic_chunks, graph_related) tuple
// _hybrid_retrieve returns.
type Result struct {
	Evidence       []model.EvidenceItem
	SemanticChunks []model.MemoryChunk
	GraphRelated   []model.SourceEvidenceRelation
}

// Retriever runs the hybrid retrieval fan-out against one repository.
type Retriever struct {
	repo  repository.Repository
	embed *embedding.Client
	log   zerolog.Logger
}

func New(repo repository.Repository, embed *embedding.Client, log zerolog.Logger) *Retriever {
	return &Retriever{repo: repo, embed: embed, log: log}
}

// Retrieve fans out to full-text search, semantic search, and graph
// search, then folds semantic hits into the evidence pool: chunks whose
// source isn't already present become pseudo-evidence items, and
// chunks whose source IS present attach their similarity score to the
// first matching item that doesn't already carry one. Semantic and
// graph search failures degrade gracefully (logged, empty result) since
// full-text search alone is still a usable answer.
func (r *Retriever) Retrieve(ctx context.Context, queryText, entityName string, limit int) Result {
	textLimit := limit
	if textLimit < 12 {
		textLimit = 12
	}

	evidence, err := r.repo.SearchInsightsByText(ctx, queryText, textLimit)
	if err != nil {
		r.log.Warn().Err(err).Str("query", queryText).Msg("full-text search failed")
		evidence = nil
	}

	queryVec := r.embed.Embed(ctx, queryText)
	semanticChunks, err := r.repo.SemanticSearch(ctx, queryVec, limit)
	if err != nil {
		r.log.Warn().Err(err).Msg("semantic search failed")
		semanticChunks = nil
	}

	graphRelated, err := r.repo.GraphRelatedSources(ctx, entityName, 10)
	if err != nil {
		r.log.Warn().Err(err).Str("entity", entityName).Msg("graph search failed")
		graphRelated = nil
	}

	merged := mergeSemanticIntoEvidence(evidence, semanticChunks)

	return Result{
		Evidence:       merged,
		SemanticChunks: semanticChunks,
		GraphRelated:   graphRelated,
	}
}

func mergeSemanticIntoEvidence(evidence []model.EvidenceItem, chunks []model.MemoryChunk) []model.EvidenceItem {
	bySource := make(map[int64]int, len(evidence))
	for i, item := range evidence {
		bySource[item.SourceID] = i
	}

	for _, chunk := range chunks {
		if _, present := bySource[chunk.SourceID]; !present {
			evidence = append(evidence, model.EvidenceItem{
				SourceID:        chunk.SourceID,
				SourceName:      chunk.SourceName,
				SourceURL:       chunk.SourceURL,
				EvidenceRef:     chunk.EvidenceRef,
				Insight:         chunk.ChunkText,
				ThreatLevel:     model.ThreatLow,
				Confidence:      0.5,
				CriticStatus:    model.CriticApproved,
				SimilarityScore: chunk.Similarity,
			})
			bySource[chunk.SourceID] = len(evidence) - 1
			continue
		}
		for i := range evidence {
			if evidence[i].SourceID == chunk.SourceID && evidence[i].SimilarityScore == 0 {
				evidence[i].SimilarityScore = chunk.Similarity
				break
			}
		}
	}
	return evidence
}
