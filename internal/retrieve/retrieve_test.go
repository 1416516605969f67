package retrieve

import (
	"context"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"marketintel/internal/embedding"
	"marketintel/internal/model"
	"marketintel/internal/repository/memory"
)

func seedInsight(t *testing.T, repo *memory.Store, sourceID int64, text string) {
	t.Helper()
	if _, err := repo.AddSource(context.Background(), "Seed Source", "https://example.com/seed", model.ConnectorWeb); err != nil {
		t.Fatalf("seed source failed: %v", err)
	}
	if _, err := repo.InsertInsight(context.Background(), model.Insight{
		SourceID:     sourceID,
		SourceName:   "Seed Source",
		SourceURL:    "https://example.com/seed",
		Text:         text,
		ThreatLevel:  model.ThreatLow,
		EvidenceRef:  "https://example.com/seed",
		Confidence:   0.7,
		CriticStatus: model.CriticApproved,
	}); err != nil {
		t.Fatalf("seed insight failed: %v", err)
	}
}

func TestRetrieveMergesFullTextResults(t *testing.T) {
	repo := memory.New()
	seedInsight(t, repo, 1, "Acme Corp announces record quarterly revenue")

	embed := embedding.New(resty.New(), "http://127.0.0.1:1", "nomic-embed-text", 8)
	retriever := New(repo, embed, zerolog.Nop())

	result := retriever.Retrieve(context.Background(), "record quarterly revenue", "Acme Corp", 20)
	if len(result.Evidence) == 0 {
		t.Fatal("expected at least one evidence item from full-text search")
	}
}

func TestMergeSemanticIntoEvidenceInjectsNewSource(t *testing.T) {
	evidence := []model.EvidenceItem{{SourceID: 1, Insight: "existing"}}
	chunks := []model.MemoryChunk{{SourceID: 2, ChunkText: "new chunk", SourceName: "Other", Similarity: 0.83}}

	merged := mergeSemanticIntoEvidence(evidence, chunks)
	if len(merged) != 2 {
		t.Fatalf("expected 2 items after merge, got %d", len(merged))
	}
	if merged[1].SourceID != 2 || merged[1].SimilarityScore != 0.83 {
		t.Fatalf("expected injected pseudo-evidence item carrying the chunk's similarity, got %+v", merged[1])
	}
}

func TestMergeSemanticIntoEvidenceAttachesScoreToExisting(t *testing.T) {
	evidence := []model.EvidenceItem{{SourceID: 1, Insight: "existing"}}
	chunks := []model.MemoryChunk{{SourceID: 1, ChunkText: "same source chunk", Similarity: 0.61}}

	merged := mergeSemanticIntoEvidence(evidence, chunks)
	if len(merged) != 1 {
		t.Fatalf("expected no new item injected, got %d", len(merged))
	}
	if merged[0].SimilarityScore != 0.61 {
		t.Fatalf("expected existing item's similarity score attached from the chunk, got %v", merged[0].SimilarityScore)
	}
}
