package orchestrator

import (
	"context"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"marketintel/internal/config"
	"marketintel/internal/embedding"
	"marketintel/internal/model"
	"marketintel/internal/repository/memory"
	"marketintel/internal/retrieve"
)

func seedEvidence(t *testing.T, repo *memory.Store, text string) {
	t.Helper()
	src, err := repo.AddSource(context.Background(), "Seed Source", "https://example.com/seed", model.ConnectorWeb)
	if err != nil {
		t.Fatalf("seed source failed: %v", err)
	}
	if _, err := repo.InsertInsight(context.Background(), model.Insight{
		SourceID:     src.ID,
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

func newTestOrchestrator(t *testing.T, repo *memory.Store) *Orchestrator {
	t.Helper()
	embed := embedding.New(resty.New(), "http://127.0.0.1:1", "nomic-embed-text", 8)
	retriever := retrieve.New(repo, embed, zerolog.Nop())
	cfg := &config.Settings{
		IntelligencePipelineTimeoutSeconds: 5,
		RefreshMinEvidence:                 5,
		RefreshStaleAfterHours:             24,
	}
	return New(repo, nil, nil, retriever, nil, nil, nil, nil, nil, cfg, zerolog.Nop())
}

func TestRunProducesTemplatedReportWithoutLLMOrProviders(t *testing.T) {
	repo := memory.New()
	seedEvidence(t, repo, "Acme Corp announces record quarterly revenue growth")

	o := newTestOrchestrator(t, repo)

	report, err := o.Run(context.Background(), "Acme Corp revenue growth", 10)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.SearchID == "" {
		t.Fatal("expected a non-empty search ID")
	}
	if report.Report.ExecutiveSummary == "" {
		t.Fatal("expected a templated executive summary fallback")
	}
	if report.Report.DecisionCard.Recommendation != "watch" {
		t.Fatalf("expected templated 'watch' recommendation, got %q", report.Report.DecisionCard.Recommendation)
	}
	if len(report.Report.Scenarios) != 3 {
		t.Fatalf("expected 3 arithmetic fallback scenarios, got %d", len(report.Report.Scenarios))
	}
	if report.KnowledgeStatus.EvidenceCount == 0 {
		t.Fatal("expected non-zero evidence count from seeded insight")
	}
}

func TestRunEnrichmentTriggeredWhenEvidenceThin(t *testing.T) {
	repo := memory.New()
	o := newTestOrchestrator(t, repo)

	report, err := o.Run(context.Background(), "Nothing Corp", 10)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !report.KnowledgeStatus.EnrichmentTriggered {
		t.Fatal("expected enrichment to be triggered when no evidence exists")
	}
}

func TestRunStreamEmitsOrderedStagesEndingInComplete(t *testing.T) {
	repo := memory.New()
	seedEvidence(t, repo, "Acme Corp reports steady demand")
	o := newTestOrchestrator(t, repo)

	events := o.RunStream(context.Background(), "Acme Corp demand", 10)

	var stages []string
	for ev := range events {
		stages = append(stages, ev.Stage)
	}
	if len(stages) == 0 {
		t.Fatal("expected at least one event")
	}
	if stages[0] != "query_parsed" {
		t.Fatalf("expected first stage query_parsed, got %s", stages[0])
	}
	last := stages[len(stages)-1]
	if last != "complete" {
		t.Fatalf("expected final stage complete, got %s", last)
	}
}

func TestRunStreamStopsOnCancellation(t *testing.T) {
	repo := memory.New()
	seedEvidence(t, repo, "Acme Corp reports steady demand")
	o := newTestOrchestrator(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	events := o.RunStream(ctx, "Acme Corp demand", 10)

	first := <-events
	if first.Stage != "query_parsed" {
		t.Fatalf("expected query_parsed first, got %s", first.Stage)
	}
	cancel()

	for ev := range events {
		if ev.Stage == "complete" {
			t.Fatal("expected no complete event after cancellation")
		}
	}
}
