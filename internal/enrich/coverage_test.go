package enrich

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"marketintel/internal/model"
	"marketintel/internal/repository/memory"
)

func TestBuildCoverageAssessmentEmptyTicker(t *testing.T) {
	cov := BuildCoverageAssessment(context.Background(), memory.New(), "", FinancialPerformance{}, false, SocialSentiment{}, zerolog.Nop())
	if cov.Score != 0 {
		t.Fatalf("expected zero score for empty ticker, got %v", cov.Score)
	}
}

func TestBuildCoverageAssessmentOverlaysRealTimeSignals(t *testing.T) {
	repo := memory.New()
	if _, err := repo.UpdateCoverage(context.Background(), model.EntityCoverage{
		Ticker: "ACME", HasFilings: true, FilingCount: 3,
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	financial := FinancialPerformance{Valuation: Valuation{TrailingPE: floatPtr(18.5)}}
	cov := BuildCoverageAssessment(context.Background(), repo, "ACME", financial, true, SocialSentiment{Available: true}, zerolog.Nop())

	if !cov.HasFinancials || !cov.HasPrice || !cov.HasSocial {
		t.Fatalf("expected real-time overlays to set coverage flags, got %+v", cov)
	}
	if cov.Score <= 0 {
		t.Fatalf("expected positive recomputed score, got %v", cov.Score)
	}
}

func TestBuildCoverageAssessmentKeepsHigherStoredScore(t *testing.T) {
	repo := memory.New()
	if _, err := repo.UpdateCoverage(context.Background(), model.EntityCoverage{Ticker: "ACME", Score: 0.95}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	cov := BuildCoverageAssessment(context.Background(), repo, "ACME", FinancialPerformance{}, false, SocialSentiment{}, zerolog.Nop())
	if cov.Score != 0.95 {
		t.Fatalf("expected stored score of 0.95 to win, got %v", cov.Score)
	}
}
