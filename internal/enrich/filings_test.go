package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"marketintel/internal/model"
	"marketintel/internal/repository/memory"
)

func TestBuildFilingsSummaryEmpty(t *testing.T) {
	summary := BuildFilingsSummary(context.Background(), memory.New(), "ACME", zerolog.Nop())
	if summary.Available {
		t.Fatal("expected unavailable summary with no stored filings")
	}
}

func TestBuildFilingsSummaryReturnsStoredFilings(t *testing.T) {
	repo := memory.New()
	if err := repo.UpsertFiling(context.Background(), model.EntityFiling{
		Ticker: "ACME", CIK: "0000000001", AccessionNumber: "0000000001-26-000001",
		FilingType: "10-Q", FilingDate: time.Now(), FilingURL: "https://sec.gov/x", Description: "quarterly report",
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	summary := BuildFilingsSummary(context.Background(), repo, "ACME", zerolog.Nop())
	if !summary.Available || summary.Count != 1 {
		t.Fatalf("expected one available filing, got %+v", summary)
	}
	if summary.Filings[0].Type != "10-Q" {
		t.Fatalf("expected 10-Q filing type, got %q", summary.Filings[0].Type)
	}
}
