package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"marketintel/internal/model"
	"marketintel/internal/repository/memory"
)

func TestBuildMacroContextEmpty(t *testing.T) {
	ctx := BuildMacroContext(context.Background(), memory.New(), zerolog.Nop())
	if ctx.Available {
		t.Fatal("expected unavailable macro context with no stored series")
	}
}

func TestBuildMacroContextSummarizesHeadlineSeries(t *testing.T) {
	repo := memory.New()
	obs := []model.MacroObservation{
		{SeriesID: "GDP", Date: time.Now(), Value: 27_000_000_000_000},
		{SeriesID: "UNRATE", Date: time.Now(), Value: 4.1},
		{SeriesID: "FEDFUNDS", Date: time.Now(), Value: 5.25},
	}
	for _, o := range obs {
		if err := repo.UpsertMacro(context.Background(), o); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	ctx := BuildMacroContext(context.Background(), repo, zerolog.Nop())
	if !ctx.Available {
		t.Fatal("expected available macro context")
	}
	if ctx.Summary == "" {
		t.Fatal("expected non-empty summary")
	}
	if _, ok := ctx.Indicators["GDP"]; !ok {
		t.Fatal("expected GDP indicator present")
	}
}
