package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"marketintel/internal/model"
	"marketintel/internal/repository/memory"
)

type stubBackfiller struct {
	calls    int
	quarters int
}

func (b *stubBackfiller) BackfillQuarterly(ctx context.Context, ticker string) (int, error) {
	b.calls++
	return b.quarters, nil
}

func TestBuildHistoricalTrendsEmptyTicker(t *testing.T) {
	trends := BuildHistoricalTrends(context.Background(), memory.New(), nil, "", zerolog.Nop())
	if trends.Available {
		t.Fatal("expected unavailable trends for empty ticker")
	}
}

func TestBuildHistoricalTrendsGrowingDirection(t *testing.T) {
	repo := memory.New()
	older := model.FinancialPeriod{
		Ticker: "ACME", PeriodType: model.PeriodQuarterly,
		PeriodEnd: time.Now().AddDate(0, -3, 0), FiscalYear: 2026, FiscalQuarter: 1,
		Income: model.IncomeStatement{TotalRevenue: floatPtr(100)},
	}
	newer := model.FinancialPeriod{
		Ticker: "ACME", PeriodType: model.PeriodQuarterly,
		PeriodEnd: time.Now(), FiscalYear: 2026, FiscalQuarter: 2,
		Income: model.IncomeStatement{TotalRevenue: floatPtr(120)},
	}
	if _, err := repo.UpsertFinancialPeriod(context.Background(), older); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := repo.UpsertFinancialPeriod(context.Background(), newer); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	trends := BuildHistoricalTrends(context.Background(), repo, nil, "ACME", zerolog.Nop())
	if !trends.Available {
		t.Fatal("expected trends to be available")
	}
	if trends.TrendDirection != "growing" {
		t.Fatalf("expected growing trend, got %q", trends.TrendDirection)
	}
}

func TestBuildHistoricalTrendsTriggersBackfillWhenNoRevenue(t *testing.T) {
	repo := memory.New()
	noRevenue := model.FinancialPeriod{
		Ticker: "ACME", PeriodType: model.PeriodQuarterly,
		PeriodEnd: time.Now(), FiscalYear: 2026, FiscalQuarter: 2,
	}
	if _, err := repo.UpsertFinancialPeriod(context.Background(), noRevenue); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	backfill := &stubBackfiller{quarters: 0}
	BuildHistoricalTrends(context.Background(), repo, backfill, "ACME", zerolog.Nop())
	if backfill.calls != 1 {
		t.Fatalf("expected backfill to be invoked once, got %d", backfill.calls)
	}
}
