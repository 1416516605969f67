package enrich

import (
	"testing"

	"marketintel/internal/model"
)

func floatPtr(v float64) *float64 { return &v }

func TestBuildFinancialPerformanceSummary(t *testing.T) {
	snapshot := model.FinancialSnapshot{
		Symbol:            "ACME",
		Price:             floatPtr(123.45),
		Currency:          "USD",
		MarketCap:         floatPtr(2_500_000_000),
		FiftyTwoWeekRange: "100.00 - 150.00",
		RevenueGrowth:     floatPtr(0.12),
		GrossMargin:       floatPtr(0.45),
	}

	perf := BuildFinancialPerformance(snapshot)
	if perf.Summary == noSnapshotSummary {
		t.Fatal("expected a populated summary line")
	}
	if perf.Growth.RevenueGrowthYoY != "12.0%" {
		t.Fatalf("expected formatted revenue growth, got %q", perf.Growth.RevenueGrowthYoY)
	}
	if perf.Profitability.GrossMargin != "45.0%" {
		t.Fatalf("expected formatted gross margin, got %q", perf.Profitability.GrossMargin)
	}
}

func TestBuildFinancialPerformanceEmptySnapshot(t *testing.T) {
	perf := BuildFinancialPerformance(model.FinancialSnapshot{})
	if perf.Summary != noSnapshotSummary {
		t.Fatalf("expected fallback summary, got %q", perf.Summary)
	}
	if perf.Growth.RevenueGrowthYoY != "n/a" {
		t.Fatalf("expected n/a growth, got %q", perf.Growth.RevenueGrowthYoY)
	}
}

func TestFormatCompactNumberTiers(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1_500_000_000_000, "1.50T"},
		{2_000_000_000, "2.00B"},
		{3_000_000, "3.00M"},
		{42.5, "42.50"},
	}
	for _, c := range cases {
		v := c.in
		if got := formatCompactNumber(&v); got != c.want {
			t.Errorf("formatCompactNumber(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
