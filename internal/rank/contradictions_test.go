package rank

import (
	"testing"
	"time"

	"marketintel/internal/model"
)

func TestDetectContradictionsThreatLevelConflict(t *testing.T) {
	items := []model.EvidenceItem{
		{ThreatLevel: model.ThreatHigh, Recommendation: "monitor closely"},
		{ThreatLevel: model.ThreatLow, Recommendation: "continue as planned"},
	}
	conflicts := DetectContradictions(items)
	found := false
	for _, c := range conflicts {
		if c.Type == "threat_level_conflict" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected threat_level_conflict to be flagged")
	}
}

func TestDetectContradictionsRecommendationConflict(t *testing.T) {
	items := []model.EvidenceItem{
		{ThreatLevel: model.ThreatMedium, Recommendation: "respond with immediate action"},
		{ThreatLevel: model.ThreatMedium, Recommendation: "hold and monitor the situation"},
	}
	conflicts := DetectContradictions(items)
	found := false
	for _, c := range conflicts {
		if c.Type == "recommendation_conflict" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected recommendation_conflict to be flagged")
	}
}

func TestDetectContradictionsNoneWhenConsistent(t *testing.T) {
	items := []model.EvidenceItem{
		{ThreatLevel: model.ThreatLow, Recommendation: "continue monitoring"},
		{ThreatLevel: model.ThreatLow, Recommendation: "hold position"},
	}
	if conflicts := DetectContradictions(items); len(conflicts) != 0 {
		t.Fatalf("expected no contradictions, got %+v", conflicts)
	}
}

func TestBuildSignalShiftsDedupsAndFormats(t *testing.T) {
	items := []model.EvidenceItem{
		{SourceName: "Acme Blog", ThreatLevel: model.ThreatHigh, Confidence: 0.8},
		{SourceName: "Acme Blog", ThreatLevel: model.ThreatHigh, Confidence: 0.8},
	}
	lines := BuildSignalShifts(items)
	if len(lines) != 1 {
		t.Fatalf("expected deduped single line, got %d: %+v", len(lines), lines)
	}
}

func TestBuildSignalShiftsFallback(t *testing.T) {
	lines := BuildSignalShifts(nil)
	if len(lines) != 1 || lines[0] == "" {
		t.Fatalf("expected fallback line, got %+v", lines)
	}
}

func TestNeedsRefreshWhenThin(t *testing.T) {
	if !NeedsRefresh([]model.EvidenceItem{{}}, 3, 18) {
		t.Fatal("expected refresh needed when evidence count is below minimum")
	}
}

func TestNeedsRefreshWhenStale(t *testing.T) {
	old := time.Now().Add(-48 * time.Hour)
	items := []model.EvidenceItem{{CreatedAt: &old}, {CreatedAt: &old}, {CreatedAt: &old}}
	if !NeedsRefresh(items, 3, 18) {
		t.Fatal("expected refresh needed when freshest item is stale")
	}
}

func TestNeedsRefreshFalseWhenFreshAndSufficient(t *testing.T) {
	fresh := time.Now()
	items := []model.EvidenceItem{{CreatedAt: &fresh}, {CreatedAt: &fresh}, {CreatedAt: &fresh}}
	if NeedsRefresh(items, 3, 18) {
		t.Fatal("expected no refresh needed for fresh, sufficient evidence")
	}
}

func TestValidateFinancialSnapshotFlagsExtremeGrowth(t *testing.T) {
	extreme := 6.0
	warnings := ValidateFinancialSnapshot(model.KeyMetrics{RevenueGrowth: &extreme})
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %+v", warnings)
	}
}

func TestValidateFinancialSnapshotFlagsMarginLogicError(t *testing.T) {
	op, gross := 0.5, 0.3
	warnings := ValidateFinancialSnapshot(model.KeyMetrics{OperatingMargin: &op, GrossMargin: &gross})
	if len(warnings) != 1 {
		t.Fatalf("expected logic-error warning, got %+v", warnings)
	}
}

func TestValidateFinancialSnapshotCleanMetrics(t *testing.T) {
	growth, op, gross := 0.12, 0.2, 0.4
	warnings := ValidateFinancialSnapshot(model.KeyMetrics{RevenueGrowth: &growth, OperatingMargin: &op, GrossMargin: &gross})
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", warnings)
	}
}
