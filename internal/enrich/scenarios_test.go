package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"marketintel/internal/model"
)

type stubScenarioGenerator struct {
	scenarios []model.Scenario
	err       error
}

func (g *stubScenarioGenerator) GenerateScenarios(ctx context.Context, queryText string, topEvidence []ScenarioEvidence, financial FinancialPerformance, historical HistoricalTrends, macro MacroContext) ([]model.Scenario, error) {
	return g.scenarios, g.err
}

func TestBuildScenariosArithmeticFallbackWhenGeneratorNil(t *testing.T) {
	scenarios := BuildScenarios(context.Background(), nil, 0.6, nil, FinancialPerformance{}, HistoricalTrends{}, MacroContext{}, "", zerolog.Nop())
	if len(scenarios) != 3 {
		t.Fatalf("expected 3 fallback scenarios, got %d", len(scenarios))
	}
	total := 0.0
	for _, s := range scenarios {
		total += s.Probability
	}
	if total < 0.999 || total > 1.001 {
		t.Fatalf("expected probabilities to sum to ~1.0, got %v", total)
	}
}

func TestBuildScenariosFallbackWhenGeneratorErrors(t *testing.T) {
	gen := &stubScenarioGenerator{err: errors.New("backend unavailable")}
	scenarios := BuildScenarios(context.Background(), gen, 0.5, nil, FinancialPerformance{}, HistoricalTrends{}, MacroContext{}, "", zerolog.Nop())
	if len(scenarios) != 3 {
		t.Fatalf("expected fallback scenarios on generator error, got %d", len(scenarios))
	}
}

func TestBuildScenariosUsesLLMWhenExactlyThree(t *testing.T) {
	gen := &stubScenarioGenerator{scenarios: []model.Scenario{
		{Name: "bull", Probability: 2},
		{Name: "base", Probability: 1},
		{Name: "bear", Probability: 1},
	}}
	scenarios := BuildScenarios(context.Background(), gen, 0.5, nil, FinancialPerformance{}, HistoricalTrends{}, MacroContext{}, "query", zerolog.Nop())
	if len(scenarios) != 3 {
		t.Fatalf("expected 3 scenarios, got %d", len(scenarios))
	}
	if scenarios[0].Probability != 0.5 {
		t.Fatalf("expected renormalized bull probability of 0.5, got %v", scenarios[0].Probability)
	}
}

func TestBuildScenariosIgnoresLLMWhenCountWrong(t *testing.T) {
	gen := &stubScenarioGenerator{scenarios: []model.Scenario{{Name: "bull", Probability: 1}}}
	scenarios := BuildScenarios(context.Background(), gen, 0.5, nil, FinancialPerformance{}, HistoricalTrends{}, MacroContext{}, "", zerolog.Nop())
	if len(scenarios) != 3 {
		t.Fatalf("expected arithmetic fallback when LLM returns wrong count, got %d", len(scenarios))
	}
}
