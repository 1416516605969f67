package generation

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"marketintel/internal/config"
	"marketintel/internal/enrich"
)

func TestScenarioSynthesizerParsesThreeScenarios(t *testing.T) {
	backend := &stubBackend{name: "stub", response: `{"scenarios": [
		{"name": "bull", "probability": 0.5, "assumption": "demand holds", "impact": "upside", "trigger_signals": ["guidance raise"]},
		{"name": "base", "probability": 0.3, "assumption": "steady state", "impact": "inline", "trigger_signals": []},
		{"name": "bear", "probability": 0.2, "assumption": "demand softens", "impact": "downside", "trigger_signals": ["margin compression"]}
	]}`}
	client := NewClient(backend, &config.Settings{OllamaMaxConcurrent: 2, LLMCacheTTLSeconds: 900}, nil, zerolog.Nop())
	synth := NewScenarioSynthesizer(client, "gemini-2.0-flash")

	scenarios, err := synth.GenerateScenarios(context.Background(), "query", []enrich.ScenarioEvidence{
		{SourceName: "10-Q", Insight: "revenue grew", Confidence: 0.7},
	}, enrich.FinancialPerformance{}, enrich.HistoricalTrends{}, enrich.MacroContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scenarios) != 3 {
		t.Fatalf("expected 3 scenarios, got %d", len(scenarios))
	}
	if scenarios[0].Name != "bull" || scenarios[0].Probability != 0.5 {
		t.Fatalf("unexpected first scenario: %+v", scenarios[0])
	}
}
