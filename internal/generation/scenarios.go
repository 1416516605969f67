package generation

import (
	"context"
	"fmt"
	"strings"

	"marketintel/internal/enrich"
	"marketintel/internal/model"
)

// ScenarioSynthesizer implements enrich.ScenarioGenerator over a Client. It
// asks the backend for exactly three named, probability-weighted forward
// scenarios and parses the JSON response with the repair fallback; enrich's
// arithmetic fallback covers every failure mode here, so errors are
// returned rather than papered over.
type ScenarioSynthesizer struct {
	client *Client
	model  string
}

func NewScenarioSynthesizer(client *Client, model string) *ScenarioSynthesizer {
	return &ScenarioSynthesizer{client: client, model: model}
}

type scenarioResponseItem struct {
	Name           string   `json:"name"`
	Probability    float64  `json:"probability"`
	Assumption     string   `json:"assumption"`
	Impact         string   `json:"impact"`
	TriggerSignals []string `json:"trigger_signals"`
}

type scenarioResponse struct {
	Scenarios []scenarioResponseItem `json:"scenarios"`
}

const scenarioSystemPrompt = `You are a market intelligence analyst. Given ranked evidence and financial context, produce exactly three forward-looking scenarios named "bull", "base", and "bear". Respond with JSON only, matching: {"scenarios": [{"name": "bull", "probability": 0.0, "assumption": "...", "impact": "...", "trigger_signals": ["..."]}]}. Probabilities must sum to 1.0.`

func (s *ScenarioSynthesizer) GenerateScenarios(ctx context.Context, queryText string, topEvidence []enrich.ScenarioEvidence, financial enrich.FinancialPerformance, historical enrich.HistoricalTrends, macro enrich.MacroContext) ([]model.Scenario, error) {
	prompt := buildScenarioPrompt(queryText, topEvidence, financial, historical, macro)

	raw, err := s.client.Generate(ctx, scenarioSystemPrompt, prompt, Options{Model: s.model, JSONMode: true, Temperature: 0.2})
	if err != nil {
		return nil, fmt.Errorf("scenario synthesizer: %w", err)
	}

	var parsed scenarioResponse
	if err := ParseJSON(raw, &parsed); err != nil {
		return nil, fmt.Errorf("scenario synthesizer: %w", err)
	}

	scenarios := make([]model.Scenario, 0, len(parsed.Scenarios))
	for _, item := range parsed.Scenarios {
		scenarios = append(scenarios, model.Scenario{
			Name:           item.Name,
			Probability:    item.Probability,
			Assumption:     item.Assumption,
			Impact:         item.Impact,
			TriggerSignals: item.TriggerSignals,
		})
	}
	return scenarios, nil
}

func buildScenarioPrompt(queryText string, topEvidence []enrich.ScenarioEvidence, financial enrich.FinancialPerformance, historical enrich.HistoricalTrends, macro enrich.MacroContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Query: %s\n\n", queryText)
	fmt.Fprintf(&sb, "Financial performance: %s\n", financial.Summary)
	if macro.Available {
		fmt.Fprintf(&sb, "Macro context: %s\n", macro.Summary)
	}
	sb.WriteString("\nTop evidence:\n")
	for i, item := range topEvidence {
		if i >= 8 {
			break
		}
		fmt.Fprintf(&sb, "- [%s, confidence=%.2f, threat=%s] %s\n", item.SourceName, item.Confidence, item.ThreatLevel, item.Insight)
	}
	return sb.String()
}
