package enrich

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"marketintel/internal/model"
)

// ScenarioEvidence is the trimmed evidence view a scenario generator
// prompt is given, the Go equivalent of enrichment.py's evidence_dicts.
type ScenarioEvidence struct {
	SourceName  string
	Insight     string
	Confidence  float64
	ThreatLevel model.ThreatLevel
}

// ScenarioGenerator produces three forward-looking scenarios from an
// LLM, or returns a nil slice when generation is unavailable/declines
// (empty or any other count than 3 is treated the same way: fall back
// to the arithmetic scenarios).
type ScenarioGenerator interface {
	GenerateScenarios(ctx context.Context, queryText string, topEvidence []ScenarioEvidence, financial FinancialPerformance, historical HistoricalTrends, macro MacroContext) ([]model.Scenario, error)
}

func clampConfidence(confidence float64) float64 {
	if confidence <= 0 {
		return 0.5
	}
	return confidence
}

func evidenceTopSource(evidence []model.EvidenceItem) string {
	if len(evidence) == 0 {
		return "current evidence"
	}
	return evidence[0].SourceName
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func normalizeProbabilities(scenarios []model.Scenario) []model.Scenario {
	total := 0.0
	for _, s := range scenarios {
		total += s.Probability
	}
	if total <= 0 {
		return scenarios
	}
	out := make([]model.Scenario, len(scenarios))
	for i, s := range scenarios {
		s.Probability = math.Round(s.Probability/total*1000) / 1000
		out[i] = s
	}
	return out
}

// BuildScenarios prefers an LLM-generated set of exactly three
// scenarios, renormalizing their probabilities to sum to 1.0; when the
// generator is nil, errors, or declines to return exactly three, it
// falls back to an arithmetic bull/base/bear split derived from the
// decision confidence. Grounded on enrichment.py's _build_scenarios.
func BuildScenarios(ctx context.Context, gen ScenarioGenerator, confidence float64, evidence []model.EvidenceItem, financial FinancialPerformance, historical HistoricalTrends, macro MacroContext, queryText string, log zerolog.Logger) []model.Scenario {
	baseConfidence := clampConfidence(confidence)
	topSource := evidenceTopSource(evidence)

	if gen != nil {
		topEvidence := make([]ScenarioEvidence, 0, 5)
		for _, item := range evidence {
			if len(topEvidence) >= 5 {
				break
			}
			topEvidence = append(topEvidence, ScenarioEvidence{
				SourceName:  item.SourceName,
				Insight:     truncate(item.Insight, 200),
				Confidence:  item.Confidence,
				ThreatLevel: item.ThreatLevel,
			})
		}

		query := queryText
		if query == "" {
			query = "market analysis"
		}

		scenarios, err := gen.GenerateScenarios(ctx, query, topEvidence, financial, historical, macro)
		if err != nil {
			log.Warn().Err(err).Msg("scenario generation failed, using arithmetic fallback")
		} else if len(scenarios) == 3 {
			return normalizeProbabilities(scenarios)
		}
	}

	bullRaw := math.Min(baseConfidence+0.12, 0.92)
	baseRaw := math.Max(math.Min(baseConfidence, 0.8), 0.1)
	bearRaw := math.Max(1.0-baseConfidence+0.05, 0.1)
	total := bullRaw + baseRaw + bearRaw

	bullProb := math.Round(bullRaw/total*1000) / 1000
	baseProb := math.Round(baseRaw/total*1000) / 1000
	bearProb := math.Max(math.Round((1.0-bullProb-baseProb)*1000)/1000, 0.0)

	return []model.Scenario{
		{
			Name:           "bull",
			Probability:    bullProb,
			Assumption:     "Positive execution and demand signals hold across latest sources.",
			Impact:         "Upside scenario if momentum from " + topSource + " continues.",
			TriggerSignals: []string{"accelerating revenue growth", "margin expansion", "positive narrative shift"},
		},
		{
			Name:           "base",
			Probability:    baseProb,
			Assumption:     "Current trajectory persists without major external shocks.",
			Impact:         "Moderate performance with manageable risk and incremental changes.",
			TriggerSignals: []string{"stable guidance", "mixed but non-deteriorating sentiment", "controlled risk levels"},
		},
		{
			Name:           "bear",
			Probability:    bearProb,
			Assumption:     "Competitive pressure or macro events weaken current momentum.",
			Impact:         "Downside risk rises; defensive posture and tighter monitoring required.",
			TriggerSignals: []string{"negative earnings revisions", "rising risk indicators", "narrative deterioration"},
		},
	}
}
