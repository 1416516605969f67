package orchestrator

import (
	"fmt"
	"strings"

	"marketintel/internal/enrich"
	"marketintel/internal/generation"
	"marketintel/internal/model"
)

const (
	executiveSummarySystemPrompt = "You are a market intelligence analyst. Write a concise, neutral executive summary " +
		"of the evidence provided. Three to five sentences. No speculation beyond what the evidence supports."

	narrativeSystemPrompt = "You are a market intelligence analyst. Write a flowing market narrative connecting the " +
		"evidence into a coherent story of what is happening and why it matters. Two to four short paragraphs."

	trendAnalysisSystemPrompt = "You are a financial analyst. Given historical quarterly trends and the current " +
		"snapshot, describe the trajectory in two or three sentences: improving, deteriorating, or mixed, and why."

	recommendationSystemPrompt = "You are a market intelligence analyst. Given the executive summary and evidence, " +
		"output a single word recommendation (buy, hold, sell, watch, or avoid), a risk level (low, medium, high), " +
		"and a one-sentence justification, as JSON: {\"recommendation\":\"\",\"risk_level\":\"\",\"justification\":\"\"}."

	whyItMattersSystemPrompt = "You are a market intelligence analyst. In one or two sentences, explain why this " +
		"entity matters right now to an investor or analyst reading this report."

	competitiveLandscapeSystemPrompt = "You are a market intelligence analyst. In two to three sentences, summarize " +
		"the competitive and macro backdrop the evidence implies, without inventing named competitors not present " +
		"in the evidence."
)

func formatEvidenceForPrompt(items []model.EvidenceItem, max int) string {
	if len(items) > max {
		items = items[:max]
	}
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. [%s] %s (threat=%s, confidence=%.2f)\n", i+1, item.SourceName, item.Insight, item.ThreatLevel, item.Confidence)
	}
	return b.String()
}

func buildExecutiveSummaryPrompt(qc model.QueryContext, evidence []model.EvidenceItem) string {
	return fmt.Sprintf("Query: %s\nEntity: %s (%s)\nEvidence:\n%s", qc.RawQuery, qc.Entity, qc.Ticker, formatEvidenceForPrompt(evidence, 15))
}

func buildNarrativePrompt(qc model.QueryContext, evidence []model.EvidenceItem, financial enrich.FinancialPerformance, macro enrich.MacroContext) string {
	return fmt.Sprintf("Entity: %s\nFinancial summary: %s\nMacro summary: %s\nEvidence:\n%s",
		qc.Entity, financial.Summary, macro.Summary, formatEvidenceForPrompt(evidence, 15))
}

func buildTrendAnalysisPrompt(qc model.QueryContext, historical enrich.HistoricalTrends, financial enrich.FinancialPerformance) string {
	return fmt.Sprintf("Entity: %s\nCurrent snapshot: %s\nHistorical trend summary: %s",
		qc.Entity, financial.Summary, historicalSummary(historical))
}

func buildRecommendationPrompt(executiveSummary string, evidence []model.EvidenceItem) string {
	return fmt.Sprintf("Executive summary: %s\nTop evidence:\n%s", executiveSummary, formatEvidenceForPrompt(evidence, 10))
}

func buildWhyItMattersPrompt(qc model.QueryContext, executiveSummary string) string {
	return fmt.Sprintf("Entity: %s\nExecutive summary: %s", qc.Entity, executiveSummary)
}

func buildCompetitiveLandscapePrompt(qc model.QueryContext, macro enrich.MacroContext, social enrich.SocialSentiment) string {
	return fmt.Sprintf("Entity: %s\nMacro summary: %s\nSocial sentiment summary: %s", qc.Entity, macro.Summary, social.Summary)
}

type recommendationResponse struct {
	Recommendation string `json:"recommendation"`
	RiskLevel      string `json:"risk_level"`
	Justification  string `json:"justification"`
}

func parseRecommendation(raw string) recommendationResponse {
	var parsed recommendationResponse
	if err := generation.ParseJSON(raw, &parsed); err != nil {
		return recommendationResponse{Recommendation: "watch", RiskLevel: "medium", Justification: strings.TrimSpace(raw)}
	}
	if parsed.Recommendation == "" {
		parsed.Recommendation = "watch"
	}
	if parsed.RiskLevel == "" {
		parsed.RiskLevel = "medium"
	}
	return parsed
}
