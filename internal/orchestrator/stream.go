package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"marketintel/internal/enrich"
	"marketintel/internal/generation"
	"marketintel/internal/model"
	"marketintel/internal/observability"
	"marketintel/internal/provider"
	"marketintel/internal/rank"
)

// Event is one entry of a RunStream sequence: a named stage, its
// cumulative progress anchor, optional payload, and optional message.
// Starred stages (provider_complete, decision_token, narrative_token,
// competitive_token) may repeat; error may occur at any point with
// progress=1.0 and terminates the stream.
type Event struct {
	Stage    string
	Progress float64
	Data     any
	Message  string
}

func emit(ch chan<- Event, ctx context.Context, stage string, progress float64, data any, message string) bool {
	select {
	case ch <- Event{Stage: stage, Progress: progress, Data: data, Message: message}:
		return true
	case <-ctx.Done():
		return false
	}
}

// RunStream is the streaming pipeline entry point (§4.8.2): an ordered,
// lazy sequence of stage events. The returned channel is closed once a
// terminal complete or error event is sent, or once ctx is cancelled —
// a disconnected or timed-out caller releases every in-flight LLM/HTTP/
// DB handle with no partial row committed, since persistence happens
// only after the price_history anchor, just before complete.
func (o *Orchestrator) RunStream(ctx context.Context, queryText string, limit int) <-chan Event {
	out := make(chan Event)

	go func() {
		defer close(out)

		parent := ctx
		ctx, span := observability.Tracer().Start(ctx, "orchestrator.RunStream")
		defer span.End()

		ctx, cancel := o.pipelineDeadline(ctx)
		defer cancel()

		completed := false
		defer func() {
			if completed || ctx.Err() == nil {
				return
			}
			select {
			case out <- Event{Stage: "error", Progress: 1.0, Message: "query pipeline stopped: " + ctx.Err().Error()}:
			case <-parent.Done():
			}
		}()

		qc := parseQuery(ctx, o.resolver, queryText)
		if !emit(out, ctx, "query_parsed", 0.05, qc, "") {
			return
		}

		var backgroundTaskID string
		if o.queue != nil {
			if taskID, err := o.queue.EnqueuePriority(ctx, queryText); err == nil {
				backgroundTaskID = taskID
			}
		}

		existing, _ := o.repo.SearchInsightsByText(ctx, queryText, 50)
		enrichmentTriggered := rank.NeedsRefresh(existing, o.cfg.RefreshMinEvidence, o.cfg.RefreshStaleAfterHours)

		var bundle enrichmentBundle
		if enrichmentTriggered {
			if !emit(out, ctx, "enrichment_started", 0.08, nil, "") {
				return
			}
			bundle = o.runFullEnrichment(ctx, qc, func(r provider.Result) {
				emit(out, ctx, "provider_complete", 0.12, r, "")
			})
			if !emit(out, ctx, "enrichment_complete", 0.20, nil, "") {
				return
			}
		} else if qc.Ticker != "" {
			bundle.historical = enrich.BuildHistoricalTrends(ctx, o.repo, o.backfill, qc.Ticker, o.log)
			bundle.macro = enrich.BuildMacroContext(ctx, o.repo, o.log)
			bundle.social = enrich.BuildSocialSentiment(ctx, o.repo, qc.Ticker, o.log)
			bundle.filings = enrich.BuildFilingsSummary(ctx, o.repo, qc.Ticker, o.log)
		}
		bundle.financial = enrich.BuildFinancialPerformance(bundle.snapshot)

		if !emit(out, ctx, "retrieval_started", 0.22, nil, "") {
			return
		}
		result := o.retriever.Retrieve(ctx, queryText, qc.Entity, limit)
		if !emit(out, ctx, "retrieval_complete", 0.30, result, "") {
			return
		}

		ranked := rank.Score(result.Evidence, qc)
		contradictions := rank.DetectContradictions(ranked)
		signalShifts := append(append([]string{}, bundle.validationWarnings...), rank.BuildSignalShifts(ranked)...)
		if !emit(out, ctx, "ranking_complete", 0.35, ranked, "") {
			return
		}

		if !emit(out, ctx, "financial_snapshot", 0.42, bundle.financial, "") {
			return
		}
		if !emit(out, ctx, "historical_trends", 0.50, bundle.historical, "") {
			return
		}
		if !emit(out, ctx, "macro_context", 0.56, bundle.macro, "") {
			return
		}
		if !emit(out, ctx, "social_sentiment", 0.62, bundle.social, "") {
			return
		}
		if !emit(out, ctx, "coverage", 0.65, bundle.coverage, "") {
			return
		}
		if !emit(out, ctx, "filings", 0.70, bundle.filings, "") {
			return
		}

		if !emit(out, ctx, "analyzing", 0.72, nil, "") {
			return
		}

		executiveSummary := o.streamExecutiveSummary(ctx, out, qc, ranked)

		recommendation := o.decisionStream(ctx, out, executiveSummary, ranked)
		if !emit(out, ctx, "decision_ready", 0.78, recommendation, "") {
			return
		}

		if !emit(out, ctx, "narrative_started", 0.80, nil, "") {
			return
		}
		narrative := o.streamNarrative(ctx, out, qc, ranked, bundle)
		if !emit(out, ctx, "narrative_ready", 0.85, narrative, "") {
			return
		}

		scenarios := enrich.BuildScenarios(ctx, o.scenarios, confidenceFromEvidence(ranked), ranked, bundle.financial, bundle.historical, bundle.macro, qc.RawQuery, o.log)
		if !emit(out, ctx, "scenarios_ready", 0.90, scenarios, "") {
			return
		}

		if !emit(out, ctx, "competitive_started", 0.91, nil, "") {
			return
		}
		competitive := o.streamCompetitiveLandscape(ctx, out, qc, bundle)
		if !emit(out, ctx, "competitive_landscape", 0.93, competitive, "") {
			return
		}

		whyItMatters := executiveSummary
		if o.genClient != nil {
			if resp, err := o.genClient.Generate(ctx, whyItMattersSystemPrompt, buildWhyItMattersPrompt(qc, executiveSummary), generation.Options{}); err == nil {
				whyItMatters = resp
			}
		}

		citations := make([]string, 0, len(ranked))
		for i, item := range ranked {
			if i >= 10 {
				break
			}
			if item.SourceURL != "" {
				citations = append(citations, item.SourceURL)
			}
		}

		report := &model.Report{
			SearchID:     uuid.NewString(),
			GeneratedAt:  time.Now().UTC(),
			QueryContext: qc,
			Report: model.ReportBody{
				ExecutiveSummary: executiveSummary,
				DecisionCard: model.DecisionCard{
					Recommendation: recommendation.Recommendation,
					Confidence:     confidenceFromEvidence(ranked),
					RiskLevel:      recommendation.RiskLevel,
				},
				FinancialPerformance: bundle.financial,
				HistoricalTrends:     bundle.historical,
				TrendAnalysis:        historicalSummary(bundle.historical),
				MacroContext:         bundle.macro,
				SocialSentiment:      bundle.social,
				Filings:              bundle.filings,
				Coverage:             bundle.coverage,
				RelatedEntities:      connectedEntityNames(ctx, o, qc.Entity, 10),
				MarketNarrative:      narrative,
				WhyItMatters:         whyItMatters,
				CompetitiveLandscape: competitive,
				KeySignalShifts:      signalShifts,
				Scenarios:            scenarios,
				Contradictions:       contradictions,
				Citations:            citations,
			},
			KnowledgeStatus: model.KnowledgeStatus{
				EvidenceCount:            len(ranked),
				SemanticMatches:          len(result.SemanticChunks),
				GraphRelatedSources:      len(result.GraphRelated),
				EnrichmentTriggered:      enrichmentTriggered,
				BackgroundPriorityTaskID: backgroundTaskID,
			},
			Evidence: ranked,
		}

		if !emit(out, ctx, "price_history", 0.95, nil, "") {
			return
		}

		o.persistSearch(ctx, report)
		completed = emit(out, ctx, "complete", 1.00, report, "")
	}()

	return out
}

func (o *Orchestrator) streamExecutiveSummary(ctx context.Context, out chan<- Event, qc model.QueryContext, evidence []model.EvidenceItem) string {
	if o.genClient == nil {
		return templatedExecutiveSummary(qc, evidence)
	}
	var text string
	err := o.genClient.GenerateStream(ctx, executiveSummarySystemPrompt, buildExecutiveSummaryPrompt(qc, evidence), generation.Options{}, func(tok string) {
		text += tok
		emit(out, ctx, "decision_token", 0.74, tok, "")
	})
	if err != nil || text == "" {
		return templatedExecutiveSummary(qc, evidence)
	}
	return text
}

func (o *Orchestrator) streamNarrative(ctx context.Context, out chan<- Event, qc model.QueryContext, evidence []model.EvidenceItem, bundle enrichmentBundle) string {
	if o.genClient == nil {
		return bundle.financial.Summary
	}
	var text string
	err := o.genClient.GenerateStream(ctx, narrativeSystemPrompt, buildNarrativePrompt(qc, evidence, bundle.financial, bundle.macro), generation.Options{}, func(tok string) {
		text += tok
		emit(out, ctx, "narrative_token", 0.82, tok, "")
	})
	if err != nil || text == "" {
		return bundle.financial.Summary
	}
	return text
}

func (o *Orchestrator) streamCompetitiveLandscape(ctx context.Context, out chan<- Event, qc model.QueryContext, bundle enrichmentBundle) string {
	if o.genClient == nil {
		return bundle.macro.Summary
	}
	var text string
	err := o.genClient.GenerateStream(ctx, competitiveLandscapeSystemPrompt, buildCompetitiveLandscapePrompt(qc, bundle.macro, bundle.social), generation.Options{}, func(tok string) {
		text += tok
		emit(out, ctx, "competitive_token", 0.92, tok, "")
	})
	if err != nil || text == "" {
		return bundle.macro.Summary
	}
	return text
}

// decisionStream resolves the recommendation with a single batch call —
// short JSON output, not worth streaming — mirroring run.go's own
// batch-mode pairing.
func (o *Orchestrator) decisionStream(ctx context.Context, out chan<- Event, executiveSummary string, evidence []model.EvidenceItem) recommendationResponse {
	if o.genClient == nil {
		return recommendationResponse{Recommendation: "watch", RiskLevel: "medium"}
	}
	resp, err := o.genClient.Generate(ctx, recommendationSystemPrompt, buildRecommendationPrompt(executiveSummary, evidence), generation.Options{JSONMode: true})
	if err != nil || strings.TrimSpace(resp) == "" {
		return recommendationResponse{Recommendation: "watch", RiskLevel: "medium"}
	}
	return parseRecommendation(resp)
}
