package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"marketintel/internal/enrich"
	"marketintel/internal/generation"
	"marketintel/internal/model"
	"marketintel/internal/observability"
	"marketintel/internal/rank"
)

// sevenPrompts holds the output of the seven concurrent LLM calls step
// 6 of the batch pipeline runs, before Report assembly.
type sevenPrompts struct {
	executiveSummary      string
	narrative             string
	trendAnalysis         string
	whyItMatters          string
	competitiveLandscape  string
	scenarios             []model.Scenario
	recommendation        recommendationResponse
}

// runSevenPrompts fans out the independent narration calls concurrently,
// then runs the recommendation prompt once the executive summary it
// depends on is available. Mirrors "Run all seven independent LLM
// prompts concurrently ... recommendation after summary", bounded by
// the generation client's own semaphore and cloud inter-call gap.
func (o *Orchestrator) runSevenPrompts(ctx context.Context, qc model.QueryContext, evidence []model.EvidenceItem, bundle enrichmentBundle) sevenPrompts {
	var out sevenPrompts
	if o.genClient == nil {
		out.executiveSummary = templatedExecutiveSummary(qc, evidence)
		out.narrative = bundle.financial.Summary
		out.trendAnalysis = historicalSummary(bundle.historical)
		out.whyItMatters = out.executiveSummary
		out.competitiveLandscape = bundle.macro.Summary
		out.recommendation = recommendationResponse{Recommendation: "watch", RiskLevel: "medium"}
		out.scenarios = enrich.BuildScenarios(ctx, o.scenarios, 0.5, evidence, bundle.financial, bundle.historical, bundle.macro, qc.RawQuery, o.log)
		return out
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resp, err := o.genClient.Generate(gctx, executiveSummarySystemPrompt, buildExecutiveSummaryPrompt(qc, evidence), generation.Options{})
		if err != nil {
			out.executiveSummary = templatedExecutiveSummary(qc, evidence)
			return nil
		}
		out.executiveSummary = resp
		return nil
	})
	g.Go(func() error {
		resp, err := o.genClient.Generate(gctx, narrativeSystemPrompt, buildNarrativePrompt(qc, evidence, bundle.financial, bundle.macro), generation.Options{})
		if err != nil {
			out.narrative = bundle.financial.Summary
			return nil
		}
		out.narrative = resp
		return nil
	})
	g.Go(func() error {
		resp, err := o.genClient.Generate(gctx, trendAnalysisSystemPrompt, buildTrendAnalysisPrompt(qc, bundle.historical, bundle.financial), generation.Options{})
		if err != nil {
			out.trendAnalysis = historicalSummary(bundle.historical)
			return nil
		}
		out.trendAnalysis = resp
		return nil
	})
	g.Go(func() error {
		resp, err := o.genClient.Generate(gctx, competitiveLandscapeSystemPrompt, buildCompetitiveLandscapePrompt(qc, bundle.macro, bundle.social), generation.Options{})
		if err != nil {
			out.competitiveLandscape = bundle.macro.Summary
			return nil
		}
		out.competitiveLandscape = resp
		return nil
	})
	g.Go(func() error {
		confidence := 0.5
		out.scenarios = enrich.BuildScenarios(gctx, o.scenarios, confidence, evidence, bundle.financial, bundle.historical, bundle.macro, qc.RawQuery, o.log)
		return nil
	})

	_ = g.Wait()

	if out.executiveSummary == "" {
		out.executiveSummary = templatedExecutiveSummary(qc, evidence)
	}

	// whyItMatters and recommendation both depend on the executive
	// summary, so they run after the independent group completes.
	g2, gctx2 := errgroup.WithContext(ctx)
	g2.Go(func() error {
		resp, err := o.genClient.Generate(gctx2, whyItMattersSystemPrompt, buildWhyItMattersPrompt(qc, out.executiveSummary), generation.Options{})
		if err != nil {
			out.whyItMatters = out.executiveSummary
			return nil
		}
		out.whyItMatters = resp
		return nil
	})
	g2.Go(func() error {
		resp, err := o.genClient.Generate(gctx2, recommendationSystemPrompt, buildRecommendationPrompt(out.executiveSummary, evidence), generation.Options{JSONMode: true})
		if err != nil {
			out.recommendation = recommendationResponse{Recommendation: "watch", RiskLevel: "medium"}
			return nil
		}
		out.recommendation = parseRecommendation(resp)
		return nil
	})
	_ = g2.Wait()

	return out
}

func templatedExecutiveSummary(qc model.QueryContext, evidence []model.EvidenceItem) string {
	if len(evidence) == 0 {
		return "No evidence is currently available for " + qc.Entity + "."
	}
	return "Evidence for " + qc.Entity + " reflects " + string(evidence[0].ThreatLevel) + " risk signals from " + evidence[0].SourceName + "."
}

// Run is the batch pipeline entry point (§4.8.1): parse, best-effort
// enqueue, conditional full enrichment, hybrid retrieve, rank, seven
// concurrent prompts, assemble, persist.
func (o *Orchestrator) Run(ctx context.Context, queryText string, limit int) (*model.Report, error) {
	ctx, span := observability.Tracer().Start(ctx, "orchestrator.Run")
	defer span.End()

	ctx, cancel := o.pipelineDeadline(ctx)
	defer cancel()

	qc := parseQuery(ctx, o.resolver, queryText)

	var backgroundTaskID string
	if o.queue != nil {
		if taskID, err := o.queue.EnqueuePriority(ctx, queryText); err == nil {
			backgroundTaskID = taskID
		} else {
			o.log.Debug().Err(err).Msg("priority ingestion enqueue failed")
		}
	}

	existing, _ := o.repo.SearchInsightsByText(ctx, queryText, 50)
	enrichmentTriggered := rank.NeedsRefresh(existing, o.cfg.RefreshMinEvidence, o.cfg.RefreshStaleAfterHours)

	var bundle enrichmentBundle
	if enrichmentTriggered {
		bundle = o.runFullEnrichment(ctx, qc, nil)
	} else if qc.Ticker != "" {
		bundle.financial = enrich.BuildFinancialPerformance(model.FinancialSnapshot{})
		bundle.historical = enrich.BuildHistoricalTrends(ctx, o.repo, o.backfill, qc.Ticker, o.log)
		bundle.macro = enrich.BuildMacroContext(ctx, o.repo, o.log)
		bundle.social = enrich.BuildSocialSentiment(ctx, o.repo, qc.Ticker, o.log)
		bundle.filings = enrich.BuildFilingsSummary(ctx, o.repo, qc.Ticker, o.log)
		bundle.coverage = enrich.BuildCoverageAssessment(ctx, o.repo, qc.Ticker, bundle.financial, false, bundle.social, o.log)
	}

	result := o.retriever.Retrieve(ctx, queryText, qc.Entity, limit)
	ranked := rank.Score(result.Evidence, qc)
	contradictions := rank.DetectContradictions(ranked)
	signalShifts := append(append([]string{}, bundle.validationWarnings...), rank.BuildSignalShifts(ranked)...)

	prompts := o.runSevenPrompts(ctx, qc, ranked, bundle)

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
			ExecutiveSummary: prompts.executiveSummary,
			DecisionCard: model.DecisionCard{
				Recommendation: prompts.recommendation.Recommendation,
				Confidence:     confidenceFromEvidence(ranked),
				RiskLevel:      prompts.recommendation.RiskLevel,
			},
			FinancialPerformance: bundle.financial,
			HistoricalTrends:     bundle.historical,
			TrendAnalysis:        prompts.trendAnalysis,
			MacroContext:         bundle.macro,
			SocialSentiment:      bundle.social,
			Filings:              bundle.filings,
			Coverage:             bundle.coverage,
			RelatedEntities:      connectedEntityNames(ctx, o, qc.Entity, 10),
			MarketNarrative:      prompts.narrative,
			WhyItMatters:         prompts.whyItMatters,
			CompetitiveLandscape: prompts.competitiveLandscape,
			KeySignalShifts:      signalShifts,
			Scenarios:            prompts.scenarios,
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

	o.persistSearch(ctx, report)

	return report, nil
}

func confidenceFromEvidence(items []model.EvidenceItem) float64 {
	if len(items) == 0 {
		return 0.3
	}
	total := 0.0
	for _, item := range items {
		total += item.Confidence
	}
	return total / float64(len(items))
}

func (o *Orchestrator) persistSearch(ctx context.Context, report *model.Report) {
	q := model.SearchQuery{
		Query:          report.QueryContext.RawQuery,
		Answer:         report.Report.ExecutiveSummary,
		Confidence:     report.Report.DecisionCard.Confidence,
		RiskLevel:      report.Report.DecisionCard.RiskLevel,
		Recommendation: report.Report.DecisionCard.Recommendation,
	}
	evidenceRows := make([]model.SearchEvidence, 0, len(report.Evidence))
	for _, item := range report.Evidence {
		evidenceRows = append(evidenceRows, model.SearchEvidence{
			SourceName:  item.SourceName,
			EvidenceRef: item.EvidenceRef,
			RankScore:   item.RankScore,
		})
	}
	if searchID, err := o.repo.SaveSearchResult(ctx, q, evidenceRows); err == nil {
		report.KnowledgeStatus.Enrichment = "persisted"
		_ = searchID
	} else {
		o.log.Warn().Err(err).Msg("persisting search history failed")
	}
}
