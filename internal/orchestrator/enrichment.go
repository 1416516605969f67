package orchestrator

import (
	"context"
	"fmt"

	"marketintel/internal/enrich"
	"marketintel/internal/model"
	"marketintel/internal/provider"
	"marketintel/internal/rank"
)

// enrichmentBundle is every enrichment builder's output for one query,
// assembled once and shared between the batch Run and RunStream paths.
type enrichmentBundle struct {
	snapshot       model.FinancialSnapshot
	financial      enrich.FinancialPerformance
	historical     enrich.HistoricalTrends
	macro          enrich.MacroContext
	social         enrich.SocialSentiment
	coverage       model.EntityCoverage
	filings        enrich.FilingsSummary
	validationWarnings []string
	providerResults []provider.Result
}

// runFullEnrichment dispatches every configured structured-data provider
// (income/balance/cash-flow/key-metrics/filings/macro/social/news),
// fetches the real-time snapshot, and builds every §4.7 enrichment
// section. Mirrors original_source/core/source_discovery.py's
// run_full_enrichment followed by core/pipeline/enrichment.py's builder
// sequence.
func (o *Orchestrator) runFullEnrichment(ctx context.Context, qc model.QueryContext, onProviderComplete func(provider.Result)) enrichmentBundle {
	var bundle enrichmentBundle

	if qc.Ticker != "" && o.dispatcher != nil {
		entity := entityToProvider(qc)
		for _, result := range o.dispatcher.FetchAll(ctx, entity) {
			bundle.providerResults = append(bundle.providerResults, result)
			if onProviderComplete != nil {
				onProviderComplete(result)
			}
		}
	}

	if qc.Ticker != "" && o.snapshots != nil {
		if snap, err := o.snapshots.FetchSnapshot(ctx, qc.Ticker); err == nil {
			bundle.snapshot = snap
		} else {
			o.log.Warn().Err(err).Str("ticker", qc.Ticker).Msg("financial snapshot fetch failed")
		}
	}

	bundle.financial = enrich.BuildFinancialPerformance(bundle.snapshot)
	bundle.validationWarnings = rank.ValidateFinancialSnapshot(keyMetricsFromSnapshot(bundle.snapshot))

	if qc.Ticker != "" {
		bundle.historical = enrich.BuildHistoricalTrends(ctx, o.repo, o.backfill, qc.Ticker, o.log)
		bundle.macro = enrich.BuildMacroContext(ctx, o.repo, o.log)
		bundle.social = enrich.BuildSocialSentiment(ctx, o.repo, qc.Ticker, o.log)
		bundle.filings = enrich.BuildFilingsSummary(ctx, o.repo, qc.Ticker, o.log)
		bundle.coverage = enrich.BuildCoverageAssessment(ctx, o.repo, qc.Ticker, bundle.financial, bundle.snapshot.Price != nil, bundle.social, o.log)
	}

	return bundle
}

// historicalSummary renders a one-line prose summary of a
// HistoricalTrends block for use in LLM prompts and templated
// fallbacks; HistoricalTrends itself carries only the structured
// direction/quarter data.
func historicalSummary(h enrich.HistoricalTrends) string {
	if !h.Available {
		return "No historical quarterly data is available."
	}
	return fmt.Sprintf("%s trend across %d quarters of history.", h.TrendDirection, h.QuartersAvailable)
}

// connectedEntityNames renders GraphConnectedEntities rows as plain
// strings for the report's related_entities list.
func connectedEntityNames(ctx context.Context, o *Orchestrator, entityName string, limit int) []string {
	if entityName == "" {
		return nil
	}
	related, err := o.repo.GraphConnectedEntities(ctx, entityName, limit)
	if err != nil {
		o.log.Debug().Err(err).Msg("graph connected entities failed")
		return nil
	}
	names := make([]string, 0, len(related))
	for _, r := range related {
		names = append(names, fmt.Sprintf("%s (%d shared evidence)", r.RelatedSource, r.SharedEvidenceCount))
	}
	return names
}
