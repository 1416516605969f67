package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"marketintel/internal/config"
	"marketintel/internal/enrich"
	"marketintel/internal/generation"
	"marketintel/internal/model"
	"marketintel/internal/provider"
	"marketintel/internal/rank"
	"marketintel/internal/repository"
	"marketintel/internal/resolver"
	"marketintel/internal/retrieve"
)

// FinancialSnapshotProvider fetches real-time quote/profile data for a
// ticker. Kept as an interface so internal/orchestrator doesn't need to
// import the concrete provider wiring; bootstrap wires the Yahoo chart
// implementation (snapshot.YahooSearcher), a single source with no
// fallback provider and no FMP gap-fill of the fields it leaves nil.
type FinancialSnapshotProvider interface {
	FetchSnapshot(ctx context.Context, ticker string) (model.FinancialSnapshot, error)
}

// PriorityIngestionQueue enqueues a best-effort background ingestion job
// for a query, mirroring the batch path's "enqueue priority_ingestion(query)
// on the background worker; swallow failures" step. Returns an opaque task
// ID for KnowledgeStatus.BackgroundPriorityTaskID.
type PriorityIngestionQueue interface {
	EnqueuePriority(ctx context.Context, queryText string) (taskID string, err error)
}

// Orchestrator composes entity resolution, provider dispatch, hybrid
// retrieval, ranking, enrichment, and generation into the batch Run and
// streaming RunStream entry points (§4.8).
type Orchestrator struct {
	repo       repository.Repository
	resolver   *resolver.Resolver
	dispatcher *provider.Dispatcher
	retriever  *retrieve.Retriever
	genClient  *generation.Client
	snapshots  FinancialSnapshotProvider
	backfill   enrich.QuarterlyBackfillProvider
	scenarios  enrich.ScenarioGenerator
	queue      PriorityIngestionQueue
	cfg        *config.Settings
	log        zerolog.Logger
}

// New builds an Orchestrator. snapshots, backfill, scenarios, and queue
// may all be nil; each corresponding step then degrades to its templated
// or skipped fallback rather than failing the pipeline.
func New(
	repo repository.Repository,
	res *resolver.Resolver,
	dispatcher *provider.Dispatcher,
	retriever *retrieve.Retriever,
	genClient *generation.Client,
	snapshots FinancialSnapshotProvider,
	backfill enrich.QuarterlyBackfillProvider,
	scenarios enrich.ScenarioGenerator,
	queue PriorityIngestionQueue,
	cfg *config.Settings,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		repo:       repo,
		resolver:   res,
		dispatcher: dispatcher,
		retriever:  retriever,
		genClient:  genClient,
		snapshots:  snapshots,
		backfill:   backfill,
		scenarios:  scenarios,
		queue:      queue,
		cfg:        cfg,
		log:        log,
	}
}

// pipelineDeadline bounds a single query per config.Settings's
// intelligence_pipeline_timeout (default 600s).
func (o *Orchestrator) pipelineDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	seconds := o.cfg.IntelligencePipelineTimeoutSeconds
	if seconds <= 0 {
		seconds = 600
	}
	return context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
}

func keyMetricsFromSnapshot(snap model.FinancialSnapshot) model.KeyMetrics {
	return model.KeyMetrics{
		PERatio:        snap.TrailingPE,
		MarketCap:      snap.MarketCap,
		RevenueGrowth:  snap.RevenueGrowth,
		EarningsGrowth: snap.EarningsGrowth,
		GrossMargin:    snap.GrossMargin,
		OperatingMargin: snap.OperatingMargin,
	}
}

func entityToProvider(qc model.QueryContext) provider.Entity {
	e := provider.Entity{Name: qc.Entity, Ticker: qc.Ticker}
	if qc.EntityRecord != nil {
		e.CIK = qc.EntityRecord.CIK
		e.Sector = qc.EntityRecord.Sector
		e.Industry = qc.EntityRecord.Industry
	}
	return e
}
