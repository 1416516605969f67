// Command worker runs the scheduled background jobs: a periodic sweep
// that re-ingests every registered source, and a periodic retention
// purge over insights, snapshots, reports, search history, and the
// audit log.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"marketintel/internal/bootstrap"
	"marketintel/internal/config"
	"marketintel/internal/repository"
)

func main() {
	cfg := config.Load()
	log := bootstrap.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build application")
	}
	defer app.Close()

	windows := repository.RetentionWindows{
		InsightsDays:  cfg.RetentionInsightsDays,
		SnapshotsDays: cfg.RetentionSnapshotsDays,
		ReportsDays:   cfg.RetentionReportsDays,
		SearchDays:    cfg.RetentionSearchDays,
		AuditDays:     cfg.RetentionAuditDays,
	}

	c := cron.New()

	if _, err := c.AddFunc("@every 1h", func() { sweepSources(context.Background(), app, log) }); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule ingestion sweep")
	}
	if _, err := c.AddFunc("@daily", func() { purgeRetention(context.Background(), app, windows, log) }); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule retention purge")
	}

	c.Start()
	log.Info().Msg("worker started: hourly ingestion sweep, daily retention purge")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	<-c.Stop().Done()
}

// sweepSources re-ingests every registered source, skipping ones whose
// last snapshot is still within the worker's minimum interval — the
// same check Worker.Execute already performs per source.
func sweepSources(ctx context.Context, app *bootstrap.App, log zerolog.Logger) {
	const pageSize = 200
	offset := 0
	total, failed := 0, 0
	for {
		sources, err := app.Repo.ListSources(ctx, pageSize, offset)
		if err != nil {
			log.Error().Err(err).Msg("ingestion sweep: failed to list sources")
			return
		}
		if len(sources) == 0 {
			break
		}
		for _, src := range sources {
			if src.DeletedAt != nil {
				continue
			}
			total++
			if _, err := app.Worker.Execute(ctx, src.ID, false); err != nil {
				failed++
				log.Debug().Err(err).Int64("source_id", src.ID).Msg("ingestion sweep: source failed")
			}
		}
		if len(sources) < pageSize {
			break
		}
		offset += pageSize
	}
	log.Info().Int("sources", total).Int("failed", failed).Msg("ingestion sweep complete")
}

func purgeRetention(ctx context.Context, app *bootstrap.App, windows repository.RetentionWindows, log zerolog.Logger) {
	start := time.Now()
	result, err := app.Repo.RunRetentionPurge(ctx, windows)
	if err != nil {
		log.Error().Err(err).Msg("retention purge failed")
		return
	}
	log.Info().
		Dur("elapsed", time.Since(start)).
		Interface("result", result).
		Msg("retention purge complete")
}
