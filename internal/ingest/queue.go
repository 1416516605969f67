package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"marketintel/internal/model"
	"marketintel/internal/repository"
)

// maxPriorityTriggered bounds one priority-ingestion pass to the
// highest-scored sources, mirroring run_priority_ingestion's
// ranked[:min(25, len(ranked))] cap.
const maxPriorityTriggered = 25

// PriorityQueue runs a best-effort background ingestion pass over the
// sources most relevant to recent queries, satisfying
// internal/orchestrator.PriorityIngestionQueue. Grounded on
// original_source/workers/tasks_agent.py's run_priority_ingestion:
// score every known source against the triggering query plus the
// recent search history, then re-ingest the highest-scored ones.
// Runs in-process via goroutines rather than a Celery broker, since
// this module's job-broker dependency (go-redis) has no task-queue
// library paired with it in the example pack.
type PriorityQueue struct {
	repo   repository.Repository
	worker *Worker
	log    zerolog.Logger

	mu      sync.Mutex
	running int32
}

// NewPriorityQueue builds a PriorityQueue over worker, which performs
// the actual per-source ingestion.
func NewPriorityQueue(repo repository.Repository, worker *Worker, log zerolog.Logger) *PriorityQueue {
	return &PriorityQueue{repo: repo, worker: worker, log: log}
}

// EnqueuePriority scores the first 500 registered sources (soft-deleted
// ones skipped) against queryText plus
// the 10 most recent search-history entries, then re-ingests the top
// maxPriorityTriggered sources on a detached goroutine. Returns
// immediately with an opaque task ID; the pipeline never blocks on
// ingestion completion.
func (q *PriorityQueue) EnqueuePriority(ctx context.Context, queryText string) (string, error) {
	sources, err := q.repo.ListSources(ctx, 500, 0)
	if err != nil {
		return "", fmt.Errorf("list sources for priority ingestion: %w", err)
	}

	history, _ := q.repo.GetSearchHistory(ctx, 1, 10)
	hotQueries := make([]string, 0, len(history)+1)
	hotQueries = append(hotQueries, queryText)
	for _, h := range history {
		hotQueries = append(hotQueries, h.Query)
	}

	type scored struct {
		source   model.Source
		priority float64
	}
	ranked := make([]scored, 0, len(sources))
	for _, src := range sources {
		if src.DeletedAt != nil {
			continue
		}
		lastIngest, _ := q.repo.GetLastIngestTime(ctx, src.ID)
		ranked = append(ranked, scored{source: src, priority: sourcePriority(src, hotQueries, lastIngest)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].priority > ranked[j].priority })
	if len(ranked) > maxPriorityTriggered {
		ranked = ranked[:maxPriorityTriggered]
	}

	taskID := uuid.NewString()
	atomic.AddInt32(&q.running, 1)
	go func() {
		defer atomic.AddInt32(&q.running, -1)
		bg := context.Background()
		for _, r := range ranked {
			if _, err := q.worker.Execute(bg, r.source.ID, false); err != nil {
				q.log.Debug().Err(err).Int64("source_id", r.source.ID).Msg("priority ingestion pass failed for source")
			}
		}
	}()

	return taskID, nil
}

// sourcePriority scores a source the way run_priority_ingestion's
// _score_source_priority does: +2 for each hot query that has at least
// one token (longer than two characters) in the source's name or URL,
// plus a staleness bonus of one point per day since the last ingest,
// capped at 3.0, or a flat +2 for sources never ingested at all.
func sourcePriority(src model.Source, hotQueries []string, lastIngest *time.Time) float64 {
	score := 0.0
	name := strings.ToLower(src.Name)
	url := strings.ToLower(src.URL)

	for _, query := range hotQueries {
		for _, token := range strings.Fields(strings.ToLower(query)) {
			if len(token) <= 2 {
				continue
			}
			if strings.Contains(name, token) || strings.Contains(url, token) {
				score += 2.0
				break
			}
		}
	}

	if lastIngest == nil {
		score += 2.0
	} else {
		hours := time.Since(*lastIngest).Hours()
		bonus := hours / 24.0
		if bonus > 3.0 {
			bonus = 3.0
		}
		score += bonus
	}

	return score
}
