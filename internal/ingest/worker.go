package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"marketintel/internal/apperr"
	"marketintel/internal/embedding"
	"marketintel/internal/model"
	"marketintel/internal/repository"
)

// Result is the outcome of one ingestion cycle, mirroring the summary
// dict original_source/workers/tasks_ingest.py's execute_ingest returns.
type Result struct {
	SourceID     int64
	Skipped      bool
	Reason       string
	Changed      bool
	ContentHash  string
	CriticStatus model.CriticStatus
	Confidence   float64
	Chunks       int
}

// Worker runs one source through fetch, policy, normalize, chunk,
// redact, analyze, and persist. Grounded on
// original_source/workers/tasks_ingest.py's execute_ingest.
type Worker struct {
	repo        repository.Repository
	policy      *PolicyEngine
	connectors  *ConnectorRegistry
	embed       *embedding.Client
	minInterval time.Duration
	maxRetries  int
	log         zerolog.Logger
}

func NewWorker(repo repository.Repository, policy *PolicyEngine, connectors *ConnectorRegistry, embed *embedding.Client, minInterval time.Duration, log zerolog.Logger) *Worker {
	return &Worker{
		repo:        repo,
		policy:      policy,
		connectors:  connectors,
		embed:       embed,
		minInterval: minInterval,
		maxRetries:  3,
		log:         log,
	}
}

// Execute runs one ingestion cycle for sourceID. forceRefresh bypasses
// the min-interval throttle.
func (w *Worker) Execute(ctx context.Context, sourceID int64, forceRefresh bool) (Result, error) {
	source, err := w.repo.GetSource(ctx, sourceID)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.TransportFailure, "load source failed", err)
	}
	if source == nil {
		_ = w.repo.LogFailedIngestion(ctx, sourceID, "SourceNotFound", "source not found", false)
		return Result{}, apperr.New(apperr.NotFound, "source not found")
	}

	if !forceRefresh {
		if skip, reason := w.checkThrottle(ctx, sourceID); skip {
			_ = w.repo.LogIngestRun(ctx, sourceID, "skipped", reason)
			return Result{SourceID: sourceID, Skipped: true, Reason: reason}, nil
		}
	}

	decision := w.policy.Validate(ctx, source.URL)
	if !decision.Allowed {
		_ = w.repo.LogIngestRun(ctx, sourceID, "blocked", decision.Reason)
		return Result{SourceID: sourceID, Skipped: true, Reason: decision.Reason}, nil
	}

	content, err := w.fetchWithRetry(ctx, source)
	if err != nil {
		retryable := apperr.Retryable(err)
		_ = w.repo.LogFailedIngestion(ctx, sourceID, "FetchFailed", err.Error(), retryable)
		return Result{}, err
	}

	normalized := normalizeContent(content, source.URL)
	chunks := chunkText(normalized, 500, 100)
	previousHash, _ := w.repo.GetLatestSnapshotHash(ctx, sourceID)
	evaluation := evaluateChange(normalized, previousHash)

	redactedExcerpt := redactPII(evaluation.Excerpt)
	redactedChunks := make([]string, len(chunks))
	for i, c := range chunks {
		redactedChunks[i] = redactPII(c)
	}

	a := buildAnalysis(source.Name, source.URL, evaluation.HasChanged, redactedExcerpt)
	crit := reviewAnalysis(a)

	if _, err := w.repo.InsertSnapshot(ctx, model.SourceSnapshot{
		SourceID:    sourceID,
		ContentHash: evaluation.ContentHash,
		Excerpt:     redactedExcerpt,
	}); err != nil {
		w.log.Warn().Err(err).Int64("source_id", sourceID).Msg("snapshot insert failed")
	}

	memoryStatus := "n/a"
	if evaluation.HasChanged {
		if _, err := w.repo.InsertInsight(ctx, model.Insight{
			SourceID:       sourceID,
			SourceName:     source.Name,
			SourceURL:      source.URL,
			Text:           a.Insight,
			Recommendation: a.Recommendation,
			ThreatLevel:    a.ThreatLevel,
			EvidenceRef:    a.EvidenceRef,
			ContentHash:    evaluation.ContentHash,
			Confidence:     a.Confidence,
			CriticStatus:   crit.Status,
		}); err != nil {
			w.log.Warn().Err(err).Int64("source_id", sourceID).Msg("insight insert failed")
		}

		memoryStatus = "ok"
		if err := w.writeMemory(ctx, source, evaluation, a, redactedChunks); err != nil {
			memoryStatus = "degraded"
			_ = w.repo.LogFailedIngestion(ctx, sourceID, "MemoryWriteFailed", err.Error(), true)
		}
	}

	_ = w.repo.LogIngestRun(ctx, sourceID, "succeeded",
		"changed="+boolStr(evaluation.HasChanged)+";critic_status="+string(crit.Status)+";memory="+memoryStatus)

	return Result{
		SourceID:     sourceID,
		Changed:      evaluation.HasChanged,
		ContentHash:  evaluation.ContentHash,
		CriticStatus: crit.Status,
		Confidence:   a.Confidence,
		Chunks:       len(redactedChunks),
	}, nil
}

func (w *Worker) checkThrottle(ctx context.Context, sourceID int64) (bool, string) {
	last, err := w.repo.GetLastIngestTime(ctx, sourceID)
	if err != nil || last == nil {
		return false, ""
	}
	if time.Since(*last) < w.minInterval {
		return true, "min_interval_not_elapsed"
	}
	return false, ""
}

// fetchWithRetry retries a failed connector fetch up to maxRetries times
// (maxRetries+1 attempts in all) with capped exponential backoff (1s, 2s,
// 4s, ...), grounded on original_source/workers/tasks_ingest.py's celery
// retry(countdown=2**n). Every fetch error is retried; the last one is
// returned wrapped as a TransportFailure.
func (w *Worker) fetchWithRetry(ctx context.Context, source *model.Source) (string, error) {
	connector, err := w.connectors.Get(source.ConnectorType)
	if err != nil {
		return "", apperr.Wrap(apperr.ParseFailure, "unsupported connector", err)
	}

	var lastErr error
	backoff := time.Second
	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		content, err := connector.Fetch(ctx, source.URL)
		if err == nil {
			return content, nil
		}
		lastErr = err
		w.log.Warn().Err(err).Str("url", source.URL).Int("attempt", attempt).Msg("ingest fetch failed")

		if attempt == w.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", apperr.Wrap(apperr.Cancelled, "ingest cancelled", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
	return "", apperr.Wrap(apperr.TransportFailure, "fetch failed after retries", lastErr)
}

// writeMemory embeds the redacted chunks and persists them plus the
// graph evidence relation, grounded on original_source/core/memory.py's
// upsert_document_memory and upsert_graph_relationship.
func (w *Worker) writeMemory(ctx context.Context, source *model.Source, evaluation changeEvaluation, a analysis, chunks []string) error {
	selected := chunks
	if len(selected) == 0 {
		selected = []string{evaluation.ContentHash}
	}
	if len(selected) > 10 {
		selected = selected[:10]
	}

	vectors := w.embed.EmbedBatch(ctx, selected)

	var firstErr error
	for i, chunk := range selected {
		err := w.repo.UpsertMemoryChunk(ctx, model.MemoryChunk{
			SourceID:    source.ID,
			SourceName:  source.Name,
			SourceURL:   source.URL,
			ContentHash: evaluation.ContentHash,
			ChunkIndex:  i,
			ChunkText:   chunk,
			EvidenceRef: a.EvidenceRef,
			Embedding:   vectors[i],
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := w.repo.UpsertEvidenceRelation(ctx, model.SourceEvidenceRelation{
		SourceID:    source.ID,
		SourceName:  source.Name,
		SourceURL:   source.URL,
		EvidenceRef: a.EvidenceRef,
		ThreatLevel: a.ThreatLevel,
	}); err != nil && firstErr == nil {
		firstErr = err
	}

	if firstErr != nil {
		return errors.New("memory write failed: " + firstErr.Error())
	}
	return nil
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
