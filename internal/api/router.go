package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"marketintel/internal/config"
	"marketintel/internal/orchestrator"
	"marketintel/internal/repository"
)

// NewMux wires every §6.1 HTTP route onto a plain http.ServeMux: the
// public search surface unauthenticated, write endpoints gated behind
// the shared write key, all requests CORS-enabled and logged.
func NewMux(o *orchestrator.Orchestrator, repo repository.Repository, queue orchestrator.PriorityIngestionQueue, cfg *config.Settings, log zerolog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	public := func(h http.HandlerFunc) http.HandlerFunc {
		return withCORS(cfg, logRequest(log, h))
	}
	gated := func(h http.HandlerFunc) http.HandlerFunc {
		return withCORS(cfg, logRequest(log, requireWriteKey(cfg, log, h)))
	}

	mux.HandleFunc("/search/query", public(HandleSearchQuery(o, log)))
	mux.HandleFunc("/search/stream", public(HandleSearchStream(o, log)))
	mux.HandleFunc("/search/autocomplete", public(HandleAutocomplete(repo, log)))
	mux.HandleFunc("/search/history", public(HandleSearchHistory(repo, log)))

	mux.HandleFunc("/sources", gated(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			HandleAddSource(repo, log)(w, r)
		case http.MethodDelete:
			HandleDeleteSource(repo, log)(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.HandleFunc("/reports/generate", gated(HandleGenerateReport(o, log)))
	mux.HandleFunc("/compliance/retention", gated(HandleComplianceRetention(repo, repository.RetentionWindows{
		InsightsDays:  cfg.RetentionInsightsDays,
		SnapshotsDays: cfg.RetentionSnapshotsDays,
		ReportsDays:   cfg.RetentionReportsDays,
		SearchDays:    cfg.RetentionSearchDays,
		AuditDays:     cfg.RetentionAuditDays,
	}, log)))
	mux.HandleFunc("/agents/ingest", gated(HandleAgentsEnqueue(queue, log)))

	mux.HandleFunc("/healthz", public(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))

	return mux
}
