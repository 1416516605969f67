package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"marketintel/internal/model"
	"marketintel/internal/orchestrator"
	"marketintel/internal/repository"
)

type addSourceRequest struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	ConnectorType string `json:"connector_type"`
}

// HandleAddSource backs POST /sources, registering a new ingestion
// connector target. Write-key gated.
func HandleAddSource(repo repository.Repository, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req addSourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" || req.URL == "" {
			http.Error(w, "name and url are required", http.StatusBadRequest)
			return
		}
		connectorType := model.ConnectorType(req.ConnectorType)
		if connectorType == "" {
			connectorType = model.ConnectorWeb
		}

		source, err := repo.AddSource(r.Context(), req.Name, req.URL, connectorType)
		if err != nil {
			log.Error().Err(err).Str("url", req.URL).Msg("add source failed")
			http.Error(w, "add source failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(source)
	}
}

// HandleDeleteSource backs DELETE /sources?id=N, soft-deleting a source
// and its dependent rows. Write-key gated.
func HandleDeleteSource(repo repository.Repository, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "id query parameter is required", http.StatusBadRequest)
			return
		}
		if err := repo.DeleteSourceRecords(r.Context(), id); err != nil {
			log.Error().Err(err).Int64("source_id", id).Msg("delete source failed")
			http.Error(w, "delete source failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type generateReportRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// HandleGenerateReport backs POST /reports/generate, an internal-tooling
// equivalent of /search/query that runs the same batch pipeline (full
// enrichment only when the stored evidence needs a refresh) but is
// write-key gated rather than public. Used by scheduled report jobs
// that can't go through the public rate-limited surface.
func HandleGenerateReport(o *orchestrator.Orchestrator, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req generateReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Query == "" {
			http.Error(w, "query is required", http.StatusBadRequest)
			return
		}
		report, err := o.Run(r.Context(), req.Query, clampLimit(req.Limit))
		if err != nil {
			log.Error().Err(err).Str("query", req.Query).Msg("report generation failed")
			http.Error(w, "report generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}
}

// HandleComplianceRetention backs POST /compliance/retention, running the
// configured retention purge on demand rather than waiting for the
// worker's scheduled sweep.
func HandleComplianceRetention(repo repository.Repository, windows repository.RetentionWindows, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		result, err := repo.RunRetentionPurge(r.Context(), windows)
		if err != nil {
			log.Error().Err(err).Msg("on-demand retention purge failed")
			http.Error(w, "retention purge failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

type enqueueIngestionRequest struct {
	Query string `json:"query"`
}

// HandleAgentsEnqueue backs POST /agents/ingest, letting an operator
// manually trigger a priority background-ingestion pass for an entity
// outside the normal query-triggered path.
func HandleAgentsEnqueue(queue orchestrator.PriorityIngestionQueue, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if queue == nil {
			http.Error(w, "background ingestion is not configured", http.StatusServiceUnavailable)
			return
		}
		var req enqueueIngestionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Query == "" {
			http.Error(w, "query is required", http.StatusBadRequest)
			return
		}
		taskID, err := queue.EnqueuePriority(r.Context(), req.Query)
		if err != nil {
			log.Error().Err(err).Str("query", req.Query).Msg("priority enqueue failed")
			http.Error(w, "enqueue failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"task_id": taskID})
	}
}
