package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"marketintel/internal/orchestrator"
	"marketintel/internal/repository"
)

// searchQueryRequest is the POST /search/query and /search/stream body.
type searchQueryRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 50 {
		return 50
	}
	return limit
}

// HandleSearchQuery runs the batch pipeline and returns a single §6.4
// report.
func HandleSearchQuery(o *orchestrator.Orchestrator, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req searchQueryRequest
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
			log.Error().Err(err).Str("query", req.Query).Msg("search query failed")
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}
}

// HandleSearchStream runs the streaming pipeline, relaying each
// orchestrator.Event as one SSE `data: <json>\n\n` frame per §6.1/§4.8.2.
func HandleSearchStream(o *orchestrator.Orchestrator, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req searchQueryRequest
		switch r.Method {
		case http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
		case http.MethodGet:
			req.Query = r.URL.Query().Get("query")
			if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
				req.Limit = limit
			}
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if req.Query == "" {
			http.Error(w, "query is required", http.StatusBadRequest)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		events := o.RunStream(r.Context(), req.Query, clampLimit(req.Limit))
		for event := range events {
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			if _, err := w.Write(payload); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// HandleAutocomplete backs GET /search/autocomplete?q=…
func HandleAutocomplete(repo repository.Repository, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode([]repository.AutocompleteSuggestion{})
			return
		}
		limit := 10
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = v
		}
		suggestions, err := repo.AutocompleteEntities(r.Context(), q, limit)
		if err != nil {
			log.Error().Err(err).Str("q", q).Msg("autocomplete failed")
			http.Error(w, "autocomplete failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(suggestions)
	}
}

// HandleSearchHistory backs GET /search/history?page,page_size
func HandleSearchHistory(repo repository.Repository, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page <= 0 {
			page = 1
		}
		pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		if pageSize <= 0 {
			pageSize = 20
		}
		history, err := repo.GetSearchHistory(r.Context(), page, pageSize)
		if err != nil {
			log.Error().Err(err).Msg("search history lookup failed")
			http.Error(w, "history lookup failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(history)
	}
}
