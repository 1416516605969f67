// Package api exposes the pipeline over HTTP: the public search surface
// (query, stream, autocomplete, history) and a set of write-key-gated
// admin endpoints (source registration, retention, priority ingestion).
// Grounded on the plain net/http.HandleFunc routing style and SSE
// helpers of agentic_valuation/pkg/api/debate/handlers.go — this module
// has no router dependency in go.mod, so http.ServeMux is the idiom.
package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"marketintel/internal/config"
)

// withCORS sets the configured allowed origins on every response and
// short-circuits preflight OPTIONS requests.
func withCORS(cfg *config.Settings, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		for _, allowed := range cfg.APICORSOrigins {
			if allowed == origin || allowed == "*" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Write-Key")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

// requireWriteKey gates admin/write endpoints behind the shared write
// key header, per §6.1's write-endpoint contract.
func requireWriteKey(cfg *config.Settings, log zerolog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Write-Key") != cfg.APIWriteKey {
			log.Warn().Str("path", r.URL.Path).Msg("rejected write request: bad or missing write key")
			http.Error(w, "invalid or missing write key", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func logRequest(log zerolog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
		next(w, r)
	}
}
