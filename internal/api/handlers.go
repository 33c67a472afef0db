// Package api serves the web search answering endpoint: one question in,
// a stream of newline-delimited JSON events out.
package api

import (
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"web-search-answer-api/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Handler owns the HTTP surface: the websearch stream and the health
// probe.
type Handler struct {
	cfg  *config.AppConfig
	orch *Orchestrator
	sem  chan struct{}
}

// NewHandler sizes the request semaphore from SEMAPHORE_LIMIT.
func NewHandler(cfg *config.AppConfig, orch *Orchestrator) *Handler {
	return &Handler{
		cfg:  cfg,
		orch: orch,
		sem:  make(chan struct{}, cfg.SemaphoreLimit),
	}
}

// HandleWebSearch answers one question as a stream of NDJSON events.
func (h *Handler) HandleWebSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST method is allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var req WebSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request payload: %v", err), http.StatusBadRequest)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Admission: wait for a slot or for the client to give up.
	select {
	case h.sem <- struct{}{}:
		defer func() { <-h.sem }()
	case <-r.Context().Done():
		return
	}

	log.Info().
		Str("query", req.Query).
		Str("search_type", req.SearchType).
		Str("language", req.Language).
		Bool("stream", req.Stream).
		Msg("handling websearch request")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	h.orch.Run(r.Context(), &req, NewEventStream(w))
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	resp := struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}{Status: "ok", Message: "Service is healthy"}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("encoding health response failed")
	}
}
