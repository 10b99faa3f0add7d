package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AritraCh2005/SmartSeva-4/internal/generator"
	"github.com/AritraCh2005/SmartSeva-4/internal/logging"
	"github.com/AritraCh2005/SmartSeva-4/internal/orchestrator"
)

// handleAsk handles POST /api/ask: one citizen question, one answer.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	ans, sessionID, err := s.asker.Ask(r.Context(), req.SessionID, req.Query)
	if err != nil {
		outcome := "error"
		s.metrics.askRequestsTotal.WithLabelValues(outcome).Inc()
		s.metrics.askDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

		switch {
		case errors.Is(err, orchestrator.ErrInvalidQuery):
			http.Error(w, "query is empty or too long", http.StatusBadRequest)
		case isGenerationError(err):
			log.Error("generation failed", slog.Any("error", err))
			http.Error(w, "the answering service is temporarily unavailable, please try again", http.StatusBadGateway)
		default:
			log.Error("ask failed", slog.Any("error", err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	outcome := "refused"
	if ans.Grounded {
		outcome = "grounded"
	}
	s.metrics.askRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.askDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(askResponse{ //nolint:errcheck
		Answer:    ans.Text,
		Grounded:  ans.Grounded,
		Citations: ans.Citations,
		SessionID: sessionID,
	})
}

// isGenerationError reports whether err came from the chat model rather than
// our own pipeline.
func isGenerationError(err error) bool {
	var genErr *generator.GenerationError
	return errors.As(err, &genErr)
}

// handleDropSession handles DELETE /api/sessions/{id}.
func (s *Server) handleDropSession(w http.ResponseWriter, r *http.Request) {
	if s.dropper == nil {
		http.Error(w, "session management not available", http.StatusNotImplemented)
		return
	}

	id := r.PathValue("id")
	if err := s.dropper.Drop(r.Context(), id); err != nil {
		if errors.Is(err, orchestrator.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		logging.FromContext(r.Context()).Error("drop session failed", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
