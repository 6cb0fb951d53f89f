package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/route-tycoon/pkg/state"
	"github.com/jwebster45206/route-tycoon/pkg/suggest"
)

// Advisor produces upgrade suggestions. advisor.Gateway implements it.
type Advisor interface {
	Suggest(ctx context.Context, gs *state.GameState, focus string) (*suggest.Result, error)
	Last(ctx context.Context, gameID uuid.UUID) (*suggest.Result, error)
}

// SuggestionRequest is the optional body of POST /v1/games/{id}/suggestions.
type SuggestionRequest struct {
	Focus string `json:"focus,omitempty"`
}

type SuggestionsHandler struct {
	games   GameService
	advisor Advisor
	logger  *slog.Logger
}

func NewSuggestionsHandler(games GameService, advisor Advisor, logger *slog.Logger) *SuggestionsHandler {
	return &SuggestionsHandler{games: games, advisor: advisor, logger: logger}
}

// Create handles POST /v1/games/{id}/suggestions. It blocks until the model answers.
func (h *SuggestionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGameID(w, r, h.logger)
	if !ok {
		return
	}

	var req SuggestionRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, CodeBadRequest, "Invalid request body.")
		return
	}

	gs, err := h.games.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	res, err := h.advisor.Suggest(r.Context(), gs, req.Focus)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}

// Get handles GET /v1/games/{id}/suggestions.
func (h *SuggestionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGameID(w, r, h.logger)
	if !ok {
		return
	}
	if _, err := h.games.Get(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	res, err := h.advisor.Last(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if res == nil {
		writeError(w, h.logger, http.StatusNotFound, CodeNoSuggestions, "No suggestions for this game yet.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}
