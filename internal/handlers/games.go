package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jwebster45206/route-tycoon/pkg/state"
)

// GameService is the set of game operations the API exposes.
// gameplay.Service implements it.
type GameService interface {
	Catalog() *state.Catalog
	Create(ctx context.Context) (*state.GameState, error)
	Get(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpgradeRoute(ctx context.Context, id uuid.UUID, routeID string) (*state.GameState, state.Outcome, error)
	BuildRoute(ctx context.Context, id uuid.UUID, from, to string) (*state.GameState, state.Outcome, error)
	UnlockZone(ctx context.Context, id uuid.UUID, zone state.Zone) (*state.GameState, state.Outcome, error)
}

// GameResponse is a game document plus its derived income.
type GameResponse struct {
	Game          *state.GameState `json:"game"`
	IncomePerTick int              `json:"incomePerTick"`
}

// MutationResponse is returned by every player action.
type MutationResponse struct {
	Game          *state.GameState `json:"game"`
	IncomePerTick int              `json:"incomePerTick"`
	Outcome       state.Outcome    `json:"outcome"`
}

// BuildRouteRequest is the body of POST /v1/games/{id}/routes.
type BuildRouteRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type GamesHandler struct {
	games  GameService
	logger *slog.Logger
}

func NewGamesHandler(games GameService, logger *slog.Logger) *GamesHandler {
	return &GamesHandler{games: games, logger: logger}
}

// Create handles POST /v1/games.
func (h *GamesHandler) Create(w http.ResponseWriter, r *http.Request) {
	gs, err := h.games.Create(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.logger.Info("Game created", "game_id", gs.ID.String())
	writeJSON(w, h.logger, http.StatusCreated, GameResponse{Game: gs, IncomePerTick: gs.Income()})
}

// Get handles GET /v1/games/{id}.
func (h *GamesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.gameID(w, r)
	if !ok {
		return
	}
	gs, err := h.games.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, GameResponse{Game: gs, IncomePerTick: gs.Income()})
}

// Delete handles DELETE /v1/games/{id}.
func (h *GamesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.gameID(w, r)
	if !ok {
		return
	}
	if err := h.games.Delete(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.logger.Info("Game deleted", "game_id", id.String())
	w.WriteHeader(http.StatusNoContent)
}

// UpgradeRoute handles POST /v1/games/{id}/routes/{routeID}/upgrade.
func (h *GamesHandler) UpgradeRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := h.gameID(w, r)
	if !ok {
		return
	}
	gs, out, err := h.games.UpgradeRoute(r.Context(), id, chi.URLParam(r, "routeID"))
	h.writeMutation(w, http.StatusOK, gs, out, err)
}

// BuildRoute handles POST /v1/games/{id}/routes.
func (h *GamesHandler) BuildRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := h.gameID(w, r)
	if !ok {
		return
	}

	var req BuildRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("Invalid build route body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, CodeBadRequest, "Invalid request body.")
		return
	}
	if req.From == "" || req.To == "" {
		writeError(w, h.logger, http.StatusBadRequest, CodeBadRequest, "Both from and to are required.")
		return
	}

	gs, out, err := h.games.BuildRoute(r.Context(), id, req.From, req.To)
	h.writeMutation(w, http.StatusCreated, gs, out, err)
}

// UnlockZone handles POST /v1/games/{id}/zones/{zone}/unlock.
func (h *GamesHandler) UnlockZone(w http.ResponseWriter, r *http.Request) {
	id, ok := h.gameID(w, r)
	if !ok {
		return
	}
	zone, err := state.ParseZone(chi.URLParam(r, "zone"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	gs, out, err := h.games.UnlockZone(r.Context(), id, zone)
	h.writeMutation(w, http.StatusOK, gs, out, err)
}

func (h *GamesHandler) writeMutation(w http.ResponseWriter, status int, gs *state.GameState, out state.Outcome, err error) {
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, status, MutationResponse{Game: gs, IncomePerTick: gs.Income(), Outcome: out})
}

func (h *GamesHandler) gameID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return parseGameID(w, r, h.logger)
}

// parseGameID reads the {id} URL parameter, writing a 400 on failure.
func parseGameID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, logger, http.StatusBadRequest, CodeInvalidGameID, "Invalid game ID format.")
		return uuid.Nil, false
	}
	return id, true
}

// decodeOptional decodes a JSON body into v. An empty body is not an error.
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
