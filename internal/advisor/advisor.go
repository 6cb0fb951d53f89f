// Package advisor asks the configured LLM for route upgrade suggestions.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	applog "github.com/jwebster45206/route-tycoon/internal/logger"
	"github.com/jwebster45206/route-tycoon/internal/services"
	"github.com/jwebster45206/route-tycoon/pkg/prompts"
	"github.com/jwebster45206/route-tycoon/pkg/state"
	"github.com/jwebster45206/route-tycoon/pkg/storage"
	"github.com/jwebster45206/route-tycoon/pkg/suggest"
)

// FailureMessage is shown to players whenever a suggestion call fails.
const FailureMessage = "Failed to get suggestions from AI. The network might be too complex or an unexpected error occurred."

var (
	ErrSuggestionFailed   = errors.New("suggestion request failed")
	ErrSuggestionInFlight = errors.New("a suggestion request is already running for this game")
)

// Publisher receives suggestion results. events.Broadcaster implements it.
type Publisher interface {
	PublishSuggestionsReady(ctx context.Context, gameID uuid.UUID, res *suggest.Result) error
	PublishSuggestionsFailed(ctx context.Context, gameID uuid.UUID, errorMsg string) error
}

// Gateway runs suggestion requests. At most one request per game runs at a
// time. Failures are not retried.
type Gateway struct {
	llm       services.LLMService
	store     storage.Storage
	publisher Publisher
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

// NewGateway creates a gateway. publisher may be nil.
func NewGateway(llm services.LLMService, store storage.Storage, publisher Publisher, logger *slog.Logger) *Gateway {
	return &Gateway{
		llm:       llm,
		store:     store,
		publisher: publisher,
		logger:    logger,
		inFlight:  make(map[uuid.UUID]struct{}),
	}
}

// Suggest serializes the game, asks the model and returns the validated
// suggestions. Every failure is reported as ErrSuggestionFailed, except a
// concurrent call for the same game which gets ErrSuggestionInFlight.
func (g *Gateway) Suggest(ctx context.Context, gs *state.GameState, focus string) (*suggest.Result, error) {
	if !g.begin(gs.ID) {
		return nil, ErrSuggestionInFlight
	}
	defer g.end(gs.ID)

	log := applog.WithGame(g.logger, gs.ID.String()).With("model", g.llm.ModelName())
	start := time.Now()

	res, err := g.request(ctx, gs, focus)
	if err != nil {
		log.Error("Suggestion request failed", "error", err, "duration", time.Since(start))
		if g.publisher != nil {
			if perr := g.publisher.PublishSuggestionsFailed(ctx, gs.ID, FailureMessage); perr != nil {
				log.Warn("Failed to publish suggestion failure", "error", perr)
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrSuggestionFailed, err)
	}

	log.Info("Suggestions received", "count", len(res.Suggestions), "duration", time.Since(start))

	// The game may have been deleted while the model was thinking.
	current, err := g.store.LoadGameState(ctx, gs.ID)
	switch {
	case err != nil:
		log.Warn("Failed to check game before storing suggestions", "error", err)
	case current == nil:
		log.Info("Game deleted during suggestion request, not storing result")
		return res, nil
	default:
		if err := g.store.SaveSuggestions(ctx, gs.ID, res); err != nil {
			log.Warn("Failed to store suggestions", "error", err)
		}
	}
	if g.publisher != nil {
		if err := g.publisher.PublishSuggestionsReady(ctx, gs.ID, res); err != nil {
			log.Warn("Failed to publish suggestions", "error", err)
		}
	}
	return res, nil
}

// Last returns the most recent stored suggestion set, or nil.
func (g *Gateway) Last(ctx context.Context, gameID uuid.UUID) (*suggest.Result, error) {
	return g.store.LoadSuggestions(ctx, gameID)
}

// InFlight reports whether a request is running for the game.
func (g *Gateway) InFlight(gameID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.inFlight[gameID]
	return ok
}

func (g *Gateway) request(ctx context.Context, gs *state.GameState, focus string) (*suggest.Result, error) {
	req, err := suggest.NewRequest(gs)
	if err != nil {
		return nil, err
	}

	messages, err := prompts.BuildSuggestionMessages(req, focus)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	resp, err := g.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("llm call failed: %w", err)
	}

	res, err := suggest.Parse(resp.Message)
	if err != nil {
		return nil, err
	}

	res.Model = resp.Model
	if res.Model == "" {
		res.Model = g.llm.ModelName()
	}
	res.GeneratedAt = time.Now().UTC()
	return res, nil
}

func (g *Gateway) begin(id uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[id]; busy {
		return false
	}
	g.inFlight[id] = struct{}{}
	return true
}

func (g *Gateway) end(id uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, id)
}
