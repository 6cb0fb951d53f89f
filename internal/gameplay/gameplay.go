// Package gameplay applies player and ticker actions to stored games. Every
// mutation runs under the game's distributed lock: load, mutate, save, publish.
package gameplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/route-tycoon/internal/services/events"
	"github.com/jwebster45206/route-tycoon/pkg/state"
	"github.com/jwebster45206/route-tycoon/pkg/storage"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameBusy     = errors.New("game is busy, try again")
)

// Publisher receives mutation outcomes. events.Broadcaster implements it.
type Publisher interface {
	PublishOutcome(ctx context.Context, gs *state.GameState, t events.EventType, out state.Outcome) error
}

// Service owns the load-mutate-save cycle.
type Service struct {
	store     storage.Storage
	publisher Publisher
	catalog   *state.Catalog
	owner     string
	logger    *slog.Logger

	lockAttempts int
	tickAttempts int
	lockDelay    time.Duration
}

// NewService creates a service. owner identifies this process in game locks.
// A nil catalog uses the built-in map; publisher may be nil.
func NewService(store storage.Storage, publisher Publisher, catalog *state.Catalog, owner string, logger *slog.Logger) *Service {
	if catalog == nil {
		catalog = state.DefaultCatalog()
	}
	if owner == "" {
		owner = uuid.NewString()
	}
	return &Service{
		store:        store,
		publisher:    publisher,
		catalog:      catalog,
		owner:        owner,
		logger:       logger,
		lockAttempts: 20,
		tickAttempts: 3,
		lockDelay:    25 * time.Millisecond,
	}
}

// Catalog returns the map new games start from.
func (s *Service) Catalog() *state.Catalog {
	return s.catalog.Clone()
}

// Create starts and stores a new game.
func (s *Service) Create(ctx context.Context) (*state.GameState, error) {
	gs := state.NewGameState(s.catalog)
	if err := s.store.SaveGameState(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save new game: %w", err)
	}
	s.logger.Info("Game created", "game_id", gs.ID.String())
	return gs, nil
}

// Get loads a game without locking it.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	gs, err := s.store.LoadGameState(ctx, id)
	if err != nil {
		return nil, err
	}
	if gs == nil {
		return nil, ErrGameNotFound
	}
	return gs, nil
}

// Delete removes a game. It takes the game's lock so an in-flight mutation
// cannot save the game back after it is gone.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.withLock(ctx, id, s.lockAttempts, func() error {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return s.store.DeleteGameState(ctx, id)
	})
}

func (s *Service) UpgradeRoute(ctx context.Context, id uuid.UUID, routeID string) (*state.GameState, state.Outcome, error) {
	return s.mutate(ctx, id, s.lockAttempts, events.EventTypeRouteUpgraded, func(gs *state.GameState) (state.Outcome, error) {
		return gs.UpgradeRoute(routeID)
	})
}

func (s *Service) BuildRoute(ctx context.Context, id uuid.UUID, from, to string) (*state.GameState, state.Outcome, error) {
	return s.mutate(ctx, id, s.lockAttempts, events.EventTypeRouteBuilt, func(gs *state.GameState) (state.Outcome, error) {
		return gs.BuildRoute(from, to)
	})
}

func (s *Service) UnlockZone(ctx context.Context, id uuid.UUID, zone state.Zone) (*state.GameState, state.Outcome, error) {
	return s.mutate(ctx, id, s.lockAttempts, events.EventTypeZoneUnlocked, func(gs *state.GameState) (state.Outcome, error) {
		return gs.UnlockZone(zone)
	})
}

// TickIncome credits one income period. It retries the lock a few times so a
// short player action does not cost the tick; a game that stays busy returns
// ErrGameBusy and is credited on the next tick.
func (s *Service) TickIncome(ctx context.Context, id uuid.UUID) (*state.GameState, state.Outcome, error) {
	return s.mutate(ctx, id, s.tickAttempts, events.EventTypeIncomeTick, func(gs *state.GameState) (state.Outcome, error) {
		return gs.TickIncome(), nil
	})
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, attempts int, t events.EventType, fn func(gs *state.GameState) (state.Outcome, error)) (*state.GameState, state.Outcome, error) {
	var (
		gs  *state.GameState
		out state.Outcome
	)
	err := s.withLock(ctx, id, attempts, func() error {
		var err error
		gs, err = s.Get(ctx, id)
		if err != nil {
			return err
		}
		out, err = fn(gs)
		if err != nil {
			return err
		}
		if err := s.store.SaveGameState(ctx, id, gs); err != nil {
			gs = nil
			return fmt.Errorf("failed to save game: %w", err)
		}
		// Published under the lock so subscribers see events in save order.
		if s.publisher != nil {
			if err := s.publisher.PublishOutcome(ctx, gs, t, out); err != nil {
				s.logger.Warn("Failed to publish event", "game_id", id.String(), "event_type", t, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return gs, state.Outcome{}, err
	}

	if out.JustWon {
		s.logger.Info("Game won", "game_id", id.String(), "currency", gs.Player.Currency)
	}
	return gs, out, nil
}

// withLock runs fn under the game's lock, trying up to attempts times while
// another owner holds it.
func (s *Service) withLock(ctx context.Context, id uuid.UUID, attempts int, fn func() error) error {
	for i := 0; ; i++ {
		err := storage.WithGameLock(ctx, s.store, id, s.owner, fn)
		if !errors.Is(err, storage.ErrLockHeld) {
			return err
		}
		if i >= attempts-1 {
			return ErrGameBusy
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.lockDelay):
		}
	}
}
