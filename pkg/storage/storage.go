package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/route-tycoon/pkg/state"
	"github.com/jwebster45206/route-tycoon/pkg/suggest"
)

// ErrLockHeld is returned when another owner holds a game's lock.
var ErrLockHeld = errors.New("game is locked by another owner")

// DefaultLockTTL bounds how long a crashed owner can block a game.
const DefaultLockTTL = 30 * time.Second

// Storage defines a unified interface for all storage operations.
// Load methods return nil, nil when the record does not exist.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// GameState operations
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	// ListActiveGames returns every game the income ticker should visit.
	ListActiveGames(ctx context.Context) ([]uuid.UUID, error)

	// Suggestion results
	SaveSuggestions(ctx context.Context, id uuid.UUID, res *suggest.Result) error
	LoadSuggestions(ctx context.Context, id uuid.UUID) (*suggest.Result, error)

	// Per-game mutual exclusion. AcquireGameLock returns false if another
	// owner holds the lock. ReleaseGameLock only releases a lock held by owner.
	AcquireGameLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error)
	ReleaseGameLock(ctx context.Context, id uuid.UUID, owner string) error
}

// WithGameLock runs fn while holding the game's lock. It returns ErrLockHeld
// without calling fn if the lock is taken.
func WithGameLock(ctx context.Context, s Storage, id uuid.UUID, owner string, fn func() error) error {
	ok, err := s.AcquireGameLock(ctx, id, owner, DefaultLockTTL)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockHeld
	}
	defer func() { _ = s.ReleaseGameLock(context.WithoutCancel(ctx), id, owner) }()
	return fn()
}
