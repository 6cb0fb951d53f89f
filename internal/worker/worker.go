package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/route-tycoon/internal/gameplay"
	applog "github.com/jwebster45206/route-tycoon/internal/logger"
	"github.com/jwebster45206/route-tycoon/pkg/state"
)

// GameLister lists the games to credit.
type GameLister interface {
	ListActiveGames(ctx context.Context) ([]uuid.UUID, error)
}

// IncomeApplier credits one income period to a game.
type IncomeApplier interface {
	TickIncome(ctx context.Context, id uuid.UUID) (*state.GameState, state.Outcome, error)
}

// Worker is the periodic income ticker. Every interval it credits each
// active game once. Missed ticks are not made up.
type Worker struct {
	id       string
	interval time.Duration
	games    GameLister
	income   IncomeApplier
	log      *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	started  atomic.Bool
	done     chan struct{}
}

// New creates a new worker instance
func New(games GameLister, income IncomeApplier, interval time.Duration, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if interval <= 0 {
		interval = state.IncomeInterval
	}

	return &Worker{
		id:       workerID,
		interval: interval,
		games:    games,
		income:   income,
		log:      log.With("worker_id", workerID),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// ID identifies the worker in logs and game locks.
func (w *Worker) ID() string {
	return w.id
}

// Start runs the ticker until Stop is called. It blocks.
func (w *Worker) Start() error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("worker already started")
	}
	defer close(w.done)
	w.log.Info("Worker starting", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down")
			return nil
		case <-ticker.C:
			if _, err := w.RunOnce(w.ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.log.Error("Income tick failed", "error", err)
			}
		}
	}
}

// Stop gracefully shuts down the worker and waits for the current tick.
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested")
	w.cancel()
	if w.started.Load() {
		<-w.done
	}
}

// RunOnce credits every active game once and returns how many were credited.
// A game that is busy or fails is skipped until the next tick.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	ids, err := w.games.ListActiveGames(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active games: %w", err)
	}

	credited := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return credited, ctx.Err()
		}

		gs, out, err := w.income.TickIncome(ctx, id)
		log := applog.WithGame(w.log, id.String())
		switch {
		case err == nil:
			credited++
			if out.JustWon {
				log.Info("Game reached win condition", "currency", gs.Player.Currency)
			}
		case errors.Is(err, gameplay.ErrGameBusy):
			log.Debug("Game busy, skipping tick")
		case errors.Is(err, gameplay.ErrGameNotFound):
			log.Debug("Game expired, skipping tick")
		default:
			log.Error("Failed to apply income", "error", err)
		}
	}
	return credited, nil
}
