package gameplay

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/route-tycoon/internal/services/events"
	"github.com/jwebster45206/route-tycoon/pkg/state"
	"github.com/jwebster45206/route-tycoon/pkg/storage"
)

type published struct {
	t   events.EventType
	out state.Outcome
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishOutcome(ctx context.Context, gs *state.GameState, t events.EventType, out state.Outcome) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{t: t, out: out})
	return nil
}

func newService(t *testing.T) (*Service, *storage.MockStorage, *recordingPublisher) {
	t.Helper()
	store := storage.NewMockStorage()
	pub := &recordingPublisher{}
	svc := NewService(store, pub, nil, "test-owner", slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.lockDelay = time.Millisecond
	svc.lockAttempts = 3
	return svc, store, pub
}

func TestService_CreateGetDelete(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	gs, err := svc.Create(ctx)
	require.NoError(t, err)

	loaded, err := svc.Get(ctx, gs.ID)
	require.NoError(t, err)
	assert.Equal(t, gs.ID, loaded.ID)

	require.NoError(t, svc.Delete(ctx, gs.ID))
	_, err = svc.Get(ctx, gs.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, gs.ID), ErrGameNotFound)
}

func TestService_UpgradeRoute(t *testing.T) {
	svc, store, pub := newService(t)
	ctx := context.Background()
	gs, err := svc.Create(ctx)
	require.NoError(t, err)

	updated, out, err := svc.UpgradeRoute(ctx, gs.ID, "r1")
	require.NoError(t, err)
	assert.Equal(t, 500, updated.Player.Currency)
	assert.Equal(t, "r1", out.RouteID)

	stored, _ := store.LoadGameState(ctx, gs.ID)
	assert.Equal(t, 500, stored.Player.Currency)
	assert.False(t, store.IsLocked(gs.ID))
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.EventTypeRouteUpgraded, pub.events[0].t)

	// second upgrade is unaffordable and changes nothing
	_, _, err = svc.UpgradeRoute(ctx, gs.ID, "r1")
	assert.ErrorIs(t, err, state.ErrInsufficientFunds)
	stored, _ = store.LoadGameState(ctx, gs.ID)
	assert.Equal(t, 500, stored.Player.Currency)
	assert.Len(t, pub.events, 1)
	assert.False(t, store.IsLocked(gs.ID))
}

func TestService_BuildAndUnlock(t *testing.T) {
	svc, store, pub := newService(t)
	ctx := context.Background()
	gs, err := svc.Create(ctx)
	require.NoError(t, err)

	gs.Player.Currency = 20_000
	require.NoError(t, store.SaveGameState(ctx, gs.ID, gs))

	_, out, err := svc.UnlockZone(ctx, gs.ID, state.ZoneB)
	require.NoError(t, err)
	assert.Equal(t, state.ZoneB, out.Zone)

	_, out, err = svc.BuildRoute(ctx, gs.ID, "c1", "c5")
	require.NoError(t, err)
	assert.Equal(t, "r12", out.RouteID)

	_, _, err = svc.BuildRoute(ctx, gs.ID, "c5", "c1")
	assert.ErrorIs(t, err, state.ErrDuplicateRoute)

	require.Len(t, pub.events, 2)
	assert.Equal(t, events.EventTypeZoneUnlocked, pub.events[0].t)
	assert.Equal(t, events.EventTypeRouteBuilt, pub.events[1].t)
}

func TestService_UnknownGame(t *testing.T) {
	svc, store, _ := newService(t)
	id := uuid.New()
	_, _, err := svc.UpgradeRoute(context.Background(), id, "r1")
	assert.ErrorIs(t, err, ErrGameNotFound)
	assert.False(t, store.IsLocked(id))
}

func TestService_LockContention(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	gs, err := svc.Create(ctx)
	require.NoError(t, err)

	ok, err := store.AcquireGameLock(ctx, gs.ID, "someone-else", storage.DefaultLockTTL)
	require.NoError(t, err)
	require.True(t, ok)

	_, _, err = svc.TickIncome(ctx, gs.ID)
	assert.ErrorIs(t, err, ErrGameBusy)
	_, _, err = svc.UpgradeRoute(ctx, gs.ID, "r1")
	assert.ErrorIs(t, err, ErrGameBusy)

	stored, _ := store.LoadGameState(ctx, gs.ID)
	assert.Equal(t, 0, stored.Tick)
	assert.Equal(t, state.StartingCurrency, stored.Player.Currency)

	// the service waits for a lock that frees up in time
	go func() {
		time.Sleep(time.Millisecond)
		_ = store.ReleaseGameLock(ctx, gs.ID, "someone-else")
	}()
	svc.lockAttempts = 200
	_, _, err = svc.UpgradeRoute(ctx, gs.ID, "r1")
	assert.NoError(t, err)
}

func TestService_TickIncome(t *testing.T) {
	svc, _, pub := newService(t)
	ctx := context.Background()
	gs, err := svc.Create(ctx)
	require.NoError(t, err)

	updated, out, err := svc.TickIncome(ctx, gs.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, out.Income)
	assert.Equal(t, state.StartingCurrency+20, updated.Player.Currency)
	assert.Equal(t, 1, updated.Tick)
	assert.Equal(t, events.EventTypeIncomeTick, pub.events[0].t)
}

// loadHookStorage runs onLoad once, inside the first LoadGameState call.
type loadHookStorage struct {
	*storage.MockStorage
	once   sync.Once
	onLoad func()
}

func (s *loadHookStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	s.once.Do(s.onLoad)
	return s.MockStorage.LoadGameState(ctx, id)
}

func TestService_DeleteDuringTick(t *testing.T) {
	ctx := context.Background()

	t.Run("delete waits for the tick and the game stays deleted", func(t *testing.T) {
		store := &loadHookStorage{MockStorage: storage.NewMockStorage()}
		svc := NewService(store, nil, nil, "test-owner", slog.New(slog.NewTextHandler(io.Discard, nil)))
		svc.lockDelay = time.Millisecond
		svc.lockAttempts = 500

		gs, err := svc.Create(ctx)
		require.NoError(t, err)

		deleted := make(chan error, 1)
		store.onLoad = func() {
			go func() { deleted <- svc.Delete(ctx, gs.ID) }()
			time.Sleep(10 * time.Millisecond)
		}

		_, _, err = svc.TickIncome(ctx, gs.ID)
		require.NoError(t, err)
		require.NoError(t, <-deleted)

		stored, err := store.MockStorage.LoadGameState(ctx, gs.ID)
		require.NoError(t, err)
		assert.Nil(t, stored)
		active, err := store.ListActiveGames(ctx)
		require.NoError(t, err)
		assert.NotContains(t, active, gs.ID)

		_, _, err = svc.TickIncome(ctx, gs.ID)
		assert.ErrorIs(t, err, ErrGameNotFound)
	})

	t.Run("delete that cannot get the lock is rejected", func(t *testing.T) {
		store := &loadHookStorage{MockStorage: storage.NewMockStorage()}
		svc := NewService(store, nil, nil, "test-owner", slog.New(slog.NewTextHandler(io.Discard, nil)))
		svc.lockDelay = time.Millisecond
		svc.lockAttempts = 1

		gs, err := svc.Create(ctx)
		require.NoError(t, err)

		var deleteErr error
		store.onLoad = func() { deleteErr = svc.Delete(ctx, gs.ID) }

		_, _, err = svc.TickIncome(ctx, gs.ID)
		require.NoError(t, err)
		assert.ErrorIs(t, deleteErr, ErrGameBusy)

		stored, err := store.MockStorage.LoadGameState(ctx, gs.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, 1, stored.Tick)
		assert.False(t, store.IsLocked(gs.ID))
	})
}

func TestService_TickWaitsForShortAction(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	gs, err := svc.Create(ctx)
	require.NoError(t, err)

	ok, err := store.AcquireGameLock(ctx, gs.ID, "player-action", storage.DefaultLockTTL)
	require.NoError(t, err)
	require.True(t, ok)

	svc.tickAttempts = 500
	go func() {
		time.Sleep(2 * time.Millisecond)
		_ = store.ReleaseGameLock(ctx, gs.ID, "player-action")
	}()

	updated, out, err := svc.TickIncome(ctx, gs.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, out.Income)
	assert.Equal(t, 1, updated.Tick)
}
