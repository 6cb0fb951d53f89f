package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/route-tycoon/pkg/state"
	"github.com/jwebster45206/route-tycoon/pkg/suggest"
)

// MockStorage is an in-memory Storage for tests.
type MockStorage struct {
	mu          sync.RWMutex
	gamestates  map[uuid.UUID]*state.GameState
	suggestions map[uuid.UUID]*suggest.Result
	locks       map[uuid.UUID]string
	pingError   error

	// SaveError, when set, is returned by SaveGameState.
	SaveError error
}

var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		gamestates:  make(map[uuid.UUID]*state.GameState),
		suggestions: make(map[uuid.UUID]*suggest.Result),
		locks:       make(map[uuid.UUID]string),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStorage) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return m.SaveError
	}
	m.gamestates[id] = gs.Clone()
	return nil
}

func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gs, ok := m.gamestates[id]
	if !ok {
		return nil, nil
	}
	return gs.Clone(), nil
}

func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gamestates, id)
	delete(m.suggestions, id)
	return nil
}

func (m *MockStorage) ListActiveGames(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(m.gamestates))
	for id := range m.gamestates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (m *MockStorage) SaveSuggestions(ctx context.Context, id uuid.UUID, res *suggest.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *res
	cp.Suggestions = append([]suggest.Suggestion(nil), res.Suggestions...)
	m.suggestions[id] = &cp
	return nil
}

func (m *MockStorage) LoadSuggestions(ctx context.Context, id uuid.UUID) (*suggest.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.suggestions[id]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

// AcquireGameLock ignores ttl; locks live until released.
func (m *MockStorage) AcquireGameLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[id]; held {
		return false, nil
	}
	m.locks[id] = owner
	return true, nil
}

func (m *MockStorage) ReleaseGameLock(ctx context.Context, id uuid.UUID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[id] == owner {
		delete(m.locks, id)
	}
	return nil
}

// IsLocked reports whether the game's lock is held.
func (m *MockStorage) IsLocked(id uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, held := m.locks[id]
	return held
}
