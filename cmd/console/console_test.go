package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/route-tycoon/internal/advisor"
	"github.com/jwebster45206/route-tycoon/internal/gameplay"
	"github.com/jwebster45206/route-tycoon/internal/handlers"
	"github.com/jwebster45206/route-tycoon/internal/services"
	"github.com/jwebster45206/route-tycoon/pkg/chat"
	"github.com/jwebster45206/route-tycoon/pkg/state"
	"github.com/jwebster45206/route-tycoon/pkg/storage"
)

func newTestServer(t *testing.T) (*APIClient, *services.MockLLMAPI) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMockStorage()
	llm := services.NewMockLLMAPI()
	srv := httptest.NewServer(handlers.NewRouter(handlers.Deps{
		Games:   gameplay.NewService(store, nil, nil, "console-test", log),
		Advisor: advisor.NewGateway(llm, store, nil, log),
		Health:  store,
		Model:   "mock",
		Logger:  log,
	}))
	t.Cleanup(srv.Close)
	return NewAPIClient(srv.URL+"/", srv.Client()), llm
}

func TestAPIClient(t *testing.T) {
	api, _ := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, api.Health(ctx))

	game, err := api.CreateGame(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, game.IncomePerTick)

	resp, err := api.UpgradeRoute(ctx, game.Game.ID, "r1")
	require.NoError(t, err)
	assert.Equal(t, 500, resp.Game.Player.Currency)

	_, err = api.UpgradeRoute(ctx, game.Game.ID, "r1")
	require.Error(t, err)
	assert.True(t, InsufficientFunds(err))

	_, err = api.UnlockZone(ctx, game.Game.ID, state.ZoneA)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, handlers.CodeZoneUnlocked, apiErr.Code)

	res, err := api.Suggest(ctx, game.Game.ID, "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Suggestions)

	got, err := api.GetGame(ctx, game.Game.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, got.Game.Player.Currency)
}

func newTestUI(t *testing.T) (ConsoleUI, *services.MockLLMAPI) {
	t.Helper()
	api, llm := newTestServer(t)
	game, err := api.CreateGame(context.Background())
	require.NoError(t, err)

	m := NewConsoleUI(&ConsoleConfig{}, api, game, state.DefaultRules())
	model, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 45})
	return model.(ConsoleUI), llm
}

// run executes a command and feeds its message back, as the runtime would.
func run(t *testing.T, m ConsoleUI, cmd tea.Cmd) ConsoleUI {
	t.Helper()
	require.NotNil(t, cmd)
	model, _ := m.Update(cmd())
	return model.(ConsoleUI)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m ConsoleUI, s string) (ConsoleUI, tea.Cmd) {
	model, cmd := m.Update(key(s))
	return model.(ConsoleUI), cmd
}

func TestConsoleUI_UpgradeAndToasts(t *testing.T) {
	m, _ := newTestUI(t)

	m, cmd := press(m, "u")
	assert.True(t, m.busy)
	m = run(t, m, cmd)
	assert.False(t, m.busy)
	assert.Equal(t, 500, m.game.Player.Currency)
	require.NotEmpty(t, m.toasts)
	assert.Equal(t, toastInfo, m.toasts[len(m.toasts)-1].kind)

	m, cmd = press(m, "u")
	m = run(t, m, cmd)
	assert.Equal(t, toastFunds, m.toasts[len(m.toasts)-1].kind)
	assert.Equal(t, 500, m.game.Player.Currency)

	view := m.View()
	assert.Contains(t, view, "ROUTE TYCOON")
	assert.Contains(t, view, "$500")
}

func TestConsoleUI_BuildMode(t *testing.T) {
	m, _ := newTestUI(t)

	m, _ = press(m, "b")
	assert.Equal(t, modeBuildFrom, m.mode)
	assert.Equal(t, 0, m.cityCursor)

	m, _ = press(m, "enter")
	assert.Equal(t, modeBuildTo, m.mode)
	assert.Equal(t, "c1", m.buildFrom)

	// c1 -> c2 already has a route.
	m, cmd := press(m, "enter")
	assert.Equal(t, modeRoutes, m.mode)
	m = run(t, m, cmd)
	assert.Equal(t, toastInvalid, m.toasts[len(m.toasts)-1].kind)

	m, _ = press(m, "b")
	m, _ = press(m, "esc")
	assert.Equal(t, modeRoutes, m.mode)
}

func TestConsoleUI_Suggestions(t *testing.T) {
	m, llm := newTestUI(t)

	m, cmd := press(m, "s")
	assert.True(t, m.showSuggestions)
	assert.True(t, m.suggestLoading)

	// A second request is ignored while one is loading.
	m, retry := press(m, "r")
	assert.Nil(t, retry)

	// The command is a batch of the spinner tick and the request.
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(suggestionsMsg); ok {
			model, _ := m.Update(msg)
			m = model.(ConsoleUI)
		}
	}
	assert.False(t, m.suggestLoading)
	require.NotNil(t, m.suggestions)
	require.NotEmpty(t, m.suggestions.Suggestions)
	assert.Equal(t, 1, llm.GetCallCount())
	assert.Contains(t, m.View(), "AI Suggestions")

	m, _ = press(m, "esc")
	assert.False(t, m.showSuggestions)
}

func TestConsoleUI_SuggestionFailureIsPersistent(t *testing.T) {
	m, llm := newTestUI(t)
	llm.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return nil, errors.New("boom")
	}

	m, cmd := press(m, "s")
	batch := cmd().(tea.BatchMsg)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(suggestionsMsg); ok {
			model, _ := m.Update(msg)
			m = model.(ConsoleUI)
		}
	}
	assert.Equal(t, advisor.FailureMessage, m.suggestErr)

	// Toast expiry does not clear the inline error.
	model, _ := m.Update(toastTickMsg(time.Now().Add(time.Hour)))
	m = model.(ConsoleUI)
	assert.Equal(t, advisor.FailureMessage, m.suggestErr)
	assert.True(t, strings.Contains(m.View(), "retry"))
}

func TestRenderMap(t *testing.T) {
	gs := state.NewGameState(nil)
	c := newMapCanvas(60, 20)
	c.draw(gs, mapSelection{routeID: "r1"})
	out := c.String()

	assert.Contains(t, out, "●")
	assert.Contains(t, out, "○")
	assert.Contains(t, out, "Aethelburg")
	assert.Contains(t, out, "░")
	assert.Len(t, strings.Split(out, "\n"), 20)
}
