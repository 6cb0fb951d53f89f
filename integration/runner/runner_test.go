package runner

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/route-tycoon/internal/advisor"
	"github.com/jwebster45206/route-tycoon/internal/gameplay"
	"github.com/jwebster45206/route-tycoon/internal/handlers"
	"github.com/jwebster45206/route-tycoon/internal/services"
	"github.com/jwebster45206/route-tycoon/pkg/storage"
)

const casesDir = "../cases"

// newTestServer serves the real router without an income worker, so balances only move on mutations.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMockStorage()
	llm := services.NewMockLLMAPI()
	srv := httptest.NewServer(handlers.NewRouter(handlers.Deps{
		Games:   gameplay.NewService(store, nil, nil, "runner-test", logger),
		Advisor: advisor.NewGateway(llm, store, nil, logger),
		Health:  store,
		Model:   llm.ModelName(),
		Logger:  logger,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func intPtr(i int) *int { return &i }

func TestLoadTestSuiteWithExpansion(t *testing.T) {
	jobs, err := LoadTestSuiteWithExpansion(filepath.Join(casesDir, "sequences", "smoke.json"), casesDir)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "upgrade_route", jobs[0].Name)
	assert.Equal(t, "unlock_zone", jobs[1].Name)
	assert.Equal(t, "suggestions", jobs[2].Name)

	jobs, err = LoadTestSuiteWithExpansion(filepath.Join(casesDir, "build_route.json"), casesDir)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.NotEmpty(t, jobs[0].Suite.Steps)

	_, err = LoadTestSuite(filepath.Join(casesDir, "missing.json"))
	assert.Error(t, err)
}

func TestRunSuite_Cases(t *testing.T) {
	srv := newTestServer(t)
	r := NewRunner(srv.URL)

	for _, name := range []string{"upgrade_route.json", "build_route.json", "unlock_zone.json", "suggestions.json"} {
		t.Run(name, func(t *testing.T) {
			suite, err := LoadTestSuite(filepath.Join(casesDir, name))
			require.NoError(t, err)

			result, err := r.RunSuite(context.Background(), suite)
			require.NoError(t, err)
			for _, sr := range result.Results {
				assert.True(t, sr.Success, "%s: %v", sr.StepName, sr.Error)
			}

			resp, err := http.Get(srv.URL + "/v1/games/" + result.GameID.String())
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, "game is deleted after the suite")
		})
	}
}

func TestRunSuite_ExactCurrency(t *testing.T) {
	srv := newTestServer(t)
	r := NewRunner(srv.URL)

	suite := TestSuite{
		Name: "upgrade from starting balance",
		Steps: []TestStep{
			{Action: ActionUpgrade, Route: "r1", Expectations: Expectations{
				Currency:      intPtr(500),
				CurrencyDelta: intPtr(-1500),
				IncomePerTick: intPtr(50),
			}},
			{Action: ActionUnlock, Zone: "B", Expectations: Expectations{
				Status: intPtr(http.StatusConflict),
				Code:   handlers.CodeInsufficientFunds,
			}},
		},
	}

	result, err := r.RunSuite(context.Background(), suite)
	require.NoError(t, err)
	require.Len(t, result.Results, 2)
}

func TestRunSuite_Failures(t *testing.T) {
	srv := newTestServer(t)

	suite := TestSuite{
		Name: "wrong expectations",
		Steps: []TestStep{
			{Name: "bad level", Action: ActionUpgrade, Route: "r1", Expectations: Expectations{RouteLevels: map[string]int{"r1": 5}}},
			{Name: "never runs", Action: ActionGet},
		},
	}

	t.Run("exit stops at first failure", func(t *testing.T) {
		r := NewRunner(srv.URL)
		r.ErrorHandlingMode = ErrorHandlingExit
		result, err := r.RunSuite(context.Background(), suite)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "route r1 level: expected 5, got 2")
		assert.Len(t, result.Results, 1)
	})

	t.Run("continue runs every step", func(t *testing.T) {
		r := NewRunner(srv.URL)
		result, err := r.RunSuite(context.Background(), suite)
		require.Error(t, err)
		require.Len(t, result.Results, 2)
		assert.False(t, result.Results[0].Success)
		assert.True(t, result.Results[1].Success)
	})

	t.Run("unknown action", func(t *testing.T) {
		r := NewRunner(srv.URL)
		_, err := r.RunSuite(context.Background(), TestSuite{Name: "x", Steps: []TestStep{{Action: "teleport"}}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown action "teleport"`)
	})

	t.Run("unexpected rejection", func(t *testing.T) {
		r := NewRunner(srv.URL)
		_, err := r.RunSuite(context.Background(), TestSuite{Name: "x", Steps: []TestStep{{Action: ActionBuild, From: "c1", To: "c1"}}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status: expected 200, got 400 (same_city)")
	})
}
