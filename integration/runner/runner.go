package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/route-tycoon/internal/handlers"
	"github.com/jwebster45206/route-tycoon/pkg/state"
	"github.com/jwebster45206/route-tycoon/pkg/suggest"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running route-tycoon API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	PollInterval      time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		PollInterval:      500 * time.Millisecond,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		subJobs, err := LoadTestSuiteWithExpansion(filepath.Join(casesDir, caseFile), casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}
		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite creates a fresh game, executes every step against it and deletes it.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job:     TestJob{Name: suite.Name, Suite: suite},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	var created handlers.GameResponse
	if _, err := r.call(ctx, http.MethodPost, "/v1/games", nil, &created); err != nil {
		result.Error = fmt.Errorf("failed to create game: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.GameID = created.Game.ID
	defer func() {
		if _, err := r.call(context.WithoutCancel(ctx), http.MethodDelete, "/v1/games/"+result.GameID.String(), nil, nil); err != nil {
			r.Logger("    failed to delete game %s: %v", result.GameID, err)
		}
	}()

	prev := created.Game
	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult, post := r.runStep(ctx, result.GameID, step, prev)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)
		if post != nil {
			prev = post
		}

		if !stepResult.Success && r.ErrorHandlingMode == ErrorHandlingExit {
			result.Error = fmt.Errorf("step %d (%s) failed: %w", i+1, step.Name, stepResult.Error)
			break
		}
	}

	if result.Error == nil {
		for _, sr := range result.Results {
			if !sr.Success {
				result.Error = fmt.Errorf("step '%s' failed: %w", sr.StepName, sr.Error)
				break
			}
		}
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// stepResponse is the union of the bodies an action can return.
type stepResponse struct {
	status      int
	code        string
	game        *state.GameState
	income      *int
	suggestions *suggest.Result
}

func (r *Runner) runStep(ctx context.Context, id uuid.UUID, step TestStep, prev *state.GameState) (TestResult, *state.GameState) {
	start := time.Now()
	res := TestResult{StepName: step.Name}
	if res.StepName == "" {
		res.StepName = step.Action
	}

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	resp, err := r.executeStep(stepCtx, id, step)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res, nil
	}

	if err := checkExpectations(step.Expectations, prev, resp); err != nil {
		res.Error = err
		return res, resp.game
	}
	res.Success = true
	return res, resp.game
}

func (r *Runner) executeStep(ctx context.Context, id uuid.UUID, step TestStep) (*stepResponse, error) {
	base := "/v1/games/" + id.String()
	switch step.Action {
	case ActionGet:
		return r.mutation(ctx, http.MethodGet, base, nil)
	case ActionUpgrade:
		return r.mutation(ctx, http.MethodPost, base+"/routes/"+step.Route+"/upgrade", nil)
	case ActionBuild:
		return r.mutation(ctx, http.MethodPost, base+"/routes", handlers.BuildRouteRequest{From: step.From, To: step.To})
	case ActionUnlock:
		return r.mutation(ctx, http.MethodPost, base+"/zones/"+string(step.Zone)+"/unlock", nil)
	case ActionSuggest:
		var res suggest.Result
		out := &stepResponse{}
		status, err := r.call(ctx, http.MethodPost, base+"/suggestions", handlers.SuggestionRequest{}, &res)
		out.status = status
		if err != nil {
			return fillError(out, err)
		}
		out.suggestions = &res
		return out, nil
	case ActionWaitIncome:
		return r.waitIncome(ctx, base, step.MinCurrency)
	default:
		return nil, fmt.Errorf("unknown action %q", step.Action)
	}
}

// mutation runs a request whose success body carries the game.
func (r *Runner) mutation(ctx context.Context, method, path string, body interface{}) (*stepResponse, error) {
	var payload struct {
		Game          *state.GameState `json:"game"`
		IncomePerTick int              `json:"incomePerTick"`
	}
	out := &stepResponse{}
	status, err := r.call(ctx, method, path, body, &payload)
	out.status = status
	if err != nil {
		return fillError(out, err)
	}
	out.game = payload.Game
	out.income = &payload.IncomePerTick
	return out, nil
}

// waitIncome polls the game until the income ticker has raised the balance.
func (r *Runner) waitIncome(ctx context.Context, base string, minCurrency int) (*stepResponse, error) {
	ticker := time.NewTicker(r.PollInterval)
	defer ticker.Stop()
	for {
		resp, err := r.mutation(ctx, http.MethodGet, base, nil)
		if err != nil {
			return nil, err
		}
		if resp.game != nil && resp.game.Player.Currency >= minCurrency {
			return resp, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("currency did not reach %d: %w", minCurrency, ctx.Err())
		case <-ticker.C:
		}
	}
}

// apiError is a non-2xx response. Steps may expect it.
type apiError struct {
	status int
	code   string
	msg    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API returned %d %s: %s", e.status, e.code, e.msg)
}

// fillError turns an API rejection into a response the step can assert on.
func fillError(out *stepResponse, err error) (*stepResponse, error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		out.status = apiErr.status
		out.code = apiErr.code
		return out, nil
	}
	return nil, err
}

func (r *Runner) call(ctx context.Context, method, path string, body interface{}, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var errResp handlers.ErrorResponse
		_ = json.Unmarshal(data, &errResp)
		return resp.StatusCode, &apiError{status: resp.StatusCode, code: errResp.Code, msg: errResp.Error}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func checkExpectations(exp Expectations, prev *state.GameState, resp *stepResponse) error {
	var failures []string
	fail := func(format string, args ...interface{}) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	wantStatus := http.StatusOK
	if exp.Status != nil {
		wantStatus = *exp.Status
	}
	if resp.status != wantStatus && !(exp.Status == nil && resp.status == http.StatusCreated) {
		fail("status: expected %d, got %d (%s)", wantStatus, resp.status, resp.code)
	}
	if exp.Code != "" && resp.code != exp.Code {
		fail("code: expected %q, got %q", exp.Code, resp.code)
	}

	if gs := resp.game; gs != nil {
		if exp.Currency != nil && gs.Player.Currency != *exp.Currency {
			fail("currency: expected %d, got %d", *exp.Currency, gs.Player.Currency)
		}
		if exp.CurrencyDelta != nil && prev != nil {
			if delta := gs.Player.Currency - prev.Player.Currency; delta != *exp.CurrencyDelta {
				fail("currency delta: expected %d, got %d", *exp.CurrencyDelta, delta)
			}
		}
		if exp.PlayerLevel != nil && gs.Player.Level != *exp.PlayerLevel {
			fail("player level: expected %d, got %d", *exp.PlayerLevel, gs.Player.Level)
		}
		for id, level := range exp.RouteLevels {
			r, ok := gs.Route(id)
			if !ok {
				fail("route %s: not found", id)
			} else if r.Level != level {
				fail("route %s level: expected %d, got %d", id, level, r.Level)
			}
		}
		if exp.RouteCount != nil && len(gs.Routes) != *exp.RouteCount {
			fail("route count: expected %d, got %d", *exp.RouteCount, len(gs.Routes))
		}
		for _, z := range exp.UnlockedZones {
			if !gs.ZoneUnlocked(z) {
				fail("zone %s: expected unlocked", z)
			}
		}
		if exp.Won != nil && gs.Won != *exp.Won {
			fail("won: expected %t, got %t", *exp.Won, gs.Won)
		}
	} else if exp.Currency != nil || exp.RouteLevels != nil || exp.RouteCount != nil || exp.PlayerLevel != nil {
		fail("expected a game in the response")
	}

	if exp.IncomePerTick != nil {
		if resp.income == nil {
			fail("income: no income in response")
		} else if *resp.income != *exp.IncomePerTick {
			fail("income: expected %d, got %d", *exp.IncomePerTick, *resp.income)
		}
	}

	if exp.MinSuggestions != nil {
		n := 0
		if resp.suggestions != nil {
			n = len(resp.suggestions.Suggestions)
		}
		if n < *exp.MinSuggestions {
			fail("suggestions: expected at least %d, got %d", *exp.MinSuggestions, n)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("%s", strings.Join(failures, "; "))
	}
	return nil
}
