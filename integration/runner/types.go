package runner

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/route-tycoon/pkg/state"
)

// Step actions.
const (
	ActionGet        = "get"
	ActionUpgrade    = "upgrade"
	ActionBuild      = "build"
	ActionUnlock     = "unlock"
	ActionSuggest    = "suggest"
	ActionWaitIncome = "wait_income"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name"`
	Steps []TestStep `json:"steps,omitempty"` // Used for regular tests
	Cases []string   `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one player action and its expected outcome.
type TestStep struct {
	Name   string `json:"name,omitempty"`
	Action string `json:"action"`

	Route string     `json:"route,omitempty"`
	From  string     `json:"from,omitempty"`
	To    string     `json:"to,omitempty"`
	Zone  state.Zone `json:"zone,omitempty"`

	// MinCurrency is the balance wait_income polls for.
	MinCurrency int `json:"min_currency,omitempty"`

	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes.
// Nil fields are not checked.
type Expectations struct {
	Status *int   `json:"status,omitempty"`
	Code   string `json:"code,omitempty"`

	Currency      *int           `json:"currency,omitempty"`
	CurrencyDelta *int           `json:"currency_delta,omitempty"`
	PlayerLevel   *int           `json:"player_level,omitempty"`
	RouteLevels   map[string]int `json:"route_levels,omitempty"`
	RouteCount    *int           `json:"route_count,omitempty"`
	UnlockedZones []state.Zone   `json:"unlocked_zones,omitempty"`
	IncomePerTick *int           `json:"income_per_tick,omitempty"`
	Won           *bool          `json:"won,omitempty"`

	MinSuggestions *int `json:"min_suggestions,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	GameID   uuid.UUID
}
