//go:build integration
// +build integration

package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/route-tycoon/integration/runner"
)

var caseFlag = flag.String("case", "", "Name of test case to run (from integration/cases/)")
var errFlag = flag.String("err", "continue", "Error handling mode: 'continue' (run all steps) or 'exit' (stop on first failure)")
var runsFlag = flag.Int("runs", 1, "Number of times to run each test suite")

func TestMain(m *testing.M) {
	fmt.Printf("Running Route Tycoon Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL())
	os.Exit(m.Run())
}

func TestIntegrationSuites(t *testing.T) {
	testRunner := newRunner(runner.ErrorHandlingContinue)

	// Sequences only reference other cases, so the top level is enough.
	testFiles, err := discoverTestFiles("cases")
	if err != nil {
		t.Fatalf("Failed to discover test files: %v", err)
	}
	if len(testFiles) == 0 {
		t.Fatal("No test files found in cases directory")
	}

	var jobs []runner.TestJob
	for _, file := range testFiles {
		expanded, err := runner.LoadTestSuiteWithExpansion(file, "cases")
		if err != nil {
			t.Errorf("Failed to load test suite %s: %v", file, err)
			continue
		}
		jobs = append(jobs, expanded...)
	}
	if len(jobs) == 0 {
		t.Fatal("No valid test suites loaded")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var failed []string
	for i, job := range jobs {
		t.Logf("[%d/%d] Starting test suite: %s (%d steps)", i+1, len(jobs), job.Name, len(job.Suite.Steps))
		result := runJob(ctx, testRunner, job)
		logSteps(t, result)
		if result.Error != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", job.Name, result.Error))
			t.Errorf("[%d/%d] FAILED: %s (game %s): %v", i+1, len(jobs), job.Name, result.GameID, result.Error)
			continue
		}
		t.Logf("[%d/%d] PASSED: %s completed in %v", i+1, len(jobs), job.Name, result.Duration)
	}

	t.Logf("Integration Test Summary: %d passed, %d failed", len(jobs)-len(failed), len(failed))
	if len(failed) > 0 {
		for _, f := range failed {
			t.Logf("   - %s", f)
		}
		t.Fatalf("Integration tests failed")
	}
}

// TestSingleSuite runs the cases named by -case, comma separated.
// Sequence files live under cases/sequences and are addressed as "sequences/name".
func TestSingleSuite(t *testing.T) {
	flag.Parse()
	if *caseFlag == "" {
		t.Skip("Skipping single suite test (use -case flag to run)")
	}
	if *errFlag != string(runner.ErrorHandlingExit) && *errFlag != string(runner.ErrorHandlingContinue) {
		t.Fatalf("Invalid -err flag value: %s (must be 'exit' or 'continue')", *errFlag)
	}
	runs := *runsFlag
	if runs < 1 {
		t.Fatalf("Number of runs must be >= 1, got: %d", runs)
	}

	var suiteFiles []string
	for _, name := range strings.Split(*caseFlag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !strings.HasSuffix(name, ".json") {
			name += ".json"
		}
		suiteFiles = append(suiteFiles, filepath.Join("cases", name))
	}
	if len(suiteFiles) == 0 {
		t.Fatalf("No valid test cases found in -case flag: %s", *caseFlag)
	}

	mode := runner.ErrorHandlingMode(*errFlag)
	if runs > 1 {
		mode = runner.ErrorHandlingContinue
	}
	testRunner := newRunner(mode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	stats := make(map[string]*caseStats)
	var failures []failureDetail
	for run := 1; run <= runs; run++ {
		if runs > 1 {
			t.Logf("=== RUN %d/%d ===", run, runs)
		}
		for _, file := range suiteFiles {
			jobs, err := runner.LoadTestSuiteWithExpansion(file, "cases")
			if err != nil {
				t.Fatalf("Failed to load test suite %s: %v", file, err)
			}
			for _, job := range jobs {
				result := runJob(ctx, testRunner, job)
				logSteps(t, result)

				s, ok := stats[job.Name]
				if !ok {
					s = &caseStats{}
					stats[job.Name] = s
				}
				if result.Error == nil {
					s.passes++
					continue
				}
				s.failures++
				for _, sr := range result.Results {
					if !sr.Success {
						failures = append(failures, failureDetail{caseName: job.Name, stepName: sr.StepName, error: sr.Error.Error(), run: run})
					}
				}
				t.Errorf("FAILED: %s (game %s): %v", job.Name, result.GameID, result.Error)
				if mode == runner.ErrorHandlingExit {
					t.FailNow()
				}
			}
		}
	}

	if len(failures) > 0 || runs > 1 {
		t.Log(buildReport(runs, stats, failures))
	}
}

type caseStats struct {
	passes, failures int
}

type failureDetail struct {
	caseName string
	stepName string
	error    string
	run      int
}

func runJob(ctx context.Context, r *runner.Runner, job runner.TestJob) runner.TestRunResult {
	result, err := r.RunSuite(ctx, job.Suite)
	if err != nil && result.Error == nil {
		result.Error = err
	}
	result.Job = job
	return result
}

func logSteps(t *testing.T, result runner.TestRunResult) {
	t.Helper()
	for _, sr := range result.Results {
		if sr.Success {
			t.Logf("   ✓ %s (%v)", sr.StepName, sr.Duration)
		} else {
			t.Logf("   ✗ %s: %v", sr.StepName, sr.Error)
		}
	}
}

func buildReport(runs int, stats map[string]*caseStats, failures []failureDetail) string {
	var sb strings.Builder
	sb.WriteString("\n=== RESULTS ===\n")

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := stats[name]
		total := s.passes + s.failures
		sb.WriteString(fmt.Sprintf("  %s: %d/%d passes\n", name, s.passes, total))
		if runs > 1 && s.passes > 0 && s.failures > 0 {
			sb.WriteString("    FLAKY: passed and failed across runs\n")
		}
	}

	if len(failures) > 0 {
		sb.WriteString("\nFailures:\n")
		for _, f := range failures {
			sb.WriteString(fmt.Sprintf("  ✗ %s / %s (run %d): %s\n", f.caseName, f.stepName, f.run, f.error))
		}
	}
	return sb.String()
}

func newRunner(mode runner.ErrorHandlingMode) *runner.Runner {
	r := runner.NewRunner(apiBaseURL())
	r.Timeout = time.Duration(getIntEnv("TEST_TIMEOUT_SECONDS", 30)) * time.Second
	r.ErrorHandlingMode = mode
	r.Logger = func(format string, args ...interface{}) {
		fmt.Printf(format+"\n", args...)
	}
	return r
}

func apiBaseURL() string {
	if u := os.Getenv("API_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func discoverTestFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

func getIntEnv(name string, defaultValue int) int {
	str := os.Getenv(name)
	if str == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultValue
	}
	return val
}
