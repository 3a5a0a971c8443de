package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/spindle-dev/spindle/internal/runtime"
)

// TraceSnapshot is the serialized form compared against golden files.
// The endpoint identifier is deliberately absent: it is a fresh UUID
// per run and would break byte comparison.
type TraceSnapshot struct {
	ScenarioName   string          `json:"scenario_name"`
	Events         []runtime.Event `json:"events"`
	DispatchErrors []string        `json:"dispatch_errors,omitempty"`
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// Regenerate golden files with:
//
//	go test ./... -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already-obtained result against the
// scenario's golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName:   scenarioName,
		Events:         result.Events,
		DispatchErrors: result.DispatchErrors,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
