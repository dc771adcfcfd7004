package scenario

import (
	"fmt"
	"strings"

	"github.com/me/momtest/pkg/model"
)

// CompletionMarker is the line the run script prints when the model ran
// to its natural end.
func CompletionMarker(exp, modelType string) string {
	return fmt.Sprintf("NOTE: Natural end-of-script for experiment %s with model %s", exp, modelType)
}

// AssertionError reports a run that executed but did not succeed.
type AssertionError struct {
	Scenario string
	Check    string // "exit_code" or "completion_marker"
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("scenario %s: %s: expected %s, got %s", e.Scenario, e.Check, e.Expected, e.Actual)
}

// Assert checks that res is a successful run of sc: exit code zero and
// the completion marker somewhere in stdout.
func Assert(sc model.Scenario, res *model.RunResult) error {
	if res.ExitCode != 0 {
		return &AssertionError{
			Scenario: sc.Name,
			Check:    "exit_code",
			Expected: "0",
			Actual:   fmt.Sprint(res.ExitCode),
		}
	}
	marker := CompletionMarker(sc.Experiment, sc.ModelType)
	if !strings.Contains(res.Stdout, marker) {
		return &AssertionError{
			Scenario: sc.Name,
			Check:    "completion_marker",
			Expected: fmt.Sprintf("stdout containing %q", marker),
			Actual:   fmt.Sprintf("%d bytes without it", len(res.Stdout)),
		}
	}
	return nil
}
