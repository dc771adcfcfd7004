package execution

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrNonZeroExit    = errors.New("command exited with non-zero status")
	ErrEmptyCommand   = errors.New("empty command")
	ErrArchiveMissing = errors.New("input archive missing after download")
)

// Phases reported by ExecutionError.
const (
	PhaseDownload = "download"
	PhaseExtract  = "extract"
	PhaseRender   = "render"
	PhaseSubmit   = "submit"
	PhaseCollect  = "collect"
)

// ExecutionError wraps errors with the phase of the run that failed.
type ExecutionError struct {
	Phase    string
	Err      error
	ExitCode int
}

func (e *ExecutionError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("%s: %v (exit code %d)", e.Phase, e.Err, e.ExitCode)
	}
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ExitCodeOf returns the exit code carried by err, or 1 when err is
// non-nil but carries none.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) && execErr.ExitCode != 0 {
		return execErr.ExitCode
	}
	return 1
}
