package model

import "fmt"

// ExecMode selects how a rendered run script is executed.
type ExecMode string

const (
	// ExecModeQsub submits the script to the PBS queue and blocks until the job ends.
	ExecModeQsub ExecMode = "qsub"
	// ExecModeDirect runs the script as a local process.
	ExecModeDirect ExecMode = "direct"
)

// String returns the string representation of the mode.
func (m ExecMode) String() string {
	return string(m)
}

// ModeFor maps the qsub flag of a run request to an ExecMode.
func ModeFor(qsub bool) ExecMode {
	if qsub {
		return ExecModeQsub
	}
	return ExecModeDirect
}

// ParseExecMode converts a user supplied string to an ExecMode.
func ParseExecMode(s string) (ExecMode, error) {
	switch ExecMode(s) {
	case ExecModeQsub, ExecModeDirect:
		return ExecMode(s), nil
	}
	return "", fmt.Errorf("unknown exec mode %q (want %q or %q)", s, ExecModeQsub, ExecModeDirect)
}

// RunStatus is the recorded outcome of a scenario run.
type RunStatus string

const (
	RunStatusPassed  RunStatus = "PASSED"
	RunStatusFailed  RunStatus = "FAILED"
	RunStatusErrored RunStatus = "ERRORED"
)

// String returns the string representation of the status.
func (s RunStatus) String() string {
	return string(s)
}
