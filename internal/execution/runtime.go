package execution

import (
	"context"
	"io"
)

// Runtime abstracts how an external command is run so that the harness
// can be exercised without a batch system or model scripts.
type Runtime interface {
	// Run executes a command and returns the result. A command that ran
	// and exited non-zero is not an error; its code is in the result.
	Run(ctx context.Context, spec RunSpec) (*RunResult, error)
}

// RunSpec describes what to execute.
type RunSpec struct {
	Command []string          // Command and arguments
	WorkDir string            // Working directory (empty inherits the caller's)
	Env     map[string]string // Extra environment variables

	// Stdout and Stderr, when set, receive the output as it is produced
	// in addition to the captured copy in RunResult.
	Stdout io.Writer
	Stderr io.Writer

	// CombineOutput interleaves stderr into the stdout capture.
	// RunResult.Stderr is then empty.
	CombineOutput bool
}

// RunResult holds the result of a command execution.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}
