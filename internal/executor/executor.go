package executor

import (
	"context"

	"github.com/me/momtest/pkg/model"
)

// Job is a rendered run script ready to execute.
type Job struct {
	Name       string // Batch job name, for logging
	Script     string // Path of the executable run script
	Dir        string // Directory the script runs from
	StdoutFile string // File the batch system writes stdout to
	StderrFile string // File the batch system writes stderr to
}

// Result is the outcome of executing a Job.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor is a pluggable way of running a Job.
type Executor interface {
	// Mode returns the execution mode this executor implements.
	Mode() model.ExecMode

	// Execute runs the job to completion and returns its exit code and
	// captured output. A non-zero exit is reported in Result, not as an error.
	Execute(ctx context.Context, job Job) (*Result, error)
}
