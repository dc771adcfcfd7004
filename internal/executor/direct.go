package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/me/momtest/internal/execution"
	"github.com/me/momtest/internal/logging"
	"github.com/me/momtest/pkg/model"
)

// DirectExecutor runs the script as a local process, bypassing the queue.
// Stdout and stderr are combined into Result.Stdout.
type DirectExecutor struct {
	runtime execution.Runtime
	logger  *slog.Logger
}

// NewDirectExecutor creates a DirectExecutor.
func NewDirectExecutor(rt execution.Runtime, logger *slog.Logger) *DirectExecutor {
	return &DirectExecutor{
		runtime: rt,
		logger:  logging.OrDiscard(logger).With("component", "direct-executor"),
	}
}

// Mode returns model.ExecModeDirect.
func (e *DirectExecutor) Mode() model.ExecMode {
	return model.ExecModeDirect
}

// Execute runs job.Script and waits for it to exit.
func (e *DirectExecutor) Execute(ctx context.Context, job Job) (*Result, error) {
	e.logger.Info("running script directly", "job", job.Name, "script", job.Script)

	res, err := e.runtime.Run(ctx, execution.RunSpec{
		Command:       []string{job.Script},
		WorkDir:       job.Dir,
		CombineOutput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.Name, err)
	}

	e.logger.Debug("script finished", "job", job.Name, "exit_code", res.ExitCode)
	return &Result{ExitCode: res.ExitCode, Stdout: res.Stdout}, nil
}
