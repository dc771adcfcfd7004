package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/me/momtest/internal/drain"
	"github.com/me/momtest/internal/execution"
	"github.com/me/momtest/internal/logging"
	"github.com/me/momtest/pkg/model"
)

// QsubExecutor submits the script to PBS. The script carries
// "#PBS -W block=true", so qsub returns only when the job has finished.
// Job output arrives in the files named by -o/-e, which are then drained.
type QsubExecutor struct {
	runtime execution.Runtime
	qsub    string
	drainer *drain.Drainer
	logger  *slog.Logger
}

// NewQsubExecutor creates a QsubExecutor. qsub is the submission command.
func NewQsubExecutor(rt execution.Runtime, qsub string, d *drain.Drainer, logger *slog.Logger) *QsubExecutor {
	if qsub == "" {
		qsub = "qsub"
	}
	return &QsubExecutor{
		runtime: rt,
		qsub:    qsub,
		drainer: d,
		logger:  logging.OrDiscard(logger).With("component", "qsub-executor"),
	}
}

// Mode returns model.ExecModeQsub.
func (e *QsubExecutor) Mode() model.ExecMode {
	return model.ExecModeQsub
}

// Execute submits job.Script and blocks until qsub returns, then collects
// the job's stdout and stderr. The exit code is qsub's.
func (e *QsubExecutor) Execute(ctx context.Context, job Job) (*Result, error) {
	e.logger.Info("submitting job", "job", job.Name, "script", job.Script)

	res, err := e.runtime.Run(ctx, execution.RunSpec{
		Command: []string{e.qsub, job.Script},
		WorkDir: job.Dir,
	})
	if err != nil {
		return nil, fmt.Errorf("job %s: submit: %w", job.Name, err)
	}
	if id := strings.TrimSpace(res.Stdout); id != "" {
		e.logger.Info("qsub returned", "job", job.Name, "pbs_id", id, "exit_code", res.ExitCode)
	}
	if res.ExitCode != 0 {
		e.logger.Warn("qsub failed", "job", job.Name, "exit_code", res.ExitCode, "stderr", strings.TrimSpace(res.Stderr))
	}

	stdout, err := openOptional(job.StdoutFile)
	if err != nil {
		return nil, fmt.Errorf("job %s: open stdout: %w", job.Name, err)
	}
	if stdout != nil {
		defer stdout.Close()
	}
	stderr, err := openOptional(job.StderrFile)
	if err != nil {
		return nil, fmt.Errorf("job %s: open stderr: %w", job.Name, err)
	}
	if stderr != nil {
		defer stderr.Close()
	}

	out, err := e.drainer.Drain(ctx, readerOrNil(stdout), readerOrNil(stderr))
	if err != nil {
		return nil, fmt.Errorf("job %s: collect output: %w", job.Name, err)
	}

	return &Result{ExitCode: res.ExitCode, Stdout: out.Stdout, Stderr: out.Stderr}, nil
}

// openOptional opens path for reading. A missing file yields nil so the
// drain treats the stream as empty.
func openOptional(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return f, err
}

// readerOrNil avoids handing the drain a non-nil io.Reader wrapping a nil
// *os.File.
func readerOrNil(f *os.File) io.Reader {
	if f == nil {
		return nil
	}
	return f
}
