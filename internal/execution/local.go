package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the process
// group has been killed.
const waitDelay = 2 * time.Second

// LocalRuntime executes commands as local processes.
type LocalRuntime struct{}

// NewLocalRuntime creates a LocalRuntime.
func NewLocalRuntime() *LocalRuntime {
	return &LocalRuntime{}
}

// Run executes a command locally and waits for it to exit. Output is
// read until both streams close, so nothing written before exit is lost.
// The command runs in its own process group; cancelling ctx kills the
// whole group and Run returns ctx.Err().
func (r *LocalRuntime) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	if len(spec.Command) == 0 {
		return nil, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.WorkDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	if len(spec.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range spec.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	stdout := tee(&stdoutBuf, spec.Stdout)
	cmd.Stdout = stdout
	if spec.CombineOutput {
		// Same writer value: exec serializes writes from both streams.
		cmd.Stderr = stdout
	} else {
		cmd.Stderr = tee(&stderrBuf, spec.Stderr)
	}

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("run %s: %w", spec.Command[0], ctxErr)
	}
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("run %s: %w", spec.Command[0], err)
		}
		exitCode = exitErr.ExitCode()
	}

	return &RunResult{
		ExitCode: exitCode,
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
	}, nil
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}
