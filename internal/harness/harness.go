// Package harness drives one model run end to end: input provisioning,
// run-script rendering, submission or direct execution, output collection
// and relocation of the run artifacts into the experiment work directory.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/me/momtest/internal/config"
	"github.com/me/momtest/internal/drain"
	"github.com/me/momtest/internal/execution"
	"github.com/me/momtest/internal/executor"
	"github.com/me/momtest/internal/fileops"
	"github.com/me/momtest/internal/logging"
	"github.com/me/momtest/internal/platform"
	"github.com/me/momtest/internal/provision"
	"github.com/me/momtest/internal/runscript"
	"github.com/me/momtest/pkg/model"
)

// Names of the artifacts left in <work>/<exp> after every run.
const (
	StdoutName = "fms.out"
	StderrName = "fms.err"
	ScriptName = "run.sh"
)

// Options carries the collaborators of a Harness. Zero values select the
// real implementations.
type Options struct {
	Runtime   execution.Runtime  // Runs downloader, tar, compile script and qsub
	Executors *executor.Registry // Defaults to qsub and direct executors over Runtime
	Stdout    io.Writer          // Receives build and provisioning output
	Stderr    io.Writer
	Logger    *slog.Logger
}

// Harness runs models for one platform. It holds no per-run state, but
// two runs of the same experiment must not overlap: they share the
// experiment work directory.
type Harness struct {
	config      config.HarnessConfig
	profile     platform.Profile
	runtime     execution.Runtime
	executors   *executor.Registry
	provisioner *provision.Provisioner
	stdout      io.Writer
	stderr      io.Writer
	logger      *slog.Logger
}

// New creates a Harness. cfg must already be resolved.
func New(cfg config.HarnessConfig, profile platform.Profile, opts Options) *Harness {
	logger := logging.OrDiscard(opts.Logger).With("component", "harness", "platform", profile.Name)

	rt := opts.Runtime
	if rt == nil {
		rt = execution.NewLocalRuntime()
	}
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	reg := opts.Executors
	if reg == nil {
		reg = executor.NewRegistry(logger)
		d := drain.New(drain.Config{PollInterval: cfg.PollInterval, IdleLimit: cfg.IdleLimit}, logger)
		reg.Register(executor.NewQsubExecutor(rt, cfg.Qsub, d, logger))
		reg.Register(executor.NewDirectExecutor(rt, logger))
	}

	prov := provision.New(provision.Config{
		DataDir:    cfg.DataDir,
		ArchiveDir: cfg.ArchiveDir,
		WorkDir:    cfg.WorkDir,
		Downloader: cfg.Downloader,
		Tar:        cfg.Tar,
	}, rt, stdout, logger)

	return &Harness{
		config:      cfg,
		profile:     profile,
		runtime:     rt,
		executors:   reg,
		provisioner: prov,
		stdout:      stdout,
		stderr:      stderr,
		logger:      logger,
	}
}

// ProvisionInput makes sure the input archive for exp is downloaded and
// extracted. See provision.Provisioner.Ensure.
func (h *Harness) ProvisionInput(ctx context.Context, exp string) error {
	return h.provisioner.Ensure(ctx, exp)
}

// RenderScript renders the run script for a run without executing it.
// The stdout/stderr paths are the ones the script will name.
func (h *Harness) RenderScript(modelType, exp string, res model.Resources, stdoutFile, stderrFile string) (string, error) {
	params := runscript.NewParams(h.profile, modelType, exp, res, stdoutFile, stderrFile)
	script, err := runscript.Render(h.profile, params)
	if err != nil {
		return "", &execution.ExecutionError{Phase: execution.PhaseRender, Err: err}
	}
	return script, nil
}

// Run executes one model run and blocks until it has finished.
//
// Provisioning failures abort before anything is submitted and are
// returned as errors carrying the failing exit code. A run script or qsub
// that exits non-zero is not an error: its code is in the result.
// Captured stdout, stderr and the script end up in <work>/<exp> as
// fms.out, fms.err and run.sh.
func (h *Harness) Run(ctx context.Context, modelType, exp string, res model.Resources, mode model.ExecMode) (*model.RunResult, error) {
	started := time.Now()
	logger := h.logger.With("model", modelType, "experiment", exp, "mode", mode)

	ex, err := h.executors.Get(mode)
	if err != nil {
		return nil, err
	}

	if !res.SkipDownload {
		if err := h.ProvisionInput(ctx, exp); err != nil {
			logger.Error("could not provision input data", "error", err)
			return nil, fmt.Errorf("provision input for %s: %w", exp, err)
		}
	}

	stdoutFile, err := tempFile(h.config.ExpDir, "fms-*.out")
	if err != nil {
		return nil, err
	}
	stderrFile, err := tempFile(h.config.ExpDir, "fms-*.err")
	if err != nil {
		removeFiles(stdoutFile)
		return nil, err
	}

	script, err := h.RenderScript(modelType, exp, res, stdoutFile, stderrFile)
	if err != nil {
		removeFiles(stdoutFile, stderrFile)
		return nil, err
	}
	scriptFile, err := runscript.WriteTemp(h.config.ExpDir, script)
	if err != nil {
		removeFiles(stdoutFile, stderrFile)
		return nil, &execution.ExecutionError{Phase: execution.PhaseRender, Err: err}
	}
	jobName := runscript.JobName(exp)
	logger.Debug("run script rendered", "path", scriptFile, "script", script)

	out, err := ex.Execute(ctx, executor.Job{
		Name:       jobName,
		Script:     scriptFile,
		Dir:        h.config.ExpDir,
		StdoutFile: stdoutFile,
		StderrFile: stderrFile,
	})
	if err != nil {
		logger.Error("run failed to execute", "error", err, "script", scriptFile)
		removeFiles(stdoutFile, stderrFile, scriptFile)
		return nil, &execution.ExecutionError{Phase: execution.PhaseSubmit, Err: err}
	}

	files, err := h.collect(exp, out, stdoutFile, stderrFile, scriptFile)
	if err != nil {
		return nil, &execution.ExecutionError{Phase: execution.PhaseCollect, Err: err}
	}

	result := &model.RunResult{
		ExitCode:   out.ExitCode,
		Stdout:     out.Stdout,
		Stderr:     out.Stderr,
		Mode:       mode,
		JobName:    jobName,
		Files:      files,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	logger.Info("run finished", "exit_code", result.ExitCode, "duration", result.Duration().Round(time.Millisecond))
	return result, nil
}

// collect writes the captured output over the temp files and moves them,
// with the script, into the experiment work directory.
func (h *Harness) collect(exp string, out *executor.Result, stdoutFile, stderrFile, scriptFile string) (model.OutputFiles, error) {
	if err := os.WriteFile(stdoutFile, []byte(out.Stdout), 0o644); err != nil {
		return model.OutputFiles{}, fmt.Errorf("write stdout: %w", err)
	}
	if err := os.WriteFile(stderrFile, []byte(out.Stderr), 0o644); err != nil {
		return model.OutputFiles{}, fmt.Errorf("write stderr: %w", err)
	}

	dest := filepath.Join(h.config.WorkDir, exp)
	files := model.OutputFiles{
		Stdout: filepath.Join(dest, StdoutName),
		Stderr: filepath.Join(dest, StderrName),
		Script: filepath.Join(dest, ScriptName),
	}
	moves := []struct{ src, dst string }{
		{stdoutFile, files.Stdout},
		{stderrFile, files.Stderr},
		{scriptFile, files.Script},
	}
	for _, m := range moves {
		if err := fileops.MoveFile(m.src, m.dst); err != nil {
			return model.OutputFiles{}, err
		}
	}
	return files, nil
}

// Build runs the platform compile script for modelType from the exp dir
// and returns its exit code unchanged.
func (h *Harness) Build(ctx context.Context, modelType string, unitTesting bool) (int, error) {
	cmd := []string{h.profile.CompileScript, "--platform", h.profile.Name, "--type", modelType}
	if unitTesting {
		cmd = append(cmd, "--unit_testing")
	}
	h.logger.Info("building model", "model", modelType, "unit_testing", unitTesting)

	res, err := h.runtime.Run(ctx, execution.RunSpec{
		Command: cmd,
		WorkDir: h.config.ExpDir,
		Stdout:  h.stdout,
		Stderr:  h.stderr,
	})
	if err != nil {
		return -1, fmt.Errorf("build %s: %w", modelType, err)
	}
	if res.ExitCode != 0 {
		h.logger.Warn("build failed", "model", modelType, "exit_code", res.ExitCode)
	}
	return res.ExitCode, nil
}

// removeFiles deletes the per-run temp files of a run that did not finish.
func removeFiles(paths ...string) {
	for _, p := range paths {
		os.Remove(p)
	}
}

// tempFile creates an empty, uniquely named file in dir and returns its path.
func tempFile(dir, pattern string) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
