// Package provision makes sure an experiment's input archive is present
// and extracted before a run is submitted. Compute nodes may have no
// network access, so this must happen on the submitting host.
package provision

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/me/momtest/internal/execution"
	"github.com/me/momtest/internal/fileops"
	"github.com/me/momtest/internal/logging"
)

// Config locates the archives, the downloader and the work area.
type Config struct {
	DataDir    string // Directory the downloader runs from
	ArchiveDir string // Where downloaded archives land
	WorkDir    string // Extraction target
	Downloader string // Executable invoked with the archive filename
	Tar        string // Extraction utility
}

// Provisioner downloads and extracts experiment input archives.
type Provisioner struct {
	config  Config
	runtime execution.Runtime
	logger  *slog.Logger
	out     io.Writer
}

// New creates a Provisioner. Output of the downloader and tar goes to out
// (nil discards it).
func New(cfg Config, rt execution.Runtime, out io.Writer, logger *slog.Logger) *Provisioner {
	if cfg.Tar == "" {
		cfg.Tar = "/bin/tar"
	}
	return &Provisioner{
		config:  cfg,
		runtime: rt,
		out:     out,
		logger:  logging.OrDiscard(logger).With("component", "provision"),
	}
}

// ArchiveName returns the input archive filename for an experiment.
func ArchiveName(exp string) string {
	return exp + ".input.tar.gz"
}

// ArchivePath returns where the experiment archive is expected.
func (p *Provisioner) ArchivePath(exp string) string {
	return filepath.Join(p.config.ArchiveDir, ArchiveName(exp))
}

// ExperimentDir returns the extracted experiment directory.
func (p *Provisioner) ExperimentDir(exp string) string {
	return filepath.Join(p.config.WorkDir, exp)
}

// Ensure downloads the archive for exp if absent and extracts it into the
// work directory if not yet extracted. Repeated calls are no-ops once both
// are in place. A non-zero exit from the downloader or tar is returned as
// an *execution.ExecutionError carrying the exit code.
func (p *Provisioner) Ensure(ctx context.Context, exp string) error {
	filename := ArchiveName(exp)
	archive := p.ArchivePath(exp)

	if !fileops.Exists(archive) {
		p.logger.Info("downloading input data", "experiment", exp, "archive", filename)
		if err := p.run(ctx, execution.PhaseDownload, p.config.DataDir, p.config.Downloader, filename); err != nil {
			return err
		}
		if !fileops.Exists(archive) {
			return &execution.ExecutionError{
				Phase: execution.PhaseDownload,
				Err:   fmt.Errorf("%w: %s", execution.ErrArchiveMissing, archive),
			}
		}
	}
	if info, err := os.Stat(archive); err == nil {
		p.logger.Debug("input archive present", "archive", archive, "size", humanize.Bytes(uint64(info.Size())))
	}

	if err := os.MkdirAll(p.config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}

	workCopy := filepath.Join(p.config.WorkDir, filename)
	if !fileops.Exists(workCopy) {
		if err := fileops.CopyFile(archive, workCopy); err != nil {
			return fmt.Errorf("copy %s to work dir: %w", filename, err)
		}
	}

	if !fileops.Exists(p.ExperimentDir(exp)) {
		p.logger.Info("extracting input data", "experiment", exp, "work_dir", p.config.WorkDir)
		if err := p.run(ctx, execution.PhaseExtract, "", p.config.Tar, "-C", p.config.WorkDir, "-xvf", archive); err != nil {
			return err
		}
	}

	return nil
}

func (p *Provisioner) run(ctx context.Context, phase, dir string, command ...string) error {
	res, err := p.runtime.Run(ctx, execution.RunSpec{
		Command: command,
		WorkDir: dir,
		Stdout:  p.out,
		Stderr:  p.out,
	})
	if err != nil {
		return &execution.ExecutionError{Phase: phase, Err: err}
	}
	if res.ExitCode != 0 {
		return &execution.ExecutionError{Phase: phase, Err: execution.ErrNonZeroExit, ExitCode: res.ExitCode}
	}
	return nil
}
