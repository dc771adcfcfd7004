// Package drain collects the stdout and stderr a batch job leaves behind.
//
// PBS copies a job's output files into place some time after qsub
// returns, and nothing signals when that copy is complete. Drainer polls
// both files and gives up after a run of empty polls. Output paused for
// longer than PollInterval*(IdleLimit+1) is silently truncated; this is a
// known limitation of the heuristic, not a reported error.
package drain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/me/momtest/internal/logging"
)

// Config holds drain tuning.
type Config struct {
	PollInterval time.Duration // Sleep between polls
	IdleLimit    int           // Stop once consecutive empty polls exceed this
	ChunkSize    int           // Max bytes read from each stream per poll
}

// DefaultConfig returns the empirically chosen defaults: 2s between polls,
// stop after 11 consecutive empty polls, 1 MiB reads.
func DefaultConfig() Config {
	return Config{
		PollInterval: 2 * time.Second,
		IdleLimit:    10,
		ChunkSize:    1024 * 1024,
	}
}

// Result is the accumulated output of a drain.
type Result struct {
	Stdout string
	Stderr string
	Polls  int
}

// Drainer polls a pair of readers until both go quiet.
type Drainer struct {
	config Config
	logger *slog.Logger
}

// New creates a Drainer. Zero fields in cfg take their defaults.
func New(cfg Config, logger *slog.Logger) *Drainer {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.IdleLimit < 0 {
		cfg.IdleLimit = def.IdleLimit
	}
	return &Drainer{
		config: cfg,
		logger: logging.OrDiscard(logger).With("component", "drain"),
	}
}

// Config returns the effective configuration.
func (d *Drainer) Config() Config {
	return d.config
}

// Drain reads stdout and stderr until IdleLimit+1 consecutive polls return
// nothing from either. io.EOF counts as an empty read, so regular files
// that are still being appended to work as inputs. A nil reader is always
// empty. Readers must not block when no data is available.
//
// On context cancellation the output collected so far is returned with
// the context error.
func (d *Drainer) Drain(ctx context.Context, stdout, stderr io.Reader) (Result, error) {
	var outBuf, errBuf bytes.Buffer
	chunk := make([]byte, d.config.ChunkSize)
	idle := 0
	polls := 0

	result := func() Result {
		return Result{Stdout: outBuf.String(), Stderr: errBuf.String(), Polls: polls}
	}

	for {
		polls++
		no, err := readChunk(stdout, chunk, &outBuf)
		if err != nil {
			return result(), fmt.Errorf("drain stdout: %w", err)
		}
		ne, err := readChunk(stderr, chunk, &errBuf)
		if err != nil {
			return result(), fmt.Errorf("drain stderr: %w", err)
		}

		if no == 0 && ne == 0 {
			idle++
		} else {
			idle = 0
		}

		if idle > d.config.IdleLimit {
			d.logger.Debug("output drained",
				"polls", polls,
				"stdout_bytes", outBuf.Len(),
				"stderr_bytes", errBuf.Len(),
			)
			return result(), nil
		}

		timer := time.NewTimer(d.config.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result(), ctx.Err()
		case <-timer.C:
		}
	}
}

// readChunk performs one bounded read from r into dst.
func readChunk(r io.Reader, chunk []byte, dst *bytes.Buffer) (int, error) {
	if r == nil {
		return 0, nil
	}
	n, err := r.Read(chunk)
	if n > 0 {
		dst.Write(chunk[:n])
	}
	if err != nil && err != io.EOF {
		return n, err
	}
	return n, nil
}
