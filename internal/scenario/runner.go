package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/me/momtest/internal/execution"
	"github.com/me/momtest/internal/logging"
	"github.com/me/momtest/internal/store"
	"github.com/me/momtest/pkg/model"
)

// Harness runs one model run. *harness.Harness implements it.
type Harness interface {
	Run(ctx context.Context, modelType, exp string, res model.Resources, mode model.ExecMode) (*model.RunResult, error)
}

// Options configure a Runner.
type Options struct {
	Store        store.Store // Optional run history
	Platform     string      // Recorded with each run
	SkipDownload bool        // Force input provisioning off for every scenario
	Logger       *slog.Logger
}

// Runner executes scenarios and asserts their outcome.
type Runner struct {
	harness  Harness
	registry *Registry
	opts     Options
	logger   *slog.Logger
}

// NewRunner creates a Runner over registry.
func NewRunner(h Harness, registry *Registry, opts Options) *Runner {
	return &Runner{
		harness:  h,
		registry: registry,
		opts:     opts,
		logger:   logging.OrDiscard(opts.Logger).With("component", "scenario"),
	}
}

// Outcome is the result of checking one scenario.
type Outcome struct {
	Scenario model.Scenario
	Result   *model.RunResult // nil when the run never executed
	Err      error            // nil when the scenario passed
	RecordID string           // set when the outcome was stored
}

// Passed reports whether the scenario exited zero with the completion marker.
func (o Outcome) Passed() bool {
	return o.Err == nil
}

// Status classifies the outcome for the run history.
func (o Outcome) Status() model.RunStatus {
	var assertErr *AssertionError
	switch {
	case o.Err == nil:
		return model.RunStatusPassed
	case errors.As(o.Err, &assertErr):
		return model.RunStatusFailed
	default:
		return model.RunStatusErrored
	}
}

// Check runs the named scenario and asserts it completed. The returned
// error is nil on success, an *AssertionError when the run finished
// without success, or the harness error when it could not run. Unknown
// names fail before anything runs.
func (r *Runner) Check(ctx context.Context, name string, mode model.ExecMode) (Outcome, error) {
	sc, err := r.registry.Get(name)
	if err != nil {
		return Outcome{}, err
	}
	out := r.check(ctx, sc, mode)
	return out, out.Err
}

func (r *Runner) check(ctx context.Context, sc model.Scenario, mode model.ExecMode) Outcome {
	logger := r.logger.With("scenario", sc.Name, "mode", mode)
	logger.Info("running scenario", "model", sc.ModelType, "experiment", sc.Experiment)

	res := sc.Resources
	if r.opts.SkipDownload {
		res.SkipDownload = true
	}

	started := time.Now()
	result, err := r.harness.Run(ctx, sc.ModelType, sc.Experiment, res, mode)
	out := Outcome{Scenario: sc, Result: result}
	if err != nil {
		out.Err = fmt.Errorf("scenario %s: %w", sc.Name, err)
	} else {
		out.Err = Assert(sc, result)
	}

	if out.Passed() {
		logger.Info("scenario passed", "duration", time.Since(started).Round(time.Second))
	} else {
		logger.Warn("scenario did not pass", "status", out.Status(), "error", out.Err)
	}

	out.RecordID = r.record(ctx, out, mode, started)
	return out
}

// record stores the outcome. Storage failures are logged, never fatal.
func (r *Runner) record(ctx context.Context, out Outcome, mode model.ExecMode, started time.Time) string {
	if r.opts.Store == nil {
		return ""
	}
	rec := &model.RunRecord{
		ID:         store.NewRunID(),
		Scenario:   out.Scenario.Name,
		ModelType:  out.Scenario.ModelType,
		Experiment: out.Scenario.Experiment,
		Platform:   r.opts.Platform,
		Mode:       mode,
		Status:     out.Status(),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if out.Err != nil {
		rec.Message = out.Err.Error()
	}
	if out.Result != nil {
		code := out.Result.ExitCode
		rec.ExitCode = &code
		rec.JobName = out.Result.JobName
		rec.Files = out.Result.Files
		rec.StartedAt = out.Result.StartedAt
		rec.FinishedAt = out.Result.FinishedAt
	} else if out.Err != nil {
		var execErr *execution.ExecutionError
		if errors.As(out.Err, &execErr) && execErr.ExitCode != 0 {
			code := execErr.ExitCode
			rec.ExitCode = &code
		}
	}

	// Record even when ctx was cancelled mid-run.
	if err := r.opts.Store.RecordRun(context.WithoutCancel(ctx), rec); err != nil {
		r.logger.Warn("could not record run", "scenario", rec.Scenario, "error", err)
		return ""
	}
	return rec.ID
}

// Select resolves names to scenarios. With no names it returns the
// enabled scenarios.
func (r *Runner) Select(names []string) ([]model.Scenario, error) {
	if len(names) == 0 {
		return r.registry.Enabled(), nil
	}
	out := make([]model.Scenario, 0, len(names))
	for _, n := range names {
		sc, err := r.registry.Get(n)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// RunAll checks several scenarios, each failure isolated from the rest.
// With jobs > 1 up to jobs scenarios run at once; scenarios sharing an
// experiment are then rejected up front since they would share a work
// directory. Outcomes come back in selection order.
func (r *Runner) RunAll(ctx context.Context, names []string, mode model.ExecMode, jobs int) ([]Outcome, error) {
	scenarios, err := r.Select(names)
	if err != nil {
		return nil, err
	}
	if jobs > 1 {
		if err := checkExperimentsDistinct(scenarios); err != nil {
			return nil, err
		}
	} else {
		jobs = 1
	}

	outcomes := make([]Outcome, len(scenarios))
	g := new(errgroup.Group)
	g.SetLimit(jobs)
	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			outcomes[i] = r.check(ctx, sc, mode)
			return nil
		})
	}
	g.Wait()
	return outcomes, ctx.Err()
}

func checkExperimentsDistinct(scenarios []model.Scenario) error {
	owner := make(map[string]string, len(scenarios))
	for _, sc := range scenarios {
		if prev, ok := owner[sc.Experiment]; ok {
			return fmt.Errorf("scenarios %s and %s share experiment %s and cannot run concurrently", prev, sc.Name, sc.Experiment)
		}
		owner[sc.Experiment] = sc.Name
	}
	return nil
}

// Failed counts outcomes that did not pass.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.Passed() {
			n++
		}
	}
	return n
}
