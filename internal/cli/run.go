package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/me/momtest/internal/scenario"
	"github.com/me/momtest/pkg/model"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var qsub, all, noDownload bool
	var jobs int
	var mode string

	cmd := &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run scenarios and check they reach their natural end",
		Long: `Runs each named scenario (or every enabled one with --all) through the
harness and checks that it exited 0 and printed the completion marker.
Exits non-zero if any scenario did not pass.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case all && len(args) > 0:
				return errors.New("--all runs every enabled scenario; do not also name scenarios")
			case !all && len(args) == 0:
				return errors.New("no scenarios given; name at least one or use --all")
			}
			execMode, err := runMode(cmd, mode, qsub)
			if err != nil {
				return err
			}
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			st, err := openStore(ctx, e.cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			runner := scenario.NewRunner(e.harness, e.registry, scenario.Options{
				Store:        st,
				Platform:     e.profile.Name,
				SkipDownload: noDownload,
				Logger:       logger,
			})

			outcomes, err := runner.RunAll(ctx, args, execMode, jobs)
			if err != nil && len(outcomes) == 0 {
				return err
			}

			out := cmd.OutOrStdout()
			for _, o := range outcomes {
				printOutcome(out, o)
			}

			failed := scenario.Failed(outcomes)
			fmt.Fprintf(out, "\n%d passed, %d failed\n", len(outcomes)-failed, failed)
			if err != nil {
				return err
			}
			if failed > 0 {
				return &ExitError{Code: 1, Msg: fmt.Sprintf("%d of %d scenarios failed", failed, len(outcomes))}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&qsub, "qsub", false, "Submit through qsub instead of running the script directly (same as --mode qsub)")
	cmd.Flags().StringVar(&mode, "mode", string(model.ExecModeDirect), "Execution mode (direct, qsub)")
	cmd.Flags().BoolVar(&all, "all", false, "Run every enabled scenario")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 1, "Scenarios to run at once")
	cmd.Flags().BoolVar(&noDownload, "no-download", false, "Skip input download and extraction")

	return cmd
}

// runMode resolves --mode and its --qsub shorthand.
func runMode(cmd *cobra.Command, mode string, qsub bool) (model.ExecMode, error) {
	if !cmd.Flags().Changed("mode") {
		return model.ModeFor(qsub), nil
	}
	m, err := model.ParseExecMode(mode)
	if err != nil {
		return "", err
	}
	if qsub && m != model.ExecModeQsub {
		return "", fmt.Errorf("--qsub conflicts with --mode %s", m)
	}
	return m, nil
}

func printOutcome(w io.Writer, o scenario.Outcome) {
	sc := o.Scenario
	fmt.Fprintf(w, "=== %s (%s/%s)\n", sc.Name, sc.ModelType, sc.Experiment)
	if r := o.Result; r != nil {
		if r.Stdout != "" {
			fmt.Fprint(w, r.Stdout)
		}
		if r.Stderr != "" {
			fmt.Fprintln(w, "--- stderr")
			fmt.Fprint(w, r.Stderr)
		}
	}
	if o.Passed() {
		fmt.Fprintf(w, "--- PASS %s (%s)\n", sc.Name, humanize.RelTime(o.Result.StartedAt, o.Result.FinishedAt, "", ""))
		return
	}
	fmt.Fprintf(w, "--- FAIL %s: %v\n", sc.Name, o.Err)
}
