package cli

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/me/momtest/internal/store"
	"github.com/me/momtest/pkg/model"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	var scenarioName, status string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scenario runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			opts := store.ListOptions{Limit: limit, Scenario: scenarioName, Status: model.RunStatus(status)}
			runs, total, err := st.ListRuns(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs found.")
				return nil
			}

			fmt.Fprintf(out, "%-40s  %-24s  %-7s  %4s  %-6s  %-16s  %s\n", "ID", "SCENARIO", "STATUS", "EXIT", "MODE", "STARTED", "DURATION")
			for _, r := range runs {
				exit := "-"
				if r.ExitCode != nil {
					exit = strconv.Itoa(*r.ExitCode)
				}
				fmt.Fprintf(out, "%-40s  %-24s  %-7s  %4s  %-6s  %-16s  %s\n",
					r.ID, r.Scenario, r.Status, exit, r.Mode,
					humanize.Time(r.StartedAt), humanize.RelTime(r.StartedAt, r.FinishedAt, "", ""))
			}
			if total > len(runs) {
				fmt.Fprintf(out, "\n(%d of %d shown)\n", len(runs), total)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show")
	cmd.Flags().StringVar(&scenarioName, "scenario", "", "Only runs of this scenario")
	cmd.Flags().StringVar(&status, "status", "", "Only runs with this status (PASSED, FAILED, ERRORED)")
	return cmd
}
