package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-24s  %-8s  %-24s  %6s  %6s  %-7s  %-9s  %s\n", "SCENARIO", "MODEL", "EXPERIMENT", "NCPUS", "NPES", "MEM", "WALLTIME", "STATE")
			for _, sc := range e.registry.All() {
				res := sc.Resources.WithDefaults(e.profile.Defaults)
				state := "enabled"
				if sc.Disabled {
					state = "disabled"
				}
				npes := res.NPEs
				if npes == "" {
					npes = "-"
				}
				fmt.Fprintf(out, "%-24s  %-8s  %-24s  %6s  %6s  %-7s  %-9s  %s\n",
					sc.Name, sc.ModelType, sc.Experiment, res.NCPUs, npes, res.Mem, res.Walltime, state)
			}
			return nil
		},
	}
}
