package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <scenario>",
		Short: "Print the run script a scenario would submit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			sc, err := e.registry.Get(args[0])
			if err != nil {
				return err
			}
			dest := filepath.Join(e.cfg.WorkDir, sc.Experiment)
			script, err := e.harness.RenderScript(sc.ModelType, sc.Experiment, sc.Resources,
				filepath.Join(dest, "fms.out"), filepath.Join(dest, "fms.err"))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), script)
			return nil
		},
	}
}
