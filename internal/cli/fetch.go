package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <experiment>",
		Short: "Download and extract an experiment's input data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if err := e.harness.ProvisionInput(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("fetch %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Input for %s ready in %s\n", args[0], filepath.Join(e.cfg.WorkDir, args[0]))
			return nil
		},
	}
}
