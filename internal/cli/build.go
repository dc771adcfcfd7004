package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	var unitTesting bool

	cmd := &cobra.Command{
		Use:   "build <model-type>",
		Short: "Compile a model type with the platform compile script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			code, err := e.harness.Build(cmd.Context(), args[0], unitTesting)
			if err != nil {
				return err
			}
			if code != 0 {
				return &ExitError{Code: code, Msg: fmt.Sprintf("build of %s exited with code %d", args[0], code)}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Built %s for %s\n", args[0], e.profile.Name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unitTesting, "unit-testing", true, "Build with unit testing enabled")
	return cmd
}
