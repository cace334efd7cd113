package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/classreg/pkg/classreg"
)

const modulePath = "github.com/mesh-intelligence/classreg"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the classreg version",
		Args:  userArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "classreg v%s\nmodule: %s\n", classreg.Version, modulePath)
			return nil
		},
	}
}
