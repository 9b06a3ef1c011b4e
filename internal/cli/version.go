package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/checklist/pkg/checklist"
)

const modulePath = "github.com/mesh-intelligence/checklist"

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the checklist version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.jsonMode {
				return printer{out: cmd.OutOrStdout(), json: true}.JSON(map[string]string{
					"version": checklist.Version,
					"module":  modulePath,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checklist v%s\nmodule: %s\n", checklist.Version, modulePath)
			return nil
		},
	}
}
