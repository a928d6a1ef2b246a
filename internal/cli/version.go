package cli

import (
	"fmt"

	"github.com/fmueller/voxcaption/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if date := version.BuildDate(); date != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "voxcaption v%s (built %s)\n", version.Resolve(), date)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "voxcaption v%s\n", version.Resolve())
			return nil
		},
	}
}
