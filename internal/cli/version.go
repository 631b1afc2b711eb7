package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tend/pkg/version"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tend version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tend %s\n", version.Version)
		},
	}
}
