package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func demoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Add the demo tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			ids, err := s.store.Seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added demo tasks %v\n", ids)
			return nil
		},
	}
}
