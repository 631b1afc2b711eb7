package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func scopesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scopes",
		Short: "List builtin and configured scopes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			reg, err := opts.registry(cfg)
			if err != nil {
				return err
			}
			active, err := reg.Lookup(cfg.UI.Scope)
			if err != nil {
				return err
			}

			all := reg.All()
			nameWidth := 0
			for _, s := range all {
				if len(s.Name) > nameWidth {
					nameWidth = len(s.Name)
				}
			}

			out := cmd.OutOrStdout()
			for _, s := range all {
				marker := " "
				if strings.EqualFold(s.Name, active.Name) {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-*s  %s\n", marker, nameWidth, s.Name, s.Description)
			}
			return nil
		},
	}
}
