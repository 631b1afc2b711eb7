package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tend/pkg/config"
	"github.com/vanderheijden86/tend/pkg/loader"
)

func initCmd(opts *options) *cobra.Command {
	var noGitignore bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a project task database in .tend/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			lg := logger(cmd.ErrOrStderr(), cfg)

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			path := opts.dbPath
			if path == "" {
				path = config.ProjectDatabase(cwd)
			}

			st, err := openStore(cmd.Context(), path, lg)
			if err != nil {
				return err
			}
			defer st.Close()

			if !noGitignore && isProjectDatabase(cwd, path) {
				if err := loader.EnsureTendInGitignore(cwd); err != nil {
					lg.Warn("could not update .gitignore", "err", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized task database at %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noGitignore, "no-gitignore", false, "do not add .tend/ to .gitignore")
	return cmd
}

// isProjectDatabase reports whether path lives under cwd/.tend.
func isProjectDatabase(cwd, path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(filepath.Join(cwd, config.ProjectDirName), abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
