package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tend/pkg/export"
)

func exportCmd(opts *options) *cobra.Command {
	var (
		out    string
		title  string
		render bool
		width  int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the task tree as a markdown checklist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			src, err := opts.source(s)
			if err != nil {
				return err
			}
			tasks, err := src.Tasks(cmd.Context())
			if err != nil {
				return err
			}

			mdOpts := export.Options{
				Title:  s.cfg.Export.Title,
				Indent: s.cfg.UI.Indent,
				Now:    time.Now(),
			}
			if title != "" {
				mdOpts.Title = title
			}

			if out != "" {
				if err := export.SaveMarkdownToFile(tasks, mdOpts, out); err != nil {
					return err
				}
				s.logger.Info("exported tasks", "count", len(tasks), "path", out)
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s\n", len(tasks), out)
				return nil
			}

			md := export.GenerateMarkdown(tasks, mdOpts)
			if render {
				if width <= 0 {
					width = terminalWidth(cmd.OutOrStdout())
				}
				md, err = export.RenderMarkdown(md, s.cfg.Export.GlamourStyle, width)
				if err != nil {
					return err
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write markdown to FILE instead of stdout")
	cmd.Flags().StringVar(&title, "title", "", "document title (default from config)")
	cmd.Flags().BoolVar(&render, "render", false, "render the markdown for the terminal")
	cmd.Flags().IntVar(&width, "width", 0, "wrap width for --render (default: terminal width)")
	return cmd
}
