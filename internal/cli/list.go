package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/tend/pkg/config"
	"github.com/vanderheijden86/tend/pkg/model"
	"github.com/vanderheijden86/tend/pkg/ui"
)

// listItem is the --json shape of one flattened task.
type listItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Complete bool   `json:"complete"`
	Parent   *int64 `json:"parent,omitempty"`
	Depth    int    `json:"depth"`
}

func listCmd(opts *options) *cobra.Command {
	var (
		asJSON bool
		indent int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print the task tree",
		Args:    cobra.NoArgs,
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

			if !cmd.Flags().Changed("indent") {
				indent = s.cfg.UI.Indent
			}
			var stack ui.AncestorStack
			items := ui.Flatten(tasks, &stack, indent)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeListJSON(out, tasks, items)
			}
			if len(items) == 0 {
				fmt.Fprintln(out, "No tasks. Add one with tend add.")
				return nil
			}
			writeList(out, items, s.cfg.UI, terminalWidth(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().IntVar(&indent, "indent", 2, "spaces per nesting level")
	return cmd
}

// terminalWidth returns the width of w when it is a terminal, else 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// writeList prints one row per line of each item: the id column, the
// indentation, the completion mark and the text. Continuation lines align
// under the text. A positive width truncates rows.
func writeList(w io.Writer, items []ui.FlatItem, cfg config.UIConfig, width int) {
	idWidth := 1
	for _, item := range items {
		if n := len(fmt.Sprint(item.ID)); n > idWidth {
			idWidth = n
		}
	}

	for _, item := range items {
		mark := cfg.TodoMark
		if item.Complete {
			mark = cfg.DoneMark
		}
		pad := strings.Repeat(" ", item.Depth)
		for i, line := range item.Lines() {
			var row string
			if i == 0 {
				row = fmt.Sprintf("%*d  %s%s %s", idWidth, item.ID, pad, mark, line)
			} else {
				gap := strings.Repeat(" ", idWidth+2+runewidth.StringWidth(mark)+1)
				row = gap + pad + line
			}
			if width > 0 {
				row = runewidth.Truncate(row, width, "…")
			}
			fmt.Fprintln(w, row)
		}
	}
}

func writeListJSON(w io.Writer, tasks []model.Task, items []ui.FlatItem) error {
	parents := make(map[int64]*int64, len(tasks))
	for _, t := range tasks {
		parents[t.ID] = t.Parent
	}

	out := make([]listItem, 0, len(items))
	for _, item := range items {
		out = append(out, listItem{
			ID:       item.ID,
			Name:     item.Content,
			Complete: item.Complete,
			Parent:   parents[item.ID],
			Depth:    item.Depth,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
