package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// stdinIsTerminal reports whether prompts can be shown.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptName asks for a task name interactively.
var promptName = func() (string, error) {
	var name string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("New task").
				Placeholder("What needs doing?").
				Value(&name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name cannot be empty")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return "", err
	}
	return name, nil
}

func addCmd(opts *options) *cobra.Command {
	var (
		parent int64
		done   bool
	)

	cmd := &cobra.Command{
		Use:   "add [NAME...]",
		Short: "Add a task",
		Long:  "Add a task. Words are joined into the name; without any, tend prompts for one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			if strings.TrimSpace(name) == "" {
				if !stdinIsTerminal() {
					return errors.New("task name required")
				}
				var err error
				if name, err = promptName(); err != nil {
					return err
				}
			}

			var parentID *int64
			if cmd.Flags().Changed("parent") {
				parentID = &parent
			}

			s, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.store.Add(cmd.Context(), name, parentID, done)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %d\n", id)
			return nil
		},
	}
	cmd.Flags().Int64VarP(&parent, "parent", "p", 0, "parent task id")
	cmd.Flags().BoolVar(&done, "done", false, "add the task already completed")
	return cmd
}

func doneCmd(opts *options, complete bool) *cobra.Command {
	use, short, verb := "done ID", "Mark a task complete", "complete"
	if !complete {
		use, short, verb = "undo ID", "Mark a task open again", "open"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			s, err := opts.newSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.store.SetComplete(cmd.Context(), id, complete); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d marked %s\n", id, verb)
			return nil
		},
	}
}
