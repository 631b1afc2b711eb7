package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tend/internal/logging"
	"github.com/vanderheijden86/tend/internal/store"
	"github.com/vanderheijden86/tend/pkg/config"
	"github.com/vanderheijden86/tend/pkg/ui"
)

// EnvAutoClose quits the TUI after the given number of milliseconds. Used by
// automated runs that cannot press q.
const EnvAutoClose = "TEND_TUI_AUTOCLOSE_MS"

// runTUI runs the program and returns the final model.
var runTUI = runProgram

func runRoot(cmd *cobra.Command, opts *options) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	// The alt screen owns the terminal, so the TUI logs to a file.
	logOpts := logging.DefaultOptions()
	logOpts.Level = cfg.Log.Level
	logOpts.Format = cfg.Log.Format
	lg, closer, err := logging.NewFile(cfg.LogFile(), logOpts)
	if err != nil {
		return err
	}
	defer closer.Close()

	path := opts.databasePath(cfg)
	st, err := openStore(cmd.Context(), path, lg)
	if err != nil {
		return err
	}
	s := &session{cfg: cfg, logger: lg, store: st}
	defer s.Close()

	src, err := opts.source(s)
	if err != nil {
		return err
	}

	watchPath := ""
	if cfg.UI.WatchEnabled() && path != store.MemoryPath {
		watchPath = path
	}
	worker, err := ui.NewBackgroundWorker(ui.WorkerConfig{
		DBPath:       watchPath,
		Source:       src,
		PollInterval: cfg.UI.PollInterval,
		Logger:       lg,
	})
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer worker.Stop()

	lg.Info("starting tui", "db", path, "scope", src.Scope().Name)
	final, err := runTUI(newAppModel(cfg, src, worker, lg), worker)
	if err != nil {
		return err
	}
	// q already saved; a signal or auto-close quit did not.
	if tree := final.Tree(); tree != nil {
		tree.SaveState()
	}
	return printPairs(cmd, final.Pairs())
}

// newAppModel wires the TUI model to the source and config.
func newAppModel(cfg config.Config, src *scopedSource, worker *ui.BackgroundWorker, lg *log.Logger) ui.Model {
	theme := ui.DefaultTheme(lipgloss.DefaultRenderer())
	mc := ui.ModelConfig{
		Theme:        theme,
		Style:        ui.NewStyleConfig(theme, cfg.UI),
		Source:       src,
		Worker:       worker,
		PollInterval: cfg.UI.PollInterval,
		StateDir:     config.StateDir(),
		Scopes:       src.registry.All(),
		ScopeName:    src.Scope().Name,
		Logger:       lg,
	}
	return ui.NewModel(mc)
}

// printPairs writes the pairs entered in the editor as JSON, if any.
func printPairs(cmd *cobra.Command, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}
	data, err := json.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding pairs: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

// runProgram runs the TUI with its own signal handling: SIGINT or SIGTERM
// asks the program to quit, a second signal or a 5s grace period kills it.
func runProgram(m ui.Model, worker *ui.BackgroundWorker) (ui.Model, error) {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	if worker != nil {
		worker.SetProgram(p)
		if err := worker.Start(); err != nil {
			return m, fmt.Errorf("starting watcher: %w", err)
		}
	}

	runDone := make(chan struct{})
	defer close(runDone)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	if v := os.Getenv(EnvAutoClose); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	final, err := p.Run()
	if fm, ok := final.(ui.Model); ok {
		m = fm
	}
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return m, nil
	}
	return m, err
}
