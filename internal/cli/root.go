// Package cli implements the tend command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tend/internal/logging"
	"github.com/vanderheijden86/tend/internal/store"
	"github.com/vanderheijden86/tend/pkg/config"
	"github.com/vanderheijden86/tend/pkg/scope"
)

// scopesFileName lives next to the config file.
const scopesFileName = "scopes.yaml"

// options holds the global flags shared by every command.
type options struct {
	dbPath     string
	configPath string
	logLevel   string
	scope      string
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRoot().Execute()
}

// NewRoot builds the tend command tree.
func NewRoot() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "tend",
		Short:         "A small hierarchical task manager",
		Long:          "tend keeps a tree of tasks in sqlite and shows it in the terminal.\nRun without a command to open the tree view.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.dbPath, "db", "", "task database (default: nearest .tend/tasks.db, then the data dir)")
	flags.StringVar(&opts.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/tend/config.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.scope, "scope", "", "scope to show, one of tend scopes")

	root.AddCommand(
		initCmd(opts),
		addCmd(opts),
		doneCmd(opts, true),
		doneCmd(opts, false),
		listCmd(opts),
		exportCmd(opts),
		importCmd(opts),
		demoCmd(opts),
		scopesCmd(opts),
		versionCmd(),
	)
	return root
}

// loadConfig reads the config file named by --config, or the default one,
// and layers the flag overrides on top.
func (o *options) loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath)
		if err == nil {
			cfg.ApplyEnv()
		}
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.scope != "" {
		cfg.UI.Scope = o.scope
	}
	return cfg, nil
}

// logger returns the command logger. Commands log to stderr.
func logger(w io.Writer, cfg config.Config) *log.Logger {
	opts := logging.DefaultOptions()
	if cfg.Log.Level != "" {
		opts.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		opts.Format = cfg.Log.Format
	}
	return logging.New(w, opts)
}

// databasePath resolves the database the command should open.
func (o *options) databasePath(cfg config.Config) string {
	return config.ResolveDatabase(cfg, o.dbPath)
}

// openStore opens and migrates the task database at path, creating its
// directory when needed.
func openStore(ctx context.Context, path string, logger *log.Logger) (*store.Store, error) {
	if path != store.MemoryPath && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	st, err := store.Open(ctx, path, store.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// session bundles what most commands need: config, logger and an open store.
type session struct {
	cfg    config.Config
	logger *log.Logger
	store  *store.Store
}

func (s *session) Close() error {
	return s.store.Close()
}

// newSession loads config and opens the store for a command that logs to
// stderr.
func (o *options) newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	lg := logger(cmd.ErrOrStderr(), cfg)
	path := o.databasePath(cfg)
	lg.Debug("opening database", "path", path)

	st, err := openStore(cmd.Context(), path, lg)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: lg, store: st}, nil
}

// registry returns the builtin scopes, then the configured ones, then those
// in scopes.yaml next to the config file.
func (o *options) registry(cfg config.Config) (*scope.Registry, error) {
	reg := scope.NewRegistry(cfg.Scopes...)

	dir := config.ConfigDir()
	if o.configPath != "" {
		dir = filepath.Dir(o.configPath)
	}
	if dir == "" {
		return reg, nil
	}
	extra, err := scope.LoadFile(filepath.Join(dir, scopesFileName))
	if err != nil {
		return nil, err
	}
	for _, s := range extra {
		reg.Add(s)
	}
	return reg, nil
}

// source builds the scoped task source for the session.
func (o *options) source(s *session) (*scopedSource, error) {
	reg, err := o.registry(s.cfg)
	if err != nil {
		return nil, err
	}
	order, err := store.ParseOrder(s.cfg.UI.Order)
	if err != nil {
		return nil, err
	}
	return newScopedSource(s.store, order, reg, s.cfg.UI.Scope)
}
