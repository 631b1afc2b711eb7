// Package store persists tasks in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Order selects how Tasks sorts its snapshot.
type Order string

const (
	// OrderTree is a pre-order walk from each root, children by id.
	// Tasks not reachable from a root follow, by id.
	OrderTree Order = "tree"
	// OrderID is plain insertion order.
	OrderID Order = "id"
)

// ParseOrder validates an order name. Empty means OrderTree.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "", OrderTree:
		return OrderTree, nil
	case OrderID:
		return OrderID, nil
	}
	return "", fmt.Errorf("unknown order %q", s)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
    id INTEGER PRIMARY KEY,
    parent INTEGER REFERENCES tasks(id),
    title TEXT NOT NULL,
    completed BOOLEAN NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS children (
    child INTEGER NOT NULL REFERENCES tasks(id),
    parent INTEGER NOT NULL REFERENCES tasks(id),
    PRIMARY KEY (child, parent)
)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent)`,
	`CREATE INDEX IF NOT EXISTS idx_children_parent ON children(parent)`,
}

// Store wraps a SQLite task database.
type Store struct {
	db     *sql.DB
	path   string
	logger *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger routes store diagnostics to logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open opens (creating if needed) the database at path. Use MemoryPath for
// a throwaway database. The schema is not touched; call Migrate.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(s)
	}

	dsn := path
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == MemoryPath {
		// each connection would get its own empty database
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s.db = db
	s.logger.Debug("opened database", "path", path)
	return s, nil
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, stmt := range schema {
		g.Go(func() error {
			_, err := s.db.ExecContext(gctx, stmt)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	for _, stmt := range indexes {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	s.logger.Debug("schema ready")
	return nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// DB exposes the underlying handle, mainly for tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// parseTimestamp accepts what the driver hands back for created_at, which
// is a time.Time for typed columns and text once the type is lost in a CTE.
func parseTimestamp(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		return parseTimestampString(t)
	case []byte:
		return parseTimestampString(string(t))
	}
	return time.Time{}
}

func parseTimestampString(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
