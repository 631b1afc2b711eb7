package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vanderheijden86/tend/pkg/model"
)

const treeQuery = `
WITH RECURSIVE walk(id, parent, title, completed, created_at, path) AS (
    SELECT id, parent, title, completed, created_at, printf('%020d', id)
    FROM tasks
    WHERE parent IS NULL
    UNION ALL
    SELECT t.id, t.parent, t.title, t.completed, t.created_at,
           walk.path || '/' || printf('%020d', t.id)
    FROM tasks t
    JOIN walk ON t.parent = walk.id
)
SELECT id, parent, title, completed, created_at, path FROM walk
UNION ALL
SELECT id, parent, title, completed, created_at, '~' || printf('%020d', id)
FROM tasks
WHERE id NOT IN (SELECT id FROM walk)
ORDER BY 6`

const idQuery = `
SELECT id, parent, title, completed, created_at, ''
FROM tasks
ORDER BY id`

// Tasks returns every task in the requested order.
func (s *Store) Tasks(ctx context.Context, order Order) ([]model.Task, error) {
	query := treeQuery
	if order == OrderID {
		query = idQuery
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var path string
		t, err := scanTask(rows, &path)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	return tasks, nil
}

// Task returns a single task by id.
func (s *Store) Task(ctx context.Context, id int64) (model.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, parent, title, completed, created_at FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return t, err
}

// Children returns the direct children of a task recorded in the link
// table, by id.
func (s *Store) Children(ctx context.Context, id int64) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.parent, t.title, t.completed, t.created_at
		FROM children c
		JOIN tasks t ON t.id = c.child
		WHERE c.parent = ?
		ORDER BY t.id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Count returns the number of stored tasks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

// Add inserts a task and its parent link in one transaction and returns the
// new id.
func (s *Store) Add(ctx context.Context, name string, parent *int64, complete bool) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := insertTask(ctx, tx, name, parent, complete)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	s.logger.Debug("added task", "id", id, "parent", parent)
	return id, nil
}

// SetComplete marks a task done or not done.
func (s *Store) SetComplete(ctx context.Context, id int64, complete bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET completed = ? WHERE id = ?`, complete, id)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTask(ctx context.Context, ex execer, name string, parent *int64, complete bool) (int64, error) {
	t := model.Task{Name: name, Parent: parent}
	if err := t.Validate(); err != nil {
		return 0, fmt.Errorf("invalid task: %w", err)
	}

	res, err := ex.ExecContext(ctx,
		`INSERT INTO tasks (parent, title, completed) VALUES (?, ?, ?)`,
		nullableID(parent), name, complete)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("parent %d: %w", *parent, ErrParentNotFound)
		}
		return 0, fmt.Errorf("failed to insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read task id: %w", err)
	}

	if parent != nil {
		if _, err := ex.ExecContext(ctx,
			`INSERT INTO children (child, parent) VALUES (?, ?)`, id, *parent); err != nil {
			return 0, fmt.Errorf("failed to link task: %w", err)
		}
	}
	return id, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner, extra ...any) (model.Task, error) {
	var (
		t       model.Task
		parent  sql.NullInt64
		created any
	)
	dest := append([]any{&t.ID, &parent, &t.Name, &t.Complete, &created}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("failed to scan task: %w", err)
	}
	if parent.Valid {
		t.Parent = model.Int64Ptr(parent.Int64)
	}
	t.CreatedAt = parseTimestamp(created)
	return t, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
