package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanderheijden86/tend/pkg/model"
)

// Seed inserts the demo tasks: two roots, the first with one completed child.
// It returns the new ids in insertion order.
func (s *Store) Seed(ctx context.Context) ([]int64, error) {
	first, err := s.Add(ctx, "A task", nil, false)
	if err != nil {
		return nil, fmt.Errorf("seeding: %w", err)
	}
	second, err := s.Add(ctx, "Another task!", model.Int64Ptr(first), true)
	if err != nil {
		return nil, fmt.Errorf("seeding: %w", err)
	}
	third, err := s.Add(ctx, "Woah, I'm busy!", nil, false)
	if err != nil {
		return nil, fmt.Errorf("seeding: %w", err)
	}
	s.logger.Info("seeded demo tasks", "count", 3)
	return []int64{first, second, third}, nil
}

// ErrImportCycle is returned when imported parent references loop.
var ErrImportCycle = errors.New("import contains a parent cycle")

// Import inserts tasks from an import file in a single transaction. Parent
// references are resolved against the file's local ids; a parent must appear
// in the same file. The returned map translates local ids to stored ids.
func (s *Store) Import(ctx context.Context, tasks []model.ImportTask) (map[int64]int64, error) {
	local := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		if local[t.ID] {
			return nil, fmt.Errorf("duplicate id %d in import", t.ID)
		}
		local[t.ID] = true
	}
	for _, t := range tasks {
		if t.Parent != nil && !local[*t.Parent] {
			return nil, fmt.Errorf("task %d references parent %d: %w", t.ID, *t.Parent, ErrParentNotFound)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	mapped := make(map[int64]int64, len(tasks))
	pending := tasks
	for len(pending) > 0 {
		var next []model.ImportTask
		for _, t := range pending {
			var parent *int64
			if t.Parent != nil {
				id, ok := mapped[*t.Parent]
				if !ok {
					next = append(next, t)
					continue
				}
				parent = model.Int64Ptr(id)
			}
			id, err := insertTask(ctx, tx, t.Name, parent, t.Complete)
			if err != nil {
				return nil, fmt.Errorf("importing task %d: %w", t.ID, err)
			}
			mapped[t.ID] = id
		}
		if len(next) == len(pending) {
			return nil, ErrImportCycle
		}
		pending = next
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	s.logger.Info("imported tasks", "count", len(mapped))
	return mapped, nil
}
