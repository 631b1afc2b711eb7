package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vanderheijden86/tend/pkg/model"
)

// NewTestDB creates a migrated in-memory store for testing
func NewTestDB(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err, "failed to open test database")

	err = s.Migrate(context.Background())
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func ids(tasks []model.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestMigrations(t *testing.T) {
	s := NewTestDB(t)

	for _, table := range []string{"tasks", "children"} {
		var count int
		err := s.DB().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	// a second run is a no-op
	require.NoError(t, s.Migrate(context.Background()))
}

func TestForeignKeys(t *testing.T) {
	s := NewTestDB(t)

	var enabled int
	err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

func TestOpenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tasks.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	_, err = s.Add(ctx, "persisted", nil, false)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, path, s.Path())

	var enabled int
	require.NoError(t, s.DB().QueryRow("PRAGMA foreign_keys").Scan(&enabled))
	require.Equal(t, 1, enabled)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSeed(t *testing.T) {
	s := NewTestDB(t)
	ctx := context.Background()

	got, err := s.Seed(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, got)

	tasks, err := s.Tasks(ctx, OrderID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	require.Equal(t, "A task", tasks[0].Name)
	require.Nil(t, tasks[0].Parent)
	require.False(t, tasks[0].Complete)

	require.Equal(t, "Another task!", tasks[1].Name)
	require.NotNil(t, tasks[1].Parent)
	require.Equal(t, int64(1), *tasks[1].Parent)
	require.True(t, tasks[1].Complete)

	require.Equal(t, "Woah, I'm busy!", tasks[2].Name)
	require.Nil(t, tasks[2].Parent)
	require.False(t, tasks[2].CreatedAt.IsZero(), "created_at should be populated")
}

func TestAdd_Validation(t *testing.T) {
	s := NewTestDB(t)
	ctx := context.Background()

	_, err := s.Add(ctx, "   ", nil, false)
	require.ErrorIs(t, err, ErrEmptyName)
	require.ErrorIs(t, err, model.ErrEmptyName)
	require.ErrorContains(t, err, "invalid task: task name cannot be empty")

	_, err = s.Add(ctx, "orphan", model.Int64Ptr(42), false)
	require.ErrorIs(t, err, ErrParentNotFound)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n, "failed adds must not leave rows behind")
}

func TestAdd_LinksChildren(t *testing.T) {
	s := NewTestDB(t)
	ctx := context.Background()

	root, err := s.Add(ctx, "root", nil, false)
	require.NoError(t, err)
	b, err := s.Add(ctx, "b", &root, false)
	require.NoError(t, err)
	a, err := s.Add(ctx, "a", &root, true)
	require.NoError(t, err)

	children, err := s.Children(ctx, root)
	require.NoError(t, err)
	require.Equal(t, []int64{b, a}, ids(children))
	require.True(t, children[1].Complete)

	none, err := s.Children(ctx, a)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestSetComplete(t *testing.T) {
	s := NewTestDB(t)
	ctx := context.Background()

	id, err := s.Add(ctx, "toggle me", nil, false)
	require.NoError(t, err)

	require.NoError(t, s.SetComplete(ctx, id, true))
	task, err := s.Task(ctx, id)
	require.NoError(t, err)
	require.True(t, task.Complete)

	require.NoError(t, s.SetComplete(ctx, id, false))
	task, err = s.Task(ctx, id)
	require.NoError(t, err)
	require.False(t, task.Complete)

	err = s.SetComplete(ctx, 999, true)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTask_NotFound(t *testing.T) {
	s := NewTestDB(t)

	_, err := s.Task(context.Background(), 7)
	require.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestTasks_TreeOrder(t *testing.T) {
	s := NewTestDB(t)
	ctx := context.Background()

	add := func(name string, parent *int64) int64 {
		t.Helper()
		id, err := s.Add(ctx, name, parent, false)
		require.NoError(t, err)
		return id
	}

	a := add("a", nil)
	b := add("b", nil)
	c := add("c", &a)
	d := add("d", &c)
	e := add("e", &b)
	f := add("f", &a)

	tree, err := s.Tasks(ctx, OrderTree)
	require.NoError(t, err)
	require.Equal(t, []int64{a, c, d, f, b, e}, ids(tree))

	flat, err := s.Tasks(ctx, OrderID)
	require.NoError(t, err)
	require.Equal(t, []int64{a, b, c, d, e, f}, ids(flat))
}

func TestTasks_UnreachableRowsFollow(t *testing.T) {
	s := NewTestDB(t)
	ctx := context.Background()

	root, err := s.Add(ctx, "root", nil, false)
	require.NoError(t, err)

	// rows the CLI cannot create: a dangling parent and a two-task loop
	_, err = s.DB().Exec("PRAGMA foreign_keys = OFF")
	require.NoError(t, err)
	_, err = s.DB().Exec(`INSERT INTO tasks (id, parent, title) VALUES (10, 99, 'dangling')`)
	require.NoError(t, err)
	_, err = s.DB().Exec(`INSERT INTO tasks (id, parent, title) VALUES (11, 12, 'loop a'), (12, 11, 'loop b')`)
	require.NoError(t, err)
	_, err = s.DB().Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	late, err := s.Add(ctx, "late root", nil, false)
	require.NoError(t, err)

	tasks, err := s.Tasks(ctx, OrderTree)
	require.NoError(t, err)
	require.Equal(t, []int64{root, late, 10, 11, 12}, ids(tasks))
	require.Equal(t, int64(99), *tasks[2].Parent)
}

func TestImport(t *testing.T) {
	s := NewTestDB(t)
	ctx := context.Background()

	_, err := s.Add(ctx, "existing", nil, false)
	require.NoError(t, err)

	// children listed before their parents
	mapping, err := s.Import(ctx, []model.ImportTask{
		{ID: 3, Name: "grandchild", Parent: model.Int64Ptr(2)},
		{ID: 2, Name: "child", Parent: model.Int64Ptr(1), Complete: true},
		{ID: 1, Name: "root"},
	})
	require.NoError(t, err)
	require.Len(t, mapping, 3)

	child, err := s.Task(ctx, mapping[2])
	require.NoError(t, err)
	require.Equal(t, "child", child.Name)
	require.True(t, child.Complete)
	require.Equal(t, mapping[1], *child.Parent)

	grandchild, err := s.Task(ctx, mapping[3])
	require.NoError(t, err)
	require.Equal(t, mapping[2], *grandchild.Parent)
}

func TestImport_Errors(t *testing.T) {
	tests := []struct {
		name  string
		tasks []model.ImportTask
		want  error
	}{
		{
			name:  "missing parent",
			tasks: []model.ImportTask{{ID: 1, Name: "a", Parent: model.Int64Ptr(5)}},
			want:  ErrParentNotFound,
		},
		{
			name: "cycle",
			tasks: []model.ImportTask{
				{ID: 1, Name: "a", Parent: model.Int64Ptr(2)},
				{ID: 2, Name: "b", Parent: model.Int64Ptr(1)},
			},
			want: ErrImportCycle,
		},
		{
			name:  "empty name",
			tasks: []model.ImportTask{{ID: 1, Name: ""}},
			want:  ErrEmptyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTestDB(t)
			ctx := context.Background()

			_, err := s.Import(ctx, tt.tasks)
			require.ErrorIs(t, err, tt.want)

			n, err := s.Count(ctx)
			require.NoError(t, err)
			require.Zero(t, n, "failed import must roll back")
		})
	}
}

func TestImport_DuplicateID(t *testing.T) {
	s := NewTestDB(t)

	_, err := s.Import(context.Background(), []model.ImportTask{
		{ID: 1, Name: "a"},
		{ID: 1, Name: "b"},
	})
	require.Error(t, err)
}

func TestParseOrder(t *testing.T) {
	for in, want := range map[string]Order{"": OrderTree, "tree": OrderTree, "id": OrderID} {
		got, err := ParseOrder(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseOrder("alpha")
	require.Error(t, err)
}
