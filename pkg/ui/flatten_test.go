package ui

import (
	"testing"

	"github.com/vanderheijden86/tend/pkg/model"
	"pgregory.net/rapid"
)

func task(id int64, parent int64) model.Task {
	t := model.Task{ID: id, Name: "task"}
	if parent != 0 {
		t.Parent = model.Int64Ptr(parent)
	}
	return t
}

func depths(items []FlatItem) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Depth
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFlattenDepths(t *testing.T) {
	tests := []struct {
		name      string
		tasks     []model.Task
		indent    int
		want      []int
		wantStack int
	}{
		{
			name:      "root child root",
			tasks:     []model.Task{task(1, 0), task(2, 1), task(3, 0)},
			indent:    2,
			want:      []int{0, 2, 0},
			wantStack: 0,
		},
		{
			name:      "chain",
			tasks:     []model.Task{task(1, 0), task(2, 1), task(3, 2)},
			indent:    2,
			want:      []int{0, 2, 4},
			wantStack: 2,
		},
		{
			name:      "sibling returns to open ancestor",
			tasks:     []model.Task{task(1, 0), task(2, 1), task(3, 2), task(4, 1)},
			indent:    3,
			want:      []int{0, 3, 6, 3},
			wantStack: 1,
		},
		{
			name:      "zero indent",
			tasks:     []model.Task{task(1, 0), task(2, 1), task(3, 2)},
			indent:    0,
			want:      []int{0, 0, 0},
			wantStack: 2,
		},
		{
			name:      "negative indent counts as zero",
			tasks:     []model.Task{task(1, 0), task(2, 1)},
			indent:    -4,
			want:      []int{0, 0},
			wantStack: 1,
		},
		{
			name:      "empty input",
			tasks:     nil,
			indent:    2,
			want:      []int{},
			wantStack: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stack AncestorStack
			items := Flatten(tt.tasks, &stack, tt.indent)
			if got := depths(items); !equalInts(got, tt.want) {
				t.Errorf("depths = %v, want %v", got, tt.want)
			}
			if stack.Len() != tt.wantStack {
				t.Errorf("stack len = %d, want %d (%v)", stack.Len(), tt.wantStack, stack)
			}
		})
	}
}

// An unknown parent still nests one level under whatever is open.
func TestFlattenUnknownParentNests(t *testing.T) {
	var stack AncestorStack
	items := Flatten([]model.Task{task(1, 0), task(5, 99), task(6, 42)}, &stack, 2)

	if got := depths(items); !equalInts(got, []int{0, 2, 4}) {
		t.Errorf("depths = %v, want [0 2 4]", got)
	}
	if len(stack) != 2 || stack[0] != 99 || stack[1] != 42 {
		t.Errorf("stack = %v, want [99 42]", stack)
	}
}

// The stack survives between calls; a snapshot starting with a child picks
// up whatever the previous call left open.
func TestFlattenStackPersistsAcrossCalls(t *testing.T) {
	var stack AncestorStack
	Flatten([]model.Task{task(1, 0), task(2, 1)}, &stack, 2)

	items := Flatten([]model.Task{task(3, 1)}, &stack, 2)
	if items[0].Depth != 2 {
		t.Errorf("depth = %d, want 2 (parent 1 still open)", items[0].Depth)
	}

	items = Flatten([]model.Task{task(4, 0)}, &stack, 2)
	if items[0].Depth != 0 || stack.Len() != 0 {
		t.Errorf("root should reset the stack, depth=%d stack=%v", items[0].Depth, stack)
	}
}

func TestFlattenNilStack(t *testing.T) {
	items := Flatten([]model.Task{task(1, 0), task(2, 1)}, nil, 2)
	if got := depths(items); !equalInts(got, []int{0, 2}) {
		t.Errorf("depths = %v, want [0 2]", got)
	}
}

func TestFlattenCopiesFields(t *testing.T) {
	tasks := []model.Task{
		{ID: 7, Name: "write docs", Complete: true},
		{ID: 8, Name: "line one\nline two", Parent: model.Int64Ptr(7)},
	}
	items := Flatten(tasks, &AncestorStack{}, 2)

	if items[0].ID != 7 || items[0].Content != "write docs" || !items[0].Complete {
		t.Errorf("unexpected first item %+v", items[0])
	}
	if items[1].Height() != 2 {
		t.Errorf("multi-line item height = %d, want 2", items[1].Height())
	}
	if lines := items[1].Lines(); len(lines) != 2 || lines[1] != "line two" {
		t.Errorf("Lines() = %q", lines)
	}
}

func genTasks(t *rapid.T) []model.Task {
	n := rapid.IntRange(0, 40).Draw(t, "n")
	tasks := make([]model.Task, n)
	for i := range tasks {
		tasks[i] = model.Task{ID: int64(i + 1), Name: "t"}
		if rapid.Bool().Draw(t, "hasParent") {
			tasks[i].Parent = model.Int64Ptr(rapid.Int64Range(1, 50).Draw(t, "parent"))
		}
	}
	return tasks
}

func TestFlattenProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tasks := genTasks(t)
		indent := rapid.IntRange(0, 8).Draw(t, "indent")
		prefill := rapid.SliceOfN(rapid.Int64Range(1, 50), 0, 5).Draw(t, "prefill")

		stack := AncestorStack(prefill)
		items := Flatten(tasks, &stack, indent)

		if len(items) != len(tasks) {
			t.Fatalf("len(items) = %d, want %d", len(items), len(tasks))
		}
		for i, it := range items {
			if it.ID != tasks[i].ID {
				t.Fatalf("item %d has id %d, want %d", i, it.ID, tasks[i].ID)
			}
			if it.Depth < 0 {
				t.Fatalf("item %d has negative depth %d", i, it.Depth)
			}
			if indent > 0 && it.Depth%indent != 0 {
				t.Fatalf("item %d depth %d not a multiple of %d", i, it.Depth, indent)
			}
			if tasks[i].Parent == nil && it.Depth != 0 {
				t.Fatalf("root item %d has depth %d", i, it.Depth)
			}
			if tasks[i].Parent != nil && indent > 0 && it.Depth == 0 {
				t.Fatalf("child item %d rendered at depth 0", i)
			}
		}
	})
}

func TestFlattenRootClearsStack(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tasks := genTasks(t)
		tasks = append(tasks, model.Task{ID: 1000, Name: "root"})

		var stack AncestorStack
		Flatten(tasks, &stack, 2)
		if stack.Len() != 0 {
			t.Fatalf("stack = %v after trailing root, want empty", stack)
		}
	})
}
