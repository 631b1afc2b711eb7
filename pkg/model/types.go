package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Task represents a single node in the task hierarchy.
//
// Parent is nil for root tasks. It is not guaranteed to reference a task in
// the same snapshot; consumers must tolerate dangling parents.
type Task struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Complete  bool      `json:"complete"`
	Parent    *int64    `json:"parent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone creates a deep copy of the task
func (t Task) Clone() Task {
	clone := t
	if t.Parent != nil {
		v := *t.Parent
		clone.Parent = &v
	}
	return clone
}

// HasParent reports whether the task declares a parent.
func (t Task) HasParent() bool {
	return t.Parent != nil
}

// ParentID returns the parent id, or 0 and false for root tasks.
func (t Task) ParentID() (int64, bool) {
	if t.Parent == nil {
		return 0, false
	}
	return *t.Parent, true
}

// ErrEmptyName is returned by Validate for a blank task name.
var ErrEmptyName = errors.New("task name cannot be empty")

// Validate checks if the task data is logically valid
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if t.Parent != nil && *t.Parent == t.ID && t.ID != 0 {
		return fmt.Errorf("task %d cannot be its own parent", t.ID)
	}
	return nil
}

// Mark returns the checkbox glyph used by text exports.
func (t Task) Mark() string {
	if t.Complete {
		return "[x]"
	}
	return "[ ]"
}

// Int64Ptr is a convenience for building optional parent references.
func Int64Ptr(v int64) *int64 {
	return &v
}

// Stats summarizes completion state across a set of tasks
type Stats struct {
	Total int `json:"total"`
	Open  int `json:"open"`
	Done  int `json:"done"`
	Roots int `json:"roots"`
}

// ComputeStats counts tasks by completion state.
func ComputeStats(tasks []Task) Stats {
	var s Stats
	for _, t := range tasks {
		s.Total++
		if t.Complete {
			s.Done++
		} else {
			s.Open++
		}
		if t.Parent == nil {
			s.Roots++
		}
	}
	return s
}

// ImportTask is the on-disk shape accepted by `tend import`.
//
// ID and Parent are local to the import file; the store assigns fresh ids and
// rewrites parent references accordingly.
type ImportTask struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Complete bool   `json:"complete,omitempty"`
	Parent   *int64 `json:"parent,omitempty"`
}

// Pairs holds the key/value entries collected by the TUI editor.
type Pairs map[string]string

// Keys returns the pair keys in sorted order.
func (p Pairs) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set stores a pair. Empty keys are ignored.
func (p Pairs) Set(key, value string) bool {
	if key == "" {
		return false
	}
	p[key] = value
	return true
}
