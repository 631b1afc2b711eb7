package ui

import (
	"strings"

	"github.com/vanderheijden86/tend/pkg/model"
)

// AncestorStack holds the ids of the currently open ancestors while a task
// sequence is scanned in display order. It is owned by the caller's session
// and carried across Flatten calls.
type AncestorStack []int64

// Reset empties the stack, keeping its capacity.
func (s *AncestorStack) Reset() {
	*s = (*s)[:0]
}

// Len returns the number of open ancestors.
func (s AncestorStack) Len() int {
	return len(s)
}

// indexOf returns the position of id on the stack, or -1.
func (s AncestorStack) indexOf(id int64) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == id {
			return i
		}
	}
	return -1
}

// FlatItem is one task in display order, annotated with its indentation.
// Items are rebuilt from every snapshot and never outlive it.
type FlatItem struct {
	Content  string
	ID       int64
	Depth    int // columns of indentation
	Complete bool
}

// Height returns the number of rows the item occupies.
func (f FlatItem) Height() int {
	return strings.Count(f.Content, "\n") + 1
}

// Lines splits the item content into its display rows.
func (f FlatItem) Lines() []string {
	return strings.Split(f.Content, "\n")
}

// Flatten converts tasks, already in display order, into FlatItems.
//
// For each task:
//   - no parent: the stack is cleared and the task is a root
//   - parent found on the stack at k: the stack is truncated to [0..k]
//   - parent not found: the parent is pushed
//
// Depth is len(stack) * indentUnit. The parent is never checked against the
// tasks emitted so far, so an unknown parent still nests the task one level
// under whatever is currently open. A nil stack is treated as a fresh one.
func Flatten(tasks []model.Task, stack *AncestorStack, indentUnit int) []FlatItem {
	if stack == nil {
		stack = &AncestorStack{}
	}
	if indentUnit < 0 {
		indentUnit = 0
	}

	items := make([]FlatItem, len(tasks))
	for i, t := range tasks {
		if parent, ok := t.ParentID(); !ok {
			stack.Reset()
		} else if k := stack.indexOf(parent); k >= 0 {
			*stack = (*stack)[:k+1]
		} else {
			*stack = append(*stack, parent)
		}

		items[i] = FlatItem{
			Content:  t.Name,
			ID:       t.ID,
			Depth:    stack.Len() * indentUnit,
			Complete: t.Complete,
		}
	}
	return items
}
