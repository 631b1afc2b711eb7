package scope

import (
	"fmt"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/vanderheijden86/tend/pkg/model"
)

// Apply filters tasks, keeping their relative order. now anchors relative
// CreatedAfter expressions.
func (s Scope) Apply(tasks []model.Task, now time.Time) ([]model.Task, error) {
	if s.IsZero() {
		return tasks, nil
	}

	var after time.Time
	if s.CreatedAfter != "" {
		t, err := ParseRelativeTime(s.CreatedAfter, now)
		if err != nil {
			return nil, fmt.Errorf("scope %q: %w", s.Name, err)
		}
		after = t
	}

	var subtree map[int64]bool
	if s.RootID != nil {
		subtree = descendants(tasks, *s.RootID)
	}

	var matched map[int]bool
	if pattern := strings.TrimSpace(s.Match); pattern != "" {
		matched = fuzzyMatches(pattern, tasks)
	}

	out := make([]model.Task, 0, len(tasks))
	for i, t := range tasks {
		if s.HideComplete && t.Complete {
			continue
		}
		if s.OnlyComplete && !t.Complete {
			continue
		}
		if subtree != nil && !subtree[t.ID] {
			continue
		}
		if matched != nil && !matched[i] {
			continue
		}
		if !after.IsZero() && !t.CreatedAt.IsZero() && t.CreatedAt.Before(after) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// descendants returns root and every task reachable from it through parent
// links. Cycles are tolerated.
func descendants(tasks []model.Task, root int64) map[int64]bool {
	children := make(map[int64][]int64)
	for _, t := range tasks {
		if p, ok := t.ParentID(); ok {
			children[p] = append(children[p], t.ID)
		}
	}

	keep := map[int64]bool{root: true}
	queue := []int64{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range children[id] {
			if !keep[c] {
				keep[c] = true
				queue = append(queue, c)
			}
		}
	}
	return keep
}

type taskNames []model.Task

func (n taskNames) String(i int) string { return n[i].Name }
func (n taskNames) Len() int            { return len(n) }

func fuzzyMatches(pattern string, tasks []model.Task) map[int]bool {
	out := make(map[int]bool)
	for _, m := range fuzzy.FindFrom(pattern, taskNames(tasks)) {
		out[m.Index] = true
	}
	return out
}
