package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/tend/pkg/model"
)

// TaskSource supplies the ordered task snapshot for the current scope.
type TaskSource interface {
	Tasks(ctx context.Context) ([]model.Task, error)
}

// TaskSourceFunc adapts a function to TaskSource.
type TaskSourceFunc func(ctx context.Context) ([]model.Task, error)

// Tasks calls f.
func (f TaskSourceFunc) Tasks(ctx context.Context) ([]model.Task, error) {
	return f(ctx)
}

// DefaultLoadTimeout bounds a single snapshot query.
const DefaultLoadTimeout = 5 * time.Second

// TasksLoadedMsg is returned after a snapshot load completes
type TasksLoadedMsg struct {
	Tasks    []model.Task
	Err      error
	Duration time.Duration
}

// TickMsg drives periodic reloads.
type TickMsg time.Time

// LoadTasksCmd loads a snapshot asynchronously and reports the result
func LoadTasksCmd(src TaskSource, timeout time.Duration) tea.Cmd {
	if src == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	return func() tea.Msg {
		return loadTasks(src, timeout)
	}
}

func loadTasks(src TaskSource, timeout time.Duration) TasksLoadedMsg {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	tasks, err := src.Tasks(ctx)
	return TasksLoadedMsg{
		Tasks:    tasks,
		Err:      err,
		Duration: time.Since(start),
	}
}

// TickCmd schedules the next poll tick. A non-positive interval disables
// polling.
func TickCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
