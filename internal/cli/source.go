package cli

import (
	"context"
	"sync"
	"time"

	"github.com/vanderheijden86/tend/internal/store"
	"github.com/vanderheijden86/tend/pkg/model"
	"github.com/vanderheijden86/tend/pkg/scope"
)

// scopedSource reads the store snapshot and applies the active scope. The
// TUI switches scopes on its update goroutine while the background worker
// loads, so the active scope is guarded.
type scopedSource struct {
	store    *store.Store
	order    store.Order
	registry *scope.Registry
	now      func() time.Time

	mu     sync.RWMutex
	active scope.Scope
}

func newScopedSource(st *store.Store, order store.Order, reg *scope.Registry, name string) (*scopedSource, error) {
	active, err := reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &scopedSource{
		store:    st,
		order:    order,
		registry: reg,
		now:      time.Now,
		active:   active,
	}, nil
}

// Tasks implements ui.TaskSource.
func (s *scopedSource) Tasks(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.store.Tasks(ctx, s.order)
	if err != nil {
		return nil, err
	}
	active := s.Scope()
	if active.IsZero() {
		return tasks, nil
	}
	return active.Apply(tasks, s.now())
}

// SetScope implements ui.ScopeSwitcher.
func (s *scopedSource) SetScope(name string) error {
	next, err := s.registry.Lookup(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.active = next
	s.mu.Unlock()
	return nil
}

// Scope returns the active scope.
func (s *scopedSource) Scope() scope.Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}
