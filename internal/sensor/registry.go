package sensor

import (
	"context"
	"sync"

	"github.com/tejusbharadwaj/foenergy/internal/models"
)

// Registry is the in-memory entity registry shared with readers such as the
// HTTP state API and the health service.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	states    map[string]models.EntityState
	listeners []func()
}

func NewRegistry() *Registry {
	return &Registry{
		states: make(map[string]models.EntityState),
	}
}

// OnChange registers fn to be called after every change to the registry
func (r *Registry) OnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Registry) AddEntities(ctx context.Context, states []models.EntityState) error {
	r.mu.Lock()
	for _, state := range states {
		if _, ok := r.states[state.EntityID]; !ok {
			r.order = append(r.order, state.EntityID)
		}
		r.states[state.EntityID] = state
	}
	r.mu.Unlock()

	r.notify()
	return nil
}

// UpdateEntity stores state. Updates for entities that were never added are
// ignored.
func (r *Registry) UpdateEntity(ctx context.Context, state models.EntityState) error {
	r.mu.Lock()
	_, ok := r.states[state.EntityID]
	if ok {
		r.states[state.EntityID] = state
	}
	r.mu.Unlock()

	if ok {
		r.notify()
	}
	return nil
}

func (r *Registry) RemoveEntities(ctx context.Context, states []models.EntityState) error {
	r.mu.Lock()
	for _, state := range states {
		delete(r.states, state.EntityID)
	}
	order := r.order[:0]
	for _, id := range r.order {
		if _, ok := r.states[id]; ok {
			order = append(order, id)
		}
	}
	r.order = order
	r.mu.Unlock()

	r.notify()
	return nil
}

// States returns every registered entity in registration order
func (r *Registry) States() []models.EntityState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states := make([]models.EntityState, 0, len(r.order))
	for _, id := range r.order {
		states = append(states, r.states[id])
	}
	return states
}

// State looks up a single entity
func (r *Registry) State(entityID string) (models.EntityState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.states[entityID]
	return state, ok
}

// AnyAvailable reports whether at least one entity currently has a value
func (r *Registry) AnyAvailable() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, state := range r.states {
		if state.Available {
			return true
		}
	}
	return false
}

func (r *Registry) notify() {
	r.mu.RLock()
	listeners := append([]func(){}, r.listeners...)
	r.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

var _ Sink = (*Registry)(nil)
