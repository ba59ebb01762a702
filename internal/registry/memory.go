package registry

import (
	"context"
	"sync"
)

// MemoryRegistry is an in-process Registry for tests and dry runs.
type MemoryRegistry struct {
	mu    sync.Mutex
	state *State
}

// NewMemoryRegistry returns a registry seeded with a copy of initial, or an
// empty state when initial is nil.
func NewMemoryRegistry(initial *State) *MemoryRegistry {
	if initial == nil {
		initial = NewState()
	}
	return &MemoryRegistry{state: initial.Clone()}
}

// Load returns a copy of the current state.
func (m *MemoryRegistry) Load(ctx context.Context) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone(), nil
}

// Update applies fn to a copy and keeps it only when fn succeeds.
func (m *MemoryRegistry) Update(ctx context.Context, fn func(*State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	draft := m.state.Clone()
	if err := fn(draft); err != nil {
		return err
	}
	m.state = draft
	return nil
}
