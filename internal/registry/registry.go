// Package registry persists the set of active orbits.
//
// The registry is the single source of truth for which orbits exist. It is a
// JSON document rewritten atomically (write temp file, fsync, rename) while an
// advisory lock is held on an adjacent lock file, so concurrent orbit
// invocations never lose each other's updates.
//
// Every operation takes the Registry explicitly; there is no process-wide
// instance. MemoryRegistry provides the same semantics for tests.
package registry

import "context"

// Registry loads and transactionally updates State.
type Registry interface {
	// Load returns a snapshot of the current state.
	Load(ctx context.Context) (*State, error)
	// Update runs fn against the current state while holding the exclusive
	// lock. The state is persisted only if fn returns nil; on error nothing
	// is written and the error is returned unchanged.
	Update(ctx context.Context, fn func(*State) error) error
}
