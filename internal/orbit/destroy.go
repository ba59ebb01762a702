package orbit

import (
	"context"
	"errors"
	"fmt"
	"os"

	"orbit/internal/ports"
	"orbit/internal/registry"
	"orbit/pkg/logging"
)

// DestroyOptions are the inputs of Destroy.
type DestroyOptions struct {
	// Name must match an active orbit exactly; nil picks the only active
	// orbit or prompts.
	Name *string
	// Force removes a worktree with uncommitted changes without asking.
	Force bool
}

// DestroyResult describes a torn down orbit.
type DestroyResult struct {
	Name string
	// WasStale is true when the tmux session was already gone.
	WasStale      bool
	ReleasedPorts ports.Map
	Notices       []string
}

func (r *DestroyResult) note(out Reporter, warn bool, format string, args ...interface{}) {
	if warn {
		out.Warn(format, args...)
	} else {
		out.Notice(format, args...)
	}
	r.Notices = append(r.Notices, fmt.Sprintf(format, args...))
}

// Destroy kills the orbit's session, removes its worktree and drops its
// record, releasing its ports. A stale orbit is cleaned up the same way. The
// record is removed last, so a destroy interrupted part way can be retried.
func (m *Manager) Destroy(ctx context.Context, opts DestroyOptions) (*DestroyResult, error) {
	name, err := m.Resolve(ctx, opts.Name, false)
	if err != nil {
		return nil, err
	}

	state, err := m.registry.Load(ctx)
	if err != nil {
		return nil, err
	}
	record, ok := state.Get(name)
	if !ok {
		return nil, newError(KindNotFound, name, "no orbit named '%s' found", name)
	}
	if err := m.confirmRemoval(ctx, record, opts.Force); err != nil {
		return nil, err
	}

	res := &DestroyResult{Name: name}
	err = m.registry.Update(ctx, func(state *registry.State) error {
		record, ok := state.Get(name)
		if !ok {
			return newError(KindNotFound, name, "no orbit named '%s' found", name)
		}

		live, err := m.liveness(ctx, name)
		if err != nil {
			return err
		}
		if live {
			if err := m.tmux.KillSession(ctx, name); err != nil {
				return classify(err, name)
			}
		} else {
			res.WasStale = true
		}

		res.ReleasedPorts = record.Ports
		if _, err := os.Stat(record.Worktree); err == nil {
			if err := m.git.RemoveWorktree(ctx, record.Worktree); err != nil {
				logging.Warn("Orbit", "Failed to remove worktree %s: %v", record.Worktree, err)
				res.note(m.out, true, "Failed to remove worktree %s: %v", record.Worktree, err)
			}
		} else if errors.Is(err, os.ErrNotExist) {
			res.note(m.out, false, "Worktree %s not found; skipping removal", record.Worktree)
		} else {
			res.note(m.out, true, "Could not inspect worktree %s: %v", record.Worktree, err)
		}

		state.Remove(name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info("Orbit", "Destroyed %s (stale=%t)", name, res.WasStale)
	return res, nil
}

// confirmRemoval asks before a worktree with uncommitted changes is deleted.
// It runs before the registry lock is taken so the prompt never blocks other
// orbit commands.
func (m *Manager) confirmRemoval(ctx context.Context, record registry.Orbit, force bool) error {
	if force {
		return nil
	}
	if _, err := os.Stat(record.Worktree); err != nil {
		return nil
	}
	dirty, err := m.git.HasUncommittedChanges(ctx, record.Worktree)
	if err != nil {
		logging.Debug("Orbit", "Could not check %s for changes: %v", record.Worktree, err)
		return nil
	}
	if !dirty {
		return nil
	}

	if m.prompter == nil {
		return newError(KindAborted, record.Name, "worktree at %s has uncommitted changes; pass --force to remove it anyway", record.Worktree)
	}
	ok, err := m.prompter.Confirm(fmt.Sprintf("Worktree at %s has uncommitted changes. Remove anyway?", record.Worktree))
	if err != nil {
		return err
	}
	if !ok {
		return newError(KindAborted, record.Name, "aborted; %s left untouched", record.Name)
	}
	return nil
}
