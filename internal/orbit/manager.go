// Package orbit implements the orbit lifecycle: launching an isolated
// worktree + tmux session + port set, resolving orbits by name, listing them
// and tearing them down while keeping the registry consistent with the
// external resources it describes.
package orbit

import (
	"context"
	"time"

	"orbit/internal/config"
	"orbit/internal/git"
	"orbit/internal/ports"
	"orbit/internal/registry"
	"orbit/internal/resolve"
	"orbit/internal/tmux"
)

// Session liveness as reported by List.
const (
	StateRunning = "running"
	StateStale   = "stale"
)

// Prompter asks the user to disambiguate names and confirm destructive steps.
type Prompter interface {
	resolve.Chooser
	Confirm(question string) (bool, error)
}

// Reporter receives progress notices and non-fatal warnings as they happen.
type Reporter interface {
	Notice(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

type nopReporter struct{}

func (nopReporter) Notice(string, ...interface{}) {}
func (nopReporter) Warn(string, ...interface{})   {}

// Deps are the collaborators a Manager works with.
type Deps struct {
	Config   config.Config
	Registry registry.Registry
	Git      git.Client
	Tmux     tmux.Multiplexer
	// Prober checks OS port availability; nil probes real TCP ports.
	Prober ports.Prober
	// Prompter may be nil, in which case ambiguous names and confirmations fail.
	Prompter Prompter
	Out      Reporter
	Now      func() time.Time
}

// Manager runs lifecycle operations. It holds no state of its own between
// calls; the registry is the source of truth.
type Manager struct {
	cfg       config.Config
	registry  registry.Registry
	git       git.Client
	tmux      tmux.Multiplexer
	allocator *ports.Allocator
	prompter  Prompter
	out       Reporter
	now       func() time.Time
}

// NewManager returns a Manager over deps.
func NewManager(deps Deps) *Manager {
	m := &Manager{
		cfg:       deps.Config,
		registry:  deps.Registry,
		git:       deps.Git,
		tmux:      deps.Tmux,
		allocator: ports.NewAllocator(deps.Prober),
		prompter:  deps.Prompter,
		out:       deps.Out,
		now:       deps.Now,
	}
	if m.out == nil {
		m.out = nopReporter{}
	}
	if m.now == nil {
		m.now = func() time.Time { return time.Now().UTC() }
	}
	return m
}

// Status is an orbit record plus its observed session liveness.
type Status struct {
	Orbit registry.Orbit `json:"orbit" yaml:"orbit"`
	State string         `json:"state" yaml:"state"`
}

func (m *Manager) chooser() resolve.Chooser {
	if m.prompter == nil {
		return nil
	}
	return m.prompter
}

func (m *Manager) liveness(ctx context.Context, name string) (bool, error) {
	live, err := m.tmux.HasSession(ctx, name)
	if err != nil {
		return false, classify(err, name)
	}
	return live, nil
}

// List reports every registered orbit in registry order with its liveness.
func (m *Manager) List(ctx context.Context) ([]Status, error) {
	state, err := m.registry.Load(ctx)
	if err != nil {
		return nil, err
	}
	names := state.Names()
	out := make([]Status, 0, len(names))
	for _, name := range names {
		o, _ := state.Get(name)
		live, err := m.liveness(ctx, name)
		if err != nil {
			return nil, err
		}
		s := Status{Orbit: o, State: StateStale}
		if live {
			s.State = StateRunning
		}
		out = append(out, s)
	}
	return out, nil
}

// Resolve returns the active orbit name matching requested.
func (m *Manager) Resolve(ctx context.Context, requested *string, allowPrefix bool) (string, error) {
	state, err := m.registry.Load(ctx)
	if err != nil {
		return "", err
	}
	active := state.Names()
	name, err := resolve.Resolve(requested, active, allowPrefix, m.chooser())
	if err != nil {
		n := ""
		if requested != nil {
			n = *requested
		}
		return "", classify(err, n)
	}
	if requested == nil && len(active) == 1 {
		m.out.Notice("Acting on: %s", name)
	}
	return name, nil
}

// Attach replaces the process with a tmux client attached to the orbit. The
// session is not checked first; tmux reports a dead session itself.
func (m *Manager) Attach(ctx context.Context, requested *string) error {
	name, err := m.Resolve(ctx, requested, false)
	if err != nil {
		return err
	}
	if m.tmux.InsideSession() {
		m.out.Warn("Already inside tmux; 'orbit jump %s' switches without nesting", name)
	}
	return classify(m.tmux.Attach(name), name)
}

// Jump switches the current tmux client to the orbit.
func (m *Manager) Jump(ctx context.Context, requested *string) (string, error) {
	if !m.tmux.InsideSession() {
		return "", newError(KindNotInMultiplexer, "", "not inside tmux; use 'orbit attach' instead")
	}
	name, err := m.Resolve(ctx, requested, true)
	if err != nil {
		return "", err
	}
	if err := m.tmux.SwitchClient(ctx, name); err != nil {
		return "", classify(err, name)
	}
	return name, nil
}
