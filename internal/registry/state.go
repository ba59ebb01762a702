package registry

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"orbit/internal/ports"
)

var (
	// ErrOrbitExists is returned when adding a record whose name is taken.
	ErrOrbitExists = errors.New("orbit already exists")
	// ErrPortClaimed is returned when adding a record that claims a port
	// another orbit already holds.
	ErrPortClaimed = errors.New("port already claimed by another orbit")
	// ErrCorruptState is returned when the registry file cannot be decoded.
	ErrCorruptState = errors.New("registry file is corrupt")
)

// Orbit is the registry record of one active orbit.
type Orbit struct {
	Name        string    `json:"name" yaml:"name"`
	Planet      string    `json:"planet" yaml:"planet"`
	Branch      string    `json:"branch" yaml:"branch"`
	Worktree    string    `json:"worktree" yaml:"worktree"`
	TmuxSession string    `json:"tmux_session" yaml:"tmux_session"`
	Ports       ports.Map `json:"ports" yaml:"ports"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// State is the full content of the registry.
type State struct {
	Orbits map[string]Orbit `json:"orbits"`
	// PlanetSlugs maps a planet identity (its resolved path) to the slug it
	// was first assigned. Entries are never rewritten.
	PlanetSlugs map[string]string `json:"planet_slugs,omitempty"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		Orbits:      make(map[string]Orbit),
		PlanetSlugs: make(map[string]string),
	}
}

func (s *State) ensure() {
	if s.Orbits == nil {
		s.Orbits = make(map[string]Orbit)
	}
	if s.PlanetSlugs == nil {
		s.PlanetSlugs = make(map[string]string)
	}
}

// Get returns the record called name.
func (s *State) Get(name string) (Orbit, bool) {
	o, ok := s.Orbits[name]
	return o, ok
}

// Add inserts o. Names must be unique and no assigned port may already be
// claimed by another orbit.
func (s *State) Add(o Orbit) error {
	s.ensure()
	if _, exists := s.Orbits[o.Name]; exists {
		return fmt.Errorf("%w: %s", ErrOrbitExists, o.Name)
	}
	claimed := s.ClaimedPorts()
	for _, p := range o.Ports.Values() {
		if _, taken := claimed[p]; taken {
			return fmt.Errorf("%w: %d", ErrPortClaimed, p)
		}
	}
	s.Orbits[o.Name] = o
	return nil
}

// Remove deletes the record called name and reports whether it existed.
func (s *State) Remove(name string) bool {
	if _, ok := s.Orbits[name]; !ok {
		return false
	}
	delete(s.Orbits, name)
	return true
}

// Names returns orbit names ordered by creation time, then name.
func (s *State) Names() []string {
	names := make([]string, 0, len(s.Orbits))
	for name := range s.Orbits {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := s.Orbits[names[i]], s.Orbits[names[j]]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Name < b.Name
	})
	return names
}

// ClaimedPorts returns every port assigned to any orbit.
func (s *State) ClaimedPorts() map[int]struct{} {
	out := make(map[int]struct{})
	for _, o := range s.Orbits {
		for _, p := range o.Ports.Values() {
			out[p] = struct{}{}
		}
	}
	return out
}

// AssignPlanetSlug returns the slug recorded for identity, assigning one on
// first use. The first planet to use a base slug gets it bare; later planets
// with the same base get "-2", "-3", ... in first-seen order.
func (s *State) AssignPlanetSlug(identity, base string) string {
	s.ensure()
	if existing, ok := s.PlanetSlugs[identity]; ok {
		return existing
	}

	used := make(map[string]bool, len(s.PlanetSlugs))
	for _, v := range s.PlanetSlugs {
		used[v] = true
	}
	candidate := base
	for n := 2; used[candidate]; n++ {
		candidate = base + "-" + strconv.Itoa(n)
	}
	s.PlanetSlugs[identity] = candidate
	return candidate
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	out := NewState()
	for k, v := range s.Orbits {
		v.Ports = ports.NewMap(v.Ports.Entries()...)
		out.Orbits[k] = v
	}
	for k, v := range s.PlanetSlugs {
		out.PlanetSlugs[k] = v
	}
	return out
}
