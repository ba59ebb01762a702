package config

import (
	"path/filepath"
	"strings"
)

// Config is the top-level orbit configuration.
type Config struct {
	// WorktreeRoot, when set, holds every planet's worktrees under
	// <WorktreeRoot>/<planet name>.
	WorktreeRoot string   `yaml:"worktree_root,omitempty"`
	Planets      []Planet `yaml:"planets"`
}

// Planet is a registered codebase and the pane template its orbits get.
type Planet struct {
	Name         string            `yaml:"name"`
	Path         string            `yaml:"path"`
	Description  string            `yaml:"description,omitempty"`
	WorktreeBase string            `yaml:"worktree_base,omitempty"`
	Env          map[string]string `yaml:"env,omitempty"`
	// SyncUntracked lists basename globs of untracked files symlinked from the
	// planet into each new worktree. nil means DefaultSyncUntracked; an empty
	// list disables syncing.
	SyncUntracked []string `yaml:"sync_untracked,omitempty"`
	Panes         []Pane   `yaml:"panes,omitempty"`
}

// Pane describes one tmux pane of an orbit.
type Pane struct {
	Name string `yaml:"name"`
	// Command is typed into the pane after creation; empty leaves a shell.
	Command string `yaml:"command,omitempty"`
	// Directory is relative to the worktree root.
	Directory string `yaml:"directory,omitempty"`
	Ports     []int  `yaml:"ports,omitempty,flow"`
}

// ResolvedPath returns the planet path with ~ expanded, made absolute and with
// symlinks resolved where possible. It is the planet's identity.
func (p Planet) ResolvedPath() string {
	return resolvePath(p.Path)
}

// WorktreeDir returns the directory orbit worktrees of this planet live in.
func (p Planet) WorktreeDir(root string) string {
	if p.WorktreeBase != "" {
		return resolvePath(p.WorktreeBase)
	}
	if root != "" {
		return filepath.Join(resolvePath(root), p.Name)
	}
	dir := p.ResolvedPath()
	return filepath.Join(filepath.Dir(dir), filepath.Base(dir)+".wt")
}

// SyncPatterns returns the effective untracked-file patterns.
func (p Planet) SyncPatterns() []string {
	if p.SyncUntracked == nil {
		return DefaultSyncUntracked
	}
	return p.SyncUntracked
}

// DeclaredPorts gathers every pane's ports in declaration order.
func (p Planet) DeclaredPorts() []int {
	var ports []int
	for _, pane := range p.Panes {
		ports = append(ports, pane.Ports...)
	}
	return ports
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := osUserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func resolvePath(path string) string {
	path = ExpandHome(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return path
}

