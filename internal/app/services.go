package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"orbit/internal/cli"
	"orbit/internal/config"
	"orbit/internal/git"
	"orbit/internal/orbit"
	"orbit/internal/prompt"
	"orbit/internal/registry"
	"orbit/internal/tmux"
)

// Services holds all the initialized collaborators
type Services struct {
	Registry  registry.Registry
	StatePath string
	Git       *git.CLI
	Tmux      *tmux.Client
	Prompter  *prompt.Prompter
	Console   *cli.Console
	Manager   *orbit.Manager
}

// InitializeServices creates the registry, the git and tmux clients, the
// prompter and the lifecycle manager over them.
func InitializeServices(cfg *Config, stderr io.Writer) (*Services, error) {
	statePath := config.ExpandHome(cfg.StatePath)
	if statePath == "" {
		var err error
		statePath, err = config.DefaultStatePath()
		if err != nil {
			return nil, fmt.Errorf("determining state path: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(statePath), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	var orbitCfg config.Config
	if cfg.OrbitConfig != nil {
		orbitCfg = *cfg.OrbitConfig
	}

	s := &Services{
		Registry:  registry.NewFileRegistry(statePath),
		StatePath: statePath,
		Git:       git.NewCLI(),
		Tmux:      tmux.NewClient(),
		Prompter:  prompt.NewTerminal(stderr),
		Console:   cli.NewConsole(stderr),
	}
	s.Manager = orbit.NewManager(orbit.Deps{
		Config:   orbitCfg,
		Registry: s.Registry,
		Git:      s.Git,
		Tmux:     s.Tmux,
		Prompter: s.Prompter,
		Out:      s.Console,
	})
	return s, nil
}
