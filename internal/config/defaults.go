package config

import (
	"path/filepath"
)

// DefaultSyncUntracked symlinks dotfiles such as .env into new worktrees.
var DefaultSyncUntracked = []string{".*"}

// Template is written when no configuration file exists yet.
const Template = `# Orbit configuration
# Add one entry per project (planet) you want to manage.
#
# worktree_root: ~/orbits      # optional; default is <planet parent>/<planet>.wt

planets:
  # - name: myproject
  #   path: ~/projects/myproject
  #   worktree_base: ~/orbits/myproject
  #   env:
  #     NODE_ENV: development
  #   sync_untracked: [".env*"]
  #   panes:
  #     - name: editor
  #       command: nvim
  #     - name: server
  #       command: npm run dev
  #       directory: web
  #       ports: [3000]
`

// GetDefaultConfig returns the configuration used before any file is merged.
func GetDefaultConfig() Config {
	return Config{
		Planets: []Planet{},
	}
}

// DefaultConfigPath returns ~/.orbit/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := GetUserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// DefaultStatePath returns ~/.orbit/state.json.
func DefaultStatePath() (string, error) {
	dir, err := GetUserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, stateFileName), nil
}
