package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"orbit/internal/ports"
	"orbit/pkg/logging"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".orbit"
	projectConfigDir = ".orbit"
	configFileName   = "config.yaml"
	stateFileName    = "state.json"
)

// LoadConfig loads the orbit configuration by layering defaults, the user file
// at path (or ~/.orbit/config.yaml when path is empty) and an optional project
// file at ./.orbit/config.yaml.
//
// When the user file does not exist a commented template is written there and
// a *Notice is returned.
func LoadConfig(path string) (Config, error) {
	config := GetDefaultConfig()

	userConfigPath := ExpandHome(path)
	if userConfigPath == "" {
		var err error
		userConfigPath, err = getUserConfigPath()
		if err != nil {
			return Config{}, fmt.Errorf("%w: could not determine config path: %v", ErrConfig, err)
		}
	}

	if _, err := os.Stat(userConfigPath); os.IsNotExist(err) {
		if err := WriteTemplate(userConfigPath); err != nil {
			return Config{}, err
		}
		return Config{}, &Notice{
			Path:    userConfigPath,
			Message: fmt.Sprintf("Created %s; add your planets and run again.", userConfigPath),
		}
	}

	userConfig, err := loadConfigFromFile(userConfigPath)
	if err != nil {
		return Config{}, fmt.Errorf("%w: error loading config from %s: %v", ErrConfig, userConfigPath, err)
	}
	config = mergeConfigs(config, userConfig)

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		logging.Warn("Config", "Could not determine project config path: %v", err)
	} else if !samePath(projectConfigPath, userConfigPath) {
		if _, err := os.Stat(projectConfigPath); err == nil {
			projectConfig, err := loadConfigFromFile(projectConfigPath)
			if err != nil {
				return Config{}, fmt.Errorf("%w: error loading project config from %s: %v", ErrConfig, projectConfigPath, err)
			}
			logging.Debug("Config", "Merging project config %s", projectConfigPath)
			config = mergeConfigs(config, projectConfig)
		}
	}

	if len(config.Planets) == 0 {
		return Config{}, fmt.Errorf("%w: no planets configured in %s", ErrConfig, userConfigPath)
	}
	if err := Validate(config); err != nil {
		return Config{}, err
	}
	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a Config from a YAML file.
func loadConfigFromFile(filePath string) (Config, error) {
	var config Config
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Planets are
// matched by name: an overlay planet replaces the base one in place, new
// planets are appended.
func mergeConfigs(base, overlay Config) Config {
	merged := base
	if overlay.WorktreeRoot != "" {
		merged.WorktreeRoot = overlay.WorktreeRoot
	}

	index := make(map[string]int, len(base.Planets))
	merged.Planets = append([]Planet(nil), base.Planets...)
	for i, p := range merged.Planets {
		index[p.Name] = i
	}
	for _, p := range overlay.Planets {
		if i, ok := index[p.Name]; ok {
			merged.Planets[i] = p
			continue
		}
		index[p.Name] = len(merged.Planets)
		merged.Planets = append(merged.Planets, p)
	}
	return merged
}

// Validate checks planet names, paths and pane ports.
func Validate(config Config) error {
	seen := make(map[string]bool, len(config.Planets))
	for i, p := range config.Planets {
		if p.Name == "" {
			return fmt.Errorf("%w: planet #%d has no name", ErrConfig, i+1)
		}
		if p.Path == "" {
			return fmt.Errorf("%w: planet '%s' has no path", ErrConfig, p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: planet '%s' is defined twice", ErrConfig, p.Name)
		}
		seen[p.Name] = true
		for _, pane := range p.Panes {
			for _, port := range pane.Ports {
				if port < 1 || port > ports.MaxPort {
					return fmt.Errorf("%w: planet '%s' pane '%s' declares invalid port %d", ErrConfig, p.Name, pane.Name, port)
				}
			}
		}
	}
	return nil
}

// WriteTemplate creates path with the commented template, creating parent
// directories as needed. An existing file is left untouched.
func WriteTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("writing config template: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(Template); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

func samePath(a, b string) bool {
	return resolvePath(a) == resolvePath(b)
}
