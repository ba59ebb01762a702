package app

import (
	"os"
	"strconv"

	"orbit/internal/config"
	"orbit/pkg/logging"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug bool
	// LogLevel applies when Debug is off.
	LogLevel logging.LogLevel

	// ConfigPath is the planet configuration file; empty means ~/.orbit/config.yaml.
	ConfigPath string
	// StatePath is the registry file; empty means ~/.orbit/state.json.
	StatePath string

	// LoadPlanets loads and validates the planet configuration. Only
	// commands that launch orbits need it.
	LoadPlanets bool

	// Environment configuration, set by NewApplication when LoadPlanets is true.
	OrbitConfig *config.Config
}

// NewConfig creates a new application configuration. Empty paths and an unset
// debug flag fall back to ORBIT_CONFIG, ORBIT_STATE and ORBIT_DEBUG; the log
// level comes from ORBIT_LOG_LEVEL. A leading ~ in either path is expanded.
func NewConfig(debug bool, configPath, statePath string) *Config {
	if configPath == "" {
		configPath = os.Getenv("ORBIT_CONFIG")
	}
	if statePath == "" {
		statePath = os.Getenv("ORBIT_STATE")
	}
	if !debug {
		debug, _ = strconv.ParseBool(os.Getenv("ORBIT_DEBUG"))
	}
	return &Config{
		Debug:      debug,
		LogLevel:   logging.ParseLevel(os.Getenv("ORBIT_LOG_LEVEL")),
		ConfigPath: expandPath(configPath),
		StatePath:  expandPath(statePath),
	}
}

func expandPath(path string) string {
	if path == "" {
		return ""
	}
	return config.ExpandHome(path)
}
