package app

import (
	"errors"
	"fmt"
	"io"
	"os"

	"orbit/internal/config"
	"orbit/pkg/logging"
)

// Application is the main application structure that bootstraps orbit
type Application struct {
	config   *Config
	services *Services
}

// NewApplication initializes logging, loads configuration when required and
// wires the services. A missing config file yields a *config.Notice error.
func NewApplication(cfg *Config, stderr io.Writer) (*Application, error) {
	if stderr == nil {
		stderr = os.Stderr
	}
	appLogLevel := cfg.LogLevel
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}
	logging.InitForCLI(appLogLevel, stderr)

	if cfg.LoadPlanets {
		orbitCfg, err := config.LoadConfig(cfg.ConfigPath)
		if err != nil {
			var notice *config.Notice
			if !errors.As(err, &notice) {
				logging.Error("Bootstrap", err, "Failed to load orbit configuration")
			}
			return nil, err
		}
		logging.Debug("Bootstrap", "Loaded %d planet(s)", len(orbitCfg.Planets))
		cfg.OrbitConfig = &orbitCfg
	}

	services, err := InitializeServices(cfg, stderr)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Services returns the wired services.
func (a *Application) Services() *Services {
	return a.services
}

// Config returns the application configuration.
func (a *Application) Config() *Config {
	return a.config
}
