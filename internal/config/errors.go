package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfig marks configuration problems the user must fix by editing the
	// config file.
	ErrConfig = errors.New("configuration error")
	// ErrPlanetNotFound is returned when a directory is not inside any planet.
	ErrPlanetNotFound = errors.New("not within any configured planet")
)

// Notice is returned instead of a configuration when orbit created a file the
// user should review first. It is not a failure.
type Notice struct {
	Path    string
	Message string
}

func (n *Notice) Error() string {
	return n.Message
}

// PlanetNotFoundError lists the configured planets so the user can see why
// the directory did not match.
type PlanetNotFoundError struct {
	Dir     string
	Planets []Planet
}

func (e *PlanetNotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is not within any configured planet", e.Dir)
	if len(e.Planets) > 0 {
		b.WriteString("\nConfigured planets:")
		for _, p := range e.Planets {
			fmt.Fprintf(&b, "\n  - %s (%s)", p.Name, p.Path)
		}
	}
	return b.String()
}

func (e *PlanetNotFoundError) Is(target error) bool {
	return target == ErrPlanetNotFound || target == ErrConfig
}
