// Package resolve turns a user supplied (or omitted) orbit name into exactly
// one active orbit name.
package resolve

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotFound means no active orbit matches the requested name.
	ErrNotFound = errors.New("no matching orbit")
	// ErrNoneActive means no name was given and no orbit is active.
	ErrNoneActive = errors.New("no active orbits")
	// ErrInvalidSelection means an interactive choice was not a listed number.
	ErrInvalidSelection = errors.New("invalid selection")
)

// Chooser picks one candidate out of two or more.
type Chooser interface {
	Choose(candidates []string) (string, error)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(candidates []string) (string, error)

// Choose calls f.
func (f ChooserFunc) Choose(candidates []string) (string, error) { return f(candidates) }

// Resolve picks one name out of active.
//
// With requested set and allowPrefix false, requested must match exactly.
// With allowPrefix true an exact match still wins, otherwise every active
// name starting with requested is a candidate. With requested nil a single
// active orbit is chosen automatically. Two or more candidates are handed to
// chooser.
func Resolve(requested *string, active []string, allowPrefix bool, chooser Chooser) (string, error) {
	if requested != nil {
		want := *requested
		for _, name := range active {
			if name == want {
				return name, nil
			}
		}
		if !allowPrefix {
			return "", fmt.Errorf("%w: no orbit named '%s'", ErrNotFound, want)
		}

		var matches []string
		for _, name := range active {
			if strings.HasPrefix(name, want) {
				matches = append(matches, name)
			}
		}
		switch len(matches) {
		case 0:
			return "", fmt.Errorf("%w: no orbit matching '%s'", ErrNotFound, want)
		case 1:
			return matches[0], nil
		default:
			return choose(chooser, matches)
		}
	}

	switch len(active) {
	case 0:
		return "", ErrNoneActive
	case 1:
		return active[0], nil
	default:
		return choose(chooser, active)
	}
}

func choose(chooser Chooser, candidates []string) (string, error) {
	if chooser == nil {
		return "", fmt.Errorf("%w: %d orbits match (%s); name one explicitly",
			ErrInvalidSelection, len(candidates), strings.Join(candidates, ", "))
	}
	picked, err := chooser.Choose(candidates)
	if err != nil {
		return "", err
	}
	for _, c := range candidates {
		if c == picked {
			return picked, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not a candidate", ErrInvalidSelection, picked)
}

// ParseSelection converts a 1-based menu answer into a 0-based index.
func ParseSelection(input string, count int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > count {
		return 0, fmt.Errorf("%w: %q (expected 1-%d)", ErrInvalidSelection, strings.TrimSpace(input), count)
	}
	return n - 1, nil
}
