package orbit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"orbit/internal/config"
	"orbit/internal/git"
	"orbit/internal/ports"
	"orbit/internal/resolve"
	"orbit/internal/tmux"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *Error
	}{
		{"planet", &config.PlanetNotFoundError{Dir: "/tmp"}, ErrPlanetNotFound},
		{"config", fmt.Errorf("%w: bad", config.ErrConfig), ErrConfig},
		{"not found", resolve.ErrNotFound, ErrNotFound},
		{"none active", resolve.ErrNoneActive, ErrNoneActive},
		{"selection", fmt.Errorf("%w: 9", resolve.ErrInvalidSelection), ErrInvalidSelection},
		{"ports", ports.ErrPortRangeExhausted, ErrPortExhausted},
		{"git", &git.CommandError{Args: []string{"fetch"}}, ErrSubprocess},
		{"tmux", fmt.Errorf("wrapped: %w", &tmux.CommandError{Args: []string{"new-session"}}), ErrSubprocess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err, "x")
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	plain := errors.New("plain")
	assert.Same(t, plain, classify(plain, ""))
	assert.Nil(t, classify(nil, ""))
}

func TestErrorKinds(t *testing.T) {
	err := newError(KindNameCollisionLive, "myapp-main", "taken")
	assert.ErrorIs(t, err, ErrNameCollisionLive)
	assert.NotErrorIs(t, err, ErrNameCollisionStale)
	assert.Equal(t, "taken", err.Error())

	planet := &Error{Kind: KindPlanetNotFound}
	assert.ErrorIs(t, planet, ErrConfig)
	assert.NotErrorIs(t, ErrConfig, ErrPlanetNotFound)
}
