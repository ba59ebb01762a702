package orbit

import (
	"errors"
	"fmt"

	"orbit/internal/config"
	"orbit/internal/git"
	"orbit/internal/ports"
	"orbit/internal/resolve"
	"orbit/internal/tmux"
)

// Kind classifies lifecycle failures.
type Kind string

const (
	KindConfig             Kind = "ConfigError"
	KindPlanetNotFound     Kind = "PlanetNotFound"
	KindNoRepository       Kind = "NoRepository"
	KindNameCollisionLive  Kind = "NameCollisionLive"
	KindNameCollisionStale Kind = "NameCollisionStale"
	KindNotFound           Kind = "NotFound"
	KindNoneActive         Kind = "NoneActive"
	KindInvalidSelection   Kind = "InvalidSelection"
	KindNotInMultiplexer   Kind = "NotInMultiplexer"
	KindSubprocess         Kind = "SubprocessFailure"
	KindPortExhausted      Kind = "PortExhausted"
	KindEmptyName          Kind = "EmptyName"
	KindInvalidName        Kind = "InvalidName"
	KindAborted            Kind = "Aborted"
)

// Error is a classified lifecycle failure. Compare against the Err* values
// with errors.Is.
type Error struct {
	Kind Kind
	// Name is the orbit the failure concerns, if any.
	Name string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind. A PlanetNotFound error is also a ConfigError.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return t.Kind == KindConfig && e.Kind == KindPlanetNotFound
}

var (
	ErrConfig             = &Error{Kind: KindConfig}
	ErrPlanetNotFound     = &Error{Kind: KindPlanetNotFound}
	ErrNoRepository       = &Error{Kind: KindNoRepository}
	ErrNameCollisionLive  = &Error{Kind: KindNameCollisionLive}
	ErrNameCollisionStale = &Error{Kind: KindNameCollisionStale}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrNoneActive         = &Error{Kind: KindNoneActive}
	ErrInvalidSelection   = &Error{Kind: KindInvalidSelection}
	ErrNotInMultiplexer   = &Error{Kind: KindNotInMultiplexer}
	ErrSubprocess         = &Error{Kind: KindSubprocess}
	ErrPortExhausted      = &Error{Kind: KindPortExhausted}
	ErrEmptyName          = &Error{Kind: KindEmptyName}
	ErrInvalidName        = &Error{Kind: KindInvalidName}
	ErrAborted            = &Error{Kind: KindAborted}
)

func newError(kind Kind, name, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Name: name, Msg: fmt.Sprintf(format, args...)}
}

// classify attaches a Kind to errors coming from collaborators. Errors that
// are already classified, or that have no matching kind, pass through.
func classify(err error, name string) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}

	var gitErr *git.CommandError
	var tmuxErr *tmux.CommandError
	switch {
	case errors.Is(err, config.ErrPlanetNotFound):
		return &Error{Kind: KindPlanetNotFound, Name: name, Err: err}
	case errors.Is(err, config.ErrConfig):
		return &Error{Kind: KindConfig, Name: name, Err: err}
	case errors.Is(err, resolve.ErrNotFound):
		return &Error{Kind: KindNotFound, Name: name, Err: err}
	case errors.Is(err, resolve.ErrNoneActive):
		return &Error{Kind: KindNoneActive, Err: err}
	case errors.Is(err, resolve.ErrInvalidSelection):
		return &Error{Kind: KindInvalidSelection, Err: err}
	case errors.Is(err, ports.ErrPortRangeExhausted):
		return &Error{Kind: KindPortExhausted, Name: name, Err: err}
	case errors.Is(err, git.ErrBranchCheckedOut),
		errors.As(err, &gitErr),
		errors.As(err, &tmuxErr):
		return &Error{Kind: KindSubprocess, Name: name, Err: err}
	}
	return err
}
