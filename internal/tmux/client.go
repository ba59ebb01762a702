// Package tmux drives the tmux binary: sessions, environment, panes and
// client switching.
package tmux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"orbit/pkg/logging"
)

// CommandRunner executes tmux commands.
type CommandRunner interface {
	Run(ctx context.Context, args []string) ([]byte, error)
}

// Multiplexer is the session surface the lifecycle manager depends on.
type Multiplexer interface {
	HasSession(ctx context.Context, name string) (bool, error)
	NewSession(ctx context.Context, spec SessionSpec) error
	SetOption(ctx context.Context, session, option, value string) error
	SetupPanes(ctx context.Context, session string, panes []PaneSpec) error
	KillSession(ctx context.Context, name string) error
	SwitchClient(ctx context.Context, name string) error
	Attach(name string) error
	InsideSession() bool
}

// SessionSpec describes a session to create.
type SessionSpec struct {
	Name string
	// Dir is the first pane's starting directory.
	Dir string
	// Env is set before the first pane starts, so every pane inherits it.
	Env [][2]string
}

// CommandError describes a failed tmux invocation.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := "tmux " + strings.Join(e.Args, " ") + " failed"
	if e.Stderr != "" {
		return msg + ": " + e.Stderr
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Client executes tmux commands.
type Client struct {
	runner CommandRunner

	// Exec replaces the current process; swapped out in tests.
	Exec func(argv0 string, argv []string, envv []string) error
	// Getenv reads the process environment; swapped out in tests.
	Getenv func(key string) string
}

// NewClient returns a tmux client using the default command runner.
func NewClient() *Client {
	return NewClientWithRunner(execRunner{})
}

// NewClientWithRunner returns a tmux client using a custom command runner.
func NewClientWithRunner(runner CommandRunner) *Client {
	return &Client{runner: runner, Exec: syscall.Exec, Getenv: os.Getenv}
}

var _ Multiplexer = (*Client)(nil)

// HasSession reports whether the named session exists. tmux exiting non-zero
// means the session is absent; failing to run tmux at all is an error.
func (c *Client) HasSession(ctx context.Context, name string) (bool, error) {
	if c == nil || c.runner == nil {
		return false, errors.New("tmux runner unavailable")
	}
	_, err := c.runner.Run(ctx, []string{"has-session", "-t", exactTarget(name)})
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewSession creates a detached session. The environment goes on the
// new-session command line so the first pane's shell sees it, and into the
// session environment so later splits inherit it.
func (c *Client) NewSession(ctx context.Context, spec SessionSpec) error {
	args := []string{"new-session", "-d", "-s", spec.Name, "-c", spec.Dir}
	for _, kv := range spec.Env {
		args = append(args, "-e", kv[0]+"="+kv[1])
	}
	if err := c.run(ctx, args...); err != nil {
		return err
	}
	for _, kv := range spec.Env {
		if err := c.SetEnvironment(ctx, spec.Name, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// SetEnvironment sets a session environment variable inherited by panes
// created afterwards.
func (c *Client) SetEnvironment(ctx context.Context, session, key, value string) error {
	return c.run(ctx, "set-environment", "-t", exactTarget(session), key, value)
}

// SetOption sets a session option.
func (c *Client) SetOption(ctx context.Context, session, option, value string) error {
	return c.run(ctx, "set-option", "-t", windowTarget(session), option, value)
}

// FirstPane returns the id of the active pane in the session's current window.
func (c *Client) FirstPane(ctx context.Context, session string) (string, error) {
	return c.output(ctx, "display-message", "-p", "-t", windowTarget(session), "#{pane_id}")
}

// SplitWindow adds a pane to the session's current window and returns its id.
func (c *Client) SplitWindow(ctx context.Context, session, dir string) (string, error) {
	return c.output(ctx, "split-window", "-t", windowTarget(session), "-c", dir, "-P", "-F", "#{pane_id}")
}

// SelectLayout applies a layout to the session's current window.
func (c *Client) SelectLayout(ctx context.Context, session, layout string) error {
	return c.run(ctx, "select-layout", "-t", windowTarget(session), layout)
}

// SendKeys types command into target and presses Enter.
func (c *Client) SendKeys(ctx context.Context, target, command string) error {
	return c.run(ctx, "send-keys", "-t", target, command, "Enter")
}

// KillSession terminates a session.
func (c *Client) KillSession(ctx context.Context, name string) error {
	return c.run(ctx, "kill-session", "-t", exactTarget(name))
}

// SwitchClient moves the current tmux client to the named session.
func (c *Client) SwitchClient(ctx context.Context, name string) error {
	return c.run(ctx, "switch-client", "-t", exactTarget(name))
}

// Attach replaces the current process with `tmux attach-session`. It only
// returns on failure.
func (c *Client) Attach(name string) error {
	path, err := exec.LookPath("tmux")
	if err != nil {
		return &CommandError{Args: []string{"attach-session", "-t", name}, Err: err}
	}
	logging.Debug("Tmux", "exec tmux attach-session -t %s", name)
	if err := c.Exec(path, []string{"tmux", "attach-session", "-t", exactTarget(name)}, os.Environ()); err != nil {
		return &CommandError{Args: []string{"attach-session", "-t", name}, Err: err}
	}
	return nil
}

// InsideSession reports whether orbit is running inside a tmux client.
func (c *Client) InsideSession() bool {
	return c.Getenv("TMUX") != ""
}

func (c *Client) run(ctx context.Context, args ...string) error {
	if c == nil || c.runner == nil {
		return errors.New("tmux runner unavailable")
	}
	_, err := c.runner.Run(ctx, args)
	return err
}

func (c *Client) output(ctx context.Context, args ...string) (string, error) {
	if c == nil || c.runner == nil {
		return "", errors.New("tmux runner unavailable")
	}
	out, err := c.runner.Run(ctx, args)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// exactTarget stops tmux from prefix-matching session names, so "myapp" never
// resolves to "myapp-auth".
func exactTarget(name string) string {
	return "=" + name
}

// windowTarget names the current window of a session for commands that take
// a window or pane target. It does not depend on base-index.
func windowTarget(session string) string {
	return exactTarget(session) + ":"
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, args []string) ([]byte, error) {
	logging.Debug("Tmux", "tmux %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "tmux", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return stdout.Bytes(), &CommandError{
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}
