package orbit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"orbit/internal/git"
	"orbit/internal/tmux"
)

type fakeGit struct {
	notRepo        bool
	branch         string
	remotes        []string
	localBranches  map[string]bool
	remoteBranches map[string]bool
	defaultBranch  string
	dirty          map[string]bool
	untracked      []string

	addErr    error
	removeErr error

	added   []addCall
	removed []string
	fetched []string
}

type addCall struct {
	Worktree string
	Branch   string
	Opts     git.AddOptions
}

var _ git.Client = (*fakeGit)(nil)

func (g *fakeGit) IsRepository(string) bool { return !g.notRepo }

func (g *fakeGit) CurrentBranch(string) (string, error) {
	if g.branch == "" {
		return "", git.ErrDetachedHead
	}
	return g.branch, nil
}

func (g *fakeGit) Remotes(string) ([]string, error) { return g.remotes, nil }

func (g *fakeGit) BranchExistsLocally(_, branch string) bool { return g.localBranches[branch] }

func (g *fakeGit) BranchExistsOnRemote(_ context.Context, _, remote, branch string) (bool, error) {
	return g.remoteBranches[remote+"/"+branch], nil
}

func (g *fakeGit) DefaultBranch(context.Context, string, string) string { return g.defaultBranch }

func (g *fakeGit) Fetch(_ context.Context, _, remote, branch string) error {
	g.fetched = append(g.fetched, remote+"/"+branch)
	return nil
}

func (g *fakeGit) AddWorktree(_ context.Context, _, worktree, branch string, opts git.AddOptions) error {
	if g.addErr != nil {
		return g.addErr
	}
	g.added = append(g.added, addCall{Worktree: worktree, Branch: branch, Opts: opts})
	return os.MkdirAll(worktree, 0o755)
}

func (g *fakeGit) RemoveWorktree(_ context.Context, worktree string) error {
	if g.removeErr != nil {
		return g.removeErr
	}
	g.removed = append(g.removed, worktree)
	return os.RemoveAll(worktree)
}

func (g *fakeGit) HasUncommittedChanges(_ context.Context, path string) (bool, error) {
	return g.dirty[path], nil
}

func (g *fakeGit) UntrackedFiles(context.Context, string) ([]string, error) {
	return g.untracked, nil
}

type fakeMux struct {
	mu       sync.Mutex
	sessions map[string]bool
	inside   bool
	// env holds what the first pane of each session started with; it can
	// only be supplied when the session is created.
	env      map[string]map[string]string
	options  map[string]map[string]string
	panes    map[string][]tmux.PaneSpec
	failOn   map[string]error
	// onSetupPanes runs before SetupPanes returns, e.g. to cancel a context.
	onSetupPanes func()

	killed   []string
	switched []string
	attached []string
}

func newFakeMux() *fakeMux {
	return &fakeMux{
		sessions: map[string]bool{},
		env:      map[string]map[string]string{},
		options:  map[string]map[string]string{},
		panes:    map[string][]tmux.PaneSpec{},
		failOn:   map[string]error{},
	}
}

var _ tmux.Multiplexer = (*fakeMux)(nil)

func (f *fakeMux) fail(op string) error {
	return f.failOn[op]
}

func (f *fakeMux) HasSession(_ context.Context, name string) (bool, error) {
	if err := f.fail("HasSession"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[name], nil
}

func (f *fakeMux) NewSession(_ context.Context, spec tmux.SessionSpec) error {
	if err := f.fail("NewSession"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessions[spec.Name] {
		return &tmux.CommandError{Args: []string{"new-session"}, Stderr: "duplicate session: " + spec.Name}
	}
	f.sessions[spec.Name] = true
	f.env[spec.Name] = map[string]string{}
	for _, kv := range spec.Env {
		f.env[spec.Name][kv[0]] = kv[1]
	}
	f.options[spec.Name] = map[string]string{}
	return nil
}

func (f *fakeMux) SetOption(_ context.Context, session, option, value string) error {
	opts, ok := f.options[session]
	if !ok {
		return &tmux.CommandError{Args: []string{"set-option"}, Stderr: "no such session: " + session}
	}
	opts[option] = value
	return nil
}

func (f *fakeMux) SetupPanes(ctx context.Context, session string, panes []tmux.PaneSpec) error {
	if f.onSetupPanes != nil {
		f.onSetupPanes()
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if err := f.fail("SetupPanes"); err != nil {
		return err
	}
	f.panes[session] = panes
	return nil
}

func (f *fakeMux) KillSession(_ context.Context, name string) error {
	if err := f.fail("KillSession"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.sessions[name] {
		return &tmux.CommandError{Args: []string{"kill-session"}, Stderr: "can't find session: " + name}
	}
	delete(f.sessions, name)
	f.killed = append(f.killed, name)
	return nil
}

func (f *fakeMux) SwitchClient(_ context.Context, name string) error {
	f.switched = append(f.switched, name)
	return nil
}

func (f *fakeMux) Attach(name string) error {
	f.attached = append(f.attached, name)
	if !f.sessions[name] {
		return &tmux.CommandError{Args: []string{"attach-session"}, Err: errors.New("can't find session")}
	}
	return nil
}

func (f *fakeMux) InsideSession() bool { return f.inside }

func (f *fakeMux) live() []string {
	var names []string
	for n := range f.sessions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type fakePrompter struct {
	choice  int
	confirm bool
	choices [][]string
	asked   []string
}

func (p *fakePrompter) Choose(candidates []string) (string, error) {
	p.choices = append(p.choices, candidates)
	return candidates[p.choice], nil
}

func (p *fakePrompter) Confirm(question string) (bool, error) {
	p.asked = append(p.asked, question)
	return p.confirm, nil
}

type recordingReporter struct {
	notices  []string
	warnings []string
}

func (r *recordingReporter) Notice(format string, args ...interface{}) {
	r.notices = append(r.notices, fmt.Sprintf(format, args...))
}

func (r *recordingReporter) Warn(format string, args ...interface{}) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}
