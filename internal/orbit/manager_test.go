package orbit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbit/internal/config"
	"orbit/internal/git"
	"orbit/internal/ports"
	"orbit/internal/registry"
	"orbit/internal/tmux"
)

type fixture struct {
	root     string
	planet   string
	cfg      config.Config
	git      *fakeGit
	mux      *fakeMux
	reg      *registry.MemoryRegistry
	prompter *fakePrompter
	out      *recordingReporter
	busy     map[int]bool
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	planet := filepath.Join(root, "myapp")
	require.NoError(t, os.MkdirAll(planet, 0o755))

	return &fixture{
		root:   root,
		planet: planet,
		cfg: config.Config{Planets: []config.Planet{{
			Name:          "myapp",
			Path:          planet,
			Env:           map[string]string{"NODE_ENV": "development"},
			SyncUntracked: []string{},
			Panes: []config.Pane{
				{Name: "editor", Command: "nvim"},
				{Name: "db", Command: "docker compose up db", Ports: []int{5432}},
				{Name: "web", Command: "npm run dev", Directory: "web", Ports: []int{6379, 3000}},
			},
		}}},
		git: &fakeGit{
			branch:        "feature/auth-flow",
			remotes:       []string{"origin"},
			localBranches: map[string]bool{},
			defaultBranch: "main",
			dirty:         map[string]bool{},
		},
		mux:      newFakeMux(),
		reg:      registry.NewMemoryRegistry(nil),
		prompter: &fakePrompter{},
		out:      &recordingReporter{},
		busy:     map[int]bool{},
		clock:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func (f *fixture) manager() *Manager {
	return NewManager(Deps{
		Config:   f.cfg,
		Registry: f.reg,
		Git:      f.git,
		Tmux:     f.mux,
		Prober:   ports.ProberFunc(func(p int) bool { return !f.busy[p] }),
		Prompter: f.prompter,
		Out:      f.out,
		Now: func() time.Time {
			f.clock = f.clock.Add(time.Minute)
			return f.clock
		},
	})
}

func (f *fixture) launch(t *testing.T, opts LaunchOptions) (*LaunchResult, error) {
	t.Helper()
	if opts.Cwd == "" {
		opts.Cwd = f.planet
	}
	return f.manager().Launch(context.Background(), opts)
}

func (f *fixture) names(t *testing.T) []string {
	t.Helper()
	state, err := f.reg.Load(context.Background())
	require.NoError(t, err)
	return state.Names()
}

func strPtr(s string) *string { return &s }

func TestLaunch(t *testing.T) {
	f := newFixture(t)

	res, err := f.launch(t, LaunchOptions{})
	require.NoError(t, err)

	o := res.Orbit
	wantWorktree := filepath.Join(f.root, "myapp.wt", "myapp-feature-auth-flow")
	assert.Equal(t, "myapp-feature-auth-flow", o.Name)
	assert.Equal(t, "myapp", o.Planet)
	assert.Equal(t, "feature/auth-flow", o.Branch)
	assert.Equal(t, o.Name, o.TmuxSession)
	assert.Equal(t, wantWorktree, o.Worktree)
	assert.Equal(t, []int{5432, 6379, 3000}, o.Ports.Values())
	assert.Equal(t, "orbit attach myapp-feature-auth-flow", res.AttachHint)
	assert.False(t, res.Switched)

	// New branch from the remote's default branch.
	require.Len(t, f.git.added, 1)
	assert.Equal(t, git.AddOptions{CreateNew: true, StartPoint: "main"}, f.git.added[0].Opts)
	assert.Contains(t, res.Notices, "Branching 'feature/auth-flow' from 'main'")

	gitignore, err := os.ReadFile(filepath.Join(wantWorktree, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, ".orbit/\n", string(gitignore))

	written, err := ports.ReadMapFile(wantWorktree)
	require.NoError(t, err)
	assert.Equal(t, o.Ports.Entries(), written.Entries())

	env := f.mux.env[o.Name]
	assert.Equal(t, "development", env["NODE_ENV"])
	assert.Equal(t, o.Name, env["ORBIT_NAME"])
	assert.Equal(t, wantWorktree, env["ORBIT_WORKTREE"])
	assert.Equal(t, "5432", env["ORBIT_PORT_5432"])
	assert.Equal(t, "on", f.mux.options[o.Name]["mouse"])
	assert.Equal(t, " feature/auth-flow ", f.mux.options[o.Name]["status-right"])

	assert.Equal(t, []tmux.PaneSpec{
		{Dir: wantWorktree, Command: "nvim"},
		{Dir: wantWorktree, Command: "docker compose up db"},
		{Dir: filepath.Join(wantWorktree, "web"), Command: "npm run dev"},
	}, f.mux.panes[o.Name])

	assert.Equal(t, []string{o.Name}, f.names(t))
}

func TestLaunch_RemapsClaimedAndBusyPorts(t *testing.T) {
	f := newFixture(t)
	_, err := f.launch(t, LaunchOptions{Branch: "first"})
	require.NoError(t, err)

	f.busy[5433] = true
	res, err := f.launch(t, LaunchOptions{Branch: "second"})
	require.NoError(t, err)

	// 5432, 6379 and 3000 are claimed by the first orbit; 5433 is busy on the host.
	assert.Equal(t, []int{5434, 6380, 3001}, res.Orbit.Ports.Values())
	assert.Equal(t, "5434", f.mux.env[res.Orbit.Name]["ORBIT_PORT_5432"])
}

func TestLaunch_SwitchesInsideTmux(t *testing.T) {
	f := newFixture(t)
	f.mux.inside = true

	res, err := f.launch(t, LaunchOptions{})
	require.NoError(t, err)
	assert.True(t, res.Switched)
	assert.Empty(t, res.AttachHint)
	assert.Equal(t, []string{res.Orbit.Name}, f.mux.switched)
}

func TestLaunch_CheckoutStrategy(t *testing.T) {
	t.Run("local branch", func(t *testing.T) {
		f := newFixture(t)
		f.git.localBranches["feature/auth-flow"] = true
		_, err := f.launch(t, LaunchOptions{})
		require.NoError(t, err)
		assert.Equal(t, git.AddOptions{}, f.git.added[0].Opts)
		assert.Empty(t, f.git.fetched)
	})
	t.Run("remote branch", func(t *testing.T) {
		f := newFixture(t)
		f.git.remoteBranches = map[string]bool{"origin/feature/auth-flow": true}
		_, err := f.launch(t, LaunchOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"origin/feature/auth-flow"}, f.git.fetched)
		assert.Equal(t, git.AddOptions{CreateNew: true, StartPoint: "origin/feature/auth-flow"}, f.git.added[0].Opts)
	})
	t.Run("explicit base and non-origin remote", func(t *testing.T) {
		f := newFixture(t)
		f.git.remotes = []string{"upstream"}
		res, err := f.launch(t, LaunchOptions{Base: "release"})
		require.NoError(t, err)
		assert.Equal(t, "release", f.git.added[0].Opts.StartPoint)
		assert.Contains(t, res.Notices, "No 'origin' remote found; using 'upstream'")
	})
	t.Run("no remote", func(t *testing.T) {
		f := newFixture(t)
		f.git.remotes = nil
		_, err := f.launch(t, LaunchOptions{})
		require.NoError(t, err)
		assert.Equal(t, git.AddOptions{CreateNew: true}, f.git.added[0].Opts)
	})
}

func TestLaunch_NameOverride(t *testing.T) {
	f := newFixture(t)
	res, err := f.launch(t, LaunchOptions{Name: "scratch"})
	require.NoError(t, err)
	assert.Equal(t, "scratch", res.Orbit.Name)
	assert.Equal(t, filepath.Join(f.root, "myapp.wt", "scratch"), res.Orbit.Worktree)

	_, err = f.launch(t, LaunchOptions{Name: "bad:name"})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = f.launch(t, LaunchOptions{Branch: "///"})
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestLaunch_CollisionLiveThenDestroyAndRelaunch(t *testing.T) {
	f := newFixture(t)
	first, err := f.launch(t, LaunchOptions{})
	require.NoError(t, err)

	_, err = f.launch(t, LaunchOptions{})
	require.ErrorIs(t, err, ErrNameCollisionLive)
	assert.Contains(t, err.Error(), "--name")
	assert.Len(t, f.git.added, 1, "a collision must not create anything")

	_, err = f.manager().Destroy(context.Background(), DestroyOptions{Name: strPtr(first.Orbit.Name)})
	require.NoError(t, err)

	second, err := f.launch(t, LaunchOptions{})
	require.NoError(t, err)
	assert.Equal(t, first.Orbit.Name, second.Orbit.Name)
	assert.Equal(t, []string{first.Orbit.Name}, f.names(t))
}

func TestLaunch_CollisionStale(t *testing.T) {
	f := newFixture(t)
	res, err := f.launch(t, LaunchOptions{})
	require.NoError(t, err)
	delete(f.mux.sessions, res.Orbit.Name)

	_, err = f.launch(t, LaunchOptions{})
	require.ErrorIs(t, err, ErrNameCollisionStale)
	assert.Contains(t, err.Error(), "orbit destroy "+res.Orbit.Name)
	assert.Len(t, f.git.added, 1)
}

func TestLaunch_RollbackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.mux.failOn["SetupPanes"] = &tmux.CommandError{Args: []string{"split-window"}, Stderr: "no space for new pane"}

	_, err := f.launch(t, LaunchOptions{})
	require.ErrorIs(t, err, ErrSubprocess)
	assert.Contains(t, err.Error(), "no space for new pane")

	assert.Empty(t, f.names(t))
	assert.Empty(t, f.mux.live())
	assert.Equal(t, []string{"myapp-feature-auth-flow"}, f.mux.killed)
	require.Len(t, f.git.removed, 1)
	_, statErr := os.Stat(f.git.removed[0])
	assert.True(t, os.IsNotExist(statErr))

	// Nothing was registered, so the slug table is untouched too.
	state, err := f.reg.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.PlanetSlugs)
}

func TestLaunch_RollbackFailureIsWarnedNotRegistered(t *testing.T) {
	f := newFixture(t)
	f.mux.failOn["SetupPanes"] = &tmux.CommandError{Args: []string{"select-layout"}}
	f.git.removeErr = errors.New("worktree locked")

	_, err := f.launch(t, LaunchOptions{})
	require.Error(t, err)
	assert.Empty(t, f.names(t))
	require.Len(t, f.out.warnings, 1)
	assert.Contains(t, f.out.warnings[0], "worktree locked")
}

func TestLaunch_CancellationRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.mux.onSetupPanes = cancel

	_, err := f.manager().Launch(ctx, LaunchOptions{Cwd: f.planet})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.names(t))
	assert.Empty(t, f.mux.live())
	assert.Len(t, f.git.removed, 1)
}

func TestLaunch_WorktreeFailureCreatesNothing(t *testing.T) {
	f := newFixture(t)
	f.git.addErr = &git.BranchCheckedOutError{Branch: "feature/auth-flow", Location: "/src/myapp"}

	_, err := f.launch(t, LaunchOptions{})
	require.ErrorIs(t, err, ErrSubprocess)
	require.ErrorIs(t, err, git.ErrBranchCheckedOut)
	assert.Empty(t, f.git.removed)
	assert.Empty(t, f.mux.live())
}

func TestLaunch_PlanetAndRepository(t *testing.T) {
	f := newFixture(t)

	outside := filepath.Join(f.root, "elsewhere")
	require.NoError(t, os.MkdirAll(outside, 0o755))
	_, err := f.launch(t, LaunchOptions{Cwd: outside})
	require.ErrorIs(t, err, ErrPlanetNotFound)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "myapp")

	f.git.notRepo = true
	_, err = f.launch(t, LaunchOptions{})
	assert.ErrorIs(t, err, ErrNoRepository)
}

func TestLaunch_PlanetSlugCollision(t *testing.T) {
	f := newFixture(t)
	other := filepath.Join(f.root, "work", "myapp")
	require.NoError(t, os.MkdirAll(other, 0o755))
	f.cfg.Planets = append(f.cfg.Planets, config.Planet{Name: "work-myapp", Path: other})

	first, err := f.launch(t, LaunchOptions{Cwd: other, Branch: "main"})
	require.NoError(t, err)
	second, err := f.launch(t, LaunchOptions{Branch: "main"})
	require.NoError(t, err)
	assert.Equal(t, "myapp-main", first.Orbit.Name)
	assert.Equal(t, "myapp-2-main", second.Orbit.Name)

	// Reordering the config must not rename anything.
	f.cfg.Planets[0], f.cfg.Planets[1] = f.cfg.Planets[1], f.cfg.Planets[0]
	third, err := f.launch(t, LaunchOptions{Branch: "dev"})
	require.NoError(t, err)
	assert.Equal(t, "myapp-2-dev", third.Orbit.Name)
	assert.Equal(t, "myapp-2", third.Orbit.Planet)
}

func TestDestroy_StaleReleasesPortsThenNotFound(t *testing.T) {
	f := newFixture(t)
	res, err := f.launch(t, LaunchOptions{})
	require.NoError(t, err)
	name := res.Orbit.Name
	delete(f.mux.sessions, name)

	out, err := f.manager().Destroy(context.Background(), DestroyOptions{Name: strPtr(name)})
	require.NoError(t, err)
	assert.True(t, out.WasStale)
	assert.Equal(t, []int{5432, 6379, 3000}, out.ReleasedPorts.Values())
	assert.Empty(t, f.mux.killed)
	assert.Empty(t, f.names(t))

	state, err := f.reg.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.ClaimedPorts())

	_, err = f.manager().Destroy(context.Background(), DestroyOptions{Name: strPtr(name)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDestroy_NoPrefixMatching(t *testing.T) {
	f := newFixture(t)
	_, err := f.launch(t, LaunchOptions{})
	require.NoError(t, err)

	_, err = f.manager().Destroy(context.Background(), DestroyOptions{Name: strPtr("myapp")})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, f.names(t), 1)
}

func TestDestroy_MissingWorktreeIsNoted(t *testing.T) {
	f := newFixture(t)
	res, err := f.launch(t, LaunchOptions{})
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(res.Orbit.Worktree))

	out, err := f.manager().Destroy(context.Background(), DestroyOptions{})
	require.NoError(t, err)
	assert.False(t, out.WasStale)
	assert.Contains(t, out.Notices[0], "not found; skipping removal")
	assert.Empty(t, f.git.removed)
	assert.Contains(t, f.out.notices, "Acting on: "+res.Orbit.Name)
}

func TestDestroy_DirtyWorktree(t *testing.T) {
	f := newFixture(t)
	res, err := f.launch(t, LaunchOptions{})
	require.NoError(t, err)
	name := res.Orbit.Name
	f.git.dirty[res.Orbit.Worktree] = true

	_, err = f.manager().Destroy(context.Background(), DestroyOptions{Name: strPtr(name)})
	require.ErrorIs(t, err, ErrAborted)
	require.Len(t, f.prompter.asked, 1)
	assert.Contains(t, f.prompter.asked[0], "uncommitted changes")
	assert.Equal(t, []string{name}, f.names(t))
	assert.Equal(t, []string{name}, f.mux.live(), "declining must not kill the session")

	f.prompter.confirm = true
	_, err = f.manager().Destroy(context.Background(), DestroyOptions{Name: strPtr(name)})
	require.NoError(t, err)
	assert.Empty(t, f.names(t))
}

func TestDestroy_ForceSkipsPrompt(t *testing.T) {
	f := newFixture(t)
	res, err := f.launch(t, LaunchOptions{})
	require.NoError(t, err)
	f.git.dirty[res.Orbit.Worktree] = true

	_, err = f.manager().Destroy(context.Background(), DestroyOptions{Name: strPtr(res.Orbit.Name), Force: true})
	require.NoError(t, err)
	assert.Empty(t, f.prompter.asked)
	assert.Equal(t, []string{res.Orbit.Worktree}, f.git.removed)
}

func TestDestroy_WorktreeRemovalFailureStillUnregisters(t *testing.T) {
	f := newFixture(t)
	res, err := f.launch(t, LaunchOptions{})
	require.NoError(t, err)
	f.git.removeErr = errors.New("permission denied")

	out, err := f.manager().Destroy(context.Background(), DestroyOptions{Name: strPtr(res.Orbit.Name)})
	require.NoError(t, err)
	assert.Contains(t, out.Notices[0], "permission denied")
	assert.Empty(t, f.names(t))
}

func TestDestroy_ChoosesWhenSeveralActive(t *testing.T) {
	f := newFixture(t)
	for _, b := range []string{"a", "b", "c"} {
		_, err := f.launch(t, LaunchOptions{Branch: b})
		require.NoError(t, err)
	}
	f.prompter.choice = 1

	out, err := f.manager().Destroy(context.Background(), DestroyOptions{})
	require.NoError(t, err)
	assert.Equal(t, "myapp-b", out.Name)
	assert.Equal(t, [][]string{{"myapp-a", "myapp-b", "myapp-c"}}, f.prompter.choices)
	assert.Equal(t, []string{"myapp-a", "myapp-c"}, f.names(t))
}

func TestList(t *testing.T) {
	f := newFixture(t)
	statuses, err := f.manager().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, statuses)

	for _, b := range []string{"b", "a"} {
		_, err := f.launch(t, LaunchOptions{Branch: b})
		require.NoError(t, err)
	}
	delete(f.mux.sessions, "myapp-a")

	statuses, err = f.manager().List(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "myapp-b", statuses[0].Orbit.Name)
	assert.Equal(t, StateRunning, statuses[0].State)
	assert.Equal(t, "myapp-a", statuses[1].Orbit.Name)
	assert.Equal(t, StateStale, statuses[1].State)

	f.mux.failOn["HasSession"] = &tmux.CommandError{Args: []string{"has-session"}, Err: errors.New("tmux: not found")}
	_, err = f.manager().List(context.Background())
	assert.ErrorIs(t, err, ErrSubprocess)
}

func TestJump(t *testing.T) {
	f := newFixture(t)
	for _, b := range []string{"auth-flow", "ui-flow"} {
		_, err := f.launch(t, LaunchOptions{Branch: b})
		require.NoError(t, err)
	}

	_, err := f.manager().Jump(context.Background(), strPtr("myapp-auth"))
	require.ErrorIs(t, err, ErrNotInMultiplexer)

	f.mux.inside = true
	name, err := f.manager().Jump(context.Background(), strPtr("myapp-auth"))
	require.NoError(t, err)
	assert.Equal(t, "myapp-auth-flow", name)

	f.prompter.choice = 1
	name, err = f.manager().Jump(context.Background(), strPtr("myapp"))
	require.NoError(t, err)
	assert.Equal(t, "myapp-ui-flow", name)
	assert.Equal(t, []string{"myapp-auth-flow", "myapp-ui-flow"}, f.mux.switched)

	_, err = f.manager().Jump(context.Background(), strPtr("nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttach(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.manager().Attach(context.Background(), nil), ErrNoneActive)

	res, err := f.launch(t, LaunchOptions{})
	require.NoError(t, err)

	f.mux.inside = true
	require.NoError(t, f.manager().Attach(context.Background(), strPtr(res.Orbit.Name)))
	assert.Equal(t, []string{res.Orbit.Name}, f.mux.attached)
	require.Len(t, f.out.warnings, 1)
	assert.Contains(t, f.out.warnings[0], "orbit jump")

	// Dead sessions are attempted anyway and fail in tmux.
	delete(f.mux.sessions, res.Orbit.Name)
	err = f.manager().Attach(context.Background(), strPtr(res.Orbit.Name))
	assert.ErrorIs(t, err, ErrSubprocess)
}

func TestResolve_WithoutPrompter(t *testing.T) {
	f := newFixture(t)
	for _, b := range []string{"a", "b"} {
		_, err := f.launch(t, LaunchOptions{Branch: b})
		require.NoError(t, err)
	}
	m := NewManager(Deps{Config: f.cfg, Registry: f.reg, Git: f.git, Tmux: f.mux})
	_, err := m.Resolve(context.Background(), nil, false)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}
