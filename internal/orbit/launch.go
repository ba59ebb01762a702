package orbit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"orbit/internal/config"
	"orbit/internal/git"
	"orbit/internal/ports"
	"orbit/internal/registry"
	"orbit/internal/slug"
	"orbit/internal/tmux"
	"orbit/pkg/logging"
)

// LaunchOptions are the inputs of Launch.
type LaunchOptions struct {
	// Cwd locates the planet and the repository; it must be inside both.
	Cwd string
	// Branch to check out; empty uses the branch checked out in Cwd.
	Branch string
	// Name replaces the default "<planet>-<branch>" orbit name.
	Name string
	// Base is the start point of a newly created branch; empty uses the
	// remote's default branch.
	Base string
}

// LaunchResult describes a launched orbit.
type LaunchResult struct {
	Orbit   registry.Orbit
	Notices []string
	// Synced lists untracked paths symlinked into the worktree.
	Synced []string
	// Switched is true when the current tmux client was moved to the orbit.
	Switched bool
	// AttachHint is the command that attaches to the orbit when Switched is false.
	AttachHint string
}

func (r *LaunchResult) note(out Reporter, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.Notices = append(r.Notices, msg)
	out.Notice("%s", msg)
}

type launchPlan struct {
	planet   *config.Planet
	name     string
	branch   string
	remote   string
	worktree string

	worktreeCreated bool
	sessionCreated  bool
}

// Launch creates a worktree, tmux session and port set for a branch of the
// planet containing opts.Cwd and registers them as one orbit. Either every
// step succeeds and the orbit is registered, or created resources are rolled
// back and nothing is registered.
func (m *Manager) Launch(ctx context.Context, opts LaunchOptions) (*LaunchResult, error) {
	res := &LaunchResult{}

	planet, err := config.DetectPlanet(m.cfg, opts.Cwd)
	if err != nil {
		return nil, classify(err, "")
	}
	if !m.git.IsRepository(opts.Cwd) {
		return nil, newError(KindNoRepository, "", "%s is not inside a git repository", opts.Cwd)
	}

	branch := opts.Branch
	if branch == "" {
		branch, err = m.git.CurrentBranch(opts.Cwd)
		if err != nil {
			return nil, fmt.Errorf("detecting branch: %w", err)
		}
	}

	remotes, err := m.git.Remotes(opts.Cwd)
	if err != nil {
		return nil, fmt.Errorf("listing remotes: %w", err)
	}
	remote, notice := git.ChooseRemote(remotes)
	if notice != "" {
		res.note(m.out, "%s", notice)
	}

	branchSlug := slug.Sanitize(branch)
	if opts.Name != "" {
		if err := validateName(opts.Name); err != nil {
			return nil, err
		}
	} else if branchSlug == "" {
		return nil, newError(KindEmptyName, "", "branch '%s' has no usable characters for an orbit name; pass --name", branch)
	}

	if dirty, err := m.git.HasUncommittedChanges(ctx, opts.Cwd); err == nil && dirty {
		res.note(m.out, "Working tree has uncommitted changes (not transferred to worktree)")
	}

	plan := &launchPlan{planet: planet, branch: branch, remote: remote}
	err = m.registry.Update(ctx, func(state *registry.State) error {
		planetSlug := state.AssignPlanetSlug(planet.ResolvedPath(), planetBaseSlug(planet))
		plan.name = opts.Name
		if plan.name == "" {
			plan.name = planetSlug + "-" + branchSlug
		}

		if _, exists := state.Get(plan.name); exists {
			live, err := m.liveness(ctx, plan.name)
			if err != nil {
				return err
			}
			if live {
				return newError(KindNameCollisionLive, plan.name,
					"an orbit named '%s' already exists; use --name, or 'orbit destroy %s' to tear it down first", plan.name, plan.name)
			}
			return newError(KindNameCollisionStale, plan.name,
				"an orbit named '%s' exists but its tmux session is gone (stale); run 'orbit destroy %s' then retry", plan.name, plan.name)
		}

		record, err := m.provision(ctx, plan, opts, state.ClaimedPorts(), res)
		if err == nil {
			record.Planet = planetSlug
			err = state.Add(record)
		}
		if err != nil {
			m.rollback(ctx, plan)
			return classify(err, plan.name)
		}
		res.Orbit = record
		return nil
	})
	if err != nil {
		if res.Orbit.Name != "" {
			// Provisioned but the registry write failed.
			m.rollback(ctx, plan)
		}
		return nil, err
	}

	logging.Info("Orbit", "Launched %s at %s", res.Orbit.Name, res.Orbit.Worktree)

	if m.tmux.InsideSession() {
		if err := m.tmux.SwitchClient(ctx, res.Orbit.Name); err != nil {
			m.out.Warn("Could not switch to %s: %v", res.Orbit.Name, err)
		} else {
			res.Switched = true
		}
	}
	if !res.Switched {
		res.AttachHint = "orbit attach " + res.Orbit.Name
	}
	return res, nil
}

// provision performs every external side effect of a launch, recording in
// plan what it created so rollback can undo it.
func (m *Manager) provision(ctx context.Context, plan *launchPlan, opts LaunchOptions, claimed map[int]struct{}, res *LaunchResult) (registry.Orbit, error) {
	base := plan.planet.WorktreeDir(m.cfg.WorktreeRoot)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return registry.Orbit{}, fmt.Errorf("creating worktree base %s: %w", base, err)
	}
	plan.worktree = filepath.Join(base, plan.name)

	if err := m.addWorktree(ctx, plan, opts, res); err != nil {
		return registry.Orbit{}, err
	}
	plan.worktreeCreated = true

	if err := ensureIgnored(plan.worktree); err != nil {
		return registry.Orbit{}, err
	}

	if patterns := plan.planet.SyncPatterns(); len(patterns) > 0 {
		synced, err := syncUntracked(ctx, m.git, plan.planet.ResolvedPath(), plan.worktree, patterns)
		if err != nil {
			return registry.Orbit{}, err
		}
		if len(synced) > 0 {
			res.Synced = synced
			res.note(m.out, "Synced %d untracked path(s) into worktree", len(synced))
		}
	}

	assigned, err := m.allocator.Assign(plan.planet.DeclaredPorts(), claimed)
	if err != nil {
		return registry.Orbit{}, err
	}
	if err := ports.WriteMapFile(plan.worktree, assigned); err != nil {
		return registry.Orbit{}, err
	}

	if err := ctx.Err(); err != nil {
		return registry.Orbit{}, err
	}
	if err := m.startSession(ctx, plan, assigned); err != nil {
		return registry.Orbit{}, err
	}

	return registry.Orbit{
		Name:        plan.name,
		Branch:      plan.branch,
		Worktree:    plan.worktree,
		TmuxSession: plan.name,
		Ports:       assigned,
		CreatedAt:   m.now(),
	}, ctx.Err()
}

func (m *Manager) addWorktree(ctx context.Context, plan *launchPlan, opts LaunchOptions, res *LaunchResult) error {
	branch := plan.branch

	if m.git.BranchExistsLocally(opts.Cwd, branch) {
		return m.git.AddWorktree(ctx, opts.Cwd, plan.worktree, branch, git.AddOptions{})
	}

	if plan.remote != "" {
		onRemote, err := m.git.BranchExistsOnRemote(ctx, opts.Cwd, plan.remote, branch)
		if err != nil {
			logging.Debug("Orbit", "Could not query %s for %s: %v", plan.remote, branch, err)
		}
		if onRemote {
			if err := m.git.Fetch(ctx, opts.Cwd, plan.remote, branch); err != nil {
				return err
			}
			return m.git.AddWorktree(ctx, opts.Cwd, plan.worktree, branch, git.AddOptions{
				CreateNew:  true,
				StartPoint: plan.remote + "/" + branch,
			})
		}
	}

	start := opts.Base
	if start == "" && plan.remote != "" {
		start = m.git.DefaultBranch(ctx, opts.Cwd, plan.remote)
	}
	if start != "" {
		res.note(m.out, "Branching '%s' from '%s'", branch, start)
	}
	return m.git.AddWorktree(ctx, opts.Cwd, plan.worktree, branch, git.AddOptions{CreateNew: true, StartPoint: start})
}

func (m *Manager) startSession(ctx context.Context, plan *launchPlan, assigned ports.Map) error {
	panes := paneSpecs(plan.planet, plan.worktree)

	err := m.tmux.NewSession(ctx, tmux.SessionSpec{
		Name: plan.name,
		Dir:  panes[0].Dir,
		Env:  sessionEnv(plan.planet, plan.name, plan.worktree, assigned),
	})
	if err != nil {
		return err
	}
	plan.sessionCreated = true

	options := [][2]string{
		{"mouse", "on"},
		{"status-left", " " + plan.name + " "},
		{"status-right", " " + plan.branch + " "},
	}
	for _, opt := range options {
		if err := m.tmux.SetOption(ctx, plan.name, opt[0], opt[1]); err != nil {
			return err
		}
	}

	return m.tmux.SetupPanes(ctx, plan.name, panes)
}

// rollback undoes what provision created. Failures are reported as warnings;
// the launch fails either way and nothing is registered.
func (m *Manager) rollback(ctx context.Context, plan *launchPlan) {
	ctx = context.WithoutCancel(ctx)

	if plan.sessionCreated {
		if err := m.tmux.KillSession(ctx, plan.name); err != nil {
			logging.Warn("Orbit", "Rollback: failed to kill session %s: %v", plan.name, err)
			m.out.Warn("Rollback: tmux session %s left running: %v", plan.name, err)
		}
	}
	if plan.worktreeCreated {
		if err := m.git.RemoveWorktree(ctx, plan.worktree); err != nil {
			logging.Warn("Orbit", "Rollback: failed to remove worktree %s: %v", plan.worktree, err)
			m.out.Warn("Rollback: worktree %s left in place: %v", plan.worktree, err)
		}
	}
}

func paneSpecs(planet *config.Planet, worktree string) []tmux.PaneSpec {
	if len(planet.Panes) == 0 {
		return []tmux.PaneSpec{{Dir: worktree}}
	}
	specs := make([]tmux.PaneSpec, 0, len(planet.Panes))
	for _, p := range planet.Panes {
		dir := worktree
		if p.Directory != "" && p.Directory != "." {
			dir = filepath.Join(worktree, p.Directory)
		}
		specs = append(specs, tmux.PaneSpec{Dir: dir, Command: p.Command})
	}
	return specs
}

// sessionEnv returns the variables injected into the session: the planet's
// env sorted by key, then ORBIT_NAME, ORBIT_WORKTREE and one
// ORBIT_PORT_<declared> per assigned port.
func sessionEnv(planet *config.Planet, name, worktree string, assigned ports.Map) [][2]string {
	keys := make([]string, 0, len(planet.Env))
	for k := range planet.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([][2]string, 0, len(keys)+2+assigned.Len())
	for _, k := range keys {
		env = append(env, [2]string{k, planet.Env[k]})
	}
	env = append(env,
		[2]string{"ORBIT_NAME", name},
		[2]string{"ORBIT_WORKTREE", worktree},
	)
	for _, a := range assigned.Entries() {
		env = append(env, [2]string{"ORBIT_PORT_" + strconv.Itoa(a.Declared), strconv.Itoa(a.Assigned)})
	}
	return env
}

func planetBaseSlug(planet *config.Planet) string {
	if s := slug.Sanitize(filepath.Base(planet.ResolvedPath())); s != "" {
		return s
	}
	if s := slug.Sanitize(planet.Name); s != "" {
		return s
	}
	return "planet"
}

// validateName rejects names tmux would rewrite or that cannot be a
// directory name.
func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return newError(KindEmptyName, name, "orbit name is empty")
	}
	if strings.ContainsAny(name, ":./\\ \t\n") {
		return newError(KindInvalidName, name, "orbit name '%s' may not contain ':', '.', '/', '\\' or whitespace", name)
	}
	return nil
}
