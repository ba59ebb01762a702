package git

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"orbit/pkg/logging"
)

// CommandRunner executes git with the given working directory.
type CommandRunner interface {
	Run(ctx context.Context, dir string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	full := append([]string{"-C", dir}, args...)
	logging.Debug("Git", "git %s", strings.Join(full, " "))

	cmd := exec.CommandContext(ctx, "git", full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return stdout.Bytes(), &CommandError{
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

// CLI implements Client with go-git for read-only repository inspection and
// the git binary for everything that mutates a repository or talks to a
// remote.
type CLI struct {
	runner CommandRunner
}

// NewCLI returns a client that shells out to the git binary on PATH.
func NewCLI() *CLI {
	return &CLI{runner: execRunner{}}
}

// NewCLIWithRunner returns a client using a custom command runner.
func NewCLIWithRunner(runner CommandRunner) *CLI {
	return &CLI{runner: runner}
}

var _ Client = (*CLI)(nil)

func open(path string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, err
	}
	return repo, nil
}

// IsRepository reports whether path is inside a git work tree.
func (c *CLI) IsRepository(path string) bool {
	_, err := open(path)
	return err == nil
}

// CurrentBranch returns the short name of the checked out branch. An unborn
// branch (no commits yet) is still reported by name.
func (c *CLI) CurrentBranch(path string) (string, error) {
	repo, err := open(path)
	if err != nil {
		return "", err
	}

	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", err
	}
	if head.Type() == plumbing.SymbolicReference && head.Target().IsBranch() {
		return head.Target().Short(), nil
	}
	return "", ErrDetachedHead
}

// Remotes returns the configured remote names, sorted.
func (c *CLI) Remotes(path string) ([]string, error) {
	repo, err := open(path)
	if err != nil {
		return nil, err
	}
	remotes, err := repo.Remotes()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(remotes))
	for _, r := range remotes {
		names = append(names, r.Config().Name)
	}
	sort.Strings(names)
	return names, nil
}

// BranchExistsLocally reports whether refs/heads/<branch> exists.
func (c *CLI) BranchExistsLocally(path, branch string) bool {
	repo, err := open(path)
	if err != nil {
		return false
	}
	_, err = repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	return err == nil
}

// BranchExistsOnRemote asks the remote whether it has the branch.
func (c *CLI) BranchExistsOnRemote(ctx context.Context, path, remote, branch string) (bool, error) {
	out, err := c.runner.Run(ctx, path, "ls-remote", "--heads", remote, branch)
	if err != nil {
		return false, err
	}
	return len(bytes.TrimSpace(out)) > 0, nil
}

// DefaultBranch finds the branch new work should start from. The remote's HEAD
// is authoritative; the cached refs/remotes/<remote>/HEAD and common local
// branch names are fallbacks. Returns "" when nothing is found.
func (c *CLI) DefaultBranch(ctx context.Context, path, remote string) string {
	if remote != "" {
		if out, err := c.runner.Run(ctx, path, "ls-remote", "--symref", remote, "HEAD"); err == nil {
			for _, line := range strings.Split(string(out), "\n") {
				if strings.HasPrefix(line, "ref: refs/heads/") && strings.HasSuffix(line, "\tHEAD") {
					return strings.TrimSuffix(strings.TrimPrefix(line, "ref: refs/heads/"), "\tHEAD")
				}
			}
		}

		prefix := "refs/remotes/" + remote + "/"
		if out, err := c.runner.Run(ctx, path, "symbolic-ref", prefix+"HEAD"); err == nil {
			ref := strings.TrimSpace(string(out))
			if strings.HasPrefix(ref, prefix) {
				return strings.TrimPrefix(ref, prefix)
			}
		}
	}

	for _, candidate := range []string{"main", "master", "develop"} {
		if c.BranchExistsLocally(path, candidate) {
			return candidate
		}
	}
	return ""
}

// Fetch fetches a single branch from remote.
func (c *CLI) Fetch(ctx context.Context, path, remote, branch string) error {
	_, err := c.runner.Run(ctx, path, "fetch", remote, branch)
	return err
}

var checkedOutPattern = regexp.MustCompile(`(?:already used by worktree at|is already checked out at) '([^']+)'`)

// AddWorktree creates worktreePath from repoPath with branch checked out.
func (c *CLI) AddWorktree(ctx context.Context, repoPath, worktreePath, branch string, opts AddOptions) error {
	args := []string{"worktree", "add"}
	if opts.CreateNew {
		args = append(args, "-b", branch, worktreePath)
		if opts.StartPoint != "" {
			args = append(args, opts.StartPoint)
		}
	} else {
		args = append(args, worktreePath, branch)
	}

	_, err := c.runner.Run(ctx, repoPath, args...)
	if err == nil {
		return nil
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		if m := checkedOutPattern.FindStringSubmatch(cmdErr.Stderr); m != nil {
			return &BranchCheckedOutError{Branch: branch, Location: m[1]}
		}
		if strings.Contains(cmdErr.Stderr, "already used by worktree") || strings.Contains(cmdErr.Stderr, "is already checked out") {
			return &BranchCheckedOutError{Branch: branch}
		}
	}
	return err
}

// MainRepository returns the primary work tree that owns worktreePath.
func (c *CLI) MainRepository(ctx context.Context, worktreePath string) (string, error) {
	out, err := c.runner.Run(ctx, worktreePath, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", err
	}
	gitDir := strings.TrimSpace(string(out))
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(worktreePath, gitDir)
	}
	return filepath.Dir(filepath.Clean(gitDir)), nil
}

// RemoveWorktree force-removes a linked worktree, discarding local changes.
func (c *CLI) RemoveWorktree(ctx context.Context, worktreePath string) error {
	repo, err := c.MainRepository(ctx, worktreePath)
	if err != nil {
		return err
	}
	_, err = c.runner.Run(ctx, repo, "worktree", "remove", "--force", worktreePath)
	return err
}

// HasUncommittedChanges reports whether git status shows anything.
func (c *CLI) HasUncommittedChanges(ctx context.Context, path string) (bool, error) {
	out, err := c.runner.Run(ctx, path, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return len(bytes.TrimSpace(out)) > 0, nil
}

// UntrackedFiles lists untracked paths relative to path, ignored files included.
func (c *CLI) UntrackedFiles(ctx context.Context, path string) ([]string, error) {
	out, err := c.runner.Run(ctx, path, "ls-files", "--others")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}
