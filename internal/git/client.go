// Package git wraps the handful of git operations orbit needs: repository
// and branch detection, worktree creation and removal, and working tree
// inspection.
package git

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotRepository is returned when a path is not inside a git repository.
	ErrNotRepository = errors.New("not a git repository")
	// ErrDetachedHead is returned when HEAD does not point at a branch.
	ErrDetachedHead = errors.New("repository is in detached HEAD state")
	// ErrBranchCheckedOut is returned when a branch is already checked out in
	// another worktree.
	ErrBranchCheckedOut = errors.New("branch is already checked out")
)

// Client is the version-control surface used by the lifecycle manager.
type Client interface {
	IsRepository(path string) bool
	CurrentBranch(path string) (string, error)
	Remotes(path string) ([]string, error)
	BranchExistsLocally(path, branch string) bool
	BranchExistsOnRemote(ctx context.Context, path, remote, branch string) (bool, error)
	DefaultBranch(ctx context.Context, path, remote string) string
	Fetch(ctx context.Context, path, remote, branch string) error
	AddWorktree(ctx context.Context, repoPath, worktreePath, branch string, opts AddOptions) error
	RemoveWorktree(ctx context.Context, worktreePath string) error
	HasUncommittedChanges(ctx context.Context, path string) (bool, error)
	UntrackedFiles(ctx context.Context, path string) ([]string, error)
}

// AddOptions controls how a worktree is created.
type AddOptions struct {
	// CreateNew creates branch instead of checking out an existing one.
	CreateNew bool
	// StartPoint is the commit-ish the new branch starts from; empty means HEAD.
	StartPoint string
}

// CommandError describes a failed git invocation.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := "git " + strings.Join(e.Args, " ") + " failed"
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

// BranchCheckedOutError reports the worktree that already holds a branch.
type BranchCheckedOutError struct {
	Branch   string
	Location string
}

func (e *BranchCheckedOutError) Error() string {
	where := ""
	if e.Location != "" {
		where = " at " + e.Location
	}
	return fmt.Sprintf("branch '%s' is already checked out%s; run 'orbit launch <new-branch>' to start on a different branch", e.Branch, where)
}

func (e *BranchCheckedOutError) Is(target error) bool {
	return target == ErrBranchCheckedOut
}

// ChooseRemote picks the remote new branches are tracked against. origin is
// preferred; otherwise the alphabetically first remote is used and a notice
// explains the choice. No remotes yields "".
func ChooseRemote(remotes []string) (string, string) {
	if len(remotes) == 0 {
		return "", ""
	}
	sorted := append([]string(nil), remotes...)
	sort.Strings(sorted)
	for _, r := range sorted {
		if r == "origin" {
			return "origin", ""
		}
	}
	return sorted[0], fmt.Sprintf("No 'origin' remote found; using '%s'", sorted[0])
}
