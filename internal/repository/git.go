package repository

import (
	"context"
	"errors"

	"github.com/bigbuild/buildwizard/internal/domain"
)

var (
	// ErrNotRepository is returned by git operations outside a working tree.
	ErrNotRepository = errors.New("not a git repository")
	// ErrBranchDiverged is returned by Pull when local and remote histories diverged
	// and the conflict strategy asks the user to resolve it.
	ErrBranchDiverged = errors.New("local branch diverged from remote")
)

// PullOutcome describes what Pull did to the working tree.
type PullOutcome string

const (
	PullUpdated       PullOutcome = "updated"
	PullUpToDate      PullOutcome = "up-to-date"
	PullKeptLocal     PullOutcome = "kept-local"
	PullResetToRemote PullOutcome = "reset-to-remote"
)

// GitCollaborator wraps the local git lifecycle used by the package workflow.
type GitCollaborator interface {
	IsRepo() bool
	RemoteURL(ctx context.Context) (string, error)
	RemoteOwnerRepo(ctx context.Context) (string, string, error)
	CurrentBranch(ctx context.Context) (string, error)
	HasUncommittedChanges(ctx context.Context) (bool, error)
	// Pull pulls preferred, or fallback when preferred does not exist on the remote.
	Pull(ctx context.Context, preferred, fallback string) (PullOutcome, error)
	// CommitAndPush stages everything, commits and pushes the current branch.
	// It reports false without error when there is nothing to commit.
	CommitAndPush(ctx context.Context, message string) (bool, error)
	// CreateAndPushBranch creates a timestamped branch from HEAD, checks it out and pushes it.
	CreateAndPushBranch(ctx context.Context, prefix string) (string, error)
	// PruneStaleBranches deletes local branches whose upstream no longer exists.
	// Per-branch failures are recorded in the result, never returned.
	PruneStaleBranches(ctx context.Context, keep []string) (domain.BatchResult, error)
}
