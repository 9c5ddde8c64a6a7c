package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	appconfig "github.com/bigbuild/buildwizard/internal/config"
	"github.com/bigbuild/buildwizard/internal/domain"
)

const (
	defaultRemote      = "origin"
	branchStampLayout  = "20060102-150405"
	defaultAuthorName  = "buildwizard"
	defaultAuthorEmail = "buildwizard@localhost"
)

// GitOptions configures a GitCollaborator.
type GitOptions struct {
	// Token authenticates pushes and pulls over https remotes.
	Token            string
	ConflictStrategy domain.ConflictStrategy
	Remote           string
	Now              func() time.Time
}

// gitCollaborator is the go-git implementation of GitCollaborator.
type gitCollaborator struct {
	repo     *git.Repository
	remote   string
	token    string
	strategy domain.ConflictStrategy
	now      func() time.Time
	// listRemote returns the branch names that exist on the remote.
	listRemote func(ctx context.Context) (map[string]bool, error)
}

// NewGitCollaborator opens the repository containing dir. Outside a repository the
// returned collaborator reports IsRepo false and every operation fails with ErrNotRepository.
func NewGitCollaborator(dir string, opts GitOptions) GitCollaborator {
	g := &gitCollaborator{
		remote:   opts.Remote,
		token:    strings.TrimSpace(opts.Token),
		strategy: opts.ConflictStrategy,
		now:      opts.Now,
	}
	if g.remote == "" {
		g.remote = defaultRemote
	}
	if g.strategy == "" {
		g.strategy = domain.ConflictAsk
	}
	if g.now == nil {
		g.now = time.Now
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err == nil {
		g.repo = repo
	}
	g.listRemote = g.remoteBranches
	return g
}

func (g *gitCollaborator) IsRepo() bool {
	return g.repo != nil
}

// RemoteURL returns the first URL of the configured remote.
func (g *gitCollaborator) RemoteURL(_ context.Context) (string, error) {
	if g.repo == nil {
		return "", ErrNotRepository
	}
	remote, err := g.repo.Remote(g.remote)
	if err != nil {
		return "", fmt.Errorf("failed to get remote %s: %w", g.remote, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no url", g.remote)
	}
	return urls[0], nil
}

func (g *gitCollaborator) RemoteOwnerRepo(ctx context.Context) (string, string, error) {
	url, err := g.RemoteURL(ctx)
	if err != nil {
		return "", "", err
	}
	return appconfig.ParseGitRemoteURL(url)
}

func (g *gitCollaborator) CurrentBranch(_ context.Context) (string, error) {
	if g.repo == nil {
		return "", ErrNotRepository
	}
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached")
	}
	return head.Name().Short(), nil
}

func (g *gitCollaborator) HasUncommittedChanges(_ context.Context) (bool, error) {
	if g.repo == nil {
		return false, ErrNotRepository
	}
	w, err := g.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := w.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	return !status.IsClean(), nil
}

// Pull implements GitCollaborator.
func (g *gitCollaborator) Pull(ctx context.Context, preferred, fallback string) (PullOutcome, error) {
	if g.repo == nil {
		return "", ErrNotRepository
	}
	w, err := g.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	var lastErr error
	for _, branch := range []string{preferred, fallback} {
		if branch == "" {
			continue
		}
		err := w.PullContext(ctx, &git.PullOptions{
			RemoteName:    g.remote,
			ReferenceName: plumbing.NewBranchReferenceName(branch),
			Auth:          g.auth(),
		})
		switch {
		case err == nil:
			return PullUpdated, nil
		case errors.Is(err, git.NoErrAlreadyUpToDate):
			return PullUpToDate, nil
		case errors.Is(err, git.ErrNonFastForwardUpdate):
			return g.resolveDivergence(w, branch)
		case isMissingRemoteRef(err):
			lastErr = err
			continue
		default:
			return "", fmt.Errorf("failed to pull %s: %w", branch, err)
		}
	}
	if lastErr == nil {
		return "", fmt.Errorf("no branch to pull")
	}
	return "", fmt.Errorf("failed to pull %s or %s: %w", preferred, fallback, lastErr)
}

func isMissingRemoteRef(err error) bool {
	var noMatch git.NoMatchingRefSpecError
	return errors.Is(err, plumbing.ErrReferenceNotFound) || errors.As(err, &noMatch)
}

// resolveDivergence applies the configured conflict strategy after a non fast-forward pull.
func (g *gitCollaborator) resolveDivergence(w *git.Worktree, branch string) (PullOutcome, error) {
	switch g.strategy {
	case domain.ConflictOurs:
		return PullKeptLocal, nil
	case domain.ConflictTheirs:
		ref, err := g.repo.Reference(plumbing.NewRemoteReferenceName(g.remote, branch), true)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s/%s: %w", g.remote, branch, err)
		}
		if err := w.Reset(&git.ResetOptions{Commit: ref.Hash(), Mode: git.HardReset}); err != nil {
			return "", fmt.Errorf("failed to reset to %s/%s: %w", g.remote, branch, err)
		}
		return PullResetToRemote, nil
	default:
		return "", fmt.Errorf("%w: %s (set conflict_strategy to ours or theirs, or resolve manually)",
			ErrBranchDiverged, branch)
	}
}

// CommitAndPush implements GitCollaborator.
func (g *gitCollaborator) CommitAndPush(ctx context.Context, message string) (bool, error) {
	dirty, err := g.HasUncommittedChanges(ctx)
	if err != nil {
		return false, err
	}
	if !dirty {
		return false, nil
	}
	w, err := g.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := w.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return false, fmt.Errorf("failed to stage changes: %w", err)
	}
	if _, err := w.Commit(message, &git.CommitOptions{Author: g.signature()}); err != nil {
		return false, fmt.Errorf("failed to create commit: %w", err)
	}
	branch, err := g.CurrentBranch(ctx)
	if err != nil {
		return true, err
	}
	if err := g.pushBranch(ctx, branch); err != nil {
		return true, err
	}
	return true, nil
}

// CreateAndPushBranch implements GitCollaborator.
func (g *gitCollaborator) CreateAndPushBranch(ctx context.Context, prefix string) (string, error) {
	if g.repo == nil {
		return "", ErrNotRepository
	}
	name := strings.TrimSuffix(prefix, "-") + "-" + g.now().Format(branchStampLayout)
	branchRef := plumbing.NewBranchReferenceName(name)
	if _, err := g.repo.Reference(branchRef, false); err == nil {
		return "", fmt.Errorf("branch %s already exists", name)
	}
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if err := g.repo.Storer.SetReference(plumbing.NewHashReference(branchRef, head.Hash())); err != nil {
		return "", fmt.Errorf("failed to create branch %s: %w", name, err)
	}
	if err := g.repo.CreateBranch(&config.Branch{
		Name:   name,
		Remote: g.remote,
		Merge:  branchRef,
	}); err != nil {
		return "", fmt.Errorf("failed to configure upstream for %s: %w", name, err)
	}
	w, err := g.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := w.Checkout(&git.CheckoutOptions{Branch: branchRef, Keep: true}); err != nil {
		return "", fmt.Errorf("failed to checkout %s: %w", name, err)
	}
	if err := g.pushBranch(ctx, name); err != nil {
		return name, err
	}
	return name, nil
}

// PruneStaleBranches implements GitCollaborator. A branch is stale when it tracks a
// remote branch that is gone. The current branch and keep are never deleted.
func (g *gitCollaborator) PruneStaleBranches(ctx context.Context, keep []string) (domain.BatchResult, error) {
	var result domain.BatchResult
	if g.repo == nil {
		return result, ErrNotRepository
	}
	current, err := g.CurrentBranch(ctx)
	if err != nil {
		return result, err
	}
	protected := map[string]bool{current: true}
	for _, k := range keep {
		protected[k] = true
	}
	cfg, err := g.repo.Config()
	if err != nil {
		return result, fmt.Errorf("failed to read git config: %w", err)
	}
	remoteBranches, err := g.listRemote(ctx)
	if err != nil {
		return result, err
	}
	iter, err := g.repo.Branches()
	if err != nil {
		return result, fmt.Errorf("failed to list branches: %w", err)
	}
	var stale []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if protected[name] {
			return nil
		}
		tracking, ok := cfg.Branches[name]
		if !ok || tracking.Remote != g.remote || tracking.Merge == "" {
			return nil
		}
		if !remoteBranches[tracking.Merge.Short()] {
			stale = append(stale, name)
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to iterate branches: %w", err)
	}
	for _, name := range stale {
		result.Record(name, g.deleteLocalBranch(name))
	}
	return result, nil
}

func (g *gitCollaborator) deleteLocalBranch(name string) error {
	if err := g.repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(name)); err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", name, err)
	}
	if err := g.repo.DeleteBranch(name); err != nil && !errors.Is(err, git.ErrBranchNotFound) {
		return fmt.Errorf("failed to remove tracking config of %s: %w", name, err)
	}
	return nil
}

// remoteBranches lists the branch names currently advertised by the remote.
func (g *gitCollaborator) remoteBranches(ctx context.Context) (map[string]bool, error) {
	remote, err := g.repo.Remote(g.remote)
	if err != nil {
		return nil, fmt.Errorf("failed to get remote: %w", err)
	}
	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: g.auth()})
	if err != nil {
		return nil, fmt.Errorf("failed to list remote refs: %w", err)
	}
	branches := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if ref.Name().IsBranch() {
			branches[ref.Name().Short()] = true
		}
	}
	return branches, nil
}

func (g *gitCollaborator) pushBranch(ctx context.Context, name string) error {
	err := g.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: g.remote,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", name, name))},
		Auth:       g.auth(),
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push branch %s: %w", name, err)
	}
	return nil
}

// auth returns token credentials for https remotes; ssh remotes use the agent.
func (g *gitCollaborator) auth() transport.AuthMethod {
	if g.token == "" || g.repo == nil {
		return nil
	}
	remote, err := g.repo.Remote(g.remote)
	if err != nil || len(remote.Config().URLs) == 0 {
		return nil
	}
	if !strings.HasPrefix(remote.Config().URLs[0], "http") {
		return nil
	}
	return &http.BasicAuth{Username: "x-access-token", Password: g.token}
}

// signature uses the configured git identity, falling back to a tool identity.
func (g *gitCollaborator) signature() *object.Signature {
	sig := &object.Signature{Name: defaultAuthorName, Email: defaultAuthorEmail, When: g.now()}
	for _, scope := range []config.Scope{config.LocalScope, config.GlobalScope} {
		cfg, err := g.repo.ConfigScoped(scope)
		if err != nil {
			continue
		}
		if cfg.User.Name != "" && cfg.User.Email != "" {
			sig.Name, sig.Email = cfg.User.Name, cfg.User.Email
			return sig
		}
	}
	return sig
}
