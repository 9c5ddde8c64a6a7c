package repository

import (
	"context"
	"fmt"

	"github.com/bigbuild/buildwizard/internal/domain"
)

// githubNoopClient is used when no token source is configured. Every call fails.
type githubNoopClient struct {
	reason string
}

// NewWorkflowNoopClient returns a WorkflowClient whose calls fail with ErrConfigurationMissing.
func NewWorkflowNoopClient(reason string) WorkflowClient {
	return &githubNoopClient{reason: reason}
}

func (c *githubNoopClient) Dispatch(_ context.Context, owner, repo, _ string, _ map[string]any) (int, error) {
	return 0, c.operationError("dispatch workflow", owner, repo)
}

func (c *githubNoopClient) ListDirectories(_ context.Context, owner, repo, _, _ string) ([]string, error) {
	return nil, c.operationError("list directories", owner, repo)
}

func (c *githubNoopClient) ListContents(_ context.Context, owner, repo, _ string) ([]string, error) {
	return nil, c.operationError("list contents", owner, repo)
}

func (c *githubNoopClient) CreatePullRequest(
	_ context.Context,
	owner, repo, _, _, _, _ string,
) (PullRequest, error) {
	return PullRequest{}, c.operationError("create pull request", owner, repo)
}

func (c *githubNoopClient) MergePullRequest(_ context.Context, owner, repo string, _ int, _ string) error {
	return c.operationError("merge pull request", owner, repo)
}

func (c *githubNoopClient) ListTags(_ context.Context, owner, repo string) ([]string, error) {
	return nil, c.operationError("list tags", owner, repo)
}

func (c *githubNoopClient) DeleteTag(_ context.Context, owner, repo, _ string) error {
	return c.operationError("delete tag", owner, repo)
}

func (c *githubNoopClient) ListWorkflowRuns(_ context.Context, owner, repo, _ string) ([]WorkflowRun, error) {
	return nil, c.operationError("list workflow runs", owner, repo)
}

func (c *githubNoopClient) DeleteWorkflowRun(_ context.Context, owner, repo string, _ int64) error {
	return c.operationError("delete workflow run", owner, repo)
}

func (c *githubNoopClient) operationError(action, owner, repo string) error {
	return fmt.Errorf("%w: unable to %s for %s/%s: %s",
		domain.ErrConfigurationMissing, action, owner, repo, c.reason)
}
