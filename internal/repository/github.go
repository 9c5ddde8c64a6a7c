package repository

import (
	"context"
	"time"
)

// PullRequest identifies a created pull request.
type PullRequest struct {
	Number int
	URL    string
}

// WorkflowRun is the subset of a GitHub Actions run used for cleanup.
type WorkflowRun struct {
	ID        int64
	Name      string
	Status    string
	Event     string
	CreatedAt time.Time
}

// WorkflowClient defines the GitHub API operations used by buildwizard.
type WorkflowClient interface {
	// Dispatch sends a repository_dispatch event. It returns the HTTP status code whenever
	// a response was received, together with the API error for non-2xx codes.
	Dispatch(ctx context.Context, owner, repo, eventType string, payload map[string]any) (int, error)
	// ListDirectories lists the immediate subdirectories of path using the git tree API.
	ListDirectories(ctx context.Context, owner, repo, ref, path string) ([]string, error)
	// ListContents lists the immediate subdirectories of path using the contents API.
	ListContents(ctx context.Context, owner, repo, path string) ([]string, error)
	CreatePullRequest(ctx context.Context, owner, repo, title, body, head, base string) (PullRequest, error)
	MergePullRequest(ctx context.Context, owner, repo string, number int, method string) error
	ListTags(ctx context.Context, owner, repo string) ([]string, error)
	DeleteTag(ctx context.Context, owner, repo, tag string) error
	ListWorkflowRuns(ctx context.Context, owner, repo, status string) ([]WorkflowRun, error)
	DeleteWorkflowRun(ctx context.Context, owner, repo string, id int64) error
}

// TokenProvider resolves the API token for an organization.
type TokenProvider interface {
	Token(org string) (string, error)
}
