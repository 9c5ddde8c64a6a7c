package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"

	"github.com/bigbuild/buildwizard/internal/config"
)

const perPage = 100

// githubClient is the go-github implementation of WorkflowClient. One API client is
// built lazily per owner because each organization may use its own token.
type githubClient struct {
	tokens  TokenProvider
	baseURL string
	mu      sync.Mutex
	clients map[string]*github.Client
}

// NewWorkflowClient creates a WorkflowClient. baseURL selects a GitHub Enterprise API root;
// empty or api.github.com uses the public API.
func NewWorkflowClient(tokens TokenProvider, baseURL string) WorkflowClient {
	return &githubClient{
		tokens:  tokens,
		baseURL: strings.TrimSpace(baseURL),
		clients: map[string]*github.Client{},
	}
}

func (c *githubClient) clientFor(ctx context.Context, owner string) (*github.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.ToLower(owner)
	if client, ok := c.clients[key]; ok {
		return client, nil
	}
	token, err := c.tokens.Token(owner)
	if err != nil {
		return nil, err
	}
	if err := config.ValidateGitHubToken(token); err != nil {
		return nil, fmt.Errorf("invalid GitHub token: %w", err)
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: strings.TrimSpace(token)},
	)
	// The oauth2 transport keeps its own context; request contexts still bound each call
	tc := oauth2.NewClient(context.WithoutCancel(ctx), ts)
	client := github.NewClient(tc)
	if c.baseURL != "" && !strings.Contains(c.baseURL, "api.github.com") {
		client, err = client.WithEnterpriseURLs(c.baseURL, c.baseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure GitHub API url: %w", err)
		}
	}
	c.clients[key] = client
	return client, nil
}

// Dispatch implements WorkflowClient.
func (c *githubClient) Dispatch(
	ctx context.Context,
	owner, repo, eventType string,
	payload map[string]any,
) (int, error) {
	if err := config.ValidateGitHubOwnerRepo(owner, repo); err != nil {
		return 0, fmt.Errorf("invalid repository configuration: %w", err)
	}
	client, err := c.clientFor(ctx, owner)
	if err != nil {
		return 0, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode client payload: %w", err)
	}
	msg := json.RawMessage(raw)
	_, resp, err := client.Repositories.Dispatch(ctx, owner, repo, github.DispatchRequestOptions{
		EventType:     eventType,
		ClientPayload: &msg,
	})
	if resp != nil {
		return resp.StatusCode, err
	}
	return 0, err
}

// ListDirectories implements WorkflowClient.
func (c *githubClient) ListDirectories(ctx context.Context, owner, repo, ref, path string) ([]string, error) {
	client, err := c.clientFor(ctx, owner)
	if err != nil {
		return nil, err
	}
	tree, _, err := client.Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get tree %s/%s@%s: %w", owner, repo, ref, err)
	}
	prefix := strings.Trim(path, "/")
	if prefix != "" {
		prefix += "/"
	}
	var dirs []string
	for _, entry := range tree.Entries {
		if entry.GetType() != "tree" {
			continue
		}
		rest, ok := strings.CutPrefix(entry.GetPath(), prefix)
		if !ok || rest == "" || strings.Contains(rest, "/") || strings.HasPrefix(rest, ".") {
			continue
		}
		dirs = append(dirs, rest)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ListContents implements WorkflowClient.
func (c *githubClient) ListContents(ctx context.Context, owner, repo, path string) ([]string, error) {
	client, err := c.clientFor(ctx, owner)
	if err != nil {
		return nil, err
	}
	_, entries, _, err := client.Repositories.GetContents(ctx, owner, repo, strings.Trim(path, "/"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list contents of %s/%s/%s: %w", owner, repo, path, err)
	}
	var dirs []string
	for _, entry := range entries {
		if entry.GetType() == "dir" && !strings.HasPrefix(entry.GetName(), ".") {
			dirs = append(dirs, entry.GetName())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// CreatePullRequest creates a new pull request.
func (c *githubClient) CreatePullRequest(
	ctx context.Context,
	owner, repo, title, body, head, base string,
) (PullRequest, error) {
	client, err := c.clientFor(ctx, owner)
	if err != nil {
		return PullRequest{}, err
	}
	pr, _, err := client.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: &title,
		Body:  &body,
		Head:  &head,
		Base:  &base,
	})
	if err != nil {
		return PullRequest{}, fmt.Errorf("failed to create pull request: %w", err)
	}
	return PullRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL()}, nil
}

// MergePullRequest merges a pull request with the given method (merge, squash or rebase).
func (c *githubClient) MergePullRequest(ctx context.Context, owner, repo string, number int, method string) error {
	client, err := c.clientFor(ctx, owner)
	if err != nil {
		return err
	}
	_, _, err = client.PullRequests.Merge(ctx, owner, repo, number, "", &github.PullRequestOptions{
		MergeMethod: method,
	})
	if err != nil {
		return fmt.Errorf("failed to merge PR #%d: %w", number, err)
	}
	return nil
}

// ListTags returns every tag name of the repository.
func (c *githubClient) ListTags(ctx context.Context, owner, repo string) ([]string, error) {
	client, err := c.clientFor(ctx, owner)
	if err != nil {
		return nil, err
	}
	opts := &github.ListOptions{PerPage: perPage}
	var names []string
	for {
		tags, resp, err := client.Repositories.ListTags(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list tags: %w", err)
		}
		for _, t := range tags {
			names = append(names, t.GetName())
		}
		if resp.NextPage == 0 {
			return names, nil
		}
		opts.Page = resp.NextPage
	}
}

// DeleteTag removes a tag ref from the repository.
func (c *githubClient) DeleteTag(ctx context.Context, owner, repo, tag string) error {
	client, err := c.clientFor(ctx, owner)
	if err != nil {
		return err
	}
	if _, err := client.Git.DeleteRef(ctx, owner, repo, "tags/"+tag); err != nil {
		return fmt.Errorf("failed to delete tag %s: %w", tag, err)
	}
	return nil
}

// ListWorkflowRuns returns the runs matching status, or every run when status is empty.
func (c *githubClient) ListWorkflowRuns(ctx context.Context, owner, repo, status string) ([]WorkflowRun, error) {
	client, err := c.clientFor(ctx, owner)
	if err != nil {
		return nil, err
	}
	opts := &github.ListWorkflowRunsOptions{
		Status:      status,
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	var runs []WorkflowRun
	for {
		page, resp, err := client.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list workflow runs: %w", err)
		}
		for _, r := range page.WorkflowRuns {
			runs = append(runs, WorkflowRun{
				ID:        r.GetID(),
				Name:      r.GetName(),
				Status:    r.GetStatus(),
				Event:     r.GetEvent(),
				CreatedAt: r.GetCreatedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			return runs, nil
		}
		opts.Page = resp.NextPage
	}
}

// DeleteWorkflowRun deletes a single workflow run.
func (c *githubClient) DeleteWorkflowRun(ctx context.Context, owner, repo string, id int64) error {
	client, err := c.clientFor(ctx, owner)
	if err != nil {
		return err
	}
	if _, err := client.Actions.DeleteWorkflowRun(ctx, owner, repo, id); err != nil {
		return fmt.Errorf("failed to delete workflow run %d: %w", id, err)
	}
	return nil
}
