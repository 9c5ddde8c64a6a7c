package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bigbuild/buildwizard/internal/domain"
	"github.com/bigbuild/buildwizard/internal/repository"
)

// Mock for WorkflowClient
type mockWorkflowClient struct{ mock.Mock }

func (m *mockWorkflowClient) Dispatch(
	ctx context.Context,
	owner, repo, eventType string,
	payload map[string]any,
) (int, error) {
	args := m.Called(ctx, owner, repo, eventType, payload)
	return args.Int(0), args.Error(1)
}

func (m *mockWorkflowClient) ListDirectories(ctx context.Context, owner, repo, ref, path string) ([]string, error) {
	args := m.Called(ctx, owner, repo, ref, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockWorkflowClient) ListContents(ctx context.Context, owner, repo, path string) ([]string, error) {
	args := m.Called(ctx, owner, repo, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockWorkflowClient) CreatePullRequest(
	ctx context.Context,
	owner, repo, title, body, head, base string,
) (repository.PullRequest, error) {
	args := m.Called(ctx, owner, repo, title, body, head, base)
	return args.Get(0).(repository.PullRequest), args.Error(1)
}

func (m *mockWorkflowClient) MergePullRequest(ctx context.Context, owner, repo string, number int, method string) error {
	args := m.Called(ctx, owner, repo, number, method)
	return args.Error(0)
}

func (m *mockWorkflowClient) ListTags(ctx context.Context, owner, repo string) ([]string, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockWorkflowClient) DeleteTag(ctx context.Context, owner, repo, tag string) error {
	args := m.Called(ctx, owner, repo, tag)
	return args.Error(0)
}

func (m *mockWorkflowClient) ListWorkflowRuns(
	ctx context.Context,
	owner, repo, status string,
) ([]repository.WorkflowRun, error) {
	args := m.Called(ctx, owner, repo, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.WorkflowRun), args.Error(1)
}

func (m *mockWorkflowClient) DeleteWorkflowRun(ctx context.Context, owner, repo string, id int64) error {
	args := m.Called(ctx, owner, repo, id)
	return args.Error(0)
}

// Mock for HistoryRepository
type mockHistoryRepository struct{ mock.Mock }

func (m *mockHistoryRepository) Append(ctx context.Context, rec domain.DispatchRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockHistoryRepository) Load(ctx context.Context) (*domain.DispatchHistory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DispatchHistory), args.Error(1)
}

// Mock for GitCollaborator
type mockGitCollaborator struct{ mock.Mock }

func (m *mockGitCollaborator) IsRepo() bool {
	return m.Called().Bool(0)
}

func (m *mockGitCollaborator) RemoteURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockGitCollaborator) RemoteOwnerRepo(ctx context.Context) (string, string, error) {
	args := m.Called(ctx)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockGitCollaborator) CurrentBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockGitCollaborator) HasUncommittedChanges(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockGitCollaborator) Pull(ctx context.Context, preferred, fallback string) (repository.PullOutcome, error) {
	args := m.Called(ctx, preferred, fallback)
	return args.Get(0).(repository.PullOutcome), args.Error(1)
}

func (m *mockGitCollaborator) CommitAndPush(ctx context.Context, message string) (bool, error) {
	args := m.Called(ctx, message)
	return args.Bool(0), args.Error(1)
}

func (m *mockGitCollaborator) CreateAndPushBranch(ctx context.Context, prefix string) (string, error) {
	args := m.Called(ctx, prefix)
	return args.String(0), args.Error(1)
}

func (m *mockGitCollaborator) PruneStaleBranches(ctx context.Context, keep []string) (domain.BatchResult, error) {
	args := m.Called(ctx, keep)
	return args.Get(0).(domain.BatchResult), args.Error(1)
}
