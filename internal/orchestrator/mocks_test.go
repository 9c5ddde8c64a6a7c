package orchestrator

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/bigbuild/buildwizard/internal/domain"
	"github.com/bigbuild/buildwizard/internal/repository"
	"github.com/bigbuild/buildwizard/internal/ui"
	"github.com/bigbuild/buildwizard/internal/usecase"
)

// selection is one scripted answer. An empty pick confirms the highlighted default.
type selection struct {
	pick string
	err  error
}

func pick(label string) selection { return selection{pick: label} }
func enter() selection            { return selection{} }
func esc() selection              { return selection{err: ui.ErrSelectionCancelled} }
func ctrlC() selection            { return selection{err: domain.ErrUserCancelled} }

// scriptedSelector answers prompts from a fixed script and records what it was shown.
type scriptedSelector struct {
	t      *testing.T
	script []selection
	titles []string
	menus  [][]string
}

func newScriptedSelector(t *testing.T, script ...selection) *scriptedSelector {
	return &scriptedSelector{t: t, script: script}
}

func (s *scriptedSelector) Select(_ context.Context, title string, options []string, defaultIndex int) (int, error) {
	s.t.Helper()
	s.titles = append(s.titles, title)
	s.menus = append(s.menus, options)
	if len(s.script) == 0 {
		s.t.Fatalf("unexpected prompt %q", title)
	}
	next := s.script[0]
	s.script = s.script[1:]
	if next.err != nil {
		return -1, next.err
	}
	if next.pick == "" {
		return defaultIndex, nil
	}
	idx := slices.Index(options, next.pick)
	if idx < 0 {
		s.t.Fatalf("prompt %q has no option %q (options: %v)", title, next.pick, options)
	}
	return idx, nil
}

// Mock for ProfileDiscoverer
type mockDiscoverer struct{ mock.Mock }

func (m *mockDiscoverer) BuildDirectories(ctx context.Context, url string) usecase.ProfileListing {
	return m.Called(ctx, url).Get(0).(usecase.ProfileListing)
}

func (m *mockDiscoverer) Editions(ctx context.Context, url, buildDir string) usecase.ProfileListing {
	return m.Called(ctx, url, buildDir).Get(0).(usecase.ProfileListing)
}

// Mock for ISODispatcher
type mockISODispatcher struct{ mock.Mock }

func (m *mockISODispatcher) Execute(ctx context.Context, params domain.BuildParameters) (*usecase.DispatchResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.DispatchResult), args.Error(1)
}

// Mock for PackageDispatcher
type mockPackageDispatcher struct{ mock.Mock }

func (m *mockPackageDispatcher) Execute(
	ctx context.Context,
	owner string,
	build domain.PackageBuild,
) (*usecase.DispatchResult, error) {
	args := m.Called(ctx, owner, build)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.DispatchResult), args.Error(1)
}

// Mock for BranchPruner
type mockPruner struct{ mock.Mock }

func (m *mockPruner) Execute(ctx context.Context, keep []string) (domain.BatchResult, error) {
	args := m.Called(ctx, keep)
	return args.Get(0).(domain.BatchResult), args.Error(1)
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
