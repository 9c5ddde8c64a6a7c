package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bigbuild/buildwizard/internal/repository"
)

func TestCreatePullRequestUseCase_Execute(t *testing.T) {
	ctx := context.Background()
	pr := repository.PullRequest{Number: 12, URL: "https://github.com/communitybig/pkg/pull/12"}

	t.Run("Should create without merging by default", func(t *testing.T) {
		client := new(mockWorkflowClient)
		client.On("CreatePullRequest", mock.Anything, "communitybig", "pkg", "Merge dev-1 into main", "", "dev-1", "main").
			Return(pr, nil)
		uc := &CreatePullRequestUseCase{Client: client}
		result, err := uc.Execute(ctx, PullRequestInput{Owner: "communitybig", Repo: "pkg", Head: "dev-1", Base: "main"})
		require.NoError(t, err)
		assert.Equal(t, pr, result.PullRequest)
		assert.False(t, result.Merged)
		client.AssertNotCalled(t, "MergePullRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should merge when requested", func(t *testing.T) {
		client := new(mockWorkflowClient)
		client.On("CreatePullRequest", mock.Anything, mock.Anything, mock.Anything, "Release", "notes", "dev-1", "main").
			Return(pr, nil)
		client.On("MergePullRequest", mock.Anything, "communitybig", "pkg", 12, MergeMethodSquash).Return(nil)
		uc := &CreatePullRequestUseCase{Client: client}
		result, err := uc.Execute(ctx, PullRequestInput{
			Owner: "communitybig", Repo: "pkg", Title: "Release", Body: "notes",
			Head: "dev-1", Base: "main", AutoMerge: true, MergeMethod: MergeMethodSquash,
		})
		require.NoError(t, err)
		assert.True(t, result.Merged)
	})

	t.Run("Should degrade a failed merge to a warning", func(t *testing.T) {
		client := new(mockWorkflowClient)
		client.On("CreatePullRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(pr, nil)
		client.On("MergePullRequest", mock.Anything, mock.Anything, mock.Anything, 12, MergeMethodMerge).
			Return(errors.New("405 not mergeable"))
		uc := &CreatePullRequestUseCase{Client: client}
		result, err := uc.Execute(ctx, PullRequestInput{
			Owner: "communitybig", Repo: "pkg", Head: "dev-1", Base: "main", AutoMerge: true,
		})
		require.NoError(t, err)
		assert.Equal(t, 12, result.PullRequest.Number)
		assert.False(t, result.Merged)
		assert.ErrorContains(t, result.MergeErr, "not mergeable")
	})

	t.Run("Should fail when creation fails", func(t *testing.T) {
		client := new(mockWorkflowClient)
		client.On("CreatePullRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(repository.PullRequest{}, errors.New("422 no commits between main and dev-1"))
		uc := &CreatePullRequestUseCase{Client: client}
		_, err := uc.Execute(ctx, PullRequestInput{Owner: "communitybig", Repo: "pkg", Head: "dev-1", Base: "main"})
		assert.ErrorContains(t, err, "no commits")
	})

	t.Run("Should reject identical head and base", func(t *testing.T) {
		uc := &CreatePullRequestUseCase{Client: new(mockWorkflowClient)}
		_, err := uc.Execute(ctx, PullRequestInput{Owner: "o", Repo: "r", Head: "main", Base: "main"})
		assert.Error(t, err)
	})
}
