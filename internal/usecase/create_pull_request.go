package usecase

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/bigbuild/buildwizard/internal/repository"
)

// PullRequestInput describes the pull request to open.
type PullRequestInput struct {
	Owner       string
	Repo        string
	Title       string
	Body        string
	Head        string
	Base        string
	AutoMerge   bool
	MergeMethod string
}

// PullRequestResult reports the created pull request and whether it was merged.
type PullRequestResult struct {
	PullRequest repository.PullRequest
	Merged      bool
	// MergeErr is set when auto-merge failed after the pull request was created.
	MergeErr error
}

// CreatePullRequestUseCase opens a pull request and optionally merges it.
type CreatePullRequestUseCase struct {
	Client repository.WorkflowClient
	Logger *zap.Logger
}

// Execute creates the pull request. A failed auto-merge is reported in the result, not as an error.
func (uc *CreatePullRequestUseCase) Execute(ctx context.Context, in PullRequestInput) (*PullRequestResult, error) {
	if in.Head == "" || in.Base == "" {
		return nil, fmt.Errorf("head and base branches are required")
	}
	if in.Head == in.Base {
		return nil, fmt.Errorf("head and base are the same branch: %s", in.Head)
	}
	title := in.Title
	if title == "" {
		title = fmt.Sprintf("Merge %s into %s", in.Head, in.Base)
	}
	logger := nopIfNil(uc.Logger).With(
		zap.String("owner", in.Owner),
		zap.String("repo", in.Repo),
		zap.String("head", in.Head),
		zap.String("base", in.Base),
	)
	pr, err := uc.Client.CreatePullRequest(ctx, in.Owner, in.Repo, title, in.Body, in.Head, in.Base)
	if err != nil {
		logger.Error("pull request creation failed", zap.Error(err))
		return nil, err
	}
	logger.Info("pull request created", zap.Int("number", pr.Number), zap.String("url", pr.URL))
	result := &PullRequestResult{PullRequest: pr}
	if !in.AutoMerge {
		return result, nil
	}
	method := in.MergeMethod
	if method == "" {
		method = MergeMethodMerge
	}
	// GitHub may still be computing mergeability right after creation
	err = retry.Do(
		ctx,
		retry.WithMaxRetries(DefaultRetryCount, retry.NewExponential(DefaultRetryDelay)),
		func(ctx context.Context) error {
			if err := uc.Client.MergePullRequest(ctx, in.Owner, in.Repo, pr.Number, method); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		},
	)
	if err != nil {
		logger.Warn("auto-merge failed, pull request left open", zap.Int("number", pr.Number), zap.Error(err))
		result.MergeErr = err
		return result, nil
	}
	logger.Info("pull request merged", zap.Int("number", pr.Number), zap.String("method", method))
	result.Merged = true
	return result, nil
}
