package usecase

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/bigbuild/buildwizard/internal/domain"
	"github.com/bigbuild/buildwizard/internal/repository"
)

// DeleteTagsUseCase deletes remote tags one by one. A failed tag never stops the loop.
type DeleteTagsUseCase struct {
	Client repository.WorkflowClient
	Logger *zap.Logger
}

// DeleteTagsInput selects the tags to delete. Explicit Tags win; otherwise every tag is
// listed and, when Keep is positive, the Keep newest semantic versions survive.
type DeleteTagsInput struct {
	Owner string
	Repo  string
	Tags  []string
	Keep  int
}

// Plan returns the tags Execute would delete.
func (uc *DeleteTagsUseCase) Plan(ctx context.Context, in DeleteTagsInput) ([]string, error) {
	if len(in.Tags) > 0 {
		return in.Tags, nil
	}
	tags, err := uc.Client.ListTags(ctx, in.Owner, in.Repo)
	if err != nil {
		return nil, err
	}
	if in.Keep > 0 {
		return domain.TagsToDelete(tags, in.Keep), nil
	}
	return tags, nil
}

// Execute deletes the planned tags and reports the aggregate outcome.
func (uc *DeleteTagsUseCase) Execute(ctx context.Context, in DeleteTagsInput) (domain.BatchResult, error) {
	var result domain.BatchResult
	tags, err := uc.Plan(ctx, in)
	if err != nil {
		return result, fmt.Errorf("failed to list tags: %w", err)
	}
	logger := nopIfNil(uc.Logger).With(zap.String("owner", in.Owner), zap.String("repo", in.Repo))
	for _, tag := range tags {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		err := uc.Client.DeleteTag(ctx, in.Owner, in.Repo, tag)
		result.Record(tag, err)
		if err != nil {
			logger.Warn("tag deletion failed", zap.String("tag", tag), zap.Error(err))
			continue
		}
		logger.Info("tag deleted", zap.String("tag", tag))
	}
	return result, nil
}

// DeleteRunsUseCase deletes workflow runs matching a status filter.
type DeleteRunsUseCase struct {
	Client repository.WorkflowClient
	Logger *zap.Logger
}

// DeleteRunsInput selects the runs to delete. An empty Status matches every run.
type DeleteRunsInput struct {
	Owner  string
	Repo   string
	Status string
}

// Execute deletes every matching run. Per-run failures are recorded, never returned.
func (uc *DeleteRunsUseCase) Execute(ctx context.Context, in DeleteRunsInput) (domain.BatchResult, error) {
	var result domain.BatchResult
	runs, err := uc.Client.ListWorkflowRuns(ctx, in.Owner, in.Repo, in.Status)
	if err != nil {
		return result, fmt.Errorf("failed to list workflow runs: %w", err)
	}
	logger := nopIfNil(uc.Logger).With(zap.String("owner", in.Owner), zap.String("repo", in.Repo))
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		err := uc.Client.DeleteWorkflowRun(ctx, in.Owner, in.Repo, run.ID)
		result.Record(strconv.FormatInt(run.ID, 10), err)
		if err != nil {
			logger.Warn("workflow run deletion failed", zap.Int64("run_id", run.ID), zap.Error(err))
			continue
		}
		logger.Info("workflow run deleted", zap.Int64("run_id", run.ID), zap.String("status", run.Status))
	}
	return result, nil
}

// PruneBranchesUseCase removes local branches whose upstream is gone.
type PruneBranchesUseCase struct {
	Git    repository.GitCollaborator
	Logger *zap.Logger
}

// Execute prunes stale branches, never touching keep.
func (uc *PruneBranchesUseCase) Execute(ctx context.Context, keep []string) (domain.BatchResult, error) {
	result, err := uc.Git.PruneStaleBranches(ctx, keep)
	if err != nil {
		return result, fmt.Errorf("failed to prune branches: %w", err)
	}
	logger := nopIfNil(uc.Logger)
	for _, f := range result.Failures {
		logger.Warn("branch deletion failed", zap.String("branch", f.Item), zap.Error(f.Err))
	}
	logger.Info("stale branches pruned", zap.Int("deleted", result.Succeeded), zap.Int("total", result.Total))
	return result, nil
}

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
