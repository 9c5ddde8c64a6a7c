package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/bigbuild/buildwizard/internal/config"
	"github.com/bigbuild/buildwizard/internal/domain"
	"github.com/bigbuild/buildwizard/internal/repository"
)

// Listing sources.
const (
	SourceTree     = "tree"
	SourceContents = "contents"
	SourceFallback = "fallback"
)

// ProfileListing is a discovered list of menu entries and where it came from.
type ProfileListing struct {
	Items  []string
	Source string
}

// DiscoverProfilesUseCase lists build directories and editions of a profile repository.
// It tries the tree listing, then the contents listing, then a built-in list.
type DiscoverProfilesUseCase struct {
	Client repository.WorkflowClient
	Logger *zap.Logger
	// Ref is the branch of the profile repository to list.
	Ref string
}

// BuildDirectories lists the top-level directories of the profile repository.
func (uc *DiscoverProfilesUseCase) BuildDirectories(ctx context.Context, profileRepoURL string) ProfileListing {
	return uc.discover(ctx, profileRepoURL, "", domain.FallbackBuildDirs)
}

// Editions lists the editions inside buildDir.
func (uc *DiscoverProfilesUseCase) Editions(ctx context.Context, profileRepoURL, buildDir string) ProfileListing {
	return uc.discover(ctx, profileRepoURL, buildDir, domain.FallbackEditions)
}

func (uc *DiscoverProfilesUseCase) discover(
	ctx context.Context,
	profileRepoURL, path string,
	fallback []string,
) ProfileListing {
	logger := nopIfNil(uc.Logger).With(zap.String("profiles", profileRepoURL), zap.String("path", path))
	owner, repo, err := config.ParseGitRemoteURL(profileRepoURL)
	if err != nil {
		logger.Warn("cannot parse profile repository, using fallback list", zap.Error(err))
		return fallbackListing(fallback)
	}
	ref := uc.Ref
	if ref == "" {
		ref = "main"
	}
	listers := []struct {
		source string
		list   func(ctx context.Context) ([]string, error)
	}{
		{SourceTree, func(ctx context.Context) ([]string, error) {
			return uc.Client.ListDirectories(ctx, owner, repo, ref, path)
		}},
		{SourceContents, func(ctx context.Context) ([]string, error) {
			return uc.Client.ListContents(ctx, owner, repo, path)
		}},
	}
	for _, l := range listers {
		items, err := listWithRetry(ctx, l.list)
		if err != nil {
			logger.Warn("directory listing failed", zap.String("source", l.source), zap.Error(err))
			continue
		}
		if len(items) == 0 {
			logger.Info("directory listing is empty", zap.String("source", l.source))
			continue
		}
		logger.Debug("directory listing", zap.String("source", l.source), zap.Strings("items", items))
		return ProfileListing{Items: items, Source: l.source}
	}
	return fallbackListing(fallback)
}

// listWithRetry retries transient failures. Missing configuration is not retried.
func listWithRetry(ctx context.Context, list func(ctx context.Context) ([]string, error)) ([]string, error) {
	var items []string
	err := retry.Do(
		ctx,
		retry.WithMaxRetries(DefaultRetryCount, retry.NewExponential(DefaultRetryDelay)),
		func(ctx context.Context) error {
			var err error
			items, err = list(ctx)
			if err == nil {
				return nil
			}
			if errors.Is(err, domain.ErrConfigurationMissing) || ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(err)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list directories: %w", err)
	}
	return items, nil
}

func fallbackListing(fallback []string) ProfileListing {
	items := make([]string, len(fallback))
	copy(items, fallback)
	return ProfileListing{Items: items, Source: SourceFallback}
}
