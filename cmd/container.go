package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bigbuild/buildwizard/internal/config"
	"github.com/bigbuild/buildwizard/internal/domain"
	"github.com/bigbuild/buildwizard/internal/logging"
	"github.com/bigbuild/buildwizard/internal/orchestrator"
	"github.com/bigbuild/buildwizard/internal/repository"
	"github.com/bigbuild/buildwizard/internal/ui"
	"github.com/bigbuild/buildwizard/internal/usecase"
)

// container holds all the dependencies for the application.
type container struct {
	cfg *config.Config

	fs           afero.Fs
	logger       *zap.Logger
	closeLog     func() error
	console      *ui.Console
	selector     ui.Selector
	settingsRepo repository.SettingsRepository
	settings     domain.Settings
	history      repository.HistoryRepository
	client       repository.WorkflowClient
	// tokenMissing explains why client is the noop client, empty when a token source exists
	tokenMissing string
	git          repository.GitCollaborator
}

// newContainer creates a new container with all the dependencies.
func newContainer(ctx context.Context, out, errOut io.Writer) (*container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	fs := afero.NewOsFs()
	console := ui.NewConsole(out, errOut)

	logger, closeLog, err := logging.New(fs, cfg.LogDir(), logRepoName(cfg), zapcore.InfoLevel)
	if err != nil {
		console.Warn("Logging disabled: %v", err)
		logger, closeLog = zap.NewNop(), func() error { return nil }
	}

	settingsRepo := repository.NewJSONSettingsRepository(fs, cfg.SettingsFile, logger)
	settings, err := settingsRepo.Load(ctx)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	tokens := config.NewTokenResolver(fs, cfg.TokenFile, cfg.GithubToken)
	client, tokenMissing := newWorkflowClient(fs, cfg, tokens, logger)

	// Pushes over https use the token of the remote owner when one is configured
	gitToken, _ := tokens.Token(cfg.GithubOwner)
	git := repository.NewGitCollaborator(".", repository.GitOptions{
		Token:            gitToken,
		ConflictStrategy: settings.ConflictStrategy,
	})

	return &container{
		cfg:          cfg,
		fs:           fs,
		logger:       logger,
		closeLog:     closeLog,
		console:      console,
		selector:     ui.NewTeaSelector(),
		settingsRepo: settingsRepo,
		settings:     settings,
		history:      repository.NewJSONHistoryRepository(fs, cfg.HistoryFile(), cfg.HistoryLimit),
		client:       client,
		tokenMissing: tokenMissing,
		git:          git,
	}, nil
}

// newWorkflowClient returns the go-github client, or a client that fails every call with
// domain.ErrConfigurationMissing when no token source exists. The second value is the
// reason the noop client was chosen.
func newWorkflowClient(
	fs afero.Fs,
	cfg *config.Config,
	tokens repository.TokenProvider,
	logger *zap.Logger,
) (repository.WorkflowClient, string) {
	if cfg.GithubToken == "" {
		if exists, _ := afero.Exists(fs, cfg.TokenFile); !exists {
			reason := fmt.Sprintf("no GitHub token, set GITHUB_TOKEN or create %s", cfg.TokenFile)
			logger.Warn("GitHub client disabled", zap.String("reason", reason))
			return repository.NewWorkflowNoopClient(reason), reason
		}
	}
	return repository.NewWorkflowClient(tokens, cfg.GithubAPIURL), ""
}

// requireToken fails before any menu is shown when dispatching cannot succeed.
func (c *container) requireToken() error {
	if c.tokenMissing != "" {
		return fmt.Errorf("%w: %s", domain.ErrConfigurationMissing, c.tokenMissing)
	}
	return nil
}

func logRepoName(cfg *config.Config) string {
	if cfg.GithubRepo != "" {
		return cfg.GithubRepo
	}
	if wd, err := os.Getwd(); err == nil {
		return filepath.Base(wd)
	}
	return ""
}

func (c *container) close() {
	if c.closeLog != nil {
		_ = c.closeLog()
	}
}

func (c *container) dispatcher() *usecase.Dispatcher {
	return &usecase.Dispatcher{
		Client:  c.client,
		History: c.history,
		Logger:  c.logger,
		Timeout: c.cfg.DispatchTimeout,
		Delay:   c.cfg.DispatchDelay,
	}
}

func (c *container) isoWizard() *orchestrator.ISOWizard {
	discover := &usecase.DiscoverProfilesUseCase{Client: c.client, Logger: c.logger, Ref: c.cfg.ProfilesRef}
	dispatch := &usecase.DispatchISOUseCase{Dispatcher: c.dispatcher(), Repo: c.cfg.ISOWorkflowRepo}
	return orchestrator.NewISOWizard(c.selector, c.console, discover, dispatch, c.settings, c.logger)
}

func (c *container) packageWizard() *orchestrator.PackageWizard {
	dispatch := &usecase.DispatchPackageUseCase{Dispatcher: c.dispatcher(), Repo: c.cfg.PackageWorkflowRepo}
	prune := &usecase.PruneBranchesUseCase{Git: c.git, Logger: c.logger}
	return orchestrator.NewPackageWizard(c.selector, c.console, c.git, dispatch, prune, c.settings, c.logger)
}

// repository resolves the owner/repo a command works on: the flag value, then the
// configured or detected repository.
func (c *container) repository(flag string) (string, string, error) {
	owner, repo := c.cfg.GithubOwner, c.cfg.GithubRepo
	if flag != "" {
		var err error
		owner, repo, err = config.ParseGitRemoteURL(flag)
		if err != nil {
			return "", "", fmt.Errorf("invalid --repo %q: %w", flag, err)
		}
	}
	if err := config.ValidateGitHubOwnerRepo(owner, repo); err != nil {
		return "", "", fmt.Errorf("%w: repository (use --repo owner/name): %v", domain.ErrConfigurationMissing, err)
	}
	return owner, repo, nil
}
