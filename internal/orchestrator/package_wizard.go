package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/bigbuild/buildwizard/internal/config"
	"github.com/bigbuild/buildwizard/internal/domain"
	"github.com/bigbuild/buildwizard/internal/repository"
	"github.com/bigbuild/buildwizard/internal/ui"
	"github.com/bigbuild/buildwizard/internal/usecase"
)

// PackageDispatcher sends a package build to the workflow repository of owner.
type PackageDispatcher interface {
	Execute(ctx context.Context, owner string, build domain.PackageBuild) (*usecase.DispatchResult, error)
}

// BranchPruner removes local branches whose upstream is gone.
type BranchPruner interface {
	Execute(ctx context.Context, keep []string) (domain.BatchResult, error)
}

// PackageWizardConfig contains configuration for the package wizard.
type PackageWizardConfig struct {
	// AUR selects the externally hosted payload shape; Package is then the AUR name or URL
	AUR     bool
	Package string
	// Organization overrides the owner of the git remote as dispatch target
	Organization  string
	BranchType    string
	CommitMessage string
	DebugSession  bool
	Yes           bool
}

// PackageWizardResult reports the outcome of the package wizard.
type PackageWizardResult struct {
	Build      domain.PackageBuild
	Owner      string
	Repository string
	Branch     string
	Pull       repository.PullOutcome
	Committed  bool
	Dispatched bool
	Dispatch   *usecase.DispatchResult
	Pruned     *domain.BatchResult
}

// PackageWizard prepares the local repository and dispatches a package build.
type PackageWizard struct {
	prompt     prompter
	console    *ui.Console
	git        repository.GitCollaborator
	dispatcher PackageDispatcher
	pruner     BranchPruner
	settings   domain.Settings
	logger     *zap.Logger
}

// NewPackageWizard creates a new package wizard.
func NewPackageWizard(
	selector ui.Selector,
	console *ui.Console,
	git repository.GitCollaborator,
	dispatcher PackageDispatcher,
	pruner BranchPruner,
	settings domain.Settings,
	logger *zap.Logger,
) *PackageWizard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PackageWizard{
		prompt:     prompter{selector: selector},
		console:    console,
		git:        git,
		dispatcher: dispatcher,
		pruner:     pruner,
		settings:   settings,
		logger:     logger,
	}
}

// Execute runs the package workflow. Automation flags from the settings decide which git
// steps run without asking.
func (w *PackageWizard) Execute(ctx context.Context, cfg PackageWizardConfig) (*PackageWizardResult, error) {
	result := &PackageWizardResult{Owner: cfg.Organization}
	if cfg.AUR {
		if cfg.Package == "" {
			return nil, fmt.Errorf("%w: AUR package name", domain.ErrConfigurationMissing)
		}
		if result.Owner == "" {
			return nil, fmt.Errorf("%w: organization for AUR builds", domain.ErrConfigurationMissing)
		}
	} else if err := w.prepareRepository(ctx, cfg, result); err != nil {
		return nil, err
	}
	branchType, err := w.selectBranchType(ctx, cfg.BranchType)
	if err != nil {
		return nil, err
	}
	result.Build = w.buildRequest(cfg, result, branchType)
	if err := result.Build.Validate(); err != nil {
		return nil, fmt.Errorf("invalid package build: %w", err)
	}
	w.printSummary(result)
	if !cfg.Yes && !w.settings.SkipConfirmation {
		ok, err := w.prompt.confirm(ctx, "Dispatch this package build?", true)
		if err != nil {
			return nil, err
		}
		if !ok {
			w.logger.Info("package dispatch declined")
			w.console.Warn("Build not dispatched")
			return result, nil
		}
	}
	dispatched, err := w.dispatcher.Execute(ctx, result.Owner, result.Build)
	if err != nil {
		return result, fmt.Errorf("failed to dispatch package build: %w", err)
	}
	result.Dispatched = true
	result.Dispatch = dispatched
	w.console.Success("Package build dispatched as %s", dispatched.EventType)
	w.console.Info("Follow the run at %s", dispatched.ActionsURL)
	if !cfg.AUR {
		w.pruneBranches(ctx, result)
	}
	return result, nil
}

// prepareRepository pulls, commits and optionally moves the work to a fresh dev branch.
func (w *PackageWizard) prepareRepository(ctx context.Context, cfg PackageWizardConfig, result *PackageWizardResult) error {
	if !w.git.IsRepo() {
		return fmt.Errorf("package builds need a git repository: %w", repository.ErrNotRepository)
	}
	owner, repo, err := w.git.RemoteOwnerRepo(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve remote repository: %w", err)
	}
	result.Repository = config.RepositoryURL(owner, repo)
	if result.Owner == "" {
		result.Owner = owner
	}
	branch, err := w.git.CurrentBranch(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current branch: %w", err)
	}
	result.Branch = branch
	if err := w.pull(ctx, result); err != nil {
		return err
	}
	if err := w.commit(ctx, cfg, result); err != nil {
		return err
	}
	return w.createDevBranch(ctx, result)
}

func (w *PackageWizard) pull(ctx context.Context, result *PackageWizardResult) error {
	ok, err := w.allowed(ctx, w.settings.AutoPull, "Pull the latest changes from the remote?")
	if err != nil || !ok {
		return err
	}
	gitCtx, cancel := context.WithTimeout(ctx, GitNetworkTimeout)
	defer cancel()
	outcome, err := w.git.Pull(gitCtx, result.Branch, DefaultBaseBranch)
	if errors.Is(err, repository.ErrBranchDiverged) {
		w.console.Warn("Local and remote branches diverged, set conflict_strategy to ours or theirs to resolve")
		return fmt.Errorf("failed to pull: %w", err)
	}
	if err != nil {
		return fmt.Errorf("failed to pull: %w", err)
	}
	result.Pull = outcome
	w.logger.Info("pulled", zap.String("branch", result.Branch), zap.String("outcome", string(outcome)))
	w.console.Info("Pull: %s", outcome)
	return nil
}

func (w *PackageWizard) commit(ctx context.Context, cfg PackageWizardConfig, result *PackageWizardResult) error {
	dirty, err := w.git.HasUncommittedChanges(ctx)
	if err != nil {
		return fmt.Errorf("failed to check working tree: %w", err)
	}
	if !dirty {
		return nil
	}
	auto := w.settings.AutoCommit && w.settings.AutoPush
	ok, err := w.allowed(ctx, auto, "Commit and push the local changes?")
	if err != nil {
		return err
	}
	if !ok {
		w.console.Warn("Local changes are not part of this build")
		return nil
	}
	message := cfg.CommitMessage
	if message == "" {
		message = DefaultCommitMessage
	}
	gitCtx, cancel := context.WithTimeout(ctx, GitNetworkTimeout)
	defer cancel()
	committed, err := w.git.CommitAndPush(gitCtx, message)
	if err != nil {
		return fmt.Errorf("failed to commit and push: %w", err)
	}
	result.Committed = committed
	if committed {
		w.console.Success("Changes committed and pushed to %s", result.Branch)
	}
	return nil
}

func (w *PackageWizard) createDevBranch(ctx context.Context, result *PackageWizardResult) error {
	ok, err := w.allowed(ctx, w.settings.AutoCreateBranch, "Create a dev branch for this build?")
	if err != nil || !ok {
		return err
	}
	gitCtx, cancel := context.WithTimeout(ctx, GitNetworkTimeout)
	defer cancel()
	branch, err := w.git.CreateAndPushBranch(gitCtx, DevBranchPrefix)
	if err != nil {
		return fmt.Errorf("failed to create dev branch: %w", err)
	}
	if err := ValidateBranchName(branch); err != nil {
		return fmt.Errorf("invalid dev branch: %w", err)
	}
	w.logger.Info("dev branch created", zap.String("branch", branch))
	w.console.Success("Created and pushed %s", branch)
	result.Branch = branch
	return nil
}

func (w *PackageWizard) selectBranchType(ctx context.Context, preset string) (domain.PackageBranchType, error) {
	options := make([]string, 0, len(domain.PackageBranchTypes))
	for _, t := range domain.PackageBranchTypes {
		options = append(options, string(t))
		if preset != "" && string(t) == preset {
			return t, nil
		}
	}
	if preset != "" {
		return "", fmt.Errorf("unknown branch type %q", preset)
	}
	choice, back, err := w.prompt.choose(ctx, "Select the branch type", options, true)
	if err != nil {
		return "", err
	}
	if back {
		return "", domain.ErrUserCancelled
	}
	return domain.PackageBranchType(choice), nil
}

func (w *PackageWizard) buildRequest(
	cfg PackageWizardConfig,
	result *PackageWizardResult,
	branchType domain.PackageBranchType,
) domain.PackageBuild {
	var build domain.PackageBuild
	if cfg.AUR {
		build = domain.NewAURPackageBuild(cfg.Package, branchType)
	} else {
		build = domain.PackageBuild{
			BranchName:    result.Branch,
			BranchType:    branchType,
			RepositoryURL: result.Repository,
		}
	}
	build.DebugSession = cfg.DebugSession
	return build
}

// pruneBranches is best effort; failures never fail the wizard.
func (w *PackageWizard) pruneBranches(ctx context.Context, result *PackageWizardResult) {
	if w.pruner == nil {
		return
	}
	ok, err := w.allowed(ctx, w.settings.AutoPruneBranches, "Delete local branches whose remote is gone?")
	if err != nil || !ok {
		return
	}
	gitCtx, cancel := context.WithTimeout(ctx, GitNetworkTimeout)
	defer cancel()
	keep := []string{result.Branch, DefaultBaseBranch, "master"}
	pruned, err := w.pruner.Execute(gitCtx, keep)
	if err != nil {
		w.console.Warn("Branch cleanup failed: %v", err)
		return
	}
	result.Pruned = &pruned
	w.console.Info("%s", pruned.Summary("stale branches"))
}

// allowed runs a step automatically when auto is set and asks otherwise.
func (w *PackageWizard) allowed(ctx context.Context, auto bool, question string) (bool, error) {
	if auto {
		return true, nil
	}
	return w.prompt.confirm(ctx, question, true)
}

func (w *PackageWizard) printSummary(result *PackageWizardResult) {
	b := result.Build
	fields := []ui.Field{
		{Label: "Organization", Value: result.Owner},
		{Label: "Event type", Value: b.EventType()},
		{Label: "Branch type", Value: string(b.BranchType)},
		{Label: "Debug session", Value: strconv.FormatBool(b.DebugSession)},
	}
	if b.AUR {
		fields = append(fields,
			ui.Field{Label: "Package", Value: b.PackageName},
			ui.Field{Label: "AUR URL", Value: b.SourceURL},
		)
	} else {
		fields = append(fields,
			ui.Field{Label: "Branch", Value: b.BranchName},
			ui.Field{Label: "Repository", Value: b.RepositoryURL},
		)
	}
	w.console.Summary("Package build summary", fields)
}
