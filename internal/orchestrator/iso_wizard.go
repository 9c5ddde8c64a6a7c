package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bigbuild/buildwizard/internal/domain"
	"github.com/bigbuild/buildwizard/internal/ui"
	"github.com/bigbuild/buildwizard/internal/usecase"
)

// ProfileDiscoverer lists build directories and editions of a profile repository.
type ProfileDiscoverer interface {
	BuildDirectories(ctx context.Context, profileRepoURL string) usecase.ProfileListing
	Editions(ctx context.Context, profileRepoURL, buildDir string) usecase.ProfileListing
}

// ISODispatcher sends a validated ISO build.
type ISODispatcher interface {
	Execute(ctx context.Context, params domain.BuildParameters) (*usecase.DispatchResult, error)
}

// ISOOverrides are the build parameters given on the command line.
type ISOOverrides struct {
	Organization string
	Distribution string
	Edition      string
	Kernel       string
	DebugSession bool
}

// ISOWizardConfig contains configuration for the ISO wizard.
type ISOWizardConfig struct {
	// Auto skips every selection step and starts from the organization defaults
	Auto      bool
	Yes       bool // Dispatch without asking for confirmation
	Overrides ISOOverrides
}

// ISOWizardResult reports what the wizard collected and whether it dispatched.
type ISOWizardResult struct {
	Params     domain.BuildParameters
	Dispatched bool
	Dispatch   *usecase.DispatchResult
}

// ISOWizard collects ISO build parameters step by step and dispatches them once.
type ISOWizard struct {
	prompt     prompter
	console    *ui.Console
	discover   ProfileDiscoverer
	dispatcher ISODispatcher
	settings   domain.Settings
	logger     *zap.Logger
	now        func() time.Time
}

// NewISOWizard creates a new ISO wizard.
func NewISOWizard(
	selector ui.Selector,
	console *ui.Console,
	discover ProfileDiscoverer,
	dispatcher ISODispatcher,
	settings domain.Settings,
	logger *zap.Logger,
) *ISOWizard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ISOWizard{
		prompt:     prompter{selector: selector},
		console:    console,
		discover:   discover,
		dispatcher: dispatcher,
		settings:   settings,
		logger:     logger,
		now:        time.Now,
	}
}

type stepOutcome int

const (
	stepNext stepOutcome = iota
	stepBack
	stepDone
)

type isoStep struct {
	name string
	// skip reports whether the step asks nothing for the current state
	skip func(st *isoState) bool
	run  func(ctx context.Context, st *isoState, first bool) (stepOutcome, error)
}

type isoState struct {
	params     domain.BuildParameters
	defaults   domain.OrganizationDefaults
	debug      bool
	confirmed  bool
	editionDir string
	editions   usecase.ProfileListing
}

// Execute runs the wizard. It returns domain.ErrUserCancelled when the user leaves the first
// step or presses ctrl+c. Declining the summary is not an error.
func (w *ISOWizard) Execute(ctx context.Context, cfg ISOWizardConfig) (*ISOWizardResult, error) {
	if err := ValidateOverrides(cfg.Overrides); err != nil {
		return nil, fmt.Errorf("invalid invocation: %w", err)
	}
	if cfg.Auto {
		return w.executeAuto(ctx, cfg)
	}
	st := &isoState{debug: cfg.Overrides.DebugSession}
	steps := w.steps(cfg)
	if err := w.run(ctx, steps, st); err != nil {
		return nil, err
	}
	return w.finish(ctx, st)
}

func (w *ISOWizard) steps(cfg ISOWizardConfig) []isoStep {
	o := cfg.Overrides
	return []isoStep{
		{name: "organization", run: w.selectOrganization(o.Organization)},
		{name: "distribution", run: w.selectDistribution(o.Distribution)},
		{name: "profile repository", run: w.selectProfileRepo},
		{name: "build directory", run: w.selectBuildDir},
		{name: "edition", run: w.selectEdition(o.Edition)},
		{name: "branches", run: w.selectBranches, skip: func(st *isoState) bool {
			dist, _ := domain.LookupDistribution(st.params.Distribution)
			if len(dist.Components) == 0 {
				st.params.Branches = dist.Normalize(nil)
				return true
			}
			return false
		}},
		{name: "kernel", run: w.selectKernel(o.Kernel)},
		{name: "debug session", run: w.selectDebug},
		{name: "summary", run: w.summary(cfg.Yes)},
	}
}

// run walks the steps. Back re-invokes the closest preceding step that asks something;
// back on the first step cancels the wizard.
func (w *ISOWizard) run(ctx context.Context, steps []isoStep, st *isoState) error {
	i := 0
	for i < len(steps) {
		if err := ctx.Err(); err != nil {
			return domain.ErrUserCancelled
		}
		step := steps[i]
		if step.skip != nil && step.skip(st) {
			w.logger.Debug("wizard step skipped", zap.String("step", step.name))
			i++
			continue
		}
		outcome, err := step.run(ctx, st, i == 0)
		if err != nil {
			return err
		}
		switch outcome {
		case stepDone:
			return nil
		case stepBack:
			if i == 0 {
				w.logger.Info("wizard cancelled on first step")
				return domain.ErrUserCancelled
			}
			i = previousStep(steps, st, i)
			w.logger.Debug("wizard step back", zap.String("step", steps[i].name))
		default:
			w.logger.Debug("wizard step completed", zap.String("step", step.name))
			i++
		}
	}
	return nil
}

func previousStep(steps []isoStep, st *isoState, i int) int {
	for j := i - 1; j > 0; j-- {
		if steps[j].skip == nil || !steps[j].skip(st) {
			return j
		}
	}
	return 0
}

func (w *ISOWizard) selectOrganization(preset string) func(context.Context, *isoState, bool) (stepOutcome, error) {
	return func(ctx context.Context, st *isoState, first bool) (stepOutcome, error) {
		org, back, err := w.prompt.choose(ctx, "Select the organization", domain.Organizations(), first,
			st.params.Organization, preset)
		if err != nil || back {
			return stepBack, err
		}
		if org != st.params.Organization {
			st.defaults, _ = domain.DefaultsFor(org)
		}
		st.params.Organization = org
		return stepNext, nil
	}
}

func (w *ISOWizard) selectDistribution(preset string) func(context.Context, *isoState, bool) (stepOutcome, error) {
	return func(ctx context.Context, st *isoState, first bool) (stepOutcome, error) {
		distro, back, err := w.prompt.choose(ctx, "Select the distribution", domain.Distributions(), first,
			st.params.Distribution, preset, st.defaults.Distribution, w.settings.Distro)
		if err != nil || back {
			return stepBack, err
		}
		st.params.Distribution = distro
		return stepNext, nil
	}
}

func (w *ISOWizard) selectProfileRepo(ctx context.Context, st *isoState, first bool) (stepOutcome, error) {
	repo, back, err := w.prompt.choose(ctx, "Select the ISO profiles repository", domain.ProfileRepositories(), first,
		st.params.ProfileRepoURL, st.defaults.ProfileRepoURL)
	if err != nil || back {
		return stepBack, err
	}
	st.params.ProfileRepoURL = repo
	return stepNext, nil
}

func (w *ISOWizard) selectBuildDir(ctx context.Context, st *isoState, first bool) (stepOutcome, error) {
	listing := w.discover.BuildDirectories(ctx, st.params.ProfileRepoURL)
	w.warnFallback(listing, "build directories")
	dir, back, err := w.prompt.choose(ctx, "Select the build directory", listing.Items, first,
		st.params.BuildDir, st.defaults.BuildDir)
	if err != nil || back {
		return stepBack, err
	}
	st.params.BuildDir = dir
	return stepNext, nil
}

func (w *ISOWizard) selectEdition(preset string) func(context.Context, *isoState, bool) (stepOutcome, error) {
	return func(ctx context.Context, st *isoState, first bool) (stepOutcome, error) {
		key := st.params.ProfileRepoURL + "#" + st.params.BuildDir
		if st.editionDir != key {
			st.editions = w.discover.Editions(ctx, st.params.ProfileRepoURL, st.params.BuildDir)
			st.editionDir = key
			w.warnFallback(st.editions, "editions")
		}
		edition, back, err := w.prompt.choose(ctx, "Select the edition", st.editions.Items, first,
			st.params.Edition, strings.ToLower(preset), st.defaults.Edition, w.settings.Edition)
		if err != nil || back {
			return stepBack, err
		}
		st.params.Edition = edition
		return stepNext, nil
	}
}

// selectBranches asks one branch per component the distribution uses. Back from the second
// component returns to the first.
func (w *ISOWizard) selectBranches(ctx context.Context, st *isoState, first bool) (stepOutcome, error) {
	dist, _ := domain.LookupDistribution(st.params.Distribution)
	chosen := dist.Normalize(st.params.Branches)
	options := make([]string, 0, len(domain.Branches))
	for _, b := range domain.Branches {
		options = append(options, string(b))
	}
	for j := 0; j < len(dist.Components); {
		c := dist.Components[j]
		title := fmt.Sprintf("Select the %s branch", c)
		branch, back, err := w.prompt.choose(ctx, title, options, first && j == 0,
			string(chosen[c]), string(st.defaults.Branches[c]), w.settingsBranch(c))
		if err != nil {
			return stepBack, err
		}
		if back {
			if j == 0 {
				return stepBack, nil
			}
			j--
			continue
		}
		chosen[c] = domain.Branch(branch)
		j++
	}
	st.params.Branches = chosen
	return stepNext, nil
}

func (w *ISOWizard) settingsBranch(c domain.Component) string {
	switch c {
	case domain.ComponentManjaro:
		return w.settings.ManjaroBranch
	case domain.ComponentCommunity:
		return w.settings.CommunityBranch
	}
	return ""
}

func (w *ISOWizard) selectKernel(preset string) func(context.Context, *isoState, bool) (stepOutcome, error) {
	return func(ctx context.Context, st *isoState, first bool) (stepOutcome, error) {
		kernel, back, err := w.prompt.choose(ctx, "Select the kernel", domain.Kernels, first,
			st.params.Kernel, preset, st.defaults.Kernel, w.settings.Kernel)
		if err != nil || back {
			return stepBack, err
		}
		st.params.Kernel = kernel
		return stepNext, nil
	}
}

func (w *ISOWizard) selectDebug(ctx context.Context, st *isoState, first bool) (stepOutcome, error) {
	preferred := DebugOff
	if st.debug {
		preferred = DebugOn
	}
	answer, back, err := w.prompt.choose(ctx, "Debug session", []string{DebugOff, DebugOn}, first, preferred)
	if err != nil || back {
		return stepBack, err
	}
	st.debug = answer == DebugOn
	st.params.DebugSession = st.debug
	return stepNext, nil
}

// summary prints the collected parameters and asks for confirmation. Back returns to the
// previous step; No ends the wizard without dispatching.
func (w *ISOWizard) summary(skipConfirm bool) func(context.Context, *isoState, bool) (stepOutcome, error) {
	return func(ctx context.Context, st *isoState, first bool) (stepOutcome, error) {
		st.params.ReleaseTag = domain.ReleaseTag(w.now())
		w.printSummary(st.params)
		if skipConfirm || w.settings.SkipConfirmation {
			st.confirmed = true
			return stepDone, nil
		}
		answer, back, err := w.prompt.choose(ctx, "Dispatch this build?", []string{AnswerYes, AnswerNo}, first, AnswerYes)
		if err != nil || back {
			return stepBack, err
		}
		st.confirmed = answer == AnswerYes
		return stepDone, nil
	}
}

func (w *ISOWizard) executeAuto(ctx context.Context, cfg ISOWizardConfig) (*ISOWizardResult, error) {
	params, err := w.autoParameters(cfg.Overrides)
	if err != nil {
		return nil, err
	}
	st := &isoState{params: params}
	w.logger.Info("automatic mode", zap.String("organization", params.Organization))
	// leaving the summary menu in automatic mode declines the dispatch
	if _, err := w.summary(cfg.Yes)(ctx, st, true); err != nil {
		return nil, err
	}
	return w.finish(ctx, st)
}

// autoParameters starts from the organization defaults and applies the overrides.
func (w *ISOWizard) autoParameters(o ISOOverrides) (domain.BuildParameters, error) {
	org := o.Organization
	if org == "" {
		org = domain.Organizations()[0]
	}
	defaults, ok := domain.DefaultsFor(org)
	if !ok {
		return domain.BuildParameters{}, fmt.Errorf("%w: defaults for organization %s", domain.ErrConfigurationMissing, org)
	}
	params := defaults.Parameters()
	if o.Distribution != "" {
		params.Distribution = o.Distribution
	}
	if o.Edition != "" {
		params.Edition = strings.ToLower(o.Edition)
	}
	if o.Kernel != "" {
		params.Kernel = o.Kernel
	}
	params.DebugSession = o.DebugSession
	dist, _ := domain.LookupDistribution(params.Distribution)
	for _, c := range dist.Components {
		if params.Branches[c] == "" {
			if b, err := domain.ParseBranch(w.settingsBranch(c)); err == nil {
				params.Branches[c] = b
			} else {
				params.Branches[c] = domain.BranchStable
			}
		}
	}
	params.Branches = dist.Normalize(params.Branches)
	return params, nil
}

func (w *ISOWizard) finish(ctx context.Context, st *isoState) (*ISOWizardResult, error) {
	result := &ISOWizardResult{Params: st.params}
	if !st.confirmed {
		w.logger.Info("dispatch declined", zap.String("event_type", st.params.EventType()))
		w.console.Warn("Build not dispatched")
		return result, nil
	}
	dispatched, err := w.dispatcher.Execute(ctx, st.params)
	if err != nil {
		return result, fmt.Errorf("failed to dispatch ISO build: %w", err)
	}
	result.Dispatched = true
	result.Dispatch = dispatched
	w.console.Success("Build dispatched as %s", dispatched.EventType)
	w.console.Info("Follow the run at %s", dispatched.ActionsURL)
	return result, nil
}

func (w *ISOWizard) printSummary(p domain.BuildParameters) {
	dist, _ := domain.LookupDistribution(p.Distribution)
	branches := dist.Normalize(p.Branches)
	w.console.Summary("ISO build summary", []ui.Field{
		{Label: "Organization", Value: p.Organization},
		{Label: "Distribution", Value: p.Distribution},
		{Label: "Profiles", Value: p.ProfileRepoURL},
		{Label: "Build directory", Value: p.BuildDir},
		{Label: "Edition", Value: p.Edition},
		{Label: "Manjaro branch", Value: string(branches[domain.ComponentManjaro])},
		{Label: "Community branch", Value: string(branches[domain.ComponentCommunity])},
		{Label: "Kernel", Value: p.Kernel},
		{Label: "Debug session", Value: strconv.FormatBool(p.DebugSession)},
		{Label: "Classification", Value: string(p.Classification())},
		{Label: "Event type", Value: p.EventType()},
	})
}

func (w *ISOWizard) warnFallback(listing usecase.ProfileListing, what string) {
	if listing.Source == usecase.SourceFallback {
		w.console.Warn("Could not list %s from the profile repository, showing the built-in list", what)
	}
}
