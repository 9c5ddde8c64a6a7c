package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bigbuild/buildwizard/internal/domain"
	"github.com/bigbuild/buildwizard/internal/orchestrator"
	"github.com/bigbuild/buildwizard/internal/ui"
)

var rootCmd *cobra.Command

// cli wires the cobra commands to a lazily built container so that --version and
// version work without configuration.
type cli struct {
	c       *container
	open    func(ctx context.Context, cmd *cobra.Command) (*container, error)
	noColor bool
	// interactive reports whether menus can be shown
	interactive func() bool
}

type isoFlags struct {
	org          string
	distro       string
	edition      string
	kernel       string
	auto         bool
	version      bool
	debugSession bool
	yes          bool
}

func newCLI() *cli {
	return &cli{
		open: func(ctx context.Context, cmd *cobra.Command) (*container, error) {
			return newContainer(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
		interactive: func() bool { return ui.IsInteractive(os.Stdin) && ui.IsInteractive(os.Stdout) },
	}
}

func (a *cli) newRootCmd() *cobra.Command {
	var flags isoFlags
	root := &cobra.Command{
		Use:   "buildwizard",
		Short: "Dispatch ISO and package builds to GitHub Actions",
		Long: `buildwizard walks through the parameters of an ISO build (organization, distribution,
profiles, edition, branches, kernel) and dispatches the build workflow with a
repository_dispatch event. Subcommands cover package builds, pull requests and cleanup
of tags, workflow runs and stale branches.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if a.noColor {
				ui.DisableColors()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.version {
				printVersionAndLicense(cmd.OutOrStdout())
				return nil
			}
			return a.runISO(cmd, flags)
		},
	}
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	root.Flags().StringVar(&flags.org, "org", "", "Organization to build for")
	root.Flags().StringVar(&flags.distro, "distro", "", "Distribution (bigcommunity, biglinux, archlinux)")
	root.Flags().StringVar(&flags.edition, "edition", "", "Edition, for example xfce or kde")
	root.Flags().StringVar(&flags.kernel, "kernel", "", "Kernel (lts, latest, oldlts, xanmod)")
	root.Flags().BoolVar(&flags.auto, "auto", false, "Skip the menus and use the organization defaults")
	root.Flags().BoolVar(&flags.version, "version", false, "Print version and license information")
	root.Flags().BoolVar(&flags.debugSession, "debug-session", false, "Open a debug session on the runner")
	root.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Dispatch without asking for confirmation")

	root.AddCommand(
		newVersionCmd(),
		a.newPackageCmd(),
		a.newPRCmd(),
		a.newTagsCmd(),
		a.newRunsCmd(),
		a.newBranchesCmd(),
		a.newSettingsCmd(),
		a.newHistoryCmd(),
	)
	return root
}

// container builds the dependencies on first use.
func (a *cli) container(cmd *cobra.Command) (*container, error) {
	if a.c != nil {
		return a.c, nil
	}
	c, err := a.open(cmd.Context(), cmd)
	if err != nil {
		return nil, err
	}
	a.c = c
	return c, nil
}

func (a *cli) runISO(cmd *cobra.Command, flags isoFlags) error {
	c, err := a.container(cmd)
	if err != nil {
		return err
	}
	if !flags.auto && !a.interactive() {
		return fmt.Errorf("menus need a terminal, use --auto for unattended builds")
	}
	if err := c.requireToken(); err != nil {
		return err
	}
	result, err := c.isoWizard().Execute(cmd.Context(), orchestrator.ISOWizardConfig{
		Auto: flags.auto,
		Yes:  flags.yes,
		Overrides: orchestrator.ISOOverrides{
			Organization: flags.org,
			Distribution: flags.distro,
			Edition:      flags.edition,
			Kernel:       flags.kernel,
			DebugSession: flags.debugSession,
		},
	})
	if err != nil {
		return err
	}
	if !result.Dispatched {
		c.logger.Info("run finished without dispatch")
	}
	return nil
}

// requireInteractive fails commands that would need a menu without a terminal.
func (a *cli) requireInteractive(needsMenu bool) error {
	if needsMenu && !a.interactive() {
		return fmt.Errorf("%w: a terminal is needed to answer the prompts", domain.ErrConfigurationMissing)
	}
	return nil
}

// InitCommands initializes all commands with their dependencies
func InitCommands() error {
	app = newCLI()
	rootCmd = app.newRootCmd()
	return nil
}

var app *cli

// Execute runs the root command and releases the container afterwards.
func Execute(ctx context.Context) error {
	if rootCmd == nil {
		if err := InitCommands(); err != nil {
			return err
		}
	}
	defer func() {
		if app.c != nil {
			app.c.close()
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}
