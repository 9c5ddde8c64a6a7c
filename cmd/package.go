package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bigbuild/buildwizard/internal/domain"
	"github.com/bigbuild/buildwizard/internal/orchestrator"
)

func (a *cli) newPackageCmd() *cobra.Command {
	var (
		aur        string
		org        string
		branchType string
		message    string
		debug      bool
		yes        bool
	)
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Dispatch a package build",
		Long: `Dispatch a package build for the repository in the current directory.

Depending on the settings the command pulls, commits and pushes local changes,
creates a timestamped dev branch and prunes branches whose remote is gone. Steps
that are not automated are asked for.

With --aur the build targets a package hosted on the AUR instead and git is not used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container(cmd)
			if err != nil {
				return err
			}
			cfg := orchestrator.PackageWizardConfig{
				AUR:           aur != "",
				Package:       aur,
				Organization:  org,
				BranchType:    branchType,
				CommitMessage: message,
				DebugSession:  debug,
				Yes:           yes,
			}
			if err := a.requireInteractive(packageNeedsMenu(cfg, c.settings)); err != nil {
				return err
			}
			if err := c.requireToken(); err != nil {
				return err
			}
			_, err = c.packageWizard().Execute(cmd.Context(), cfg)
			return err
		},
	}
	cmd.Flags().StringVar(&aur, "aur", "", "Build an AUR package (name or clone URL)")
	cmd.Flags().StringVar(&org, "org", "", "Organization running the build (defaults to the remote owner)")
	cmd.Flags().StringVar(&branchType, "branch-type", "", "Repository channel: testing, stable or extra")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message for local changes")
	cmd.Flags().BoolVar(&debug, "debug-session", false, "Open a debug session on the runner")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Dispatch without asking for confirmation")
	return cmd
}

// packageNeedsMenu reports whether the package wizard will ask anything.
func packageNeedsMenu(cfg orchestrator.PackageWizardConfig, s domain.Settings) bool {
	if cfg.BranchType == "" || !(cfg.Yes || s.SkipConfirmation) {
		return true
	}
	if cfg.AUR {
		return false
	}
	return !(s.AutoPull && s.AutoCommit && s.AutoPush && s.AutoCreateBranch && s.AutoPruneBranches)
}
