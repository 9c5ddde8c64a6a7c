package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bigbuild/buildwizard/internal/domain"
	"github.com/bigbuild/buildwizard/internal/orchestrator"
	"github.com/bigbuild/buildwizard/internal/ui"
	"github.com/bigbuild/buildwizard/internal/usecase"
)

func (a *cli) newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Manage remote tags",
	}
	var (
		repoFlag string
		keep     int
		dryRun   bool
	)
	deleteCmd := &cobra.Command{
		Use:   "delete [tag...]",
		Short: "Delete remote tags",
		Long: `Delete the given tags, or every tag of the repository when none is given.

With --keep N the N newest semantic version tags survive and tags that are not
semantic versions are left alone. A tag that fails to delete is reported and the
remaining tags are still processed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.container(cmd)
			if err != nil {
				return err
			}
			owner, repo, err := c.repository(repoFlag)
			if err != nil {
				return err
			}
			if keep < 0 {
				return fmt.Errorf("--keep cannot be negative")
			}
			uc := &usecase.DeleteTagsUseCase{Client: c.client, Logger: c.logger}
			in := usecase.DeleteTagsInput{Owner: owner, Repo: repo, Tags: args, Keep: keep}
			if dryRun {
				tags, err := uc.Plan(cmd.Context(), in)
				if err != nil {
					return fmt.Errorf("failed to list tags: %w", err)
				}
				for _, tag := range tags {
					c.console.Println(tag)
				}
				c.console.Info("%d tags would be deleted from %s/%s", len(tags), owner, repo)
				return nil
			}
			result, err := uc.Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			reportBatch(c.console, result, "tags")
			return nil
		},
	}
	deleteCmd.Flags().StringVar(&repoFlag, "repo", "", "Repository as owner/name (defaults to the git remote)")
	deleteCmd.Flags().IntVar(&keep, "keep", 0, "Keep the N newest semantic version tags")
	deleteCmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the tags that would be deleted")
	cmd.AddCommand(deleteCmd)
	return cmd
}

func (a *cli) newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage workflow runs",
	}
	var (
		repoFlag string
		status   string
	)
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete workflow runs matching a status",
		Long: `Delete the workflow runs of a repository that match --status (for example
completed, failure or cancelled). Deleting old runs frees event types after a
dispatch was rejected with 422.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container(cmd)
			if err != nil {
				return err
			}
			owner, repo, err := c.repository(repoFlag)
			if err != nil {
				return err
			}
			uc := &usecase.DeleteRunsUseCase{Client: c.client, Logger: c.logger}
			result, err := uc.Execute(cmd.Context(), usecase.DeleteRunsInput{Owner: owner, Repo: repo, Status: status})
			if err != nil {
				return err
			}
			reportBatch(c.console, result, "workflow runs")
			return nil
		},
	}
	deleteCmd.Flags().StringVar(&repoFlag, "repo", "", "Repository as owner/name (defaults to the git remote)")
	deleteCmd.Flags().StringVar(&status, "status", "completed", "Run status or conclusion to delete")
	cmd.AddCommand(deleteCmd)
	return cmd
}

func (a *cli) newBranchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branches",
		Short: "Manage local branches",
	}
	var keep []string
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete local branches whose remote branch is gone",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container(cmd)
			if err != nil {
				return err
			}
			for _, b := range keep {
				if err := orchestrator.ValidateBranchName(b); err != nil {
					return fmt.Errorf("invalid --keep branch: %w", err)
				}
			}
			uc := &usecase.PruneBranchesUseCase{Git: c.git, Logger: c.logger}
			result, err := uc.Execute(cmd.Context(), keep)
			if err != nil {
				return err
			}
			reportBatch(c.console, result, "stale branches")
			return nil
		},
	}
	pruneCmd.Flags().StringSliceVar(&keep, "keep", []string{orchestrator.DefaultBaseBranch, "master"},
		"Branches that are never deleted")
	cmd.AddCommand(pruneCmd)
	return cmd
}

// reportBatch prints the aggregate of a best-effort batch. Failures are warnings.
func reportBatch(console *ui.Console, result domain.BatchResult, noun string) {
	for _, f := range result.Failures {
		console.Warn("%s: %v", f.Item, f.Err)
	}
	if len(result.Failures) == 0 {
		console.Success("%s", result.Summary(noun))
		return
	}
	console.Warn("%s", result.Summary(noun))
}
