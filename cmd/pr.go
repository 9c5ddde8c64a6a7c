package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bigbuild/buildwizard/internal/orchestrator"
	"github.com/bigbuild/buildwizard/internal/usecase"
)

func (a *cli) newPRCmd() *cobra.Command {
	var (
		repoFlag    string
		head        string
		base        string
		title       string
		body        string
		autoMerge   bool
		mergeMethod string
	)
	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Open a pull request and optionally merge it",
		Long: `Open a pull request from --head (default: the current branch) into --base.

With --auto-merge the pull request is merged right away. A failed merge is reported
as a warning; the pull request stays open.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container(cmd)
			if err != nil {
				return err
			}
			owner, repo, err := c.repository(repoFlag)
			if err != nil {
				return err
			}
			if head == "" {
				if head, err = c.git.CurrentBranch(cmd.Context()); err != nil {
					return fmt.Errorf("failed to get current branch (use --head): %w", err)
				}
			}
			if err := orchestrator.ValidateBranchName(head); err != nil {
				return fmt.Errorf("invalid head branch: %w", err)
			}
			uc := &usecase.CreatePullRequestUseCase{Client: c.client, Logger: c.logger}
			result, err := uc.Execute(cmd.Context(), usecase.PullRequestInput{
				Owner:       owner,
				Repo:        repo,
				Title:       title,
				Body:        body,
				Head:        head,
				Base:        base,
				AutoMerge:   autoMerge,
				MergeMethod: mergeMethod,
			})
			if err != nil {
				return fmt.Errorf("failed to create pull request: %w", err)
			}
			c.console.Success("Pull request #%d opened: %s", result.PullRequest.Number, result.PullRequest.URL)
			switch {
			case result.Merged:
				c.console.Success("Pull request #%d merged", result.PullRequest.Number)
			case result.MergeErr != nil:
				c.console.Warn("Auto-merge failed, the pull request stays open: %v", result.MergeErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&repoFlag, "repo", "", "Repository as owner/name (defaults to the git remote)")
	cmd.Flags().StringVar(&head, "head", "", "Branch with the changes (defaults to the current branch)")
	cmd.Flags().StringVar(&base, "base", orchestrator.DefaultBaseBranch, "Branch to merge into")
	cmd.Flags().StringVar(&title, "title", "", "Pull request title")
	cmd.Flags().StringVar(&body, "body", "", "Pull request description")
	cmd.Flags().BoolVar(&autoMerge, "auto-merge", false, "Merge the pull request after creating it")
	cmd.Flags().StringVar(&mergeMethod, "merge-method", usecase.MergeMethodMerge, "Merge method: merge, squash or rebase")
	return cmd
}
