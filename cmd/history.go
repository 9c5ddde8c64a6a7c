package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (a *cli) newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent dispatches",
		Long: `List recent dispatches, newest first, and how many distinct event types each
workflow repository received. GitHub rejects dispatches with 422 once a repository
holds too many distinct event types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container(cmd)
			if err != nil {
				return err
			}
			history, err := c.history.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load dispatch history: %w", err)
			}
			records := history.Latest(limit)
			if len(records) == 0 {
				c.console.Info("No dispatches recorded yet")
				return nil
			}
			seen := make(map[string]bool)
			for _, r := range records {
				c.console.Println(fmt.Sprintf("%s  %-7s  %s/%s  %s",
					r.DispatchAt.Local().Format(time.DateTime), r.Kind, r.Owner, r.Repo, r.EventType))
				seen[r.Owner+"/"+r.Repo] = true
			}
			for _, r := range records {
				key := r.Owner + "/" + r.Repo
				if !seen[key] {
					continue
				}
				seen[key] = false
				c.console.Info("%s: %d distinct event types", key, history.DistinctEventTypes(r.Owner, r.Repo))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of dispatches to show (0 for all)")
	return cmd
}
