package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bigbuild/buildwizard/internal/domain"
	"github.com/bigbuild/buildwizard/internal/ui"
)

func (a *cli) newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the saved settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print every setting",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := a.container(cmd)
				if err != nil {
					return err
				}
				printSettings(c.console, c.settingsRepo.Path(), c.settings)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one setting",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.container(cmd)
				if err != nil {
					return err
				}
				settings, err := c.settingsRepo.Set(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				c.settings = settings
				c.console.Success("%s set to %s", args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "mode <quick|safe|expert>",
			Short: "Switch the automation preset",
			Long: `Switch the automation preset.

quick   pull, commit, push, create and prune branches and dispatch without asking
safe    pull, commit and push automatically; ask for branches and confirmation
expert  ask before every step`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.container(cmd)
				if err != nil {
					return err
				}
				mode, err := domain.ParseMode(args[0])
				if err != nil {
					return err
				}
				settings, err := c.settingsRepo.Set(cmd.Context(), "mode", string(mode))
				if err != nil {
					return err
				}
				c.settings = settings
				c.console.Success("Mode set to %s", mode)
				return nil
			},
		},
	)
	return cmd
}

func printSettings(console *ui.Console, path string, settings domain.Settings) {
	values := settings.Map()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]ui.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, ui.Field{Label: k, Value: fmt.Sprint(values[k])})
	}
	console.Summary("Settings ("+path+")", fields)
}
