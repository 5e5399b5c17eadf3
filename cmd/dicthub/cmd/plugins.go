package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Manage translation plugins",
	Long: `Lists the plugins published by the configured repositories and manages
the enabled set.

Examples:
  dicthub plugins repo https://example.com/index.json
  dicthub plugins list
  dicthub plugins enable bing-dict
  dicthub plugins option bing-dict style compact
  dicthub plugins check
  dicthub plugins upgrade`,
}

var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available plugins",
	Args:  cobra.NoArgs,
	RunE:  runPluginsList,
}

var pluginsEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Download and enable a plugin",
	Args:  cobra.ExactArgs(1),
	RunE:  runPluginsEnable,
}

var pluginsDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a plugin",
	Args:  cobra.ExactArgs(1),
	RunE:  runPluginsDisable,
}

var pluginsOptionCmd = &cobra.Command{
	Use:   "option <id> <name> <value>",
	Short: "Set one option of a plugin",
	Args:  cobra.ExactArgs(3),
	RunE:  runPluginsOption,
}

var pluginsRepoCmd = &cobra.Command{
	Use:   "repo [url...]",
	Short: "Show or replace the plugin repositories",
	RunE:  runPluginsRepo,
}

var pluginsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report new and upgradable plugins",
	Args:  cobra.NoArgs,
	RunE:  runPluginsCheck,
}

var pluginsUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade every enabled plugin with a newer published version",
	Args:  cobra.NoArgs,
	RunE:  runPluginsUpgrade,
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
	pluginsCmd.AddCommand(pluginsListCmd, pluginsEnableCmd, pluginsDisableCmd,
		pluginsOptionCmd, pluginsRepoCmd, pluginsCheckCmd, pluginsUpgradeCmd)
}

func runPluginsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := setup(ctx)
	if err != nil {
		printError("startup failed", err)
		return err
	}
	defer a.Close()

	catalog, err := a.Manager.Catalog(ctx, a.Preference)
	if err != nil {
		printError("loading catalog failed", err)
		return err
	}

	enabled := a.Preference.EnabledPlugins()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERSION\tINSTALLED")
	for _, info := range catalog {
		installed := "-"
		if local, ok := enabled.Get(info.ID); ok {
			installed = local.Version
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.ID, info.Name, info.Version, installed)
	}
	return w.Flush()
}

func runPluginsEnable(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := setup(ctx)
	if err != nil {
		printError("startup failed", err)
		return err
	}
	defer a.Close()

	info, err := a.Manager.Enable(ctx, a.Preference, args[0])
	if err != nil {
		printError("enable failed", err)
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Enabled %s %s\n", info.ID, info.Version)
	return nil
}

func runPluginsDisable(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := setup(ctx)
	if err != nil {
		printError("startup failed", err)
		return err
	}
	defer a.Close()

	if err := a.Manager.Disable(ctx, a.Preference, args[0]); err != nil {
		printError("disable failed", err)
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Disabled %s\n", args[0])
	return nil
}

func runPluginsOption(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := setup(ctx)
	if err != nil {
		printError("startup failed", err)
		return err
	}
	defer a.Close()

	if err := a.Options.SaveValue(ctx, args[0], args[1], args[2]); err != nil {
		printError("saving option failed", err)
		return err
	}
	return nil
}

func runPluginsRepo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := setup(ctx)
	if err != nil {
		printError("startup failed", err)
		return err
	}
	defer a.Close()

	if len(args) > 0 {
		if err := a.Preference.SetPluginRepository(ctx, args); err != nil {
			printError("saving repositories failed", err)
			return err
		}
	}
	for _, repo := range a.Preference.PluginRepository() {
		fmt.Fprintln(cmd.OutOrStdout(), repo)
	}
	return nil
}

func runPluginsCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := setup(ctx)
	if err != nil {
		printError("startup failed", err)
		return err
	}
	defer a.Close()

	res, err := a.Updates.Check(ctx)
	if err != nil {
		printError("update check failed", err)
		return err
	}

	out := cmd.OutOrStdout()
	for _, info := range res.NewPlugins {
		fmt.Fprintf(out, "new       %s %s\n", info.ID, info.Version)
	}
	for _, info := range res.UpgradablePlugins {
		fmt.Fprintf(out, "upgrade   %s %s\n", info.ID, info.Version)
	}
	if len(res.NewPlugins)+len(res.UpgradablePlugins) == 0 {
		fmt.Fprintln(out, "Everything is up to date")
	}
	return nil
}

func runPluginsUpgrade(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := setup(ctx)
	if err != nil {
		printError("startup failed", err)
		return err
	}
	defer a.Close()

	res, err := a.Updates.Check(ctx)
	if err != nil {
		printError("update check failed", err)
		return err
	}
	upgraded, err := a.Manager.Upgrade(ctx, a.Preference, res.UpgradablePlugins)
	for _, id := range upgraded {
		fmt.Fprintf(cmd.OutOrStdout(), "Upgraded %s\n", id)
	}
	if err != nil {
		printError("some upgrades failed", err)
		return err
	}
	return nil
}
