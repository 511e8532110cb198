package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"carebook/internal/config"
	"carebook/internal/errors"
	"carebook/internal/model"
	"carebook/internal/runtime"
	"carebook/internal/validate"
)

// Channel command flags.
var (
	channelAddFlagType     string
	channelAddFlagTemplate string
	channelRemoveFlagForce bool
	channelTestFlagAll     bool
)

// channelCmd represents the channel command.
var channelCmd = &cobra.Command{
	Use:     "channel [command]",
	Aliases: []string{"ch", "channels"},
	Short:   "Configure alert delivery channels",
	Long: `Configure webhook channels for Discord, Slack, or custom endpoints.

The background daemon delivers due appointment alerts to every enabled
channel. Without at least one enabled channel, alerts queue up but have
nowhere to go.

Examples:
  carebook channel add phone discord https://discord.com/api/webhooks/...
  carebook channel add work slack https://hooks.slack.com/services/...
  carebook channel list
  carebook channel test phone
  carebook channel disable work
  carebook channel remove phone`,
	RunE: runChannelList,
}

// channelAddCmd adds a new channel.
var channelAddCmd = &cobra.Command{
	Use:   "add NAME URL",
	Short: "Add a new delivery channel",
	Long: `Add a webhook channel for receiving alerts.

The channel type is auto-detected from the URL:
  - Discord: discord.com/api/webhooks/...
  - Slack:   hooks.slack.com/services/...
  - Generic: any other URL

Examples:
  carebook channel add phone https://discord.com/api/webhooks/123/abc
  carebook channel add pager https://example.com/hook --type generic`,
	Args: cobra.ExactArgs(2),
	RunE: runChannelAdd,
}

// channelListCmd lists all channels.
var channelListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all channels",
	RunE:    runChannelList,
}

// channelTestCmd tests a channel.
var channelTestCmd = &cobra.Command{
	Use:   "test [NAME]",
	Short: "Send a test alert to a channel",
	Long: `Send a test notification to verify channel configuration.

Examples:
  carebook channel test phone
  carebook channel test --all`,
	RunE: runChannelTest,
}

// channelRemoveCmd removes a channel.
var channelRemoveCmd = &cobra.Command{
	Use:     "remove NAME",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a channel",
	Args:    cobra.ExactArgs(1),
	RunE:    runChannelRemove,
}

// channelEnableCmd enables a channel.
var channelEnableCmd = &cobra.Command{
	Use:   "enable NAME",
	Short: "Enable a channel",
	Args:  cobra.ExactArgs(1),
	RunE:  runChannelEnable,
}

// channelDisableCmd disables a channel.
var channelDisableCmd = &cobra.Command{
	Use:   "disable NAME",
	Short: "Disable a channel",
	Args:  cobra.ExactArgs(1),
	RunE:  runChannelDisable,
}

func init() {
	channelAddCmd.Flags().StringVarP(&channelAddFlagType, "type", "t", "",
		"Channel type: discord, slack, generic (auto-detected from URL if not specified)")
	channelAddCmd.Flags().StringVar(&channelAddFlagTemplate, "template", "",
		"Custom payload template for generic channels")

	channelRemoveCmd.Flags().BoolVar(&channelRemoveFlagForce, "force", false,
		"Skip confirmation")

	channelTestCmd.Flags().BoolVarP(&channelTestFlagAll, "all", "a", false,
		"Test all enabled channels")

	channelTestCmd.ValidArgsFunction = completeChannelArgs
	channelRemoveCmd.ValidArgsFunction = completeChannelArgs
	channelEnableCmd.ValidArgsFunction = completeChannelArgs
	channelDisableCmd.ValidArgsFunction = completeChannelArgs

	channelCmd.AddCommand(channelAddCmd)
	channelCmd.AddCommand(channelListCmd)
	channelCmd.AddCommand(channelTestCmd)
	channelCmd.AddCommand(channelRemoveCmd)
	channelCmd.AddCommand(channelEnableCmd)
	channelCmd.AddCommand(channelDisableCmd)

	rootCmd.AddCommand(channelCmd)
}

// completeChannelArgs provides completion for channel names.
func completeChannelArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	if ctx == nil {
		opts := runtime.DefaultOptions()
		var err error
		ctx, err = runtime.New(opts)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		defer ctx.Close()
	}

	channels, err := ctx.ChannelRepo.List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	for _, ch := range channels {
		if strings.HasPrefix(ch.Name, toComplete) {
			names = append(names, ch.Name)
		}
	}

	return names, cobra.ShellCompDirectiveNoFileComp
}

// runChannelAdd handles the channel add command.
func runChannelAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	channelURL := args[1]

	if err := validate.ChannelName(name); err != nil {
		return err
	}
	if err := validate.ChannelURL(channelURL); err != nil {
		return err
	}

	exists, err := ctx.ChannelRepo.Exists(name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("channel %q already exists", name)
	}

	channelType := channelAddFlagType
	if channelType == "" {
		channelType = model.DetectChannelType(channelURL)
	}
	if !model.IsValidChannelType(channelType) {
		return fmt.Errorf("invalid channel type: must be one of %s",
			strings.Join(model.ValidChannelTypes(), ", "))
	}

	ch := model.NewChannel(name, channelType, channelURL)
	if channelAddFlagTemplate != "" {
		ch.Template = channelAddFlagTemplate
	}

	if err := ctx.ChannelRepo.Create(ch); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"name":       ch.Name,
			"type":       ch.Type,
			"url":        ch.MaskedURL(),
			"enabled":    ch.Enabled,
			"created_at": ch.CreatedAt,
		})
	}

	cli := ctx.CLIFormatter()
	cli.Success("Added channel %q", name)
	cli.Printf("  Type: %s\n", ch.Type)
	cli.Printf("  URL: %s\n", ch.MaskedURL())
	cli.Printf("\nTest with: carebook channel test %s\n", name)

	return nil
}

// runChannelList handles the channel list command.
func runChannelList(cmd *cobra.Command, args []string) error {
	channels, err := ctx.ChannelRepo.List()
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"channels": channels,
			"count":    len(channels),
		})
	}

	ctx.CLIFormatter().PrintChannelList(channels)
	return nil
}

// runChannelTest handles the channel test command.
func runChannelTest(cmd *cobra.Command, args []string) error {
	c, cancel := context.WithTimeout(cmd.Context(), config.Global.HTTP.Timeout)
	defer cancel()

	if channelTestFlagAll {
		channels, err := ctx.ChannelRepo.ListEnabled()
		if err != nil {
			return err
		}
		if len(channels) == 0 {
			return errors.ErrNoChannels
		}

		cli := ctx.CLIFormatter()
		for _, ch := range channels {
			result := ctx.Dispatcher.TestChannel(c, ch.Name)
			if result.Success {
				cli.Success("%s: delivered in %dms", ch.Name, result.Duration.Milliseconds())
			} else {
				cli.Error("%s: %s", ch.Name, result.Error)
			}
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("channel name required (or use --all)")
	}
	name := args[0]

	result := ctx.Dispatcher.TestChannel(c, name)

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"channel":     name,
			"success":     result.Success,
			"status_code": result.StatusCode,
			"duration_ms": result.Duration.Milliseconds(),
			"error":       errorString(result.Error),
		})
	}

	cli := ctx.CLIFormatter()
	if result.Success {
		cli.Success("Delivered in %dms. Check your channel for the test message.",
			result.Duration.Milliseconds())
	} else {
		cli.Error("Failed: %s", result.Error)
		cli.Println("The webhook URL may be invalid or the service unavailable.")
	}

	return nil
}

// runChannelRemove handles the channel remove command.
func runChannelRemove(cmd *cobra.Command, args []string) error {
	name := args[0]

	exists, err := ctx.ChannelRepo.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("channel %q not found", name)
	}

	if !channelRemoveFlagForce && !ctx.IsJSON() {
		ctx.Formatter.Printf("Remove channel %q? [y/N] ", name)
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			ctx.Formatter.Println("Cancelled.")
			return nil
		}
	}

	if err := ctx.ChannelRepo.Delete(name); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"status":  "removed",
			"channel": name,
		})
	}

	ctx.CLIFormatter().Success("Removed channel %q", name)
	return nil
}

// runChannelEnable handles the channel enable command.
func runChannelEnable(cmd *cobra.Command, args []string) error {
	return setChannelEnabled(args[0], true)
}

// runChannelDisable handles the channel disable command.
func runChannelDisable(cmd *cobra.Command, args []string) error {
	return setChannelEnabled(args[0], false)
}

func setChannelEnabled(name string, enabled bool) error {
	if err := ctx.ChannelRepo.SetEnabled(name, enabled); err != nil {
		return err
	}

	state := "enabled"
	if !enabled {
		state = "disabled"
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"status":  state,
			"channel": name,
		})
	}

	ctx.CLIFormatter().Success("%s channel %q",
		strings.ToUpper(state[:1])+state[1:], name)
	return nil
}

// errorString returns the error message or empty string.
func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// formatTimeAgo renders a relative time like "5m ago".
func formatTimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
