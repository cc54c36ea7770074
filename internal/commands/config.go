package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lokhin/coursechat/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show the current configuration, or change a setting with
'config set <key> <value>'.

Keys:
  base-url        Backend URL
  user-email      Account email
  user-id         Account ID
  poll-interval   Task poll cadence in seconds
  verbose         Detailed logging (true/false)
  copy            Copy answers to clipboard (true/false)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigSet(cmd, args[0], args[1])
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "base-url       %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "user-email     %s\n", cfg.UserEmail)
	fmt.Fprintf(out, "user-id        %d\n", cfg.UserID)
	fmt.Fprintf(out, "poll-interval  %ds\n", cfg.PollIntervalSeconds)
	fmt.Fprintf(out, "verbose        %t\n", cfg.Verbose)
	fmt.Fprintf(out, "copy           %t\n", cfg.CopyToClipboard)

	path, err := config.GetConfigPath()
	if err == nil {
		fmt.Fprintf(out, "\nconfig file: %s\n", path)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	switch key {
	case "base-url":
		cfg.BaseURL = value
	case "user-email":
		cfg.UserEmail = value
	case "user-id":
		id, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("user-id must be a number: %q", value)
		}
		cfg.UserID = id
	case "poll-interval":
		secs, err := strconv.Atoi(value)
		if err != nil || secs < 1 {
			return fmt.Errorf("poll-interval must be a positive number of seconds: %q", value)
		}
		cfg.PollIntervalSeconds = secs
	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("verbose must be true or false: %q", value)
		}
		cfg.Verbose = b
	case "copy":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("copy must be true or false: %q", value)
		}
		cfg.CopyToClipboard = b
	default:
		return fmt.Errorf("unknown setting %q", key)
	}

	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s set to %s\n", key, value)
	return nil
}
