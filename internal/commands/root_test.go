package commands

import (
	"fmt"
	"testing"

	"github.com/spf13/cobra"
)

func TestRootCommand_Help(t *testing.T) {
	cmd := rootCmd
	if cmd.Use != "coursechat [question]" {
		t.Errorf("Expected use 'coursechat [question]', got %s", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	if cmd.Long == "" {
		t.Error("Long description should not be empty")
	}
}

func TestRootCommand_Args(t *testing.T) {
	if rootCmd.Args == nil {
		t.Error("Args validation should be configured")
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	persistent := []string{"base-url", "verbose"}
	for _, flagName := range persistent {
		t.Run(flagName+" flag (persistent)", func(t *testing.T) {
			if rootCmd.PersistentFlags().Lookup(flagName) == nil {
				t.Errorf("PersistentFlag %s not found", flagName)
			}
		})
	}

	localFlags := []string{"output", "file", "version", "copy", "course"}
	for _, flagName := range localFlags {
		t.Run(flagName+" flag", func(t *testing.T) {
			if rootCmd.Flags().Lookup(flagName) == nil {
				t.Errorf("Flag %s not found", flagName)
			}
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	expectedSubcommands := []string{"chat", "config", "courses", "history", "status", "sync"}

	for _, sub := range expectedSubcommands {
		t.Run("subcommand "+sub, func(t *testing.T) {
			found := false
			for _, cmd := range rootCmd.Commands() {
				if cmd.Name() == sub {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Subcommand %s not found", sub)
			}
		})
	}
}

func TestExecute(t *testing.T) {
	t.Run("successful_execution", func(t *testing.T) {
		oldRootCmd := rootCmd
		rootCmd = &cobra.Command{
			Use: "test",
			RunE: func(cmd *cobra.Command, args []string) error {
				return nil
			},
		}
		defer func() { rootCmd = oldRootCmd }()

		// Should not call os.Exit for successful execution
		Execute()
	})

	t.Run("execution_with_error", func(t *testing.T) {
		oldRootCmd := rootCmd
		rootCmd = &cobra.Command{
			Use:           "test",
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return fmt.Errorf("custom error")
			},
		}
		defer func() { rootCmd = oldRootCmd }()

		if err := rootCmd.Execute(); err == nil {
			t.Error("Execute() expected error for failing command")
		}
	})
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("COURSECHAT_BASE_URL", "")

	oldBase, oldVerbose := baseURLFlag, verboseFlag
	defer func() { baseURLFlag, verboseFlag = oldBase, oldVerbose }()

	baseURLFlag = "http://flag.test"
	verboseFlag = true

	cfg := loadConfig()
	if cfg.BaseURL != "http://flag.test" {
		t.Errorf("BaseURL = %q, want flag override", cfg.BaseURL)
	}
	if !cfg.Verbose {
		t.Error("Verbose flag override not applied")
	}
}
