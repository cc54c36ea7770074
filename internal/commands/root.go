// Package commands provides CLI commands for coursechat.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lokhin/coursechat/internal/config"
)

var (
	// Global flags
	baseURLFlag string
	verboseFlag bool
	outputFlag  string
	fileFlag    string
	copyFlag    bool
	courseFlags []int

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "coursechat [question]",
	Short: "Chat with your course material",
	Long: `coursechat is a command-line client for a course-assistant backend.
Answers are grounded in your enrolled courses' material and cite the
lecture notes they draw on.

Examples:
  coursechat chat                       Start interactive chat
  coursechat "What is a decision tree?" Ask a single question
  coursechat -f question.md             Read question from file
  cat question.md | coursechat          Read question from stdin
  coursechat "Explain PCA" -o notes.md  Save answer to file
  coursechat courses                    List enrolled courses
  coursechat sync                       Refresh the knowledge base`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("coursechat %s (built %s)\n", Version, BuildTime)
			return nil
		}

		stat, _ := os.Stdin.Stat()
		hasStdin := (stat.Mode() & os.ModeCharDevice) == 0

		if fileFlag != "" {
			data, err := os.ReadFile(fileFlag)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			return runAsk(string(data), false)
		}

		if hasStdin {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return runAsk(string(data), false)
		}

		if len(args) > 0 {
			return runAsk(args[0], false)
		}

		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Backend URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Enable detailed logging")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save answer to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read question from file")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")
	rootCmd.Flags().BoolVar(&copyFlag, "copy", false, "Copy answer to clipboard")
	rootCmd.Flags().IntSliceVar(&courseFlags, "course", nil, "Restrict answer to course IDs (repeatable)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(syncCmd)
}

// loadConfig returns the effective configuration with flag overrides applied.
func loadConfig() config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if baseURLFlag != "" {
		cfg.BaseURL = baseURLFlag
	}
	if verboseFlag {
		cfg.Verbose = true
	}
	return cfg
}

// setupLogger configures the process logger. Quiet by default so log
// lines never interleave with rendered output.
func setupLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelError
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
