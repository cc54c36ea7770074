package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lokhin/coursechat/internal/task"
)

var statusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Follow a running backend task",
	Long: `Attach to a background task already running on the backend and
follow its progress until it completes or fails.

Task ids are printed by 'coursechat sync' when a refresh is started.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(args[0])
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(taskID string) error {
	cfg := loadConfig()
	logger := setupLogger(cfg)

	client, err := deps.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	tracker := task.NewTracker(client,
		task.WithInterval(time.Duration(cfg.PollIntervalSeconds)*time.Second),
		task.WithLogger(logger),
	)
	if err := tracker.Start(taskID); err != nil {
		return err
	}
	defer tracker.Stop()

	return trackProgress(tracker)
}
