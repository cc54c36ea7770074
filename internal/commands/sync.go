package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	apierrors "github.com/lokhin/coursechat/internal/errors"
	"github.com/lokhin/coursechat/internal/models"
	"github.com/lokhin/coursechat/internal/task"
)

var timetableFlag bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh course data on the backend",
	Long: `Start a background refresh on the backend and track its progress.

By default the knowledge base is rebuilt from Moodle: the backend logs
in with your credentials, downloads new course material and re-embeds
it. With --timetable only the class schedule is re-synced.

The Moodle password is read from the terminal and forwarded once; it is
never stored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync()
	},
}

func init() {
	syncCmd.Flags().BoolVar(&timetableFlag, "timetable", false, "Only re-sync the class schedule")
}

func runSync() error {
	cfg := loadConfig()
	logger := setupLogger(cfg)

	if cfg.UserEmail == "" {
		return fmt.Errorf("no account configured: run 'coursechat config set user-email <email>' first")
	}

	client, err := deps.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var taskID string
	if timetableFlag {
		taskID, err = client.StartScheduleSync(ctx, cfg.UserEmail)
	} else {
		password, perr := readPassword(fmt.Sprintf("Moodle password for %s: ", cfg.UserEmail))
		if perr != nil {
			return perr
		}
		taskID, err = client.StartKnowledgeUpdate(ctx, models.UpdateRequest{
			Email:    cfg.UserEmail,
			Password: password,
			ID:       cfg.UserID,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to start sync: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Started task %s\n", taskID)

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

// trackProgress renders the tracker state until the task settles.
func trackProgress(tracker *task.Tracker) error {
	for {
		percent, message := tracker.Progress()
		renderProgress(percent, message)

		switch tracker.State() {
		case task.StateCompleted:
			fmt.Fprint(os.Stderr, "\r\033[K")
			done := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
			fmt.Fprintf(os.Stderr, "%s Sync completed\n", done)
			return nil

		case task.StateIdle:
			// Tracker already reset after completion
			fmt.Fprint(os.Stderr, "\r\033[K")
			return nil

		case task.StateFailed:
			fmt.Fprint(os.Stderr, "\r\033[K")
			reason := tracker.Err()
			if reason == "" {
				reason = "unknown error"
			}
			return apierrors.NewTaskFailedError(tracker.TaskID(), reason)
		}

		<-tracker.Updates()
	}
}

// renderProgress draws a single-line progress bar on stderr.
func renderProgress(percent int, message string) {
	barWidth := 24
	filled := barWidth * percent / 100

	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		if i < filled {
			bar.WriteString(lipgloss.NewStyle().Foreground(colorPrimary).Render("█"))
		} else {
			bar.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("░"))
		}
	}

	label := lipgloss.NewStyle().Foreground(colorText).Render(message)
	fmt.Fprintf(os.Stderr, "\r\033[K%s %3d%% %s", bar.String(), percent, label)
}

// readPassword prompts for a password without echoing it.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimSpace(string(data))
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}
