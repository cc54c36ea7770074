package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List enrolled courses",
	Long: `List the courses the backend knows for your account, with the time
their material was last refreshed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCourses(cmd)
	},
}

func runCourses(cmd *cobra.Command) error {
	cfg := loadConfig()
	setupLogger(cfg)

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

	courses, err := client.ListCourses(ctx, cfg.UserEmail)
	if err != nil {
		return fmt.Errorf("failed to list courses: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(courses) == 0 {
		fmt.Fprintln(out, "No courses found. Run 'coursechat sync' to import your Moodle courses.")
		return nil
	}

	idStyle := lipgloss.NewStyle().Foreground(colorTextDim)
	nameStyle := lipgloss.NewStyle().Foreground(colorText).Bold(true)
	timeStyle := lipgloss.NewStyle().Foreground(colorTextMute)

	for _, course := range courses {
		line := fmt.Sprintf("%s  %s", idStyle.Render(fmt.Sprintf("%4d", course.ID)), nameStyle.Render(course.Name))
		fmt.Fprintln(out, line)
		if course.UpdateTimeMoodle != "" {
			fmt.Fprintln(out, timeStyle.Render(fmt.Sprintf("      material updated %s", course.UpdateTimeMoodle)))
		}
		if course.UpdateTimeExam != "" {
			fmt.Fprintln(out, timeStyle.Render(fmt.Sprintf("      exam data updated %s", course.UpdateTimeExam)))
		}
	}

	return nil
}
