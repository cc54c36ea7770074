package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lokhin/coursechat/internal/chat"
	"github.com/lokhin/coursechat/internal/history"
	"github.com/lokhin/coursechat/internal/models"
	"github.com/lokhin/coursechat/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session grounded in your course material.

The chat maintains conversation context across messages. Answers cite
the lecture notes they draw on. Use /courses inside the session to
restrict answers to specific courses.

Type 'exit', 'quit', or press Ctrl+C to end the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func runChat() error {
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

	controller := chat.NewController(client, chat.Identity{
		UserID:    cfg.UserID,
		UserEmail: cfg.UserEmail,
	}, logger)

	runErr := tui.RunChat(controller, client, cfg.UserEmail)

	if conv, err := saveTranscript(controller.Messages()); err != nil {
		logger.Warn("failed to save transcript", "error", err)
	} else if conv != nil {
		fmt.Println("Conversation saved (view it with 'coursechat history show @last')")
	}

	return runErr
}

func saveTranscript(messages []models.Message) (*history.Conversation, error) {
	store, err := newHistoryStore()
	if err != nil {
		return nil, err
	}
	return store.SaveTranscript(messages)
}
