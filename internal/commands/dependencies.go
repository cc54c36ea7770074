package commands

import (
	"context"
	"io"

	"github.com/lokhin/coursechat/internal/api"
	"github.com/lokhin/coursechat/internal/config"
	"github.com/lokhin/coursechat/internal/models"
)

// BackendClient defines the backend operations the commands need.
// *api.Client is the production implementation; tests inject fakes.
type BackendClient interface {
	StreamChat(ctx context.Context, req models.ChatRequest) (io.ReadCloser, error)
	TaskStatus(ctx context.Context, taskID string) (models.TaskStatus, error)
	StartKnowledgeUpdate(ctx context.Context, req models.UpdateRequest) (string, error)
	StartScheduleSync(ctx context.Context, email string) (string, error)
	ListCourses(ctx context.Context, email string) ([]models.Course, error)
	Close()
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewClient builds a backend client from the loaded configuration.
	NewClient func(cfg config.Config) (BackendClient, error)
}

// NewDependencies creates a Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewClient: func(cfg config.Config) (BackendClient, error) {
			return api.NewClient(api.WithBaseURL(cfg.BaseURL))
		},
	}
}

var deps = NewDependencies()
