package api

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	apierrors "github.com/lokhin/coursechat/internal/errors"
	"github.com/lokhin/coursechat/internal/models"
)

// TaskStatus fetches the current status of a background job.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (models.TaskStatus, error) {
	if taskID == "" {
		return models.TaskStatus{}, fmt.Errorf("task id cannot be empty")
	}

	body, err := c.postJSON(ctx, models.PathTaskStatus, map[string]string{"task_id": taskID})
	if err != nil {
		return models.TaskStatus{}, err
	}

	parsed := gjson.ParseBytes(body)
	return models.TaskStatus{
		Percent:   int(parsed.Get("percent").Int()),
		Message:   parsed.Get("message").String(),
		Completed: parsed.Get("completed").Bool(),
		Failed:    parsed.Get("failed").Bool(),
		Error:     parsed.Get("error").String(),
	}, nil
}

// StartKnowledgeUpdate asks the backend to re-ingest a user's course
// materials and returns the id of the background job doing the work.
func (c *Client) StartKnowledgeUpdate(ctx context.Context, req models.UpdateRequest) (string, error) {
	if req.Email == "" {
		return "", fmt.Errorf("email cannot be empty")
	}
	if req.Password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	body, err := c.postJSON(ctx, models.PathUpdateData, req)
	if err != nil {
		return "", err
	}
	return taskIDFromResponse(body, models.PathUpdateData)
}

// StartScheduleSync asks the backend to re-scrape the user's timetable and
// returns the id of the background job.
func (c *Client) StartScheduleSync(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("email cannot be empty")
	}

	body, err := c.postJSON(ctx, models.PathScheduleSync, map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	return taskIDFromResponse(body, models.PathScheduleSync)
}

func taskIDFromResponse(body []byte, endpoint string) (string, error) {
	parsed := gjson.ParseBytes(body)

	if success := parsed.Get("success"); success.Exists() && !success.Bool() {
		return "", apierrors.NewStatusError(0, endpoint, parsed.Get("error").String())
	}

	taskID := parsed.Get("task_id").String()
	if taskID == "" {
		return "", apierrors.NewStatusError(0, endpoint, "response carries no task_id")
	}
	return taskID, nil
}
