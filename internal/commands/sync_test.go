package commands

import (
	"errors"
	"strings"
	"testing"
	"time"

	apierrors "github.com/lokhin/coursechat/internal/errors"
	"github.com/lokhin/coursechat/internal/models"
	"github.com/lokhin/coursechat/internal/task"
)

func TestTrackProgress_Completion(t *testing.T) {
	fake := &fakeBackend{statuses: []models.TaskStatus{
		{Percent: 30, Message: "downloading notes"},
		{Percent: 80, Message: "embedding"},
		{Percent: 100, Message: "done", Completed: true},
	}}

	tracker := task.NewTracker(fake, task.WithInterval(5*time.Millisecond))
	if err := tracker.Start("task-1"); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer tracker.Stop()

	errCh := make(chan error, 1)
	go func() { errCh <- trackProgress(tracker) }()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("trackProgress() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("trackProgress did not return")
	}
}

func TestTrackProgress_Failure(t *testing.T) {
	fake := &fakeBackend{statuses: []models.TaskStatus{
		{Percent: 10, Message: "logging in"},
		{Failed: true, Error: "invalid credentials"},
	}}

	tracker := task.NewTracker(fake, task.WithInterval(5*time.Millisecond))
	if err := tracker.Start("task-2"); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer tracker.Stop()

	errCh := make(chan error, 1)
	go func() { errCh <- trackProgress(tracker) }()

	select {
	case err := <-errCh:
		if err == nil || !strings.Contains(err.Error(), "invalid credentials") {
			t.Errorf("trackProgress() error = %v, want failure reason", err)
		}
		var tf *apierrors.TaskFailedError
		if !errors.As(err, &tf) || tf.TaskID != "task-2" {
			t.Errorf("trackProgress() error = %#v, want TaskFailedError for task-2", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("trackProgress did not return")
	}
}

func TestSyncCommand_Flags(t *testing.T) {
	if syncCmd.Flags().Lookup("timetable") == nil {
		t.Error("timetable flag not found on sync command")
	}
}

func TestStatusCommand_FollowsTask(t *testing.T) {
	fake := &fakeBackend{statuses: []models.TaskStatus{
		{Percent: 50, Message: "re-embedding"},
		{Percent: 100, Message: "done", Completed: true},
	}}
	withFakeBackend(t, fake)

	errCh := make(chan error, 1)
	go func() { errCh <- runStatus("task-3") }()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("runStatus() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runStatus did not return")
	}
	if !fake.closed {
		t.Error("client was not closed")
	}
}
