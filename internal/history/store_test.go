package history

import (
	"strings"
	"testing"
	"time"

	"github.com/lokhin/coursechat/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	return store
}

func sampleTranscript() []models.Message {
	return []models.Message{
		{
			ID:        "m1",
			Role:      models.RoleUser,
			Content:   "What is a decision tree?",
			Timestamp: time.Now(),
		},
		{
			ID:        "m2",
			Role:      models.RoleAssistant,
			Content:   "A decision tree splits data by attribute tests.",
			Timestamp: time.Now(),
			Citations: []models.Citation{
				{Title: "Lecture 3", SourceURL: "https://moodle.hku.hk/lec3", RelevanceScore: 0.9},
			},
		},
	}
}

func TestSaveTranscriptAndGet(t *testing.T) {
	store := newTestStore(t)

	conv, err := store.SaveTranscript(sampleTranscript())
	if err != nil {
		t.Fatalf("SaveTranscript() error: %v", err)
	}
	if conv == nil {
		t.Fatal("SaveTranscript() returned nil conversation")
	}

	if conv.Title != "What is a decision tree?" {
		t.Errorf("Title = %q, want first user question", conv.Title)
	}

	loaded, err := store.GetConversation(conv.ID)
	if err != nil {
		t.Fatalf("GetConversation() error: %v", err)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(loaded.Messages))
	}
	if len(loaded.Messages[1].Citations) != 1 {
		t.Errorf("citations lost in round trip: %+v", loaded.Messages[1])
	}
}

func TestSaveTranscript_EmptySkipped(t *testing.T) {
	store := newTestStore(t)

	conv, err := store.SaveTranscript(nil)
	if err != nil {
		t.Fatalf("SaveTranscript(nil) error: %v", err)
	}
	if conv != nil {
		t.Error("empty transcript should not be saved")
	}
}

func TestTitleTruncation(t *testing.T) {
	long := strings.Repeat("x", 80)
	title := titleFromMessages([]models.Message{{Role: models.RoleUser, Content: long}})

	if len(title) != 53 || !strings.HasSuffix(title, "...") {
		t.Errorf("title = %q, want 50 chars plus ellipsis", title)
	}
}

func TestListConversations_SortedByRecency(t *testing.T) {
	store := newTestStore(t)

	first, err := store.SaveTranscript(sampleTranscript())
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	second, err := store.SaveTranscript([]models.Message{
		{Role: models.RoleUser, Content: "What is PCA?"},
		{Role: models.RoleAssistant, Content: "A projection method."},
	})
	if err != nil {
		t.Fatal(err)
	}

	list, err := store.ListConversations()
	if err != nil {
		t.Fatalf("ListConversations() error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d conversations, want 2", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("conversations not sorted by recency: %s, %s", list[0].ID, list[1].ID)
	}
}

func TestAppendMessage(t *testing.T) {
	store := newTestStore(t)

	conv, err := store.SaveTranscript(sampleTranscript())
	if err != nil {
		t.Fatal(err)
	}

	err = store.AppendMessage(conv.ID, models.Message{
		Role:    models.RoleUser,
		Content: "And entropy?",
	})
	if err != nil {
		t.Fatalf("AppendMessage() error: %v", err)
	}

	loaded, err := store.GetConversation(conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Messages) != 3 {
		t.Errorf("got %d messages, want 3", len(loaded.Messages))
	}
}

func TestDeleteConversation(t *testing.T) {
	store := newTestStore(t)

	conv, err := store.SaveTranscript(sampleTranscript())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteConversation(conv.ID); err != nil {
		t.Fatalf("DeleteConversation() error: %v", err)
	}
	if _, err := store.GetConversation(conv.ID); err == nil {
		t.Error("conversation still readable after delete")
	}
	if err := store.DeleteConversation(conv.ID); err == nil {
		t.Error("expected error deleting missing conversation")
	}
}

func TestClearAll(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := store.SaveTranscript(sampleTranscript()); err != nil {
			t.Fatal(err)
		}
		time.Sleep(time.Millisecond)
	}

	if err := store.ClearAll(); err != nil {
		t.Fatalf("ClearAll() error: %v", err)
	}

	list, err := store.ListConversations()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("got %d conversations after clear, want 0", len(list))
	}
}
