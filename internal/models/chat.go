package models

import "time"

// Role identifies the author of a chat message.
type Role string

// Message roles
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Citation is a reference to a retrieved source backing part of an answer.
// Field names follow the backend's snake_case JSON.
type Citation struct {
	Title          string  `json:"title"`
	SourceURL      string  `json:"source_url"`
	RelevanceScore float64 `json:"relevance_score"`
	Text           string  `json:"text,omitempty"`
}

// Message is one finalized turn in a conversation. Messages are immutable
// once created.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
	Citations []Citation
}

// Frame is one parsed unit extracted from the chat stream: either a text
// delta or a citation bundle.
type Frame interface {
	isFrame()
}

// TextDelta carries a fragment of answer text. Concatenating deltas in
// emission order reconstructs the answer exactly.
type TextDelta struct {
	Text string
}

// CitationBundle carries one batch of citations emitted mid-stream.
type CitationBundle struct {
	Citations []Citation
}

func (TextDelta) isFrame()      {}
func (CitationBundle) isFrame() {}

// HistoryMessage is a prior turn as sent to the backend.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a streaming chat request.
type ChatRequest struct {
	UserRequest       string           `json:"user_request"`
	UserID            int              `json:"user_id,omitempty"`
	UserEmail         string           `json:"user_email,omitempty"`
	Messages          []HistoryMessage `json:"messages,omitempty"`
	SelectedCourseIDs []int            `json:"selected_course_ids,omitempty"`
}

// History converts finalized messages into the request form.
func History(messages []Message) []HistoryMessage {
	if len(messages) == 0 {
		return nil
	}
	out := make([]HistoryMessage, len(messages))
	for i, m := range messages {
		out[i] = HistoryMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}
