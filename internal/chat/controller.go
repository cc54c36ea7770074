// Package chat owns one conversation: submission, streaming, cancellation,
// and the committed message history.
package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/lokhin/coursechat/internal/errors"
	"github.com/lokhin/coursechat/internal/models"
	"github.com/lokhin/coursechat/internal/stream"
)

// StreamOpener opens a streaming chat request against the backend. The
// returned body yields the raw chunked stream; closing it or cancelling the
// context aborts the request.
type StreamOpener interface {
	StreamChat(ctx context.Context, req models.ChatRequest) (io.ReadCloser, error)
}

// Identity carries the caller-supplied user fields attached to each
// submission. The controller never authenticates; it only forwards these.
type Identity struct {
	UserID    int
	UserEmail string
}

// Controller drives one chat session. At most one generation is in flight at
// a time; concurrent submissions are rejected synchronously, never queued.
type Controller struct {
	opener StreamOpener
	logger *slog.Logger

	mu         sync.Mutex
	identity   Identity
	messages   []models.Message
	draft      string
	generating bool
	cancel     context.CancelFunc
	lastErr    error

	updates chan struct{}
}

// NewController creates a controller for one session.
func NewController(opener StreamOpener, identity Identity, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		opener:   opener,
		identity: identity,
		logger:   logger.With(slog.String("module", "chat")),
		updates:  make(chan struct{}, 1),
	}
}

// SetIdentity replaces the identity attached to future submissions.
func (c *Controller) SetIdentity(identity Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = identity
}

// Submit starts a new turn. The user message is appended synchronously; the
// response streams in the background. The returned channel is closed when
// the turn finishes, whichever way it ends. Submit fails with
// ErrGenerationActive while a generation is in flight.
func (c *Controller) Submit(question string, courseIDs []int) (<-chan struct{}, error) {
	c.mu.Lock()
	if c.generating {
		c.mu.Unlock()
		return nil, apierrors.ErrGenerationActive
	}

	// History reflects the conversation before this turn.
	history := models.History(c.messages)
	req := models.ChatRequest{
		UserRequest:       question,
		UserID:            c.identity.UserID,
		UserEmail:         c.identity.UserEmail,
		Messages:          history,
		SelectedCourseIDs: courseIDs,
	}

	c.messages = append(c.messages, models.Message{
		ID:        uuid.NewString(),
		Role:      models.RoleUser,
		Content:   question,
		Timestamp: time.Now(),
	})
	c.generating = true
	c.draft = ""
	c.lastErr = nil

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()
	c.notify()

	done := make(chan struct{})
	go c.run(ctx, cancel, req, done)
	return done, nil
}

// Cancel signals the in-flight generation, if any. The read loop observes
// the signal at the next read boundary and commits whatever has accumulated.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Messages returns a copy of the committed conversation.
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Draft returns the answer text accumulated by the in-flight generation.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Generating reports whether a generation is in flight.
func (c *Controller) Generating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generating
}

// Err returns the error that ended the last turn, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Updates returns a coalesced change-notification channel for UI
// collaborators. One receive may cover several state changes.
func (c *Controller) Updates() <-chan struct{} {
	return c.updates
}

func (c *Controller) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// run is the single read loop for one turn.
func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, req models.ChatRequest, done chan struct{}) {
	defer close(done)
	defer cancel()

	body, err := c.opener.StreamChat(ctx, req)
	if err != nil {
		// Nothing was streamed: the user message stays, no assistant
		// message is appended, the caller may resubmit.
		c.finishError(err)
		return
	}
	defer body.Close()

	parser := stream.NewParser(c.logger)
	citations := stream.NewCitationSet()
	var answer strings.Builder

	buf := make([]byte, 4096)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			c.apply(parser.Feed(string(buf[:n])), &answer, citations)
		}

		// Cancellation is observed at the read boundary: commit what
		// accumulated, a graceful truncation rather than a rollback.
		if ctx.Err() != nil || errors.Is(readErr, context.Canceled) {
			c.commit(answer.String(), citations.Finalize())
			return
		}

		if readErr == io.EOF {
			c.apply(parser.Flush(), &answer, citations)
			c.commit(answer.String(), citations.Finalize())
			return
		}
		if readErr != nil {
			// Mid-stream transport failure: the partial buffer is
			// discarded and the conversation is left one assistant
			// turn short pending an explicit retry.
			c.finishError(readErr)
			return
		}
	}
}

func (c *Controller) apply(frames []models.Frame, answer *strings.Builder, citations *stream.CitationSet) {
	for _, f := range frames {
		switch frame := f.(type) {
		case models.TextDelta:
			answer.WriteString(frame.Text)
		case models.CitationBundle:
			citations.Add(frame.Citations)
		}
	}

	c.mu.Lock()
	c.draft = answer.String()
	c.mu.Unlock()
	c.notify()
}

// commit finalizes the turn with an immutable assistant message.
func (c *Controller) commit(content string, citations []models.Citation) {
	c.mu.Lock()
	c.messages = append(c.messages, models.Message{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
		Citations: citations,
	})
	c.clearTurnLocked()
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) finishError(err error) {
	terr := err
	var te *apierrors.TransportError
	if !errors.As(err, &te) {
		terr = apierrors.NewTransportError(models.PathChatStream, err)
	}

	c.mu.Lock()
	c.lastErr = terr
	c.clearTurnLocked()
	c.mu.Unlock()

	c.logger.Error("turn failed", slog.String("error", terr.Error()))
	c.notify()
}

func (c *Controller) clearTurnLocked() {
	c.generating = false
	c.cancel = nil
	c.draft = ""
}
