// Package task tracks long-running backend jobs to completion by polling.
package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apierrors "github.com/lokhin/coursechat/internal/errors"
	"github.com/lokhin/coursechat/internal/models"
)

// StatusClient fetches one poll's worth of status for a background job.
type StatusClient interface {
	TaskStatus(ctx context.Context, taskID string) (models.TaskStatus, error)
}

// State is the tracker's lifecycle state.
type State int

// Tracker states
const (
	StateIdle State = iota
	StatePolling
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

const (
	defaultInterval   = 2 * time.Second
	defaultResetDelay = 3 * time.Second
)

// Tracker polls the status of exactly one background job and drives it
// through Idle -> Polling -> {Completed, Failed} -> Idle. Multiple trackers
// may run concurrently; each owns its own timer and state.
type Tracker struct {
	client     StatusClient
	logger     *slog.Logger
	interval   time.Duration
	resetDelay time.Duration
	onComplete func()

	mu         sync.Mutex
	state      State
	taskID     string
	percent    int
	message    string
	errMsg     string
	running    bool
	fired      bool
	stopCh     chan struct{}
	resetTimer *time.Timer

	updates chan struct{}
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithInterval sets the poll cadence.
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		t.interval = d
	}
}

// WithResetDelay sets the cosmetic delay before a terminal state returns to
// idle.
func WithResetDelay(d time.Duration) Option {
	return func(t *Tracker) {
		t.resetDelay = d
	}
}

// WithOnComplete registers a side effect invoked exactly once when the task
// completes, such as refreshing dependent data.
func WithOnComplete(fn func()) Option {
	return func(t *Tracker) {
		t.onComplete = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// NewTracker creates an idle tracker.
func NewTracker(client StatusClient, opts ...Option) *Tracker {
	t := &Tracker{
		client:     client,
		interval:   defaultInterval,
		resetDelay: defaultResetDelay,
		updates:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	t.logger = t.logger.With(slog.String("module", "task"))
	return t
}

// Start begins polling the given task. The first status request is issued
// immediately, then at the configured interval until a terminal state.
func (t *Tracker) Start(taskID string) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return apierrors.ErrTrackerActive
	}
	if t.resetTimer != nil {
		t.resetTimer.Stop()
		t.resetTimer = nil
	}
	t.state = StatePolling
	t.taskID = taskID
	t.percent = 0
	t.message = ""
	t.errMsg = ""
	t.fired = false
	t.running = true
	t.stopCh = make(chan struct{})
	stopCh := t.stopCh
	t.mu.Unlock()
	t.notify()

	go t.loop(taskID, stopCh)
	return nil
}

// Stop cancels the poll timer and returns the tracker to idle. It must be
// called when the owning context is disposed so no poller keeps running
// after nobody observes the result.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.running {
		close(t.stopCh)
		t.running = false
	}
	if t.resetTimer != nil {
		t.resetTimer.Stop()
		t.resetTimer = nil
	}
	t.resetLocked()
	t.mu.Unlock()
	t.notify()
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// TaskID returns the tracked task identifier, empty when idle.
func (t *Tracker) TaskID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.taskID
}

// Progress returns the displayed percent and message. Percent never
// decreases within one lifecycle, even if a stale poll reports less.
func (t *Tracker) Progress() (int, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent, t.message
}

// Err returns the server-reported failure reason, empty unless Failed.
func (t *Tracker) Err() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errMsg
}

// Updates returns a coalesced change-notification channel.
func (t *Tracker) Updates() <-chan struct{} {
	return t.updates
}

func (t *Tracker) notify() {
	select {
	case t.updates <- struct{}{}:
	default:
	}
}

func (t *Tracker) loop(taskID string, stopCh chan struct{}) {
	if t.poll(taskID, stopCh) {
		return
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if t.poll(taskID, stopCh) {
				return
			}
		case <-stopCh:
			return
		}
	}
}

// poll issues one status request and applies the result. It reports whether
// polling should stop.
func (t *Tracker) poll(taskID string, stopCh chan struct{}) bool {
	ctx, cancel := context.WithTimeout(context.Background(), t.interval*4)
	defer cancel()

	status, err := t.client.TaskStatus(ctx, taskID)
	if err != nil {
		// A failed poll request is not a failed task; the next tick
		// proceeds normally.
		perr := apierrors.NewTaskPollError(taskID, err)
		t.logger.Warn("poll failed", slog.String("error", perr.Error()))
		return false
	}

	return t.apply(taskID, status, stopCh)
}

func (t *Tracker) apply(taskID string, status models.TaskStatus, stopCh chan struct{}) bool {
	percent := clampPercent(status.Percent)

	t.mu.Lock()
	// A stale stop (or a Start racing a dying loop) must not mutate state.
	select {
	case <-stopCh:
		t.mu.Unlock()
		return true
	default:
	}

	switch {
	case status.Completed:
		t.state = StateCompleted
		t.percent = 100
		t.message = status.Message
		t.running = false
		fire := !t.fired && t.onComplete != nil
		t.fired = true
		t.scheduleResetLocked()
		t.mu.Unlock()
		t.notify()
		if fire {
			t.onComplete()
		}
		t.logger.Info("task completed", slog.String("task_id", taskID))
		return true

	case status.Failed:
		t.state = StateFailed
		t.message = status.Message
		t.errMsg = status.Error
		t.running = false
		t.scheduleResetLocked()
		t.mu.Unlock()
		t.notify()
		t.logger.Warn("task failed",
			slog.String("task_id", taskID),
			slog.String("error", status.Error),
		)
		return true

	default:
		// Monotonic display: a poll reporting less progress than already
		// shown is stale and ignored.
		if percent >= t.percent {
			t.percent = percent
			t.message = status.Message
		}
		t.mu.Unlock()
		t.notify()
		return false
	}
}

// scheduleResetLocked arranges the cosmetic return to idle after a terminal
// state. Callers hold t.mu.
func (t *Tracker) scheduleResetLocked() {
	t.resetTimer = time.AfterFunc(t.resetDelay, func() {
		t.mu.Lock()
		if t.state == StateCompleted || t.state == StateFailed {
			t.resetLocked()
		}
		t.resetTimer = nil
		t.mu.Unlock()
		t.notify()
	})
}

// resetLocked returns the tracker to idle. Callers hold t.mu.
func (t *Tracker) resetLocked() {
	t.state = StateIdle
	t.taskID = ""
	t.percent = 0
	t.message = ""
	t.errMsg = ""
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
