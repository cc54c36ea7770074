// Package errors provides custom error types for the course assistant client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrGenerationActive = errors.New("a generation is already in progress")
	ErrTrackerActive    = errors.New("tracker is already polling a task")
	ErrClientClosed     = errors.New("client is closed")
	ErrTransportFailed  = errors.New("transport request failed")
	ErrInvalidRecord    = errors.New("invalid stream record")
)

// TransportError represents a failed request against the backend: a network
// failure or a non-success HTTP status. Transport errors are retryable by the
// caller; any partial stream content is discarded.
type TransportError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transport error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("transport error at %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("transport error at %s: %s", e.Endpoint, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is allows comparison with the ErrTransportFailed sentinel
func (e *TransportError) Is(target error) bool {
	if target == ErrTransportFailed {
		return true
	}
	_, ok := target.(*TransportError)
	return ok
}

// NewTransportError creates a TransportError for a network-level failure
func NewTransportError(endpoint string, err error) *TransportError {
	return &TransportError{Endpoint: endpoint, Err: err}
}

// NewStatusError creates a TransportError for a non-success HTTP response
func NewStatusError(statusCode int, endpoint, message string) *TransportError {
	return &TransportError{StatusCode: statusCode, Endpoint: endpoint, Message: message}
}

// StreamParseError represents a single malformed stream record. It is
// recovered locally: the record is dropped and the stream continues.
type StreamParseError struct {
	Message string
	Record  string
}

func (e *StreamParseError) Error() string {
	return fmt.Sprintf("stream parse error: %s", e.Message)
}

// Is allows comparison with the ErrInvalidRecord sentinel
func (e *StreamParseError) Is(target error) bool {
	if target == ErrInvalidRecord {
		return true
	}
	_, ok := target.(*StreamParseError)
	return ok
}

// NewStreamParseError creates a new StreamParseError
func NewStreamParseError(message, record string) *StreamParseError {
	return &StreamParseError{Message: message, Record: record}
}

// CitationParseError represents a malformed citation payload inside an
// otherwise valid record. Only the payload is dropped.
type CitationParseError struct {
	Message string
	Err     error
}

func (e *CitationParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("citation parse error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("citation parse error: %s", e.Message)
}

func (e *CitationParseError) Unwrap() error {
	return e.Err
}

// NewCitationParseError creates a new CitationParseError
func NewCitationParseError(message string, err error) *CitationParseError {
	return &CitationParseError{Message: message, Err: err}
}

// TaskPollError represents a single failed poll request. Polling continues on
// the next scheduled tick.
type TaskPollError struct {
	TaskID string
	Err    error
}

func (e *TaskPollError) Error() string {
	return fmt.Sprintf("poll failed for task %s: %v", e.TaskID, e.Err)
}

func (e *TaskPollError) Unwrap() error {
	return e.Err
}

// NewTaskPollError creates a new TaskPollError
func NewTaskPollError(taskID string, err error) *TaskPollError {
	return &TaskPollError{TaskID: taskID, Err: err}
}

// TaskFailedError represents a task the server explicitly reported as
// failed. It is terminal; polling stops.
type TaskFailedError struct {
	TaskID string
	Reason string
}

func (e *TaskFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("task %s failed", e.TaskID)
	}
	return fmt.Sprintf("task %s failed: %s", e.TaskID, e.Reason)
}

// NewTaskFailedError creates a new TaskFailedError
func NewTaskFailedError(taskID, reason string) *TaskFailedError {
	return &TaskFailedError{TaskID: taskID, Reason: reason}
}

// IsRetryable reports whether the caller may retry the operation that
// produced err. Transport and poll failures are retryable; parse errors are
// recovered internally and task failures are terminal.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var pe *TaskPollError
	return errors.As(err, &pe)
}
