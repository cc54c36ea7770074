// Package models contains data types and wire constants for the course
// assistant backend.
package models

// DefaultBaseURL points at a locally running backend.
const DefaultBaseURL = "http://localhost:8000"

// Backend endpoint paths
const (
	PathChatStream   = "/chat/stream"
	PathTaskStatus   = "/task-status"
	PathUpdateData   = "/update-data"
	PathScheduleSync = "/schedule/sync"
	PathUserCourses  = "/user/courses"
)

// Stream framing. The backend emits records separated by a blank line; each
// record is the DataPrefix followed by a JSON envelope with a single opaque
// "chunk" field. A chunk wrapped in the sources markers carries a JSON array
// of citations instead of answer text.
const (
	RecordSeparator = "\n\n"
	DataPrefix      = "data: "
	SourcesStart    = "__SOURCES__"
	SourcesEnd      = "__END_SOURCES__"
)
