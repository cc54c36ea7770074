package models

// TaskStatus is one poll response from the task-status endpoint.
type TaskStatus struct {
	Percent   int    `json:"percent"`
	Message   string `json:"message"`
	Completed bool   `json:"completed"`
	Failed    bool   `json:"failed"`
	Error     string `json:"error,omitempty"`
}

// UpdateRequest starts a knowledge-base ingestion job for one user.
type UpdateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ID       int    `json:"id"`
}

// Course is one enrolled course as returned by the backend.
type Course struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	UpdateTimeMoodle string `json:"update_time_moodle"`
	UpdateTimeExam   string `json:"update_time_exambase"`
}
