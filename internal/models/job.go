package models

import "time"

// JobStatus tracks where an application sits in the pipeline.
type JobStatus string

const (
	JobSaved        JobStatus = "Saved"
	JobApplied      JobStatus = "Applied"
	JobInterviewing JobStatus = "Interviewing"
	JobOffer        JobStatus = "Offer"
	JobRejected     JobStatus = "Rejected"
)

// JobApplication is a tracked job application tied to a user session.
type JobApplication struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Company     string    `json:"company"`
	Role        string    `json:"role"`
	Status      JobStatus `json:"status"`
	DateApplied time.Time `json:"date_applied"`
	Notes       string    `json:"notes,omitempty"`
}

// SavedDocument is an archived document state with the goals it was built for.
type SavedDocument struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	TargetRole  string        `json:"target_role"`
	PreviewText string        `json:"preview_text"`
	State       DocumentState `json:"state"`
	Goals       CareerGoals   `json:"goals"`
	CreatedAt   time.Time     `json:"created_at"`
}
