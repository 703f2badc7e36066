package models

import "time"

// Task belongs to exactly one organization. The four completion fields
// (Completed, CompletedBy, CompletedByEmail, CompletedAt) are set together
// when a task is completed and cleared together when it is unchecked.
type Task struct {
	ID               int64      `json:"id" db:"id"`
	OrganizationID   int64      `json:"organization_id" db:"organization_id"`
	Title            string     `json:"title" db:"title"`
	Description      string     `json:"description" db:"description"`
	Completed        bool       `json:"completed" db:"completed"`
	CompletedBy      *int64     `json:"completed_by" db:"completed_by"`
	CompletedByEmail *string    `json:"completed_by_email" db:"completed_by_email"`
	CompletedAt      *time.Time `json:"completed_at" db:"completed_at"`
}

// AddTaskRequest is the payload for POST /organizations/{id}/tasks
type AddTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CompleteTaskRequest is the payload for PUT /complete-task/{id}
type CompleteTaskRequest struct {
	Date string `json:"date"`
}
