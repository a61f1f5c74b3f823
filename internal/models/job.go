package models

import "time"

// Job statuses.
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// Job represents an async batch analysis job
type Job struct {
	ID             string     `json:"id" db:"id"`
	Status         string     `json:"status" db:"status"`
	TotalCount     int        `json:"total_count" db:"total_count"`
	ProcessedCount int        `json:"processed_count" db:"processed_count"`
	FailedCount    int        `json:"failed_count" db:"failed_count"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	ErrorMessage   string     `json:"error_message,omitempty" db:"error_message"`
}

// BatchAnalyzeRequest is the body of a batch analysis call.
type BatchAnalyzeRequest struct {
	Items []ContentItem `json:"items" binding:"required,min=1"`
}
