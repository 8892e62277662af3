package models

import "time"

type ValidationJob struct {
	ID          string            `json:"id"`
	StorageKey  string            `json:"storage_key"`
	Filename    string            `json:"filename"`
	ContentType string            `json:"content_type"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Result      *ValidationResult `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
