package models

import (
	"encoding/json"
	"time"
)

// JobType selects which analysis a queued job runs.
type JobType string

const (
	JobTypeFaceAnalysis JobType = "face_analysis"
	JobTypeClosetItem   JobType = "closet_item"
)

// AnalysisJob is a long-running image analysis handed to the worker.
type AnalysisJob struct {
	ID        int       `json:"id" db:"id"`
	ProfileID string    `json:"profile_id" db:"profile_id"`
	Type      JobType   `json:"type" db:"type"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusFailed     = "failed"
	StatusCompleted  = "completed"
	StatusRetrying   = "retrying"
)

// JobMessage is the Kafka payload. Large inputs stay in Redis.
type JobMessage struct {
	JobID     int     `json:"job_id"`
	Type      JobType `json:"type"`
	ProfileID string  `json:"profile_id"`
	Email     string  `json:"email"`
}

// Result is what a finished job leaves in Redis for the API to return.
type Result struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}
