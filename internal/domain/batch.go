package domain

import "time"

// BatchStatus represents the state of a trend batch
type BatchStatus string

const (
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// TrendBatch describes one serialized trend fetch over the top repositories
type TrendBatch struct {
	ID         string      `json:"id"`
	Strategy   string      `json:"strategy"`
	Requested  int         `json:"requested"`
	Computed   []int64     `json:"computed"`
	Skipped    []int64     `json:"skipped"`
	Failed     []int64     `json:"failed"`
	Status     BatchStatus `json:"status"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}
