package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeImportJobCompleted = "import.job.completed"
	EventTypeImportJobFailed    = "import.job.failed"
)

// ImportJobFinishedEvent is published exactly once when an import job reaches
// a terminal state, completed or failed.
type ImportJobFinishedEvent struct {
	BaseEvent
	JobID     string        `json:"job_id"`
	Kind      string        `json:"kind"`
	Status    string        `json:"status"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

func NewImportJobFinishedEvent(jobID, kind, status string, succeeded, failed int, duration time.Duration) *ImportJobFinishedEvent {
	eventType := EventTypeImportJobCompleted
	if status == "failed" {
		eventType = EventTypeImportJobFailed
	}

	return &ImportJobFinishedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"job_id":      jobID,
				"kind":        kind,
				"status":      status,
				"succeeded":   succeeded,
				"failed":      failed,
				"duration_ms": duration.Milliseconds(),
			},
		},
		JobID:     jobID,
		Kind:      kind,
		Status:    status,
		Succeeded: succeeded,
		Failed:    failed,
		Duration:  duration,
	}
}
