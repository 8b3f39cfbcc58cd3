package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/people-analytics/internal/core/events"
)

// JobEvent is the payload handed to the notifier when an import job reaches
// a terminal state.
type JobEvent struct {
	JobID     string        `json:"job_id"`
	Kind      string        `json:"kind"`
	Status    string        `json:"status"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Notifier is the external collaborator interface. The pipeline guarantees
// one invocation per terminal job; delivery and retry belong to the
// implementation behind this interface.
type Notifier interface {
	Notify(ctx context.Context, event JobEvent) error
}

// LogNotifier is the default implementation; it writes the job outcome to
// the structured log. Deployments swap in email or chat integrations here.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event JobEvent) error {
	n.logger.Info("import job notification",
		"job_id", event.JobID,
		"kind", event.Kind,
		"status", event.Status,
		"succeeded", event.Succeeded,
		"failed", event.Failed,
		"duration_ms", event.Duration.Milliseconds())
	return nil
}

// Register subscribes the notifier to both terminal import events on the bus.
func Register(bus *events.EventBus, notifier Notifier) {
	handler := func(ctx context.Context, event events.Event) error {
		finished, ok := event.(*events.ImportJobFinishedEvent)
		if !ok {
			return fmt.Errorf("unexpected event payload for %s", event.EventType())
		}
		return notifier.Notify(ctx, JobEvent{
			JobID:     finished.JobID,
			Kind:      finished.Kind,
			Status:    finished.Status,
			Succeeded: finished.Succeeded,
			Failed:    finished.Failed,
			Duration:  finished.Duration,
		})
	}

	bus.Subscribe(events.EventTypeImportJobCompleted, handler)
	bus.Subscribe(events.EventTypeImportJobFailed, handler)
}
