package notify

import (
	"context"

	"careerpilot-backend/internal/shared/telemetry"
)

// Event describes something a user should hear about.
type Event struct {
	UserID   string
	ResumeID string
	Kind     string
	Message  string
}

// Event kinds emitted by the parse pipeline.
const (
	KindParseCompleted = "parse_completed"
	KindParseFailed    = "parse_failed"
)

// Notifier delivers events to users. Delivery is best-effort: callers log
// and continue when Notify returns an error.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier writes events to the service log. It stands in for a real
// delivery channel in development and tests.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	telemetry.Info("notify", map[string]any{
		"user_id":   event.UserID,
		"resume_id": event.ResumeID,
		"kind":      event.Kind,
		"message":   event.Message,
	})
	return nil
}

var _ Notifier = LogNotifier{}
