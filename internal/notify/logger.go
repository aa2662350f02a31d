package notify

import (
	"context"
	"log/slog"

	"github.com/seantiz/warden/internal/model"
)

// Logger writes notification payloads to the structured log. It is the
// default observer for tasks that have no webhook configured.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a log-backed notifier.
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

// Notify logs the event. It never fails.
func (n *Logger) Notify(_ context.Context, p model.NotificationPayload) error {
	attrs := []any{
		"task", p.TaskName,
		"event", p.Event,
	}
	if p.DurationMS != nil {
		attrs = append(attrs, "duration_ms", *p.DurationMS)
	}
	if p.Error != "" {
		attrs = append(attrs, "error", p.Error)
	}
	if p.AttemptsMade > 0 {
		attrs = append(attrs, "attempts", p.AttemptsMade)
	}
	n.logger.Info("task event", attrs...)
	return nil
}
