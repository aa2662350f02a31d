package task

import (
	"context"
	"time"

	"github.com/seantiz/warden/internal/model"
)

// notifyTimeout bounds how long a single notifier call may take.
const notifyTimeout = 10 * time.Second

// dispatch delivers p to the notifier on a detached goroutine. It is a no-op
// when no notifier is configured or the event is filtered out. Notifier errors
// and panics are logged and counted, never surfaced to the invocation: a
// broken observer must not change what the Runner reports for the task itself.
func (r *Runner) dispatch(p model.NotificationPayload) {
	if r.notifier == nil || !r.policy.NotifyOn.allows(p.Event) {
		return
	}

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				notifyFailures.WithLabelValues(r.name).Inc()
				r.logger.Error("notifier panicked",
					"task", r.name,
					"event", p.Event,
					"panic", rec,
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := r.notifier.Notify(ctx, p); err != nil {
			notifyFailures.WithLabelValues(r.name).Inc()
			r.logger.Error("notifier failed",
				"task", r.name,
				"event", p.Event,
				"error", err,
			)
		}
	}()
}
