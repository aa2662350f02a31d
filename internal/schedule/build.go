package schedule

import (
	"log/slog"
	"time"

	"github.com/seantiz/warden/internal/command"
	"github.com/seantiz/warden/internal/model"
	"github.com/seantiz/warden/internal/notify"
	"github.com/seantiz/warden/internal/task"
)

// BuildRunner constructs the protected runner for a stored task definition.
// Definitions with a webhook URL notify over HTTP; all others fall back to
// the structured log so lifecycle events are always observable somewhere.
func BuildRunner(def *model.Task, cmd *command.Runner, logger *slog.Logger) *task.Runner {
	p := task.Policy{
		Retries:        def.Retries,
		RetryDelay:     time.Duration(def.RetryDelayMS) * time.Millisecond,
		Backoff:        def.Backoff,
		PreventOverlap: def.PreventOverlap,
		HistoryLimit:   def.HistoryLimit,
		NotifyOn: task.NotifyFilter{
			Success:     def.NotifySuccess,
			Error:       def.NotifyError,
			Timeout:     def.NotifyTimeout,
			OverlapSkip: def.NotifyOverlapSkip,
		},
	}
	if def.MaxRetryDelayMS != nil && *def.MaxRetryDelayMS > 0 {
		p.MaxRetryDelay = time.Duration(*def.MaxRetryDelayMS) * time.Millisecond
	}
	if def.TimeoutMS != nil && *def.TimeoutMS > 0 {
		p.Timeout = time.Duration(*def.TimeoutMS) * time.Millisecond
	}

	var notifier task.Notifier
	if def.WebhookURL != "" {
		notifier = notify.NewWebhook(def.WebhookURL)
	} else {
		notifier = notify.NewLogger(logger)
	}

	return task.New(task.Config{
		Name:     def.Name,
		Func:     cmd.Func(def.Command),
		Policy:   p,
		Notifier: notifier,
		Logger:   logger,
	})
}
