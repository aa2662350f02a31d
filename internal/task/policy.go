package task

import (
	"context"
	"time"

	"github.com/seantiz/warden/internal/model"
)

// DefaultHistoryLimit is the run history capacity when none is specified.
const DefaultHistoryLimit = 10

// Func is the unit of work a Runner protects. The context is advisory: the
// engine never cancels it on timeout, it only stops waiting for the result.
type Func func(ctx context.Context) (any, error)

// Notifier receives lifecycle event payloads. Implementations may block or
// fail; the Runner invokes them on a detached goroutine and isolates any
// error or panic from the task's own outcome.
type Notifier interface {
	Notify(ctx context.Context, p model.NotificationPayload) error
}

// NotifyFilter selects which lifecycle events reach the notifier.
type NotifyFilter struct {
	Success     bool
	Error       bool
	Timeout     bool
	OverlapSkip bool
}

// DefaultNotifyFilter notifies on success, error, and timeout, but not on
// overlap skips.
func DefaultNotifyFilter() NotifyFilter {
	return NotifyFilter{Success: true, Error: true, Timeout: true}
}

func (f NotifyFilter) allows(event string) bool {
	switch event {
	case model.EventSuccess:
		return f.Success
	case model.EventError:
		return f.Error
	case model.EventTimeout:
		return f.Timeout
	case model.EventOverlapSkip:
		return f.OverlapSkip
	default:
		return false
	}
}

// Policy is the per-task reliability policy. It is immutable once the Runner
// is constructed.
type Policy struct {
	// Retries is the number of re-attempts after a failed first attempt.
	Retries int
	// RetryDelay is the base wait between attempts.
	RetryDelay time.Duration
	// Backoff selects how RetryDelay grows across attempts; empty means fixed.
	Backoff string
	// MaxRetryDelay caps the computed backoff delay; zero means uncapped.
	MaxRetryDelay time.Duration
	// PreventOverlap refuses a new invocation while one is in flight.
	PreventOverlap bool
	// Timeout bounds each attempt; zero means no deadline.
	Timeout time.Duration
	// HistoryLimit caps the run history; values below 1 use DefaultHistoryLimit.
	HistoryLimit int
	// NotifyOn filters which events reach the notifier.
	NotifyOn NotifyFilter
}

// Hooks are optional callbacks fired at invocation lifecycle transitions.
// They run synchronously on the invoking goroutine.
type Hooks struct {
	OnStart       func()
	OnSuccess     func(result any)
	OnRetry       func(err error, attempt int)
	OnError       func(err error)
	OnTimeout     func(err error)
	OnOverlapSkip func()
}
