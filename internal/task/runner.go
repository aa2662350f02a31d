package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/seantiz/warden/internal/model"
)

// Config assembles the pieces of a protected task.
type Config struct {
	Name     string
	Func     Func
	Policy   Policy
	Hooks    Hooks
	Notifier Notifier
	Logger   *slog.Logger
}

// Runner executes one task under its reliability policy. Each task has
// exactly one Runner, which exclusively owns the task's mutable state; the
// mutex only serializes concurrent invocations of the same task.
type Runner struct {
	name     string
	fn       Func
	policy   Policy
	hooks    Hooks
	notifier Notifier
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	status  string
	history *historyRing
}

// New creates a Runner. Policy zero values fall back to the documented
// defaults (no retries, fixed backoff, no deadline, history limit 10).
func New(cfg Config) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Policy.Backoff == "" {
		cfg.Policy.Backoff = model.BackoffFixed
	}
	return &Runner{
		name:     cfg.Name,
		fn:       cfg.Func,
		policy:   cfg.Policy,
		hooks:    cfg.Hooks,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		status:   model.TaskScheduled,
		history:  newHistoryRing(cfg.Policy.HistoryLimit),
	}
}

// Name returns the task name.
func (r *Runner) Name() string {
	return r.name
}

// Status returns the externally observable lifecycle status.
func (r *Runner) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// MarkStopped marks the task stopped. Only the lifecycle owner (the
// scheduler) calls this; the Runner itself never sets it.
func (r *Runner) MarkStopped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = model.TaskStopped
}

// History returns a defensive copy of the run history, newest first.
func (r *Runner) History() []model.RunRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.snapshot()
}

// Invoke runs one protected invocation of the task and blocks until its
// terminal outcome. It returns the task's result and a copy of the finalized
// run record. A nil record means the invocation was skipped because a prior
// run was still in flight; skips leave no history entry. Invoke never
// propagates a task failure to the caller: failures surface through the
// record, hooks, and notifications.
func (r *Runner) Invoke(ctx context.Context, trigger string) (any, *model.RunRecord) {
	// The overlap check and the mark-running transition are indivisible:
	// two racing invocations must never both observe running == false.
	r.mu.Lock()
	if r.policy.PreventOverlap && r.running {
		r.mu.Unlock()
		overlapSkips.WithLabelValues(r.name).Inc()
		if r.hooks.OnOverlapSkip != nil {
			r.hooks.OnOverlapSkip()
		}
		r.dispatch(model.NotificationPayload{
			TaskName:  r.name,
			Event:     model.EventOverlapSkip,
			Timestamp: time.Now().UTC(),
		})
		return nil, nil
	}

	r.running = true
	r.status = model.TaskRunning
	rec := &model.RunRecord{
		ID:          model.NewID(),
		TaskName:    r.name,
		Status:      model.RunRunning,
		TriggeredBy: trigger,
		StartedAt:   time.Now().UTC(),
	}
	r.history.record(rec)
	r.mu.Unlock()

	if r.hooks.OnStart != nil {
		r.hooks.OnStart()
	}

	var lastErr error
	for attempt := 1; attempt <= r.policy.Retries+1; attempt++ {
		result, err := runAttempt(ctx, r.fn, r.policy.Timeout)
		if err == nil {
			final := r.finalize(rec, model.RunSuccess, nil, attempt)
			if r.hooks.OnSuccess != nil {
				r.hooks.OnSuccess(result)
			}
			r.dispatch(model.NotificationPayload{
				TaskName:     r.name,
				Event:        model.EventSuccess,
				Timestamp:    time.Now().UTC(),
				DurationMS:   final.DurationMS,
				Result:       result,
				AttemptsMade: attempt,
			})
			return result, &final
		}

		var te *TimeoutError
		if errors.As(err, &te) {
			// A hung attempt is categorically different from a transient
			// error: no retry, regardless of remaining budget.
			final := r.finalize(rec, model.RunTimeout, err, attempt)
			if r.hooks.OnTimeout != nil {
				r.hooks.OnTimeout(err)
			}
			if r.hooks.OnError != nil {
				r.hooks.OnError(err)
			}
			r.dispatch(model.NotificationPayload{
				TaskName:     r.name,
				Event:        model.EventTimeout,
				Timestamp:    time.Now().UTC(),
				DurationMS:   final.DurationMS,
				Error:        err.Error(),
				AttemptsMade: attempt,
			})
			r.logger.Error("task timed out",
				"task", r.name,
				"limit", r.policy.Timeout,
				"attempt", attempt,
			)
			return nil, &final
		}

		lastErr = err
		if attempt <= r.policy.Retries {
			retriesTotal.WithLabelValues(r.name).Inc()
			if r.hooks.OnRetry != nil {
				r.hooks.OnRetry(err, attempt)
			}
			if d := Delay(r.policy, attempt); d > 0 {
				select {
				case <-time.After(d):
				case <-ctx.Done():
					// Cut the wait short; the next attempt observes the context.
				}
			}
		}
	}

	final := r.finalize(rec, model.RunFailed, lastErr, r.policy.Retries+1)
	if r.hooks.OnError != nil {
		r.hooks.OnError(lastErr)
	}
	r.dispatch(model.NotificationPayload{
		TaskName:     r.name,
		Event:        model.EventError,
		Timestamp:    time.Now().UTC(),
		DurationMS:   final.DurationMS,
		Error:        lastErr.Error(),
		AttemptsMade: r.policy.Retries + 1,
	})
	r.logger.Error("task failed",
		"task", r.name,
		"attempts", r.policy.Retries+1,
		"error", lastErr,
	)
	return nil, &final
}

// finalize closes the run record exactly once and resets the running state.
// The duration is computed here and never recomputed. It returns a value copy
// safe to hand to callers and notification payloads.
func (r *Runner) finalize(rec *model.RunRecord, status string, err error, attempts int) model.RunRecord {
	r.mu.Lock()
	now := time.Now().UTC()
	dur := now.Sub(rec.StartedAt).Milliseconds()
	rec.EndedAt = &now
	rec.DurationMS = &dur
	rec.Status = status
	rec.Attempts = attempts
	if err != nil {
		rec.Error = err.Error()
	}
	r.running = false
	// Preserve a stop that arrived while the run was in flight.
	if r.status == model.TaskRunning {
		r.status = model.TaskScheduled
	}
	final := *rec
	r.mu.Unlock()

	runsTotal.WithLabelValues(r.name, status).Inc()
	runDuration.WithLabelValues(r.name).Observe(float64(dur) / 1000.0)
	return final
}

// safeCall invokes fn, converting a panic into an error so a misbehaving
// task can never crash the invocation path.
func safeCall(ctx context.Context, fn Func) (v any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panicked: %v", rec)
		}
	}()
	return fn(ctx)
}
