package model

import "time"

// Task lifecycle status constants.
const (
	TaskScheduled = "scheduled"
	TaskRunning   = "running"
	TaskStopped   = "stopped"
)

// Run status constants.
const (
	RunRunning = "running"
	RunSuccess = "success"
	RunFailed  = "failed"
	RunTimeout = "timeout"
)

// Trigger source constants.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// Notification event constants.
const (
	EventSuccess     = "success"
	EventError       = "error"
	EventTimeout     = "timeout"
	EventOverlapSkip = "overlap_skip"
)

// Backoff strategy constants.
const (
	BackoffFixed       = "fixed"
	BackoffLinear      = "linear"
	BackoffExponential = "exponential"
)

// IsTerminalRun reports whether a run status ends an invocation.
func IsTerminalRun(status string) bool {
	return status == RunSuccess || status == RunFailed || status == RunTimeout
}

// ValidBackoff reports whether s names a known backoff strategy.
func ValidBackoff(s string) bool {
	return s == BackoffFixed || s == BackoffLinear || s == BackoffExponential
}

// RunRecord is one entry in a task's bounded run history. A record is created
// with status "running" when an invocation starts and finalized exactly once
// at the invocation's terminal outcome; it is never mutated afterwards.
type RunRecord struct {
	ID          string     `json:"id"`
	TaskName    string     `json:"task_name"`
	Status      string     `json:"status"`
	TriggeredBy string     `json:"triggered_by"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	DurationMS  *int64     `json:"duration_ms,omitempty"`
	Error       string     `json:"error,omitempty"`
	Attempts    int        `json:"attempts,omitempty"`
}

// NotificationPayload is delivered to a task's notifier on lifecycle events.
type NotificationPayload struct {
	TaskName     string    `json:"task_name"`
	Event        string    `json:"event"`
	Timestamp    time.Time `json:"timestamp"`
	DurationMS   *int64    `json:"duration_ms,omitempty"`
	Result       any       `json:"result,omitempty"`
	Error        string    `json:"error,omitempty"`
	AttemptsMade int       `json:"attempts_made,omitempty"`
}

// Task is a persisted task definition: what to run, when, and under which
// reliability policy. Run history is runtime-only and never persisted.
type Task struct {
	Name              string    `json:"name"`
	CronSpec          string    `json:"cron_spec"`
	Command           string    `json:"command"`
	Retries           int       `json:"retries"`
	RetryDelayMS      int64     `json:"retry_delay_ms"`
	Backoff           string    `json:"backoff"`
	MaxRetryDelayMS   *int64    `json:"max_retry_delay_ms,omitempty"`
	PreventOverlap    bool      `json:"prevent_overlap"`
	TimeoutMS         *int64    `json:"timeout_ms,omitempty"`
	HistoryLimit      int       `json:"history_limit"`
	WebhookURL        string    `json:"webhook_url,omitempty"`
	NotifySuccess     bool      `json:"notify_success"`
	NotifyError       bool      `json:"notify_error"`
	NotifyTimeout     bool      `json:"notify_timeout"`
	NotifyOverlapSkip bool      `json:"notify_overlap_skip"`
	CreatedAt         time.Time `json:"created_at"`
}
