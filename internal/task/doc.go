// Package task provides the protected-task execution engine. A Runner wraps
// one unit of work with automatic retry and backoff, a best-effort execution
// deadline, mutual exclusion against overlapping runs, a bounded in-memory
// run history, and asynchronous delivery of lifecycle events to a notifier.
package task
