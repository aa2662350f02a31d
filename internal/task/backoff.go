package task

import (
	"time"

	"github.com/seantiz/warden/internal/model"
)

// Delay computes the wait before the next attempt. attempt is 1-indexed by
// retry number: the first re-attempt waits Delay(p, 1). Pure; no clock access.
func Delay(p Policy, attempt int) time.Duration {
	var d time.Duration
	switch p.Backoff {
	case model.BackoffLinear:
		d = p.RetryDelay * time.Duration(attempt)
	case model.BackoffExponential:
		d = p.RetryDelay * time.Duration(int64(1)<<attempt)
	default:
		d = p.RetryDelay
	}
	if p.MaxRetryDelay > 0 && d > p.MaxRetryDelay {
		d = p.MaxRetryDelay
	}
	return d
}
