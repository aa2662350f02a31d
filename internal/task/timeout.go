package task

import (
	"context"
	"fmt"
	"time"
)

// TimeoutError reports that an attempt exceeded its execution deadline.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task timed out after %s", e.Limit)
}

type attemptResult struct {
	value any
	err   error
}

// runAttempt executes fn, bounded by timeout when timeout > 0. The attempt
// races a deadline timer; whichever settles first wins. The losing attempt is
// NOT cancelled: it keeps running detached and its result is discarded. The
// stray gauge tracks such detached attempts until they settle.
func runAttempt(ctx context.Context, fn Func, timeout time.Duration) (any, error) {
	if timeout <= 0 {
		return safeCall(ctx, fn)
	}

	done := make(chan attemptResult, 1)
	go func() {
		v, err := safeCall(ctx, fn)
		done <- attemptResult{value: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.value, r.err
	case <-timer.C:
		strayRunning.Inc()
		go func() {
			<-done
			strayRunning.Dec()
		}()
		return nil, &TimeoutError{Limit: timeout}
	}
}
