// Package adapter defines the completion-event boundary for downstream
// systems.
//
// Adapters publish a single orchestration-completed notification after all
// workers have joined. The runtime owns adapter lifecycle; users provide
// configuration only.
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/justapithecus/prospect/types"
)

// RunCompletedEvent is the payload published when an orchestration
// run finishes.
type RunCompletedEvent struct {
	EventType  string                      `json:"event_type"` // always "orchestration_completed"
	RunID      string                      `json:"run_id"`
	Timestamp  string                      `json:"timestamp"` // ISO 8601
	DurationMs int64                       `json:"duration_ms"`
	Jobs       map[string]types.JobSummary `json:"jobs"`
}

// EventType is the fixed event type discriminant.
const EventType = "orchestration_completed"

// Adapter publishes run completion events to a downstream system.
// Implementations must be safe for single-use per run.
type Adapter interface {
	// Publish sends a run completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *RunCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// PublishWithRetry runs fn up to 1+retries times with exponential backoff
// starting at base (base, 2*base, 4*base, ...). Backoff precedes retries,
// not the first attempt. A non-nil retriable predicate can stop retries
// early for permanent errors.
func PublishWithRetry(ctx context.Context, retries int, base time.Duration, retriable func(error) bool, fn func(context.Context) error) error {
	var lastErr error
	attempts := 1 + retries

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return &CanceledError{Err: err}
		}

		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * base
			select {
			case <-ctx.Done():
				return &CanceledError{Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if retriable != nil && !retriable(lastErr) {
			return &ExhaustedError{Attempts: i + 1, Err: lastErr}
		}
	}

	return &ExhaustedError{Attempts: attempts, Err: lastErr}
}

// CanceledError reports a publish abandoned due to context cancellation.
type CanceledError struct {
	Err error
}

func (e *CanceledError) Error() string { return "publish canceled: " + e.Err.Error() }

func (e *CanceledError) Unwrap() error { return e.Err }

// ExhaustedError reports a publish that failed on its final attempt.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("publish failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }
