package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/justapithecus/prospect/log"
	"github.com/justapithecus/prospect/metrics"
	"github.com/justapithecus/prospect/synth"
	"github.com/justapithecus/prospect/types"
)

// DefaultMaxAttempts is the bounded retry budget for the upstream fetch.
const DefaultMaxAttempts = 3

// DefaultInitialDelay is the first backoff delay. Doubles per retry.
const DefaultInitialDelay = 2 * time.Second

// Result is the terminal outcome of a fetch-with-retry.
type Result struct {
	// Series is the fetched or generated data. Never empty.
	Series types.Series
	// Synthetic reports whether the series came from the fallback generator.
	Synthetic bool
	// LastErr is the last real upstream error. Set only when Synthetic.
	LastErr string
	// Attempts is the number of upstream attempts performed.
	Attempts int
}

// Fetcher retries an upstream fetch with exponential backoff and falls
// back to synthetic generation when attempts exhaust. The fallback path
// is a success: downstream consumers are format-agnostic to provenance,
// and an unreachable upstream must not block the pipeline.
type Fetcher struct {
	// Client performs one upstream attempt.
	Client SeriesFetcher
	// MaxAttempts bounds upstream attempts (default DefaultMaxAttempts).
	MaxAttempts int
	// InitialDelay is the first backoff delay (default DefaultInitialDelay).
	InitialDelay time.Duration
	// Sleep blocks for the backoff delay. Defaults to a context-aware
	// time.After wait; injected in tests to observe delays without timers.
	Sleep func(ctx context.Context, d time.Duration) error
	// Now supplies the synthetic generator's reference date.
	// Defaults to time.Now.
	Now func() time.Time
	// Logger receives attempt and fallback diagnostics. Optional.
	Logger *log.Logger
	// Collector records attempt and fallback counters. Optional.
	Collector *metrics.Collector
}

// phase identifies a retry-loop state.
type phase int

const (
	phaseAttempting phase = iota
	phaseBackingOff
	phaseFallback
	phaseDone
)

// state is one point in the retry state machine.
// attempt counts from 1; delay is the pending backoff when backing off.
type state struct {
	phase   phase
	attempt int
	delay   time.Duration
	lastErr error
}

// start is the machine's initial state.
func start(initialDelay time.Duration) state {
	return state{phase: phaseAttempting, attempt: 1, delay: initialDelay}
}

// afterAttempt computes the successor state once attempt n has resolved.
// Pure: callers drive side effects (sleeping, fetching) between states.
func afterAttempt(s state, maxAttempts int, err error) state {
	if err == nil {
		return state{phase: phaseDone, attempt: s.attempt}
	}
	if s.attempt >= maxAttempts {
		return state{phase: phaseFallback, attempt: s.attempt, lastErr: err}
	}
	return state{phase: phaseBackingOff, attempt: s.attempt, delay: s.delay, lastErr: err}
}

// afterBackoff advances a backing-off state to the next attempt,
// doubling the delay for the following backoff.
func afterBackoff(s state) state {
	return state{phase: phaseAttempting, attempt: s.attempt + 1, delay: s.delay * 2, lastErr: s.lastErr}
}

// FetchWithRetry runs the retry loop for symbol.
//
// An error is returned only on context cancellation during backoff; retry
// exhaustion is masked by the synthetic fallback and reported via
// Result.Synthetic.
func (f *Fetcher) FetchWithRetry(ctx context.Context, symbol string) (*Result, error) {
	maxAttempts := f.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	initialDelay := f.InitialDelay
	if initialDelay <= 0 {
		initialDelay = DefaultInitialDelay
	}
	sleep := f.Sleep
	if sleep == nil {
		sleep = ctxSleep
	}
	now := f.Now
	if now == nil {
		now = time.Now
	}

	var series types.Series
	s := start(initialDelay)
	for {
		switch s.phase {
		case phaseAttempting:
			f.Collector.IncFetchAttempt()
			fetched, err := f.Client.Fetch(ctx, symbol)
			if err != nil {
				f.logWarn("fetch attempt failed", map[string]any{
					"attempt": s.attempt,
					"error":   err.Error(),
				})
			} else {
				series = fetched
			}
			s = afterAttempt(s, maxAttempts, err)

		case phaseBackingOff:
			if err := sleep(ctx, s.delay); err != nil {
				return nil, fmt.Errorf("canceled during backoff: %w", err)
			}
			s = afterBackoff(s)

		case phaseFallback:
			f.Collector.IncSyntheticFallback()
			f.logWarn("substituting synthetic data after retry exhaustion", map[string]any{
				"attempts": s.attempt,
				"error":    s.lastErr.Error(),
			})
			return &Result{
				Series:    synth.Generate(now()),
				Synthetic: true,
				LastErr:   s.lastErr.Error(),
				Attempts:  s.attempt,
			}, nil

		case phaseDone:
			return &Result{Series: series, Attempts: s.attempt}, nil
		}
	}
}

func (f *Fetcher) logWarn(message string, fields map[string]any) {
	if f.Logger != nil {
		f.Logger.Warn(message, fields)
	}
}

// ctxSleep blocks for d or until ctx is canceled.
func ctxSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
