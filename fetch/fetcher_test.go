package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/justapithecus/prospect/types"
)

// stubClient fails a fixed number of times, then succeeds.
type stubClient struct {
	failures int
	calls    int
	series   types.Series
}

func (s *stubClient) Fetch(_ context.Context, _ string) (types.Series, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, errors.New("upstream unreachable")
	}
	return s.series, nil
}

// recordingSleep captures requested delays without waiting.
type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func testFetcher(client SeriesFetcher, sleep *recordingSleep) *Fetcher {
	return &Fetcher{
		Client:       client,
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		Sleep:        sleep.sleep,
		Now:          func() time.Time { return time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC) },
	}
}

func TestFetchWithRetry_FirstAttemptSucceeds(t *testing.T) {
	sleep := &recordingSleep{}
	client := &stubClient{series: types.Series{{Close: 150}}}

	result, err := testFetcher(client, sleep).FetchWithRetry(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if result.Synthetic {
		t.Error("expected real data, got synthetic")
	}
	if result.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", result.Attempts)
	}
	if len(sleep.delays) != 0 {
		t.Errorf("expected no backoff, observed %v", sleep.delays)
	}
}

func TestFetchWithRetry_RecoversWithinBudget(t *testing.T) {
	// k failures with k < maxAttempts: exactly k+1 attempts, no fallback.
	sleep := &recordingSleep{}
	client := &stubClient{failures: 2, series: types.Series{{Close: 150}}}

	result, err := testFetcher(client, sleep).FetchWithRetry(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if result.Synthetic {
		t.Error("expected real data after recovery, got synthetic")
	}
	if client.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", client.calls)
	}
	if result.Attempts != 3 {
		t.Errorf("result reports %d attempts, want 3", result.Attempts)
	}
}

func TestFetchWithRetry_ExhaustionFallsBack(t *testing.T) {
	sleep := &recordingSleep{}
	client := &stubClient{failures: 100}

	result, err := testFetcher(client, sleep).FetchWithRetry(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if !result.Synthetic {
		t.Fatal("expected synthetic fallback")
	}
	if client.calls != 3 {
		t.Errorf("expected exactly maxAttempts=3 attempts, got %d", client.calls)
	}
	if result.LastErr != "upstream unreachable" {
		t.Errorf("expected last real error in result, got %q", result.LastErr)
	}
	if result.Series.Empty() {
		t.Error("fallback series must not be empty")
	}
	if err := result.Series.Validate(); err != nil {
		t.Errorf("fallback series invalid: %v", err)
	}
}

func TestFetchWithRetry_BackoffDoubles(t *testing.T) {
	sleep := &recordingSleep{}
	client := &stubClient{failures: 100}

	if _, err := testFetcher(client, sleep).FetchWithRetry(context.Background(), "AAPL"); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(sleep.delays) != len(want) {
		t.Fatalf("expected %d backoffs, observed %v", len(want), sleep.delays)
	}
	for i, d := range want {
		if sleep.delays[i] != d {
			t.Errorf("backoff %d: got %v, want %v", i, sleep.delays[i], d)
		}
	}
}

func TestFetchWithRetry_CanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &Fetcher{
		Client:       &stubClient{failures: 100},
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	if _, err := f.FetchWithRetry(ctx, "AAPL"); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestFetchWithRetry_FallbackDeterministicPerDay(t *testing.T) {
	run := func() types.Series {
		sleep := &recordingSleep{}
		result, err := testFetcher(&stubClient{failures: 100}, sleep).FetchWithRetry(context.Background(), "AAPL")
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		return result.Series
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("fallback candle %d differs between runs on the same day", i)
		}
	}
}

func TestRetryStateMachine(t *testing.T) {
	failure := errors.New("boom")

	tests := []struct {
		name        string
		state       state
		err         error
		maxAttempts int
		wantPhase   phase
		wantAttempt int
	}{
		{
			name:        "success completes",
			state:       start(2 * time.Second),
			err:         nil,
			maxAttempts: 3,
			wantPhase:   phaseDone,
			wantAttempt: 1,
		},
		{
			name:        "failure with budget backs off",
			state:       start(2 * time.Second),
			err:         failure,
			maxAttempts: 3,
			wantPhase:   phaseBackingOff,
			wantAttempt: 1,
		},
		{
			name:        "final failure falls back",
			state:       state{phase: phaseAttempting, attempt: 3, delay: 8 * time.Second},
			err:         failure,
			maxAttempts: 3,
			wantPhase:   phaseFallback,
			wantAttempt: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := afterAttempt(tt.state, tt.maxAttempts, tt.err)
			if next.phase != tt.wantPhase {
				t.Errorf("phase %v, want %v", next.phase, tt.wantPhase)
			}
			if next.attempt != tt.wantAttempt {
				t.Errorf("attempt %d, want %d", next.attempt, tt.wantAttempt)
			}
		})
	}
}

func TestRetryStateMachine_BackoffAdvances(t *testing.T) {
	s := state{phase: phaseBackingOff, attempt: 1, delay: 2 * time.Second}
	next := afterBackoff(s)

	if next.phase != phaseAttempting {
		t.Errorf("phase %v, want attempting", next.phase)
	}
	if next.attempt != 2 {
		t.Errorf("attempt %d, want 2", next.attempt)
	}
	if next.delay != 4*time.Second {
		t.Errorf("delay %v, want 4s", next.delay)
	}
}
