package runtime

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/justapithecus/prospect/log"
	"github.com/justapithecus/prospect/metrics"
	"github.com/justapithecus/prospect/types"
)

// DefaultPollInterval is the gate's fixed polling cadence.
const DefaultPollInterval = 1 * time.Second

// DefaultGateTimeout bounds the gate's total wait.
const DefaultGateTimeout = 60 * time.Second

// ProducerObserver reports the producer job's recorded outcome, if any.
// Typically Aggregator.Outcome bound to the producer's name.
type ProducerObserver func() (types.JobOutcome, bool)

// Gate releases a dependent job once its producer's artifact exists.
//
// This is a pure polling design: the producer is an independent
// out-of-process job with no IPC channel back to the gate, so artifact
// existence on the shared filesystem is the only synchronization signal.
// Artifact presence counts as ready even if the producer later reports
// failure; producers write atomically, so a present file is complete.
type Gate struct {
	// PollInterval is the polling cadence (default DefaultPollInterval).
	PollInterval time.Duration
	// Timeout bounds the total wait (default DefaultGateTimeout).
	Timeout time.Duration
	// Stat checks artifact existence. Defaults to os.Stat; injected in tests.
	Stat func(string) (os.FileInfo, error)
	// Now supplies the current time. Defaults to time.Now.
	Now func() time.Time
	// Sleep blocks between polls. Defaults to a context-aware wait.
	Sleep func(ctx context.Context, d time.Duration) error
	// Logger receives gate decisions. Optional.
	Logger *log.Logger
	// Collector records release/fail-fast/timeout counters. Optional.
	Collector *metrics.Collector
}

// Decision is the gate's verdict for the dependent job.
type Decision struct {
	// Proceed reports whether the dependent job may start.
	Proceed bool
	// Outcome is the failure to record when Proceed is false.
	// The caller fills in the dependent job's name.
	Outcome types.JobOutcome
}

// AwaitArtifact polls for the artifact at path.
//
// It returns Proceed=true as soon as the artifact exists. It fails fast,
// without waiting out the timeout, when the producer has recorded a failed
// outcome while the artifact is still absent. Otherwise it fails once the
// elapsed wait exceeds Timeout.
func (g *Gate) AwaitArtifact(ctx context.Context, path string, producer ProducerObserver) Decision {
	pollInterval := g.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultGateTimeout
	}
	stat := g.Stat
	if stat == nil {
		stat = os.Stat
	}
	now := g.Now
	if now == nil {
		now = time.Now
	}
	sleep := g.Sleep
	if sleep == nil {
		sleep = func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		}
	}

	start := now()
	for {
		if _, err := stat(path); err == nil {
			g.Collector.IncGateRelease()
			g.logInfo("artifact present, releasing dependent job", map[string]any{
				"artifact": path,
				"waited":   now().Sub(start).String(),
			})
			return Decision{Proceed: true}
		}

		if producer != nil {
			if o, ok := producer(); ok && o.Status == types.JobFailed {
				g.Collector.IncGateFailFast()
				g.logWarn("producer failed with artifact absent, failing fast", map[string]any{
					"artifact": path,
					"producer": o.Name,
				})
				return Decision{Outcome: types.JobOutcome{
					Status:  types.JobFailed,
					Message: "artifact not found; producer reported failure",
				}}
			}
		}

		if now().Sub(start) > timeout {
			g.Collector.IncGateTimeout()
			g.logWarn("timed out waiting for artifact", map[string]any{
				"artifact": path,
				"timeout":  timeout.String(),
			})
			return Decision{Outcome: types.JobOutcome{
				Status:  types.JobFailed,
				Message: fmt.Sprintf("timeout waiting for artifact after %s", timeout),
			}}
		}

		g.logDebug("artifact absent, polling", map[string]any{
			"artifact": path,
			"elapsed":  now().Sub(start).String(),
		})
		if err := sleep(ctx, pollInterval); err != nil {
			return Decision{Outcome: types.JobOutcome{
				Status:  types.JobFailed,
				Message: fmt.Sprintf("canceled waiting for artifact: %v", err),
			}}
		}
	}
}

func (g *Gate) logDebug(message string, fields map[string]any) {
	if g.Logger != nil {
		g.Logger.Debug(message, fields)
	}
}

func (g *Gate) logInfo(message string, fields map[string]any) {
	if g.Logger != nil {
		g.Logger.Info(message, fields)
	}
}

func (g *Gate) logWarn(message string, fields map[string]any) {
	if g.Logger != nil {
		g.Logger.Warn(message, fields)
	}
}
