// Package metrics provides per-run metrics collection.
//
// The Collector accumulates counters during a single orchestration run.
// It is a leaf package with no internal dependencies. All increment
// methods are nil-receiver safe so callers never have to guard against
// an unconfigured collector.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of run metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Job lifecycle
	JobsStarted   int64 `json:"jobs_started"`
	JobsSucceeded int64 `json:"jobs_succeeded"`
	JobsFailed    int64 `json:"jobs_failed"`

	// Fetch retry loop
	FetchAttempts      int64 `json:"fetch_attempts"`
	SyntheticFallbacks int64 `json:"synthetic_fallbacks"`
	LaunchFailures     int64 `json:"launch_failures"`

	// Dependency gate
	GateReleases  int64 `json:"gate_releases"`
	GateFailFasts int64 `json:"gate_fail_fasts"`
	GateTimeouts  int64 `json:"gate_timeouts"`

	// Store
	RowsLoaded int64 `json:"rows_loaded"`

	// Dimensions (informational, set at construction)
	RunID string `json:"run_id,omitempty"`
}

// Collector accumulates metrics during a single run.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	jobsStarted   int64
	jobsSucceeded int64
	jobsFailed    int64

	fetchAttempts      int64
	syntheticFallbacks int64
	launchFailures     int64

	gateReleases  int64
	gateFailFasts int64
	gateTimeouts  int64

	rowsLoaded int64

	runID string
}

// NewCollector creates a Collector labeled with the run ID.
func NewCollector(runID string) *Collector {
	return &Collector{runID: runID}
}

func (c *Collector) inc(field *int64) {
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// IncJobStarted records a worker launch.
func (c *Collector) IncJobStarted() {
	if c == nil {
		return
	}
	c.inc(&c.jobsStarted)
}

// IncJobSucceeded records a job that ended with success.
func (c *Collector) IncJobSucceeded() {
	if c == nil {
		return
	}
	c.inc(&c.jobsSucceeded)
}

// IncJobFailed records a job that ended with failure.
func (c *Collector) IncJobFailed() {
	if c == nil {
		return
	}
	c.inc(&c.jobsFailed)
}

// IncFetchAttempt records one upstream fetch attempt.
func (c *Collector) IncFetchAttempt() {
	if c == nil {
		return
	}
	c.inc(&c.fetchAttempts)
}

// AddFetchAttempts records upstream attempts reported by a child fetch
// job. The orchestrator cannot share a collector with its out-of-process
// children, so children report the count through their output.
func (c *Collector) AddFetchAttempts(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchAttempts += n
	c.mu.Unlock()
}

// IncSyntheticFallback records a synthetic-data substitution after
// retry exhaustion.
func (c *Collector) IncSyntheticFallback() {
	if c == nil {
		return
	}
	c.inc(&c.syntheticFallbacks)
}

// IncLaunchFailure records a process that could not be started.
func (c *Collector) IncLaunchFailure() {
	if c == nil {
		return
	}
	c.inc(&c.launchFailures)
}

// IncGateRelease records a gate that released its dependent job.
func (c *Collector) IncGateRelease() {
	if c == nil {
		return
	}
	c.inc(&c.gateReleases)
}

// IncGateFailFast records a gate that failed early on a reported
// producer failure.
func (c *Collector) IncGateFailFast() {
	if c == nil {
		return
	}
	c.inc(&c.gateFailFasts)
}

// IncGateTimeout records a gate that exhausted its wait budget.
func (c *Collector) IncGateTimeout() {
	if c == nil {
		return
	}
	c.inc(&c.gateTimeouts)
}

// AddRowsLoaded records rows written to the persistent store.
func (c *Collector) AddRowsLoaded(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rowsLoaded += n
	c.mu.Unlock()
}

// Snapshot returns an immutable point-in-time view of all metrics.
// The Collector can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		JobsStarted:   c.jobsStarted,
		JobsSucceeded: c.jobsSucceeded,
		JobsFailed:    c.jobsFailed,

		FetchAttempts:      c.fetchAttempts,
		SyntheticFallbacks: c.syntheticFallbacks,
		LaunchFailures:     c.launchFailures,

		GateReleases:  c.gateReleases,
		GateFailFasts: c.gateFailFasts,
		GateTimeouts:  c.gateTimeouts,

		RowsLoaded: c.rowsLoaded,

		RunID: c.runID,
	}
}
