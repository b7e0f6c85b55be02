package runtime

import (
	"sync"

	"github.com/justapithecus/prospect/types"
)

// Aggregator is the append-only outcome collection for one orchestration
// run. It is the only mutable state shared between workers; every append
// is serialized under a single mutex, preserving arrival order. It is
// owned by the orchestrator invocation, not process-wide.
type Aggregator struct {
	mu       sync.Mutex
	outcomes []types.JobOutcome
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Append records an outcome. Safe for concurrent use.
func (a *Aggregator) Append(o types.JobOutcome) {
	a.mu.Lock()
	a.outcomes = append(a.outcomes, o)
	a.mu.Unlock()
}

// Outcomes returns a copy of all outcomes in arrival order.
func (a *Aggregator) Outcomes() []types.JobOutcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.JobOutcome, len(a.outcomes))
	copy(out, a.outcomes)
	return out
}

// Outcome returns the first recorded outcome for name.
// The dependency gate uses this to observe the producer's fate while
// the run is still in flight.
func (a *Aggregator) Outcome(name string) (types.JobOutcome, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, o := range a.outcomes {
		if o.Name == name {
			return o, true
		}
	}
	return types.JobOutcome{}, false
}

// Summarize returns the name-keyed reduced view of all outcomes.
// When a name appears more than once, the last outcome wins.
func (a *Aggregator) Summarize() map[string]types.JobSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	summary := make(map[string]types.JobSummary, len(a.outcomes))
	for _, o := range a.outcomes {
		summary[o.Name] = o.Summary()
	}
	return summary
}
