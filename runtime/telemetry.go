package runtime

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/justapithecus/prospect/metrics"
	"github.com/justapithecus/prospect/types"
)

// Child jobs run out of process, so they cannot share the run's
// collector. They report counters as stable plain-text lines on their
// streams instead, and the orchestrator extracts them from the captured
// output. Jobs that emit none of these lines simply contribute nothing.
var (
	fetchAttemptsPattern = regexp.MustCompile(`(?m)^fetch attempts: (\d+)$`)
	rowsLoadedPattern    = regexp.MustCompile(`(?m)^loaded (\d+) rows into `)
)

// syntheticMarker prefixes the fetch job's fallback warning line.
const syntheticMarker = "FETCH WARNING: Using synthetic fallback data"

// recordTelemetry extracts child-reported counters from one outcome.
func recordTelemetry(c *metrics.Collector, o types.JobOutcome) {
	if m := fetchAttemptsPattern.FindStringSubmatch(o.Message); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			c.AddFetchAttempts(n)
		}
	}
	if strings.Contains(o.Message, syntheticMarker) {
		c.IncSyntheticFallback()
	}
	if m := rowsLoadedPattern.FindStringSubmatch(o.Message); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			c.AddRowsLoaded(n)
		}
	}
}
