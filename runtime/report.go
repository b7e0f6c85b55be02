package runtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/justapithecus/prospect/metrics"
	"github.com/justapithecus/prospect/types"
)

// Report is the structured result of one orchestration run, emitted once
// after all workers join.
type Report struct {
	RunID      string                      `json:"run_id"`
	Results    []types.JobOutcome          `json:"results"`
	Summary    map[string]types.JobSummary `json:"summary"`
	DurationMs int64                       `json:"duration_ms"`
	Metrics    *metrics.Snapshot           `json:"metrics,omitempty"`
}

// BuildReport composes a Report from the joined aggregator.
// Callers must not invoke this while workers are still running.
func BuildReport(runID string, results *Aggregator, snap metrics.Snapshot, duration time.Duration) *Report {
	return &Report{
		RunID:      runID,
		Results:    results.Outcomes(),
		Summary:    results.Summarize(),
		DurationMs: duration.Milliseconds(),
		Metrics:    &snap,
	}
}

// WriteReport writes the report as indented JSON to the specified path.
// "-" writes to stdout.
func WriteReport(report *Report, path string) error {
	if path == "" {
		return errors.New("report path must not be empty")
	}
	if path == "-" {
		return writeReportTo(report, os.Stdout)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

// writeReportTo writes report JSON to any writer.
func writeReportTo(report *Report, w io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
