// Package types defines core domain types for the prospect runtime.
//
//nolint:revive // types is a common Go package naming convention
package types

// JobStatus is the terminal status of an orchestrated job.
type JobStatus string

const (
	// JobSuccess indicates the job completed successfully.
	JobSuccess JobStatus = "success"
	// JobFailed indicates the job failed, timed out, or could not start.
	JobFailed JobStatus = "failed"
)

// JobOutcome is the terminal record for one orchestrated job.
//
// Artifact is non-empty only on success, and only for jobs that declare a
// produced artifact. Message carries the job's captured output, or a
// generated placeholder when both streams were empty.
type JobOutcome struct {
	// Name is the job name (e.g. "fetch", "pipeline", "load").
	Name string `json:"name"`
	// Status is the terminal status.
	Status JobStatus `json:"status"`
	// Artifact is the path of the artifact the job produced, if any.
	Artifact string `json:"artifact,omitempty"`
	// Message is the captured combined output or error text.
	Message string `json:"message"`
}

// JobSummary is the reduced per-job view in the final report.
type JobSummary struct {
	Status   JobStatus `json:"status"`
	Artifact string    `json:"artifact,omitempty"`
}

// Summary reduces the outcome to its report view.
func (o JobOutcome) Summary() JobSummary {
	return JobSummary{Status: o.Status, Artifact: o.Artifact}
}
