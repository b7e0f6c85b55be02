// Package runtime implements the concurrent orchestration core: process
// launching, the artifact dependency gate, outcome aggregation, and the
// three-worker orchestrator.
package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/justapithecus/prospect/log"
	"github.com/justapithecus/prospect/metrics"
	"github.com/justapithecus/prospect/types"
)

// JobSpec describes one external job the orchestrator launches.
type JobSpec struct {
	// Name is the job name used in outcomes and the summary.
	Name string
	// Command is the argv to launch; Command[0] is the binary.
	Command []string
	// Artifact is the fixed path this job type produces on success.
	// Empty for jobs without an artifact. Attached to the outcome only
	// when the process exits zero, never inferred from output.
	Artifact string
}

// Runner launches one external command, captures both output streams
// fully, and converts the exit into a JobOutcome. No retries at this
// layer; the fetch job owns its own retry loop.
type Runner struct {
	// Logger receives launch and exit diagnostics. Optional.
	Logger *log.Logger
	// Collector records launch failures. Optional.
	Collector *metrics.Collector
}

// Run blocks until the process exits.
//
// Exit code zero maps to success; any other code, or a launch failure,
// maps to failed. The message is stdout then stderr, trimmed and joined,
// or a generated placeholder when both streams are empty.
func (r *Runner) Run(ctx context.Context, spec JobSpec) types.JobOutcome {
	if len(spec.Command) == 0 {
		return types.JobOutcome{
			Name:    spec.Name,
			Status:  types.JobFailed,
			Message: fmt.Sprintf("job %s has no command", spec.Name),
		}
	}

	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	message := combineStreams(stdout.String(), stderr.String())

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// Launch failure: command not found, permission denied, etc.
			r.Collector.IncLaunchFailure()
			r.logError("failed to launch job", spec.Name, map[string]any{
				"command": spec.Command[0],
				"error":   err.Error(),
			})
			return types.JobOutcome{
				Name:    spec.Name,
				Status:  types.JobFailed,
				Message: fmt.Sprintf("failed to launch %s: %v", spec.Name, err),
			}
		}

		code := exitErr.ExitCode()
		if message == "" {
			message = fmt.Sprintf("Process exited with return code %d", code)
		}
		r.logError("job exited nonzero", spec.Name, map[string]any{
			"exit_code": code,
		})
		return types.JobOutcome{
			Name:    spec.Name,
			Status:  types.JobFailed,
			Message: message,
		}
	}

	if message == "" {
		message = fmt.Sprintf("%s completed successfully", strings.ToUpper(spec.Name))
	}
	return types.JobOutcome{
		Name:     spec.Name,
		Status:   types.JobSuccess,
		Artifact: spec.Artifact,
		Message:  message,
	}
}

// combineStreams joins trimmed stdout and stderr, output first.
func combineStreams(stdout, stderr string) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{strings.TrimSpace(stdout), strings.TrimSpace(stderr)} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func (r *Runner) logError(message, job string, fields map[string]any) {
	if r.Logger != nil {
		r.Logger.WithJob(job).Error(message, fields)
	}
}
