// Package main provides the prospect CLI entrypoint.
//
// prospect orchestrates a small concurrent ingestion pipeline: a market
// data fetch with retry and synthetic fallback, an independent pipeline
// definition job, and a load job gated on the fetch artifact.
//
// Usage:
//
//	prospect <command> [options]
//
// The run command always exits 0 once it has emitted its report; per-job
// failures are reported in the summary, not via the exit code. The child
// job commands (fetch, load, pipeline) exit 0 on success and 1 on failure.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/prospect/cli/cmd"
	"github.com/justapithecus/prospect/types"
)

// commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "prospect",
		Usage:          "Concurrent market-data ingestion orchestrator",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.RunCommand(),
			cmd.FetchCommand(),
			cmd.LoadCommand(),
			cmd.PipelineCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit() so the child-job
// commands keep their documented 0/1 contract.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"; skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
