// Package cmd implements the prospect CLI commands.
//
// fetch, load, and pipeline are the child-job bodies the orchestrator
// launches as external processes. Each emits a stable textual marker on
// stdout ("<STAGE> COMPLETE") and exits nonzero with a "<STAGE> ERROR:"
// line on failure. run is the orchestrator itself.
package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/prospect/artifact"
	"github.com/justapithecus/prospect/fetch"
)

// FetchCommand returns the fetch command: the producer job.
func FetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch daily market data with retry, backoff, and synthetic fallback",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "symbol",
				Usage: "Ticker symbol to fetch",
				Value: "AAPL",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Artifact path to write",
				Value: "aapl.csv",
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "Upstream endpoint base URL",
				Value: fetch.DefaultEndpoint,
			},
			&cli.IntFlag{
				Name:  "max-attempts",
				Usage: "Upstream attempts before synthetic fallback",
				Value: fetch.DefaultMaxAttempts,
			},
			&cli.DurationFlag{
				Name:  "initial-delay",
				Usage: "First backoff delay (doubles per retry)",
				Value: fetch.DefaultInitialDelay,
			},
		},
		Action: fetchAction,
	}
}

func fetchAction(c *cli.Context) error {
	fetcher := &fetch.Fetcher{
		Client:       fetch.NewClient(c.String("endpoint")),
		MaxAttempts:  c.Int("max-attempts"),
		InitialDelay: c.Duration("initial-delay"),
	}

	result, err := fetcher.FetchWithRetry(c.Context, c.String("symbol"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("FETCH ERROR: %v", err), 1)
	}

	out := c.String("out")
	if err := artifact.WriteFile(out, result.Series); err != nil {
		if result.Synthetic {
			return cli.Exit(fmt.Sprintf("FETCH ERROR: failed to write synthetic fallback %s: %v", out, err), 1)
		}
		return cli.Exit(fmt.Sprintf("FETCH ERROR: failed to write %s: %v", out, err), 1)
	}

	// The orchestrator reads this line back into its run metrics.
	fmt.Fprintf(c.App.ErrWriter, "fetch attempts: %d\n", result.Attempts)
	if result.Synthetic {
		fmt.Fprintf(c.App.ErrWriter,
			"FETCH WARNING: Using synthetic fallback data because fetching failed: %s\n", result.LastErr)
	}
	fmt.Fprintln(c.App.Writer, "FETCH COMPLETE")
	return nil
}
