package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/prospect/store"
)

// LoadCommand returns the load command: the consumer job.
func LoadCommand() *cli.Command {
	return &cli.Command{
		Name:  "load",
		Usage: "Load the fetch artifact into a SQLite table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Fetch artifact path to read",
				Value: "aapl.csv",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite database path to write",
				Value: "finance.db",
			},
		},
		Action: loadAction,
	}
}

func loadAction(c *cli.Context) error {
	rows, err := store.Load(c.Context, c.String("csv"), c.String("db"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("LOAD ERROR: %v", err), 1)
	}

	// The orchestrator reads this line back into its run metrics.
	fmt.Fprintf(c.App.ErrWriter, "loaded %d rows into %s\n", rows, store.TableName)
	fmt.Fprintln(c.App.Writer, "LOAD COMPLETE")
	return nil
}
