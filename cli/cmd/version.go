package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/prospect/types"
)

// VersionCommand returns the version command.
// commit is injected from main via ldflags.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(c *cli.Context) error {
			if commit == "" {
				commit = "unknown"
			}
			fmt.Fprintf(c.App.Writer, "prospect %s (commit: %s)\n", types.Version, commit)
			return nil
		},
	}
}
