package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/prospect/pipeline"
)

// PipelineCommand returns the pipeline command: the independent job that
// materializes the declarative pipeline definition.
func PipelineCommand() *cli.Command {
	return &cli.Command{
		Name:  "pipeline",
		Usage: "Write and validate the ingestion pipeline definition",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "Pipeline definition path to write",
				Value: "pipeline.yaml",
			},
		},
		Action: pipelineAction,
	}
}

func pipelineAction(c *cli.Context) error {
	out := c.String("out")
	if err := pipeline.Default().WriteFile(out); err != nil {
		return cli.Exit(fmt.Sprintf("PIPELINE ERROR: %v", err), 1)
	}

	// Round-trip through the file to confirm the written definition parses.
	if _, err := pipeline.ReadFile(out); err != nil {
		return cli.Exit(fmt.Sprintf("PIPELINE ERROR: written definition invalid: %v", err), 1)
	}

	fmt.Fprintln(c.App.Writer, "PIPELINE COMPLETE")
	return nil
}
