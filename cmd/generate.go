package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v2"
)

// GenerateCommand returns the generate command
func GenerateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate issues from a file or a directory without publishing them",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dir",
				Usage: "Treat PATH as a directory and generate one issue per file",
			},
			&cli.BoolFlag{
				Name:  "no-echo",
				Usage: "Do not stream the model output while it is generated",
			},
			&cli.BoolFlag{
				Name:  "preview",
				Usage: "Render the issues as styled markdown",
			},
		},
		ArgsUsage: "PATH",
		Action:    runGenerate,
	}
}

func runGenerate(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing required argument: PATH")
	}
	path := c.Args().Get(0)

	a, err := setup(c, "generate")
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := a.runContext()
	defer cancel()

	echo := a.config.Generate.Echo && !c.Bool("no-echo")
	issues, err := generateIssues(ctx, a.coordinator(echo), path, c.Bool("dir"))
	if err != nil {
		a.runLog.LogError("generate", err)
		return err
	}

	var renderer *glamour.TermRenderer
	if c.Bool("preview") {
		renderer, err = newPreviewRenderer()
		if err != nil {
			return fmt.Errorf("failed to create preview renderer: %w", err)
		}
	}

	return printIssues(c.App.Writer, issues, renderer)
}
