package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/britney/internal/config"
	"github.com/britney/internal/template"
)

// TemplateCommand returns the template command
func TemplateCommand() *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "Work with issue templates",
		Subcommands: []*cli.Command{
			{
				Name:  "render",
				Usage: "Fill the template's {title} and {body} placeholders",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "Template `FILE` (defaults to template.path)",
					},
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Value for {title}",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "body",
						Usage: "Value for {body}",
					},
				},
				Action: runTemplateRender,
			},
		},
	}
}

func runTemplateRender(c *cli.Context) error {
	path := c.String("file")
	if path == "" {
		cfg, err := config.LoadConfig(c.String("config"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		path = cfg.Template.Path
	}

	tmpl, err := template.Load(path)
	if err != nil {
		return err
	}

	issue := template.Generate(tmpl, c.String("title"), c.String("body"))
	fmt.Fprintln(c.App.Writer, issue.Title)
	fmt.Fprintln(c.App.Writer)
	fmt.Fprintln(c.App.Writer, issue.Body)
	return nil
}
