package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/britney/internal/logging"
)

// GlobalFlags are shared by every command
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Load configuration from `FILE`",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Load environment variables from `FILE` when it exists",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "log-dir",
			Usage: "Write run logs to `DIR`",
			Value: logging.DefaultDir,
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// Commands lists every command in display order
func Commands() []*cli.Command {
	return []*cli.Command{
		CheckCommand(),
		GenerateCommand(),
		PublishCommand(),
		TemplateCommand(),
		ConfigCommand(),
	}
}
