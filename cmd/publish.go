package cmd

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/britney/internal/config"
	"github.com/britney/internal/publish"
	"github.com/britney/internal/publish/github"
	"github.com/britney/internal/publish/gitlab"
)

// PublishCommand returns the publish command
func PublishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Generate issues from a file or a directory and create them on the tracker",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dir",
				Usage: "Treat PATH as a directory and generate one issue per file",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Print the issues instead of creating them",
			},
		},
		ArgsUsage: "PATH",
		Action:    runPublish,
	}
}

func runPublish(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing required argument: PATH")
	}
	path := c.Args().Get(0)
	dryRun := c.Bool("dry-run")

	a, err := setup(c, "publish")
	if err != nil {
		return err
	}
	defer a.close()

	var publisher publish.Publisher
	if !dryRun {
		if err := config.ValidateTracker(a.config.Tracker); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		publisher, err = newPublisher(a.config)
		if err != nil {
			return err
		}
	}

	ctx, cancel := a.runContext()
	defer cancel()

	issues, err := generateIssues(ctx, a.coordinator(a.config.Generate.Echo), path, c.Bool("dir"))
	if err != nil {
		a.runLog.LogError("generate", err)
		return err
	}

	if dryRun {
		log.Info().Int("issues", len(issues)).Msg("Dry run, nothing published")
		return printIssues(c.App.Writer, issues, nil)
	}

	urls, err := publish.PublishAll(ctx, publisher, issues)
	for _, url := range urls {
		fmt.Fprintln(c.App.Writer, url)
		a.runLog.Log("Created %s", url)
	}
	if err != nil {
		a.runLog.LogError("publish", err)
		return err
	}
	return nil
}

// newPublisher builds the configured tracker client
func newPublisher(cfg *config.Config) (publish.Publisher, error) {
	var publisher publish.Publisher

	switch cfg.Tracker.Kind {
	case config.TrackerGitHub:
		publisher = github.NewPublisher(github.Config{
			Owner:       cfg.Tracker.Owner,
			Repo:        cfg.Tracker.Repo,
			Token:       cfg.Tracker.Token,
			APIURL:      cfg.Tracker.URL,
			MinInterval: cfg.Tracker.MinInterval,
		})
	case config.TrackerGitLab:
		project := cfg.Tracker.Repo
		if cfg.Tracker.Owner != "" && !strings.Contains(project, "/") {
			project = cfg.Tracker.Owner + "/" + project
		}
		p, err := gitlab.NewPublisher(gitlab.Config{
			URL:     cfg.Tracker.URL,
			Token:   cfg.Tracker.Token,
			Project: project,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create GitLab publisher: %w", err)
		}
		publisher = p
	default:
		return nil, fmt.Errorf("unsupported tracker kind: %s", cfg.Tracker.Kind)
	}

	if !cfg.Publish.RedactSecrets {
		return publisher, nil
	}
	redactor, err := publish.NewRedactor()
	if err != nil {
		return nil, err
	}
	return publish.WithRedaction(publisher, redactor), nil
}
