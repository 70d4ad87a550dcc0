package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/britney/internal/batch"
	"github.com/britney/internal/config"
	"github.com/britney/internal/logging"
	"github.com/britney/internal/ollama"
	"github.com/britney/internal/prompt"
	"github.com/britney/internal/provision"
	"github.com/britney/internal/publish"
	"github.com/britney/internal/stream"
	"github.com/britney/internal/template"
	"github.com/britney/pkg/models"
)

// app bundles everything a command needs for one run
type app struct {
	config      *config.Config
	template    *models.IssueTemplate
	client      *ollama.Client
	provisioner *provision.Provisioner
	runLog      *logging.RunLogger
}

// setup loads the environment, configuration and issue template.
// Callers must call close.
func setup(c *cli.Context, command string) (*app, error) {
	logging.Setup(c.Bool("verbose"), os.Stderr)

	if envFile := c.String("env-file"); envFile != "" {
		if err := LoadEnvFile(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tmpl, err := template.Load(cfg.Template.Path)
	if err != nil {
		return nil, err
	}

	runLog, err := logging.StartRunLogging(c.String("log-dir"), command)
	if err != nil {
		log.Warn().Err(err).Msg("Run log disabled")
		runLog = nil
	}

	if cfg.Publish.RedactSecrets && runLog != nil {
		redactor, err := publish.NewRedactor()
		if err != nil {
			runLog.Close()
			return nil, err
		}
		runLog.SetScrubber(redactor.RedactText)
	}

	client := ollama.NewClient(cfg.Ollama.URL, cfg.Ollama.APIKey)
	prov := provision.New(client, provision.Config{
		TargetName:    cfg.Ollama.Target,
		DesiredModel:  cfg.Ollama.Model,
		ModelfilePath: cfg.Provision.Modelfile,
	}, prompt.SystemContent(tmpl))

	log.Debug().
		Str("ollama", client.BaseURL()).
		Str("target", cfg.Ollama.Target).
		Str("template", cfg.Template.Path).
		Str("run_id", runLog.RunID()).
		Msg("Configuration loaded")

	return &app{
		config:      cfg,
		template:    tmpl,
		client:      client,
		provisioner: prov,
		runLog:      runLog,
	}, nil
}

func (a *app) close() {
	a.runLog.Close()
}

// runContext bounds a run by the configured timeout and cancels it on Ctrl-C
func (a *app) runContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	if a.config.Run.Timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, a.config.Run.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// chatter selects the chat backend
func (a *app) chatter() stream.Chatter {
	if a.config.Ollama.ChatBackend == config.BackendLangchain {
		return ollama.NewLangchainChatter(a.client.BaseURL())
	}
	return a.client
}

// coordinator wires the pipeline; echo streams fragments to stderr as they arrive
func (a *app) coordinator(echo bool) *batch.Coordinator {
	var sink io.Writer
	if echo {
		sink = os.Stderr
	}

	generator := &loggedGenerator{
		next:   stream.NewAggregator(a.chatter(), sink),
		runLog: a.runLog,
	}

	return batch.NewCoordinator(a.template, a.provisioner, generator, batch.Config{
		Model:      a.config.Ollama.Target,
		SkipBinary: a.config.Generate.SkipBinary,
	})
}

// loggedGenerator records every exchange in the run log
type loggedGenerator struct {
	next   batch.Generator
	runLog *logging.RunLogger
}

func (g *loggedGenerator) Aggregate(ctx context.Context, messages []models.ChatMessage, model string) (string, error) {
	g.runLog.LogRequest(model, messages)
	response, err := g.next.Aggregate(ctx, messages, model)
	if err != nil {
		g.runLog.LogError("generation", err)
		return "", err
	}
	g.runLog.LogResponse(response)
	return response, nil
}

// generateIssues runs the pipeline over a file or, with dir set or a
// directory path, over every file directly inside it
func generateIssues(ctx context.Context, coordinator *batch.Coordinator, path string, dir bool) ([]models.Issue, error) {
	if !dir {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			dir = true
		}
	}

	if dir {
		return coordinator.GenerateMany(ctx, path)
	}

	generated, err := coordinator.GenerateOne(ctx, path)
	if err != nil {
		return nil, err
	}
	return []models.Issue{generated}, nil
}
