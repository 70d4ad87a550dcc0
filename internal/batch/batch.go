// Package batch runs the generation pipeline over one artifact or a directory of artifacts.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	perrors "github.com/britney/internal/errors"
	"github.com/britney/internal/issue"
	"github.com/britney/internal/prompt"
	"github.com/britney/pkg/models"
)

// Provisioner makes the generation model available
type Provisioner interface {
	EnsureReady(ctx context.Context) error
}

// Generator turns a message sequence into the model's full response
type Generator interface {
	Aggregate(ctx context.Context, messages []models.ChatMessage, model string) (string, error)
}

// Coordinator applies prompt building, generation and parsing to artifacts.
// Artifacts are processed strictly one after another.
type Coordinator struct {
	template    *models.IssueTemplate
	provisioner Provisioner
	generator   Generator
	config      Config
	ready       bool
}

// NewCoordinator creates a coordinator. provisioner may be nil when the model
// is known to exist.
func NewCoordinator(tmpl *models.IssueTemplate, provisioner Provisioner, generator Generator, config Config) *Coordinator {
	return &Coordinator{
		template:    tmpl,
		provisioner: provisioner,
		generator:   generator,
		config:      config,
	}
}

// GenerateOne produces the issue for a single artifact
func (c *Coordinator) GenerateOne(ctx context.Context, path string) (models.Issue, error) {
	if err := c.ensureReady(ctx); err != nil {
		return models.Issue{}, err
	}

	artifact, err := readArtifact(path)
	if err != nil {
		return models.Issue{}, perrors.NewPipelineError(path, err)
	}

	return c.generate(ctx, artifact)
}

// GenerateMany produces one issue per file directly inside dir, in directory
// listing order. The first failure discards every collected issue.
func (c *Coordinator) GenerateMany(ctx context.Context, dir string) ([]models.Issue, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, perrors.NewPipelineError(dir, fmt.Errorf("failed to list artifacts: %w", err))
	}

	var issues []models.Issue
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		isFile, err := isRegularFile(path, entry)
		if err != nil {
			return nil, perrors.NewPipelineError(path, err)
		}
		if !isFile {
			continue
		}

		artifact, err := readArtifact(path)
		if err != nil {
			return nil, perrors.NewPipelineError(path, err)
		}

		if c.config.SkipBinary && ShouldSkipFile(artifact.Content) {
			log.Warn().Str("path", path).Msg("Skipping file with binary content")
			continue
		}

		generated, err := c.generate(ctx, artifact)
		if err != nil {
			log.Error().Err(err).Str("path", path).Int("discarded", len(issues)).Msg("Batch aborted")
			return nil, err
		}
		issues = append(issues, generated)
	}

	log.Info().Str("dir", dir).Int("issues", len(issues)).Msg("Batch completed")
	return issues, nil
}

func (c *Coordinator) ensureReady(ctx context.Context) error {
	if c.ready || c.provisioner == nil {
		return nil
	}
	if err := c.provisioner.EnsureReady(ctx); err != nil {
		return err
	}
	c.ready = true
	return nil
}

func (c *Coordinator) generate(ctx context.Context, artifact models.Artifact) (models.Issue, error) {
	log.Info().Str("path", artifact.Path).Int("bytes", len(artifact.Content)).Msg("Generating issue")

	messages := prompt.Build(c.template, artifact)

	response, err := c.generator.Aggregate(ctx, messages, c.config.Model)
	if err != nil {
		return models.Issue{}, perrors.NewPipelineError(artifact.Path, err)
	}

	generated := issue.Parse(response)
	generated.Source = artifact.Path
	if c.template != nil {
		generated.Labels = c.template.Meta.Labels
		generated.Assignees = c.template.Meta.Assignees
	}
	return generated, nil
}

func readArtifact(path string) (models.Artifact, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return models.Artifact{}, fmt.Errorf("failed to read artifact: %w", err)
	}
	return models.Artifact{Path: path, Content: content}, nil
}

// isRegularFile follows symlinks so linked files count as artifacts
func isRegularFile(path string, entry os.DirEntry) (bool, error) {
	if entry.Type().IsRegular() {
		return true, nil
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve link: %w", err)
	}
	return info.Mode().IsRegular(), nil
}
