// Package provision ensures the custom issue model exists in the runtime.
package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	perrors "github.com/britney/internal/errors"
	"github.com/britney/internal/ollama"
	"github.com/britney/pkg/models"
)

// Runtime is the part of the model runtime used for provisioning
type Runtime interface {
	ListModels(ctx context.Context) ([]models.ModelDescriptor, error)
	ShowModelfile(ctx context.Context, name string) (string, error)
	CreateModel(ctx context.Context, req ollama.CreateRequest) (ollama.ChunkStream, error)
}

// Config is passed in at construction; the provisioner reads no environment
type Config struct {
	TargetName    string // name of the derived model, matched by substring
	DesiredModel  string // base model; empty means first listed model
	ModelfilePath string // where the derived definition is written
}

// Provisioner derives the target model from a base model when it is missing
type Provisioner struct {
	runtime       Runtime
	config        Config
	systemContent string
}

// New creates a provisioner that injects systemContent into the derived model
func New(runtime Runtime, config Config, systemContent string) *Provisioner {
	return &Provisioner{
		runtime:       runtime,
		config:        config,
		systemContent: systemContent,
	}
}

// EnsureReady makes sure the target model exists. It is idempotent: when the
// model is already listed nothing is written or built.
func (p *Provisioner) EnsureReady(ctx context.Context) error {
	log.Info().Str("target", p.config.TargetName).Msg("Running a check")

	available, err := p.runtime.ListModels(ctx)
	if err != nil {
		return perrors.NewProvisionError(perrors.StageList, "", err)
	}
	if len(available) == 0 {
		return perrors.ErrUnavailable
	}

	if p.Alive(available) {
		log.Info().Str("target", p.config.TargetName).Msg("Model is alive")
		return nil
	}

	base := p.ChooseBase(available)
	log.Info().
		Str("target", p.config.TargetName).
		Str("base", base).
		Msg("Model is not alive, deriving it")

	definition, err := p.runtime.ShowModelfile(ctx, base)
	if err != nil {
		return perrors.NewProvisionError(perrors.StageIntrospect, base, err)
	}

	derived, err := overrideSystem(definition, p.systemContent)
	if err != nil {
		return perrors.NewProvisionError(perrors.StageSubstitute, base, err)
	}

	if err := p.writeDefinition(derived); err != nil {
		return perrors.NewProvisionError(perrors.StagePersist, base, err)
	}

	if err := p.build(ctx, base, derived); err != nil {
		return perrors.NewProvisionError(perrors.StageBuild, p.config.TargetName, err)
	}

	log.Info().Str("target", p.config.TargetName).Msg("Model created")
	return nil
}

// Alive reports whether a listed model name contains the target name
func (p *Provisioner) Alive(available []models.ModelDescriptor) bool {
	target := strings.ToLower(p.config.TargetName)
	for _, m := range available {
		if strings.Contains(strings.ToLower(m.Name), target) {
			return true
		}
	}
	return false
}

// ChooseBase returns the desired model, or the first listed model.
// Runtime listing order is not guaranteed to be stable.
func (p *Provisioner) ChooseBase(available []models.ModelDescriptor) string {
	if p.config.DesiredModel != "" {
		return p.config.DesiredModel
	}

	choice := available[0].Name
	log.Warn().
		Str("model", choice).
		Msg("No model specified, using the first from the list; set ollama.model to pin it")
	return choice
}

func (p *Provisioner) writeDefinition(definition string) error {
	path := p.config.ModelfilePath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create definition directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(definition), 0644); err != nil {
		return fmt.Errorf("failed to write model definition: %w", err)
	}
	log.Debug().Str("path", path).Msg("Wrote model definition")
	return nil
}

func (p *Provisioner) build(ctx context.Context, base, definition string) error {
	s, err := p.runtime.CreateModel(ctx, ollama.CreateRequest{
		Model:     p.config.TargetName,
		Modelfile: definition,
		From:      base,
		System:    p.systemContent,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	for {
		chunk, err := s.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if chunk.Status != "" {
			log.Info().Str("status", chunk.Status).Msg("Building model")
		}
	}
}
