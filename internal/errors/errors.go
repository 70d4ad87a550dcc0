// Package errors defines the error taxonomy of the generation pipeline.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrUnavailable      = errors.New("no models available in the runtime")
	ErrBuildFailed      = errors.New("model build failed")
	ErrNoBaseDirective  = errors.New("model definition has no FROM directive")
	ErrTransportFailure = errors.New("generation stream failed before completion")
)

// UnavailableHint is printed alongside ErrUnavailable
const UnavailableHint = "Run `ollama pull <model_name>` in a terminal to download a base model."

// Stage names the provisioning step that failed
type Stage string

const (
	StageList       Stage = "list"
	StageIntrospect Stage = "introspect"
	StageSubstitute Stage = "substitute"
	StagePersist    Stage = "persist"
	StageBuild      Stage = "build"
)

// ProvisionError represents a failure while ensuring the custom model exists
type ProvisionError struct {
	Stage Stage
	Model string
	Err   error
}

func (e *ProvisionError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("provision %s (%s): %v", e.Stage, e.Model, e.Err)
	}
	return fmt.Sprintf("provision %s: %v", e.Stage, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// Is matches ErrBuildFailed for build-stage failures
func (e *ProvisionError) Is(target error) bool {
	if target == ErrBuildFailed {
		return e.Stage == StageBuild
	}
	_, ok := target.(*ProvisionError)
	return ok
}

// NewProvisionError creates a new ProvisionError
func NewProvisionError(stage Stage, model string, err error) *ProvisionError {
	return &ProvisionError{Stage: stage, Model: model, Err: err}
}

// GenerationError represents a chat stream that failed before completion
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation with %s failed: %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is allows comparison with ErrTransportFailure
func (e *GenerationError) Is(target error) bool {
	return target == ErrTransportFailure
}

// NewGenerationError creates a new GenerationError
func NewGenerationError(model string, err error) *GenerationError {
	return &GenerationError{Model: model, Err: err}
}

// PublishError represents a tracker rejecting or failing to create an issue
type PublishError struct {
	Index int
	Title string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish issue #%d %q: %v", e.Index+1, e.Title, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// NewPublishError creates a new PublishError
func NewPublishError(index int, title string, err error) *PublishError {
	return &PublishError{Index: index, Title: title, Err: err}
}

// PipelineError attaches the artifact path to a pipeline failure
type PipelineError struct {
	Path string
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a new PipelineError
func NewPipelineError(path string, err error) *PipelineError {
	return &PipelineError{Path: path, Err: err}
}

// IsUnavailable reports whether err means the runtime has no base models
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
