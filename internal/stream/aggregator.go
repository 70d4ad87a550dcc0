// Package stream drives a streaming generation call to completion.
package stream

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	perrors "github.com/britney/internal/errors"
	"github.com/britney/internal/ollama"
	"github.com/britney/pkg/models"
)

// Chatter opens a streaming chat generation
type Chatter interface {
	Chat(ctx context.Context, model string, messages []models.ChatMessage) (ollama.ChunkStream, error)
}

// Aggregator concatenates streamed fragments into one response.
// When Sink is set every fragment is also written to it as soon as it arrives.
type Aggregator struct {
	Chatter Chatter
	Sink    io.Writer
}

// NewAggregator creates an aggregator with an optional live-echo sink
func NewAggregator(chatter Chatter, sink io.Writer) *Aggregator {
	return &Aggregator{Chatter: chatter, Sink: sink}
}

// Aggregate drains one generation stream. On failure no partial text is returned.
func (a *Aggregator) Aggregate(ctx context.Context, messages []models.ChatMessage, model string) (string, error) {
	s, err := a.Chatter.Chat(ctx, model, messages)
	if err != nil {
		return "", perrors.NewGenerationError(model, err)
	}
	defer s.Close()

	var response strings.Builder
	skipped := 0

	for {
		chunk, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", perrors.NewGenerationError(model, err)
		}

		if chunk.Malformed || !chunk.HasMessage || chunk.Content == "" {
			if !chunk.Done {
				skipped++
			}
			continue
		}

		response.WriteString(chunk.Content)
		if a.Sink != nil {
			// echo failures must not abort generation
			_, _ = io.WriteString(a.Sink, chunk.Content)
		}
	}

	if skipped > 0 {
		log.Debug().Str("model", model).Int("skipped", skipped).Msg("Skipped stream chunks without message payload")
	}

	return response.String(), nil
}
