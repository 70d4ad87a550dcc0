package ollama

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	lcollama "github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"

	"github.com/britney/pkg/models"
)

// LangchainChatter streams chat completions through langchaingo's Ollama model
type LangchainChatter struct {
	serverURL  string
	httpClient *http.Client
}

// NewLangchainChatter creates a chatter for the Ollama instance at serverURL
func NewLangchainChatter(serverURL string) *LangchainChatter {
	return &LangchainChatter{
		serverURL:  normalizeURL(serverURL),
		httpClient: &http.Client{},
	}
}

// Chat runs one streaming generation. The library call runs in its own
// goroutine and hands fragments over an unbuffered channel, so the caller
// still sees them one at a time and in order.
func (c *LangchainChatter) Chat(ctx context.Context, model string, messages []models.ChatMessage) (ChunkStream, error) {
	llm, err := lcollama.New(
		lcollama.WithServerURL(c.serverURL),
		lcollama.WithModel(model),
		lcollama.WithHTTPClient(c.httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.TextParts(messageType(msg.Role), msg.Content))
	}

	ctx, cancel := context.WithCancel(ctx)
	stream := &channelStream{
		chunks: make(chan Chunk),
		cancel: cancel,
	}

	go func() {
		defer close(stream.chunks)
		_, err := llm.GenerateContent(ctx, content, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			select {
			case stream.chunks <- Chunk{Content: string(chunk), HasMessage: len(chunk) > 0}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}))
		stream.err = err
	}()

	return stream, nil
}

func messageType(role models.Role) schema.ChatMessageType {
	switch role {
	case models.RoleSystem:
		return schema.ChatMessageTypeSystem
	case models.RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}

// channelStream adapts a callback-driven generation to ChunkStream.
// err is written before chunks is closed and read only after.
type channelStream struct {
	chunks chan Chunk
	cancel context.CancelFunc
	err    error
}

func (s *channelStream) Next() (Chunk, error) {
	chunk, ok := <-s.chunks
	if ok {
		return chunk, nil
	}
	if s.err != nil {
		return Chunk{}, s.err
	}
	return Chunk{}, io.EOF
}

func (s *channelStream) Close() error {
	s.cancel()
	for range s.chunks {
	}
	return nil
}
