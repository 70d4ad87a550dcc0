package ollama

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
)

// Chunk is one decoded event from a runtime stream
type Chunk struct {
	Content    string // assistant message fragment
	HasMessage bool   // the event carried a message payload
	Status     string // build progress status
	Done       bool   // terminal event
	Malformed  bool   // the line was not valid JSON
}

// ChunkStream is a lazy, finite, non-restartable sequence of chunks.
// Next returns io.EOF once the stream completed normally.
type ChunkStream interface {
	Next() (Chunk, error)
	Close() error
}

// StreamError is an error event reported by the runtime inside a stream
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("runtime reported: %s", e.Message)
}

type ndjsonStream struct {
	body     io.ReadCloser
	reader   *bufio.Reader
	finished bool
	done     bool
}

func newNDJSONStream(body io.ReadCloser) *ndjsonStream {
	return &ndjsonStream{
		body:   body,
		reader: bufio.NewReader(body),
	}
}

func (s *ndjsonStream) Next() (Chunk, error) {
	for {
		if s.done {
			return Chunk{}, io.EOF
		}
		if s.finished {
			// body ended without a terminal event
			return Chunk{}, io.ErrUnexpectedEOF
		}

		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Chunk{}, err
			}
			s.finished = true
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		chunk, err := decodeLine(line)
		if err != nil {
			return Chunk{}, err
		}
		if chunk.Done {
			s.done = true
		}
		return chunk, nil
	}
}

func (s *ndjsonStream) Close() error {
	return s.body.Close()
}

func decodeLine(line []byte) (Chunk, error) {
	if !gjson.ValidBytes(line) {
		return Chunk{Malformed: true}, nil
	}

	parsed := gjson.ParseBytes(line)
	if !parsed.IsObject() {
		return Chunk{Malformed: true}, nil
	}
	if e := parsed.Get("error"); e.Exists() {
		return Chunk{}, &StreamError{Message: e.String()}
	}

	chunk := Chunk{
		Status: parsed.Get("status").String(),
		Done:   parsed.Get("done").Bool(),
	}
	if content := parsed.Get("message.content"); content.Exists() {
		chunk.Content = content.String()
		chunk.HasMessage = true
	}
	if chunk.Status == "success" {
		chunk.Done = true
	}
	return chunk, nil
}
