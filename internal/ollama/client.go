package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/britney/pkg/models"
)

// DefaultURL is where a local Ollama instance listens
const DefaultURL = "http://localhost:11434"

// Model represents a model from the Ollama /api/tags endpoint
type Model struct {
	Name       string       `json:"name"`
	ModifiedAt time.Time    `json:"modified_at"`
	Size       int64        `json:"size"`
	Digest     string       `json:"digest"`
	Details    ModelDetails `json:"details"`
}

// ModelDetails contains model details from Ollama
type ModelDetails struct {
	Format            string   `json:"format"`
	Family            string   `json:"family"`
	Families          []string `json:"families"`
	ParameterSize     string   `json:"parameter_size"`
	QuantizationLevel string   `json:"quantization_level"`
}

type tagsResponse struct {
	Models []Model `json:"models"`
}

type showRequest struct {
	Model string `json:"model"`
	Name  string `json:"name"`
}

type showResponse struct {
	Modelfile string `json:"modelfile"`
}

// CreateRequest describes a model derived from a definition.
// Modelfile is sent for older runtimes, From and System for newer ones.
type CreateRequest struct {
	Model     string `json:"model"`
	Name      string `json:"name"`
	Modelfile string `json:"modelfile,omitempty"`
	From      string `json:"from,omitempty"`
	System    string `json:"system,omitempty"`
	Stream    bool   `json:"stream"`
}

type chatRequest struct {
	Model    string               `json:"model"`
	Messages []models.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
}

// Client talks to the Ollama REST API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the Ollama instance at baseURL.
// An optional bearer token is sent for proxied instances.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    normalizeURL(baseURL),
		token:      token,
		httpClient: &http.Client{},
	}
}

// BaseURL returns the normalized server URL without the /api suffix
func (c *Client) BaseURL() string {
	return c.baseURL
}

func normalizeURL(baseURL string) string {
	if baseURL == "" {
		return DefaultURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	return strings.TrimSuffix(baseURL, "/api")
}

// ListModels fetches the models known to the runtime, in runtime order
func (c *Client) ListModels(ctx context.Context) ([]models.ModelDescriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to parse Ollama response: %w", err)
	}

	descriptors := make([]models.ModelDescriptor, 0, len(tags.Models))
	for _, m := range tags.Models {
		descriptors = append(descriptors, models.ModelDescriptor{
			Name:       m.Name,
			Present:    true,
			Digest:     m.Digest,
			Size:       m.Size,
			Family:     m.Details.Family,
			ModifiedAt: m.ModifiedAt,
		})
	}

	log.Debug().Int("count", len(descriptors)).Str("base_url", c.baseURL).Msg("Listed Ollama models")
	return descriptors, nil
}

// ShowModelfile returns the textual definition of a model
func (c *Client) ShowModelfile(ctx context.Context, name string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/show", showRequest{Model: name, Name: name})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var show showResponse
	if err := json.NewDecoder(resp.Body).Decode(&show); err != nil {
		return "", fmt.Errorf("failed to parse Ollama show response: %w", err)
	}
	if show.Modelfile == "" {
		return "", fmt.Errorf("Ollama returned an empty definition for %s", name)
	}
	return show.Modelfile, nil
}

// CreateModel starts a streaming model build. The caller drains the stream.
func (c *Client) CreateModel(ctx context.Context, req CreateRequest) (ChunkStream, error) {
	req.Stream = true
	if req.Name == "" {
		req.Name = req.Model
	}
	resp, err := c.do(ctx, http.MethodPost, "/api/create", req)
	if err != nil {
		return nil, err
	}
	return newNDJSONStream(resp.Body), nil
}

// Chat starts a streaming chat generation. The caller drains the stream.
func (c *Client) Chat(ctx context.Context, model string, messages []models.ChatMessage) (ChunkStream, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/chat", chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}
	return newNDJSONStream(resp.Body), nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ollama at %s: %w", c.baseURL, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("Ollama API %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return resp, nil
}
