// Package github creates issues through the GitHub REST API.
package github

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
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/britney/pkg/models"
)

// DefaultAPIURL is the public GitHub API root
const DefaultAPIURL = "https://api.github.com"

// Config identifies the target repository
type Config struct {
	Owner       string
	Repo        string
	Token       string
	APIURL      string
	MinInterval time.Duration // spacing between issue creations
}

// Publisher posts issues to one GitHub repository
type Publisher struct {
	httpClient *http.Client
	apiURL     string
	config     Config
	limiter    *rate.Limiter
}

// NewPublisher creates a GitHub publisher with sensible defaults
func NewPublisher(config Config) *Publisher {
	apiURL := strings.TrimSuffix(config.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	limit := rate.Inf
	if config.MinInterval > 0 {
		limit = rate.Every(config.MinInterval)
	}

	return &Publisher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     apiURL,
		config:     config,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

type issueRequest struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Labels    []string `json:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
}

// CreateIssue opens the issue and returns its html_url
func (p *Publisher) CreateIssue(ctx context.Context, issue models.Issue) (string, error) {
	if p.config.Owner == "" || p.config.Repo == "" {
		return "", fmt.Errorf("GitHub owner and repo are required")
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/issues", p.apiURL, p.config.Owner, p.config.Repo)
	body, err := p.postToGitHubAPI(ctx, apiURL, issueRequest{
		Title:     issue.Title,
		Body:      issue.Body,
		Labels:    issue.Labels,
		Assignees: issue.Assignees,
	})
	if err != nil {
		return "", err
	}

	url := gjson.GetBytes(body, "html_url").String()
	if url == "" {
		return "", fmt.Errorf("GitHub API response missing html_url")
	}
	return url, nil
}

func (p *Publisher) postToGitHubAPI(ctx context.Context, apiURL string, requestBody interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if p.config.Token != "" {
		req.Header.Set("Authorization", "token "+p.config.Token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "Britney-Issue-Generator")

	log.Debug().Str("url", apiURL).Msg("Making GitHub API request")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GitHub API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
