// Package gitlab creates issues in a GitLab project.
package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/britney/pkg/models"
)

const defaultURL = "https://gitlab.com"

// Config identifies the target project
type Config struct {
	URL     string // instance URL, without /api/v4
	Token   string
	Project string // numeric ID or "group/project" path
}

// Publisher posts issues to one GitLab project
type Publisher struct {
	client  *gitlab.Client
	project string
	webURL  string
}

// NewPublisher creates a GitLab publisher
func NewPublisher(config Config) (*Publisher, error) {
	return newPublisher(config, &http.Client{Timeout: 60 * time.Second})
}

func newPublisher(config Config, httpClient *http.Client) (*Publisher, error) {
	if config.Project == "" {
		return nil, fmt.Errorf("GitLab project is required")
	}

	webURL := strings.TrimSuffix(config.URL, "/")
	if webURL == "" {
		webURL = defaultURL
	}

	client := gitlab.NewClient(httpClient, config.Token)
	if err := client.SetBaseURL(webURL + "/api/v4"); err != nil {
		return nil, fmt.Errorf("failed to set GitLab API base URL: %w", err)
	}

	return &Publisher{client: client, project: config.Project, webURL: webURL}, nil
}

// CreateIssue opens the issue and returns its web URL.
// Labels and assignees are not forwarded.
func (p *Publisher) CreateIssue(ctx context.Context, issue models.Issue) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	opt := &gitlab.CreateIssueOptions{
		Title:       gitlab.String(issue.Title),
		Description: gitlab.String(issue.Body),
	}

	created, _, err := p.client.Issues.CreateIssue(p.project, opt)
	if err != nil {
		return "", fmt.Errorf("failed to create GitLab issue: %w", err)
	}

	log.Debug().Str("project", p.project).Int("iid", created.IID).Msg("GitLab issue created")
	return p.issueURL(created.IID), nil
}

// issueURL links to an issue by its project-scoped IID
func (p *Publisher) issueURL(iid int) string {
	return fmt.Sprintf("%s/%s/-/issues/%d", p.webURL, p.project, iid)
}
