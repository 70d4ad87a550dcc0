package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/zricethezav/gitleaks/v8/detect"
	"github.com/zricethezav/gitleaks/v8/report"

	"github.com/britney/pkg/models"
)

// Redacted replaces every secret found in an issue
const Redacted = "REDACTED"

type detector interface {
	DetectString(content string) []report.Finding
}

// Redactor strips credentials the model copied from an artifact into an issue
type Redactor struct {
	detector detector
}

// NewRedactor creates a redactor using the default gitleaks rule set
func NewRedactor() (*Redactor, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load secret detection rules: %w", err)
	}
	return &Redactor{detector: d}, nil
}

// Redact returns the issue with secrets replaced and the number of findings
func (r *Redactor) Redact(issue models.Issue) (models.Issue, int) {
	found := 0
	issue.Title, found = r.redactText(issue.Title, found)
	issue.Body, found = r.redactText(issue.Body, found)
	return issue, found
}

// RedactText replaces every secret found in text
func (r *Redactor) RedactText(text string) string {
	text, _ = r.redactText(text, 0)
	return text
}

func (r *Redactor) redactText(text string, found int) (string, int) {
	for _, finding := range r.detector.DetectString(text) {
		secret := finding.Secret
		if secret == "" {
			secret = finding.Match
		}
		if secret == "" || !strings.Contains(text, secret) {
			continue
		}
		log.Warn().Str("rule", finding.RuleID).Int("line", finding.StartLine).Msg("Redacting secret")
		text = strings.ReplaceAll(text, secret, Redacted)
		found++
	}
	return text, found
}

// guarded redacts every issue before handing it to the wrapped publisher
type guarded struct {
	next     Publisher
	redactor *Redactor
}

// WithRedaction wraps p so no issue reaches the tracker with a detected secret
func WithRedaction(p Publisher, r *Redactor) Publisher {
	return &guarded{next: p, redactor: r}
}

func (g *guarded) CreateIssue(ctx context.Context, issue models.Issue) (string, error) {
	clean, found := g.redactor.Redact(issue)
	if found > 0 {
		log.Info().Int("findings", found).Str("source", issue.Source).Msg("Secrets redacted before publishing")
	}
	return g.next.CreateIssue(ctx, clean)
}
