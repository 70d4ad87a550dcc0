// Package publish delivers generated issues to an issue tracker.
package publish

import (
	"context"

	"github.com/rs/zerolog/log"

	perrors "github.com/britney/internal/errors"
	"github.com/britney/pkg/models"
)

// Publisher creates one issue on a tracker and returns its URL
type Publisher interface {
	CreateIssue(ctx context.Context, issue models.Issue) (string, error)
}

// PublishAll creates the issues in order. The first failure stops the run;
// issues created before it stay on the tracker.
func PublishAll(ctx context.Context, p Publisher, issues []models.Issue) ([]string, error) {
	urls := make([]string, 0, len(issues))
	for i, issue := range issues {
		if err := ctx.Err(); err != nil {
			return urls, perrors.NewPublishError(i, issue.Title, err)
		}

		url, err := p.CreateIssue(ctx, issue)
		if err != nil {
			log.Error().Err(err).Int("index", i).Int("created", len(urls)).Msg("Publishing aborted")
			return urls, perrors.NewPublishError(i, issue.Title, err)
		}

		log.Info().Str("url", url).Str("source", issue.Source).Msg("Issue created")
		urls = append(urls, url)
	}
	return urls, nil
}
