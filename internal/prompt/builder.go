// Package prompt assembles the chat messages sent to the issue model.
package prompt

import (
	"fmt"

	"github.com/britney/pkg/models"
)

const systemWrapper = `You are Britney, an issue content generator.
Your only mission is to produce professional issues for an issue tracker.
Always take into consideration the code provided by the user.
Produce the issue strictly following this template, replacing the comments with actual content and adjusting it as needed.
Respond with the issue body only, without a markdown title.

Template:
%s`

const artifactWrapper = "File: %s\nCode:\n%s"

// Directive is the fixed user instruction closing every prompt
const Directive = "Produce exactly one complete issue based on the content above."

// SystemContent returns the opinionated system prompt built from the template.
// The provisioner injects the same text into the derived model definition.
func SystemContent(tmpl *models.IssueTemplate) string {
	raw := ""
	if tmpl != nil {
		raw = tmpl.Raw
	}
	return fmt.Sprintf(systemWrapper, raw)
}

// Build returns [template system message, artifact system message, user directive].
// The artifact content is embedded verbatim with no size limit.
func Build(tmpl *models.IssueTemplate, artifact models.Artifact) []models.ChatMessage {
	return []models.ChatMessage{
		models.SystemMessage(SystemContent(tmpl)),
		models.SystemMessage(fmt.Sprintf(artifactWrapper, artifact.Path, string(artifact.Content))),
		models.UserMessage(Directive),
	}
}
