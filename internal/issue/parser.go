package issue

import (
	"strings"

	"github.com/britney/pkg/models"
)

// Attribution identifies the generating system at the end of every body
const Attribution = "This issue was generated by Britney, an issue content generator running on a local language model."

// Footer is appended to every parsed body
const Footer = "\n\n" + Attribution

// Parse converts a raw model response into an issue record.
// The first non-empty line is the title, every later non-empty line goes to
// the body followed by a newline. Empty lines are dropped. Parse never fails.
func Parse(raw string) models.Issue {
	var title string
	var body strings.Builder
	seenTitle := false

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		if !seenTitle {
			title = line
			seenTitle = true
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}

	body.WriteString(Footer)

	return models.Issue{
		Title: title,
		Body:  body.String(),
	}
}
