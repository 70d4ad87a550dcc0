package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/britney/pkg/models"
)

// formatIssue renders an issue as markdown
func formatIssue(issue models.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", issue.Title)
	if len(issue.Labels) > 0 {
		fmt.Fprintf(&b, "Labels: %s\n\n", strings.Join(issue.Labels, ", "))
	}
	b.WriteString(strings.TrimRight(issue.Body, "\n"))
	b.WriteString("\n")
	return b.String()
}

// printIssues writes the issues, separated by rules. With a renderer they
// are styled for the terminal first.
func printIssues(w io.Writer, issues []models.Issue, renderer *glamour.TermRenderer) error {
	for i, issue := range issues {
		if i > 0 {
			fmt.Fprintln(w, "\n---")
		}

		text := formatIssue(issue)
		if renderer != nil {
			rendered, err := renderer.Render(text)
			if err != nil {
				return fmt.Errorf("failed to render issue %d: %w", i+1, err)
			}
			text = rendered
		}

		if issue.Source != "" {
			fmt.Fprintf(w, "<!-- %s -->\n", issue.Source)
		}
		fmt.Fprint(w, text)
	}
	return nil
}

func newPreviewRenderer() (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
}
