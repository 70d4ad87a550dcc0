package issue

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		title string
		body  string
	}{
		{
			name:  "empty string",
			raw:   "",
			title: "",
			body:  Footer,
		},
		{
			name:  "only empty lines",
			raw:   "\n\n\n",
			title: "",
			body:  Footer,
		},
		{
			name:  "title only",
			raw:   "Add retry logic",
			title: "Add retry logic",
			body:  Footer,
		},
		{
			name:  "leading blank lines before title",
			raw:   "\n\nAdd retry logic\n\n#### Summary\nRetries are missing.\n",
			title: "Add retry logic",
			body:  "#### Summary\nRetries are missing.\n" + Footer,
		},
		{
			name:  "markdown heading kept verbatim",
			raw:   "# Bug: nil map\nSteps",
			title: "# Bug: nil map",
			body:  "Steps\n" + Footer,
		},
		{
			name:  "crlf line endings",
			raw:   "Title\r\nLine one\r\n\r\nLine two\r\n",
			title: "Title",
			body:  "Line one\nLine two\n" + Footer,
		},
		{
			name:  "whitespace-only line is not empty",
			raw:   "Title\n  \nBody",
			title: "Title",
			body:  "  \nBody\n" + Footer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			assert.Equal(t, tt.title, got.Title)
			assert.Equal(t, tt.body, got.Body)
		})
	}
}

func TestParseBodyAlwaysEndsWithFooter(t *testing.T) {
	inputs := []string{
		"",
		"x",
		"\n",
		strings.Repeat("line\n", 50),
		"Attribution\n\n" + Attribution,
	}

	for _, raw := range inputs {
		got := Parse(raw)
		assert.True(t, strings.HasSuffix(got.Body, Footer), "body for %q must end with footer", raw)
	}
}

func TestParseTitleIsFirstNonEmptyLine(t *testing.T) {
	raw := "\n\n  Improve logging  \nsecond\nthird"

	assert.Equal(t, "  Improve logging  ", Parse(raw).Title)
	assert.NotContains(t, Parse(raw).Body, "Improve logging")
}
