package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSubstitutesPlaceholders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.md")
	require.NoError(t, os.WriteFile(path, []byte("Title: {title}\n---\nBody: {body}"), 0644))

	tmpl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, tmpl.FilePath)

	issue := Generate(tmpl, "Crash", "Steps to reproduce")
	assert.Equal(t, "Title: Crash", issue.Title)
	assert.Equal(t, "Body: Steps to reproduce", issue.Body)
}

func TestParseWithoutSeparatorKeepsRaw(t *testing.T) {
	raw := "### Feature Request\n\n#### Summary\n<!-- summary -->\n"

	tmpl := Parse(raw)

	assert.Equal(t, raw, tmpl.Raw)
	assert.Empty(t, tmpl.TitleSection)
	assert.Empty(t, tmpl.BodySection)
	assert.False(t, tmpl.HasSections())
}

func TestParseSplitsOnFirstSeparatorOnly(t *testing.T) {
	tmpl := Parse("  Title  \n---\nBody part one\n---\npart two\n")

	assert.Equal(t, "Title", tmpl.TitleSection)
	assert.Equal(t, "Body part one\n---\npart two", tmpl.BodySection)
}

func TestParseFrontMatter(t *testing.T) {
	raw := "---\nname: Bug report\nabout: Report a defect\nlabels: [bug, triage]\nassignees:\n  - octocat\n---\nBug: {title}\n---\n{body}\n"

	tmpl := Parse(raw)

	assert.Equal(t, "Bug report", tmpl.Meta.Name)
	assert.Equal(t, "Report a defect", tmpl.Meta.About)
	assert.Equal(t, []string{"bug", "triage"}, tmpl.Meta.Labels)
	assert.Equal(t, []string{"octocat"}, tmpl.Meta.Assignees)
	assert.Equal(t, "Bug: {title}\n---\n{body}\n", tmpl.Raw)
	assert.Equal(t, "Bug: {title}", tmpl.TitleSection)
	assert.Equal(t, "{body}", tmpl.BodySection)

	issue := Generate(tmpl, "nil map", "panic on startup")
	assert.Equal(t, []string{"bug", "triage"}, issue.Labels)
	assert.Equal(t, []string{"octocat"}, issue.Assignees)
}

func TestParseLeadingSeparatorIsNotFrontMatter(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		title string
		body  string
	}{
		{
			name:  "empty title section",
			raw:   "---\nBody: {body}",
			title: "",
			body:  "Body: {body}",
		},
		{
			name:  "scalar block",
			raw:   "---\njust text\n---\nmore",
			title: "",
			body:  "just text\n---\nmore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := Parse(tt.raw)
			assert.Equal(t, tt.raw, tmpl.Raw)
			assert.Equal(t, tt.title, tmpl.TitleSection)
			assert.Equal(t, tt.body, tmpl.BodySection)
			assert.Empty(t, tmpl.Meta.Labels)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to read template file")
}
