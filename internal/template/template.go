// Package template loads issue templates from disk.
//
// A template file is plain text. An optional GitHub-style YAML front matter
// block may open the file; it carries labels and assignees for the created
// issues. The remaining text is split on the first "---" into a title pattern
// and a body pattern used by the substitution path.
package template

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/britney/pkg/models"
)

// Separator divides the title pattern from the body pattern
const Separator = "---"

// Load reads and parses the template at path
func Load(path string) (*models.IssueTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read template file: %w", err)
	}

	tmpl := Parse(string(data))
	tmpl.FilePath = path
	return tmpl, nil
}

// Parse builds a template from raw text. It never fails: a missing separator
// leaves the sections empty and only Raw is usable.
func Parse(raw string) *models.IssueTemplate {
	meta, rest := splitFrontMatter(raw)

	tmpl := &models.IssueTemplate{
		Raw:  rest,
		Meta: meta,
	}

	title, body, found := strings.Cut(rest, Separator)
	if !found {
		log.Warn().Msg("Invalid template formatting: missing '---' separator, using raw content only")
		return tmpl
	}

	tmpl.TitleSection = strings.TrimSpace(title)
	tmpl.BodySection = strings.TrimSpace(body)
	return tmpl
}

// Generate substitutes {title} and {body} placeholders
func Generate(tmpl *models.IssueTemplate, titleData, bodyData string) models.Issue {
	return models.Issue{
		Title:     strings.ReplaceAll(tmpl.TitleSection, "{title}", titleData),
		Body:      strings.ReplaceAll(tmpl.BodySection, "{body}", bodyData),
		Labels:    tmpl.Meta.Labels,
		Assignees: tmpl.Meta.Assignees,
	}
}

// splitFrontMatter removes a leading YAML block delimited by "---" lines.
// Text that does not decode as a YAML mapping is left untouched.
func splitFrontMatter(raw string) (models.TemplateMeta, string) {
	var meta models.TemplateMeta

	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	if !strings.HasPrefix(normalized, Separator+"\n") {
		return meta, raw
	}

	inner := normalized[len(Separator)+1:]
	end := strings.Index(inner, "\n"+Separator)
	if end < 0 {
		return meta, raw
	}

	block := inner[:end]
	rest := inner[end+len(Separator)+1:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && strings.TrimSpace(rest[:nl]) == "" {
		rest = rest[nl+1:]
	} else if strings.TrimSpace(rest) == "" {
		rest = ""
	} else {
		// closing delimiter shares its line with other text
		return meta, raw
	}

	var node map[string]interface{}
	if err := yaml.Unmarshal([]byte(block), &node); err != nil || len(node) == 0 {
		return meta, raw
	}
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return models.TemplateMeta{}, raw
	}

	log.Debug().
		Str("name", meta.Name).
		Strs("labels", meta.Labels).
		Msg("Parsed template front matter")

	return meta, rest
}
