package models

import (
	"time"
)

// Runtime models

// ModelDescriptor represents a model known to the local runtime
type ModelDescriptor struct {
	Name       string    `json:"name"`
	Present    bool      `json:"present"`
	Digest     string    `json:"digest,omitempty"`
	Size       int64     `json:"size,omitempty"`
	Family     string    `json:"family,omitempty"`
	ModifiedAt time.Time `json:"modified_at,omitempty"`
}

// Role identifies the author of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn sent to the model. Messages are never mutated after creation.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system turn
func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: content}
}

// UserMessage creates a user turn
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// Issue models

// TemplateMeta is the optional YAML front matter of an issue template
type TemplateMeta struct {
	Name      string   `yaml:"name"`
	About     string   `yaml:"about,omitempty"`
	Title     string   `yaml:"title,omitempty"`
	Labels    []string `yaml:"labels,omitempty"`
	Assignees []string `yaml:"assignees,omitempty"`
}

// IssueTemplate is loaded once at startup and never modified afterwards.
// TitleSection and BodySection are empty when the raw text has no separator.
type IssueTemplate struct {
	Raw          string       `json:"raw"`
	TitleSection string       `json:"title_section"`
	BodySection  string       `json:"body_section"`
	Meta         TemplateMeta `json:"meta"`
	FilePath     string       `json:"-"`
}

// HasSections reports whether the template was split into title and body halves
func (t *IssueTemplate) HasSections() bool {
	return t.TitleSection != "" || t.BodySection != ""
}

// Issue is a structured issue record ready for publication
type Issue struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Labels    []string `json:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
	Source    string   `json:"-"` // artifact path the issue was generated from
}

// Artifact is a read-only unit of source content addressed by path
type Artifact struct {
	Path    string
	Content []byte
}
