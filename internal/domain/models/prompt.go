package models

import (
	"strings"

	"github.com/longregen/promptforge/internal/domain"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ValidRole reports whether r is one of the known chat roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// ChatMessage is a single role-tagged message in a prompt.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatPrompt is an ordered sequence of role-tagged messages plus the
// generation parameters a completion provider consumes.
type ChatPrompt struct {
	Messages    []ChatMessage `json:"messages"`
	Model       string        `json:"model,omitempty"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// Clone returns a deep copy so a stored iteration cannot be mutated through
// a shared message slice.
func (p *ChatPrompt) Clone() *ChatPrompt {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Messages = make([]ChatMessage, len(p.Messages))
	copy(cp.Messages, p.Messages)
	return &cp
}

// Equal reports whether two prompts have identical messages and parameters.
func (p *ChatPrompt) Equal(other *ChatPrompt) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.Model != other.Model || p.Temperature != other.Temperature || p.MaxTokens != other.MaxTokens {
		return false
	}
	if len(p.Messages) != len(other.Messages) {
		return false
	}
	for i := range p.Messages {
		if p.Messages[i] != other.Messages[i] {
			return false
		}
	}
	return true
}

// OutputFormat is the closed set of shapes a caller can request.
type OutputFormat string

const (
	FormatText   OutputFormat = "text"
	FormatRecord OutputFormat = "record"
	FormatTable  OutputFormat = "table"
	FormatList   OutputFormat = "list"
)

// ValidOutputFormat reports whether f names a known format. The empty string
// is accepted and treated as FormatText.
func ValidOutputFormat(f OutputFormat) bool {
	switch f {
	case "", FormatText, FormatRecord, FormatTable, FormatList:
		return true
	}
	return false
}

// ExpectedOutputSpec is the caller's definition of the desired output shape.
// It is immutable input to one optimization run.
type ExpectedOutputSpec struct {
	Template           string       `json:"template"`
	Description        string       `json:"description,omitempty"`
	OutputInstructions string       `json:"output_instructions,omitempty"`
	OutputFormat       OutputFormat `json:"output_format,omitempty"`
	Examples           []string     `json:"examples,omitempty"`
}

// Validate rejects malformed specs before a run starts.
func (s *ExpectedOutputSpec) Validate() error {
	if strings.TrimSpace(s.Template) == "" {
		return domain.NewError(domain.ErrValidation, domain.ErrEmptyTemplate.Error())
	}
	if !ValidOutputFormat(s.OutputFormat) {
		return domain.NewError(domain.ErrValidation, "output_format must be one of text, record, table, list")
	}
	return nil
}
