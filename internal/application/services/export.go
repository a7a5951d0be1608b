package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/domain/models"
)

// OpenAIMessage is one message in the OpenAI chat-completions wire format.
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIPrompt is the wire-format rendering of a ChatPrompt. Message order
// is preserved exactly.
type OpenAIPrompt struct {
	Model       string          `json:"model,omitempty"`
	Messages    []OpenAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

// ExportOpenAI renders a prompt as OpenAI chat-completions JSON.
func ExportOpenAI(prompt *models.ChatPrompt) ([]byte, error) {
	if prompt == nil || len(prompt.Messages) == 0 {
		return nil, domain.NewError(domain.ErrValidation, "cannot export an empty prompt")
	}

	wire := OpenAIPrompt{
		Model:       prompt.Model,
		Messages:    make([]OpenAIMessage, len(prompt.Messages)),
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
	}
	for i, m := range prompt.Messages {
		wire.Messages[i] = OpenAIMessage{Role: string(m.Role), Content: m.Content}
	}
	return json.MarshalIndent(wire, "", "  ")
}

// ImportOpenAI reconstructs a prompt from its wire-format JSON. Export
// followed by import round-trips exactly.
func ImportOpenAI(data []byte) (*models.ChatPrompt, error) {
	var wire OpenAIPrompt
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, domain.NewError(domain.ErrValidation, fmt.Sprintf("invalid prompt JSON: %v", err))
	}
	if len(wire.Messages) == 0 {
		return nil, domain.NewError(domain.ErrValidation, "prompt JSON has no messages")
	}

	prompt := &models.ChatPrompt{
		Model:       wire.Model,
		Messages:    make([]models.ChatMessage, len(wire.Messages)),
		Temperature: wire.Temperature,
		MaxTokens:   wire.MaxTokens,
	}
	for i, m := range wire.Messages {
		role := models.Role(m.Role)
		if !models.ValidRole(role) {
			return nil, domain.NewError(domain.ErrValidation, fmt.Sprintf("unknown message role %q", m.Role))
		}
		prompt.Messages[i] = models.ChatMessage{Role: role, Content: m.Content}
	}
	return prompt, nil
}

// RenderReadable renders a prompt with <|role|> delimiters for human review.
func RenderReadable(prompt *models.ChatPrompt) string {
	var b strings.Builder
	for _, m := range prompt.Messages {
		fmt.Fprintf(&b, "<|%s|>\n%s\n<|end|>\n\n", m.Role, m.Content)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
