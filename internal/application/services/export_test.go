package services

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/domain/models"
)

func TestExportOpenAI_EmptyPrompt(t *testing.T) {
	_, err := ExportOpenAI(&models.ChatPrompt{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ExportOpenAI(nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestExportOpenAI_OmitsUnsetModel(t *testing.T) {
	data, err := ExportOpenAI(&models.ChatPrompt{
		Messages: []models.ChatMessage{{Role: models.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "model")
	assert.Contains(t, raw, "messages")
}

func TestExportOpenAI_PreservesMessageOrder(t *testing.T) {
	prompt := &models.ChatPrompt{
		Messages: []models.ChatMessage{
			{Role: models.RoleSystem, Content: "first"},
			{Role: models.RoleUser, Content: "second"},
			{Role: models.RoleAssistant, Content: "third"},
		},
	}

	data, err := ExportOpenAI(prompt)
	require.NoError(t, err)

	restored, err := ImportOpenAI(data)
	require.NoError(t, err)
	require.Len(t, restored.Messages, 3)
	assert.Equal(t, "first", restored.Messages[0].Content)
	assert.Equal(t, "second", restored.Messages[1].Content)
	assert.Equal(t, "third", restored.Messages[2].Content)
	assert.Equal(t, models.RoleAssistant, restored.Messages[2].Role)
}

func TestImportOpenAI_MalformedJSON(t *testing.T) {
	_, err := ImportOpenAI([]byte("{not json"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestImportOpenAI_NoMessages(t *testing.T) {
	_, err := ImportOpenAI([]byte(`{"model": "m", "messages": []}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRenderReadable_BlockPerMessage(t *testing.T) {
	out := RenderReadable(&models.ChatPrompt{
		Messages: []models.ChatMessage{
			{Role: models.RoleSystem, Content: "rules"},
			{Role: models.RoleUser, Content: "question"},
		},
	})

	assert.Contains(t, out, "<|system|>\nrules\n<|end|>")
	assert.Contains(t, out, "<|user|>\nquestion\n<|end|>")
	assert.Less(t, strings.Index(out, "<|system|>"), strings.Index(out, "<|user|>"))
}
