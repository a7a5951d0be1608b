package handlers

import (
	"net/http"

	"github.com/longregen/promptforge/internal/adapters/http/dto"
	"github.com/longregen/promptforge/internal/application/services"
	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/ports"
)

// PromptsHandler exposes the optimization loop, template analysis, prompt
// export and single-shot prompt testing.
type PromptsHandler struct {
	optimizer ports.PromptOptimizer
	analyzer  ports.Analyzer
	generator ports.Generator
	defaults  ports.RunConfig
}

func NewPromptsHandler(optimizer ports.PromptOptimizer, analyzer ports.Analyzer, generator ports.Generator, defaults ports.RunConfig) *PromptsHandler {
	return &PromptsHandler{
		optimizer: optimizer,
		analyzer:  analyzer,
		generator: generator,
		defaults:  defaults,
	}
}

// Optimize runs the full loop synchronously and returns the result with its
// iteration trace.
func (h *PromptsHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[dto.OptimizeRequest](r, w)
	if !ok {
		return
	}
	if req.Spec == nil {
		respondError(w, "validation_error", "spec is required", http.StatusBadRequest)
		return
	}

	result, err := h.optimizer.Optimize(r.Context(), &ports.OptimizeRequest{
		Spec:        req.Spec,
		DocumentIDs: req.DocumentIDs,
	}, req.RunConfig(h.defaults))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, result, http.StatusOK)
}

// Analyze runs the template analyzer alone, without touching the corpus.
func (h *PromptsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[dto.AnalyzeRequest](r, w)
	if !ok {
		return
	}
	if req.Spec == nil {
		respondError(w, "validation_error", "spec is required", http.StatusBadRequest)
		return
	}

	analysis, err := h.analyzer.Analyze(req.Spec)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, analysis, http.StatusOK)
}

// Export renders a prompt in the OpenAI wire format or as readable text.
func (h *PromptsHandler) Export(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[dto.ExportRequest](r, w)
	if !ok {
		return
	}
	if req.Prompt == nil {
		respondError(w, "validation_error", "prompt is required", http.StatusBadRequest)
		return
	}

	format := req.Format
	if format == "" {
		format = "openai"
	}

	var rendered string
	switch format {
	case "openai":
		data, err := services.ExportOpenAI(req.Prompt)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		rendered = string(data)
	case "readable":
		rendered = services.RenderReadable(req.Prompt)
	default:
		respondError(w, "validation_error", "format must be openai or readable", http.StatusBadRequest)
		return
	}

	respondJSON(w, dto.ExportResponse{Format: format, Rendered: rendered}, http.StatusOK)
}

// Test generates once with the given prompt, outside the loop.
func (h *PromptsHandler) Test(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[dto.TestPromptRequest](r, w)
	if !ok {
		return
	}
	if req.Prompt == nil || len(req.Prompt.Messages) == 0 {
		respondError(w, "validation_error", "prompt with messages is required", http.StatusBadRequest)
		return
	}
	for _, m := range req.Prompt.Messages {
		if err := validateMessageRole(string(m.Role)); err != nil {
			respondDomainError(w, err)
			return
		}
	}

	output, err := h.generator.Generate(r.Context(), req.Prompt)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, dto.TestPromptResponse{Output: output}, http.StatusOK)
}

func validateMessageRole(role string) error {
	switch role {
	case "system", "user", "assistant":
		return nil
	}
	return domain.NewError(domain.ErrValidation, "unknown message role "+role)
}
