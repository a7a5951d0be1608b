package dto

import (
	"github.com/longregen/promptforge/internal/domain/models"
	"github.com/longregen/promptforge/internal/ports"
)

// OptimizeRequest is the body of POST /api/v1/prompts/optimize. Zero-valued
// tunables fall back to the server's configured defaults.
type OptimizeRequest struct {
	Spec             *models.ExpectedOutputSpec `json:"spec"`
	DocumentIDs      []string                   `json:"document_ids,omitempty"`
	MinIterations    int                        `json:"min_iterations,omitempty"`
	MaxIterations    int                        `json:"max_iterations,omitempty"`
	SuccessThreshold float64                    `json:"success_threshold,omitempty"`
	TopK             int                        `json:"top_k,omitempty"`
	Model            string                     `json:"model,omitempty"`
	Temperature      float64                    `json:"temperature,omitempty"`
	MaxTokens        int                        `json:"max_tokens,omitempty"`
}

// RunConfig merges the request's overrides over the given defaults.
func (r *OptimizeRequest) RunConfig(defaults ports.RunConfig) ports.RunConfig {
	cfg := defaults
	if r.MinIterations > 0 {
		cfg.MinIterations = r.MinIterations
	}
	if r.MaxIterations > 0 {
		cfg.MaxIterations = r.MaxIterations
	}
	if r.SuccessThreshold > 0 {
		cfg.SuccessThreshold = r.SuccessThreshold
	}
	if r.TopK > 0 {
		cfg.TopK = r.TopK
	}
	if r.Model != "" {
		cfg.Model = r.Model
	}
	if r.Temperature > 0 {
		cfg.Temperature = r.Temperature
	}
	if r.MaxTokens > 0 {
		cfg.MaxTokens = r.MaxTokens
	}
	return cfg
}

// AnalyzeRequest is the body of POST /api/v1/prompts/analyze.
type AnalyzeRequest struct {
	Spec *models.ExpectedOutputSpec `json:"spec"`
}

// ExportRequest is the body of POST /api/v1/prompts/export.
type ExportRequest struct {
	Prompt *models.ChatPrompt `json:"prompt"`
	// Format is "openai" (default) or "readable".
	Format string `json:"format,omitempty"`
}

// ExportResponse carries the rendered prompt.
type ExportResponse struct {
	Format   string `json:"format"`
	Rendered string `json:"rendered"`
}

// TestPromptRequest is the body of POST /api/v1/prompts/test: generate once
// with a given prompt, no optimization loop.
type TestPromptRequest struct {
	Prompt *models.ChatPrompt `json:"prompt"`
}

// TestPromptResponse is the single generation's output.
type TestPromptResponse struct {
	Output string `json:"output"`
}
