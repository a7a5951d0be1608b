package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/longregen/promptforge/internal/adapters/http/dto"
	"github.com/longregen/promptforge/internal/application/services"
	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/domain/models"
	"github.com/longregen/promptforge/internal/ports"
)

type fakeOptimizer struct {
	result  *models.OptimizationResult
	err     error
	lastCfg ports.RunConfig
}

func (f *fakeOptimizer) Optimize(ctx context.Context, req *ports.OptimizeRequest, cfg ports.RunConfig) (*models.OptimizationResult, error) {
	f.lastCfg = cfg
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeGenerator struct {
	output string
	err    error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt *models.ChatPrompt) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func testDefaults() ports.RunConfig {
	return ports.RunConfig{
		MinIterations:    3,
		MaxIterations:    5,
		SuccessThreshold: 0.85,
		TopK:             5,
		Model:            "default-model",
		Temperature:      0.7,
		MaxTokens:        2000,
	}
}

func TestPromptsHandler_Optimize(t *testing.T) {
	optimizer := &fakeOptimizer{result: &models.OptimizationResult{
		Status:          models.StatusSuccess,
		FinalMatchScore: 0.9,
		TotalIterations: 3,
	}}
	handler := NewPromptsHandler(optimizer, services.NewTemplateAnalyzerService(), &fakeGenerator{}, testDefaults())

	body := `{"spec": {"template": "1. {name}"}, "max_iterations": 4}`
	req := httptest.NewRequest("POST", "/api/v1/prompts/optimize", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Optimize(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result models.OptimizationResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if result.Status != models.StatusSuccess {
		t.Errorf("expected success, got %s", result.Status)
	}

	// the request override applies, untouched fields keep server defaults
	if optimizer.lastCfg.MaxIterations != 4 {
		t.Errorf("expected override max 4, got %d", optimizer.lastCfg.MaxIterations)
	}
	if optimizer.lastCfg.Model != "default-model" {
		t.Errorf("expected default model kept, got %s", optimizer.lastCfg.Model)
	}
}

func TestPromptsHandler_Optimize_MissingSpec(t *testing.T) {
	handler := NewPromptsHandler(&fakeOptimizer{}, services.NewTemplateAnalyzerService(), &fakeGenerator{}, testDefaults())

	req := httptest.NewRequest("POST", "/api/v1/prompts/optimize", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.Optimize(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestPromptsHandler_Optimize_ValidationErrorMapsTo400(t *testing.T) {
	optimizer := &fakeOptimizer{err: domain.NewError(domain.ErrValidation, "template cannot be empty")}
	handler := NewPromptsHandler(optimizer, services.NewTemplateAnalyzerService(), &fakeGenerator{}, testDefaults())

	body := `{"spec": {"template": "  "}}`
	req := httptest.NewRequest("POST", "/api/v1/prompts/optimize", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Optimize(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for validation error, got %d", rec.Code)
	}
}

func TestPromptsHandler_Analyze(t *testing.T) {
	handler := NewPromptsHandler(&fakeOptimizer{}, services.NewTemplateAnalyzerService(), &fakeGenerator{}, testDefaults())

	body := `{"spec": {"template": "Name: {name}\nDate: {date}"}}`
	req := httptest.NewRequest("POST", "/api/v1/prompts/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Analyze(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var analysis models.TemplateAnalysis
	if err := json.NewDecoder(rec.Body).Decode(&analysis); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(analysis.Placeholders) != 2 {
		t.Errorf("expected 2 placeholders, got %d", len(analysis.Placeholders))
	}
}

func TestPromptsHandler_Export_RoundTripsThroughImport(t *testing.T) {
	handler := NewPromptsHandler(&fakeOptimizer{}, services.NewTemplateAnalyzerService(), &fakeGenerator{}, testDefaults())

	body := `{"prompt": {"messages": [{"role": "system", "content": "be brief"}], "model": "m", "temperature": 0.5, "max_tokens": 100}}`
	req := httptest.NewRequest("POST", "/api/v1/prompts/export", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Export(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.ExportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Format != "openai" {
		t.Errorf("expected default openai format, got %s", resp.Format)
	}

	restored, err := services.ImportOpenAI([]byte(resp.Rendered))
	if err != nil {
		t.Fatalf("exported JSON does not import: %v", err)
	}
	if restored.Model != "m" || restored.Messages[0].Content != "be brief" {
		t.Error("round-trip lost prompt data")
	}
}

func TestPromptsHandler_Export_Readable(t *testing.T) {
	handler := NewPromptsHandler(&fakeOptimizer{}, services.NewTemplateAnalyzerService(), &fakeGenerator{}, testDefaults())

	body := `{"prompt": {"messages": [{"role": "user", "content": "hello"}]}, "format": "readable"}`
	req := httptest.NewRequest("POST", "/api/v1/prompts/export", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Export(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ExportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if !strings.Contains(resp.Rendered, "<|user|>") {
		t.Errorf("expected readable rendering, got %q", resp.Rendered)
	}
}

func TestPromptsHandler_Test(t *testing.T) {
	handler := NewPromptsHandler(&fakeOptimizer{}, services.NewTemplateAnalyzerService(), &fakeGenerator{output: "generated text"}, testDefaults())

	body := `{"prompt": {"messages": [{"role": "user", "content": "fill the template"}]}}`
	req := httptest.NewRequest("POST", "/api/v1/prompts/test", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Test(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.TestPromptResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Output != "generated text" {
		t.Errorf("unexpected output: %q", resp.Output)
	}
}

func TestPromptsHandler_Test_GenerationErrorMapsTo502(t *testing.T) {
	gen := &fakeGenerator{err: domain.NewError(domain.ErrGeneration, "provider down")}
	handler := NewPromptsHandler(&fakeOptimizer{}, services.NewTemplateAnalyzerService(), gen, testDefaults())

	body := `{"prompt": {"messages": [{"role": "user", "content": "x"}]}}`
	req := httptest.NewRequest("POST", "/api/v1/prompts/test", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Test(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}
