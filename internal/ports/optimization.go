package ports

import (
	"context"

	"github.com/longregen/promptforge/internal/domain/models"
)

// LoopState labels where the controller is inside one optimization round.
// States advance strictly in this order; DONE is terminal.
type LoopState string

const (
	StateAnalyzing  LoopState = "ANALYZING"
	StateQuerying   LoopState = "QUERYING"
	StateRetrieving LoopState = "RETRIEVING"
	StateAssembling LoopState = "ASSEMBLING"
	StateGenerating LoopState = "GENERATING"
	StateEvaluating LoopState = "EVALUATING"
	StateDone       LoopState = "DONE"
)

// Analyzer derives a structural description from an expected-output spec.
type Analyzer interface {
	Analyze(spec *models.ExpectedOutputSpec) (*models.TemplateAnalysis, error)
}

// QueryDesigner produces the initial retrieval query and revises it from
// prior-iteration feedback. Refine must never return the previous query
// verbatim; doing so is a convergence stall and terminates the run.
type QueryDesigner interface {
	DesignInitial(analysis *models.TemplateAnalysis) string
	Refine(previous string, eval *models.EvaluationResult, analysis *models.TemplateAnalysis) (string, error)
}

// Assembler builds a chat prompt from the spec and retrieved context.
// Assembly is pure: identical inputs yield byte-identical prompts.
type Assembler interface {
	Assemble(spec *models.ExpectedOutputSpec, analysis *models.TemplateAnalysis, query string, contexts []models.RetrievedContext) *models.ChatPrompt
}

// Evaluator judges a generated sample output against the expected shape.
type Evaluator interface {
	Evaluate(ctx context.Context, spec *models.ExpectedOutputSpec, output string, contexts []models.RetrievedContext, iteration int) (*models.EvaluationResult, error)
}

// OptimizeRequest is one optimization run's immutable input.
type OptimizeRequest struct {
	Spec *models.ExpectedOutputSpec `json:"spec"`

	// DocumentIDs scopes retrieval to specific uploads; empty means the
	// whole corpus.
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// RunConfig carries the per-run tunables. It is passed by value into the
// controller at run start so concurrent runs cannot interfere.
type RunConfig struct {
	MinIterations    int     `json:"min_iterations"`
	MaxIterations    int     `json:"max_iterations"`
	SuccessThreshold float64 `json:"success_threshold"`
	TopK             int     `json:"top_k"`
	Model            string  `json:"model"`
	Temperature      float64 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
}

// PromptOptimizer runs the closed optimization loop for one request.
type PromptOptimizer interface {
	Optimize(ctx context.Context, req *OptimizeRequest, cfg RunConfig) (*models.OptimizationResult, error)
}
