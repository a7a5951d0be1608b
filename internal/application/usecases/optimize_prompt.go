package usecases

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/longregen/promptforge/internal/adapters/metrics"
	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/domain/models"
	"github.com/longregen/promptforge/internal/ports"
)

// Default run tunables, applied when the config leaves them zero.
const (
	DefaultMinIterations    = 3
	DefaultMaxIterations    = 5
	DefaultSuccessThreshold = 0.85
	DefaultTopK             = 5
	DefaultTemperature      = 0.7
	DefaultMaxTokens        = 2000
)

// OptimizePrompt runs the closed optimization loop: design a query, retrieve
// context, assemble a candidate prompt, generate a sample, judge it, refine
// the query from the verdict. It implements ports.PromptOptimizer.
type OptimizePrompt struct {
	analyzer  ports.Analyzer
	designer  ports.QueryDesigner
	index     ports.ChunkIndex
	assembler ports.Assembler
	generator ports.Generator
	evaluator ports.Evaluator
	ids       ports.IDGenerator
}

func NewOptimizePrompt(
	analyzer ports.Analyzer,
	designer ports.QueryDesigner,
	index ports.ChunkIndex,
	assembler ports.Assembler,
	generator ports.Generator,
	evaluator ports.Evaluator,
	ids ports.IDGenerator,
) *OptimizePrompt {
	return &OptimizePrompt{
		analyzer:  analyzer,
		designer:  designer,
		index:     index,
		assembler: assembler,
		generator: generator,
		evaluator: evaluator,
		ids:       ids,
	}
}

// Optimize executes one run. Validation failures reject the run before the
// loop starts; external failures mid-run keep the completed iterations and
// surface through Status and Message, never silently.
func (uc *OptimizePrompt) Optimize(ctx context.Context, req *ports.OptimizeRequest, cfg ports.RunConfig) (*models.OptimizationResult, error) {
	if req == nil || req.Spec == nil {
		return nil, domain.NewError(domain.ErrValidation, "optimization request has no spec")
	}
	if err := req.Spec.Validate(); err != nil {
		return nil, err
	}
	cfg = normalizeConfig(cfg)

	runID := uc.ids.GenerateRunID()
	ctx, span := otel.Tracer("promptforge").Start(ctx, "optimize_run",
		trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	log.Printf("[OptimizePrompt.Optimize] run %s state %s", runID, ports.StateAnalyzing)
	analysis, err := uc.analyzer.Analyze(req.Spec)
	if err != nil {
		return nil, err
	}

	log.Printf("[OptimizePrompt.Optimize] run %s state %s", runID, ports.StateQuerying)
	query := uc.designer.DesignInitial(analysis)

	var (
		iterations  []models.OptimizationIteration
		lastEval    *models.EvaluationResult
		succeeded   bool
		termination string
	)

loop:
	for i := 1; i <= cfg.MaxIterations; i++ {
		if i > 1 {
			// cancellation is checked between iterations only; an
			// in-flight iteration always completes
			if err := ctx.Err(); err != nil {
				termination = "run cancelled"
				break loop
			}

			refined, err := uc.designer.Refine(query, lastEval, analysis)
			if errors.Is(err, domain.ErrConvergenceStall) {
				termination = err.Error()
				break loop
			}
			if err != nil {
				termination = fmt.Sprintf("query refinement failed: %v", err)
				break loop
			}
			query = refined
		}

		span.AddEvent("iteration", trace.WithAttributes(
			attribute.Int("iteration", i),
			attribute.String("query", query),
		))

		log.Printf("[OptimizePrompt.Optimize] run %s iteration %d state %s", runID, i, ports.StateRetrieving)
		contexts, err := uc.index.Search(ctx, query, cfg.TopK, req.DocumentIDs)
		switch {
		case err == nil:
			metrics.RetrievalRequestsTotal.WithLabelValues("ok").Inc()
		case errors.Is(err, domain.ErrRetrieval):
			// the store failing is not fatal: assemble without context
			log.Printf("[OptimizePrompt.Optimize] run %s iteration %d retrieval failed, continuing without context: %v", runID, i, err)
			metrics.RetrievalRequestsTotal.WithLabelValues("error").Inc()
			contexts = nil
		default:
			// embedding the query is one of the loop's hard external
			// dependencies; if retries were exhausted, the run cannot proceed
			termination = fmt.Sprintf("query embedding failed after retries: %v", err)
			break loop
		}

		log.Printf("[OptimizePrompt.Optimize] run %s iteration %d state %s", runID, i, ports.StateAssembling)
		prompt := uc.assembler.Assemble(req.Spec, analysis, query, contexts)
		prompt.Model = cfg.Model
		prompt.Temperature = cfg.Temperature
		prompt.MaxTokens = cfg.MaxTokens

		log.Printf("[OptimizePrompt.Optimize] run %s iteration %d state %s", runID, i, ports.StateGenerating)
		output, err := uc.generator.Generate(ctx, prompt)
		if err != nil {
			termination = fmt.Sprintf("generation failed after retries: %v", err)
			break loop
		}

		log.Printf("[OptimizePrompt.Optimize] run %s iteration %d state %s", runID, i, ports.StateEvaluating)
		eval, err := uc.evaluator.Evaluate(ctx, req.Spec, output, contexts, i)
		if err != nil {
			// a lost verdict fails the iteration, not the run
			log.Printf("[OptimizePrompt.Optimize] run %s iteration %d evaluation failed: %v", runID, i, err)
			eval = &models.EvaluationResult{
				Iteration:       i,
				GeneratedOutput: output,
				MatchScore:      0,
				RootCauses:      []models.RootCause{models.CauseAmbiguity},
			}
		}

		iterations = append(iterations, models.OptimizationIteration{
			Iteration:         i,
			Query:             query,
			RetrievedContexts: contexts,
			GeneratedPrompt:   prompt.Clone(),
			Evaluation:        eval,
		})
		metrics.OptimizationIterationsTotal.Inc()
		lastEval = eval
		if eval.IsSuccessful {
			succeeded = true
		}

		// the minimum-iteration floor holds even when the first round
		// already clears the threshold
		if i >= cfg.MinIterations && (succeeded || i == cfg.MaxIterations) {
			break
		}
	}

	result := uc.finalize(iterations, cfg, termination)
	log.Printf("[OptimizePrompt.Optimize] run %s state %s status %s score %.2f after %d iterations",
		runID, ports.StateDone, result.Status, result.FinalMatchScore, result.TotalIterations)
	return result, nil
}

// finalize selects the best-of-trace prompt and derives the run status.
func (uc *OptimizePrompt) finalize(iterations []models.OptimizationIteration, cfg ports.RunConfig, termination string) *models.OptimizationResult {
	result := &models.OptimizationResult{
		Iterations:      iterations,
		TotalIterations: len(iterations),
		Status:          models.StatusPartial,
	}

	if best := models.BestIteration(iterations); best != nil {
		result.FinalPrompt = best.GeneratedPrompt
		result.FinalMatchScore = best.Evaluation.MatchScore
		if best.Evaluation.MatchScore >= cfg.SuccessThreshold {
			result.Status = models.StatusSuccess
		}
	}

	switch {
	case termination != "":
		result.Message = termination
	case result.Status == models.StatusSuccess:
		result.Message = fmt.Sprintf("match score %.2f reached the %.2f threshold", result.FinalMatchScore, cfg.SuccessThreshold)
	default:
		result.Message = fmt.Sprintf("iteration budget exhausted at score %.2f, below the %.2f threshold", result.FinalMatchScore, cfg.SuccessThreshold)
	}

	metrics.OptimizationRunsTotal.WithLabelValues(result.Status).Inc()
	metrics.OptimizationBestScore.Observe(result.FinalMatchScore)
	return result
}

func normalizeConfig(cfg ports.RunConfig) ports.RunConfig {
	if cfg.MinIterations <= 0 {
		cfg.MinIterations = DefaultMinIterations
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.MaxIterations < cfg.MinIterations {
		cfg.MaxIterations = cfg.MinIterations
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = DefaultSuccessThreshold
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return cfg
}
