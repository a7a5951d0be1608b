package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/domain/models"
	"github.com/longregen/promptforge/internal/ports"
)

// DefaultSuccessThreshold is the match score at or above which an iteration
// counts as successful.
const DefaultSuccessThreshold = 0.85

// judgeVerdict is the JSON shape the judge is instructed to respond with.
type judgeVerdict struct {
	MatchScore             float64  `json:"match_score"`
	RootCauses             []string `json:"root_causes"`
	ImprovementSuggestions []string `json:"improvement_suggestions"`
}

// EvaluatorService is the AI judge. It implements ports.Evaluator by asking
// a generator to score the sample output against the expected shape. Its
// verdict is ground truth inside the loop.
type EvaluatorService struct {
	judge     ports.Generator
	threshold float64
}

func NewEvaluatorService(judge ports.Generator, threshold float64) *EvaluatorService {
	if threshold <= 0 {
		threshold = DefaultSuccessThreshold
	}
	return &EvaluatorService{judge: judge, threshold: threshold}
}

func (s *EvaluatorService) Evaluate(ctx context.Context, spec *models.ExpectedOutputSpec, output string, contexts []models.RetrievedContext, iteration int) (*models.EvaluationResult, error) {
	prompt := s.judgePrompt(spec, output, contexts)

	raw, err := s.judge.Generate(ctx, prompt)
	if err != nil {
		return nil, domain.NewError(domain.ErrEvaluation, fmt.Sprintf("judge call failed: %v", err))
	}

	verdict, ok := parseVerdict(raw)
	if !ok {
		// An unparseable judgment is a failed iteration, not a failed run.
		log.Printf("[EvaluatorService.Evaluate] unparseable judge response at iteration %d, degrading to zero score", iteration)
		return &models.EvaluationResult{
			Iteration:       iteration,
			GeneratedOutput: output,
			MatchScore:      0,
			RootCauses:      []models.RootCause{models.CauseAmbiguity},
			IsSuccessful:    false,
		}, nil
	}

	score := verdict.MatchScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	var causes []models.RootCause
	for _, label := range verdict.RootCauses {
		if cause, known := models.ParseRootCause(strings.TrimSpace(label)); known {
			causes = append(causes, cause)
		}
	}

	successful := score >= s.threshold
	if !successful && len(causes) == 0 {
		causes = []models.RootCause{models.CauseAmbiguity}
	}

	return &models.EvaluationResult{
		Iteration:              iteration,
		GeneratedOutput:        output,
		MatchScore:             score,
		RootCauses:             causes,
		ImprovementSuggestions: verdict.ImprovementSuggestions,
		IsSuccessful:           successful,
	}, nil
}

func (s *EvaluatorService) judgePrompt(spec *models.ExpectedOutputSpec, output string, contexts []models.RetrievedContext) *models.ChatPrompt {
	var b strings.Builder

	b.WriteString("Expected template:\n```\n")
	b.WriteString(spec.Template)
	b.WriteString("\n```\n\n")
	if desc := strings.TrimSpace(spec.Description); desc != "" {
		b.WriteString("Intent: ")
		b.WriteString(desc)
		b.WriteString("\n\n")
	}

	if len(contexts) > 0 {
		b.WriteString("Passages the output was generated from:\n")
		for i, rc := range contexts {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, rc.Text)
		}
		b.WriteString("\n")
	}

	b.WriteString("Generated output to judge:\n```\n")
	b.WriteString(output)
	b.WriteString("\n```\n")

	system := `You judge whether a generated output matches an expected template.
Score structural fit, completeness of placeholder values and factual grounding
in the passages as one fused match_score between 0 and 1.
When the score is below 1, name the applicable root causes from exactly this
set: context_missing, terminology_mismatch, structure_mismatch, ambiguity,
retrieval_quality.
Respond with only a JSON object:
{"match_score": 0.0, "root_causes": [], "improvement_suggestions": []}`

	return &models.ChatPrompt{
		Messages: []models.ChatMessage{
			{Role: models.RoleSystem, Content: system},
			{Role: models.RoleUser, Content: b.String()},
		},
	}
}

// parseVerdict tries the raw text as JSON, then the first balanced JSON
// object inside it. Judges wrap JSON in prose often enough that the second
// pass earns its keep.
func parseVerdict(raw string) (judgeVerdict, bool) {
	var verdict judgeVerdict
	trimmed := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(trimmed), &verdict); err == nil {
		return verdict, true
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return judgeVerdict{}, false
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &verdict); err != nil {
		return judgeVerdict{}, false
	}
	return verdict, true
}
