package models

// OptimizationIteration is the append-only record of one loop round.
type OptimizationIteration struct {
	Iteration         int                `json:"iteration"`
	Query             string             `json:"query"`
	RetrievedContexts []RetrievedContext `json:"retrieved_contexts"`
	GeneratedPrompt   *ChatPrompt        `json:"generated_prompt"`
	Evaluation        *EvaluationResult  `json:"evaluation"`
}

// Optimization run status values
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
)

// OptimizationResult is the outcome of one optimization run: the selected
// prompt plus the full iteration trace.
type OptimizationResult struct {
	FinalPrompt     *ChatPrompt             `json:"final_prompt"`
	Iterations      []OptimizationIteration `json:"iterations"`
	TotalIterations int                     `json:"total_iterations"`
	FinalMatchScore float64                 `json:"final_match_score"`
	Status          string                  `json:"status"`
	Message         string                  `json:"message"`
}

// BestIteration returns the trace entry with the maximum match score, ties
// broken by earliest iteration. Returns nil for an empty trace.
func BestIteration(trace []OptimizationIteration) *OptimizationIteration {
	var best *OptimizationIteration
	for i := range trace {
		it := &trace[i]
		if it.Evaluation == nil {
			continue
		}
		if best == nil || it.Evaluation.MatchScore > best.Evaluation.MatchScore {
			best = it
		}
	}
	return best
}
