package models

// RootCause is the closed taxonomy of reasons a generated output failed to
// match the expected shape. Refinement logic branches exhaustively over it.
type RootCause string

const (
	CauseContextMissing      RootCause = "context_missing"
	CauseTerminologyMismatch RootCause = "terminology_mismatch"
	CauseStructureMismatch   RootCause = "structure_mismatch"
	CauseAmbiguity           RootCause = "ambiguity"
	CauseRetrievalQuality    RootCause = "retrieval_quality"
)

// RootCauseOrder lists the taxonomy in priority order: when an evaluation
// implicates several causes, the first one present is treated as dominant.
var RootCauseOrder = []RootCause{
	CauseContextMissing,
	CauseTerminologyMismatch,
	CauseRetrievalQuality,
	CauseStructureMismatch,
	CauseAmbiguity,
}

// ParseRootCause maps a judge-emitted label onto the taxonomy. Unknown
// labels are dropped rather than invented.
func ParseRootCause(s string) (RootCause, bool) {
	switch RootCause(s) {
	case CauseContextMissing, CauseTerminologyMismatch, CauseStructureMismatch,
		CauseAmbiguity, CauseRetrievalQuality:
		return RootCause(s), true
	}
	return "", false
}

// EvaluationResult is the AI judge's verdict on one iteration's sample output.
type EvaluationResult struct {
	Iteration              int         `json:"iteration"`
	GeneratedOutput        string      `json:"generated_output"`
	MatchScore             float64     `json:"match_score"`
	RootCauses             []RootCause `json:"root_causes"`
	ImprovementSuggestions []string    `json:"improvement_suggestions"`
	IsSuccessful           bool        `json:"is_successful"`
}

// DominantCause returns the highest-priority implicated root cause, or
// CauseAmbiguity when the judge named none.
func (e *EvaluationResult) DominantCause() RootCause {
	for _, cause := range RootCauseOrder {
		for _, got := range e.RootCauses {
			if got == cause {
				return cause
			}
		}
	}
	return CauseAmbiguity
}

// HasCause reports whether the evaluation implicated the given cause.
func (e *EvaluationResult) HasCause(cause RootCause) bool {
	for _, got := range e.RootCauses {
		if got == cause {
			return true
		}
	}
	return false
}
