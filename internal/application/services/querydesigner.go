package services

import (
	"strings"

	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/domain/models"
)

// MaxQueryLen bounds retrieval queries. Overlong queries dilute the
// embedding, so low-priority terms are dropped from the tail first.
const MaxQueryLen = 512

var fillerWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true,
	"is": true, "it": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "this": true, "to": true, "what": true,
	"which": true, "with": true, "should": true, "would": true,
	"could": true, "more": true, "about": true,
}

// QueryDesignerService produces and refines retrieval queries. It implements
// ports.QueryDesigner without calling the model: refinement branches over the
// closed root-cause taxonomy, so each cause has a fixed rewrite strategy.
type QueryDesignerService struct{}

func NewQueryDesignerService() *QueryDesignerService {
	return &QueryDesignerService{}
}

// DesignInitial joins the analysis's suggested queries with its requirement
// terms, bounded at MaxQueryLen.
func (s *QueryDesignerService) DesignInitial(analysis *models.TemplateAnalysis) string {
	parts := append([]string{}, analysis.SuggestedQueries...)
	parts = append(parts, requirementTerms(analysis)...)
	return boundQuery(parts)
}

// Refine rewrites the previous query according to the evaluation's dominant
// root cause. Returning the previous query unchanged is a ConvergenceStall:
// retrieving the same context again cannot move the score.
func (s *QueryDesignerService) Refine(previous string, eval *models.EvaluationResult, analysis *models.TemplateAnalysis) (string, error) {
	var refined string
	switch eval.DominantCause() {
	case models.CauseContextMissing:
		refined = s.broaden(previous, eval, analysis)
	case models.CauseTerminologyMismatch:
		refined = s.substitute(previous, eval)
	case models.CauseRetrievalQuality:
		refined = s.sharpen(previous, analysis)
	case models.CauseStructureMismatch, models.CauseAmbiguity:
		refined = s.reanchor(analysis)
	default:
		refined = s.reanchor(analysis)
	}

	if refined == previous {
		return "", domain.NewError(domain.ErrConvergenceStall,
			"query refinement produced no change; further iterations would retrieve identical context")
	}
	return refined, nil
}

// broaden appends requirement terms not yet in the query plus terms mined
// from the evaluator's suggestions.
func (s *QueryDesignerService) broaden(previous string, eval *models.EvaluationResult, analysis *models.TemplateAnalysis) string {
	lowered := strings.ToLower(previous)
	parts := []string{previous}
	for _, term := range requirementTerms(analysis) {
		if !strings.Contains(lowered, strings.ToLower(term)) {
			parts = append(parts, term)
		}
	}
	parts = append(parts, mineSuggestionTerms(eval.ImprovementSuggestions, lowered)...)
	return boundQuery(parts)
}

// substitute replaces the query's leading terms with vocabulary from the
// evaluator's suggestions, keeping the tail for continuity.
func (s *QueryDesignerService) substitute(previous string, eval *models.EvaluationResult) string {
	mined := mineSuggestionTerms(eval.ImprovementSuggestions, "")
	words := strings.Fields(previous)

	keepFrom := len(words) / 2
	tail := strings.Join(words[keepFrom:], " ")

	parts := append(mined, tail)
	return boundQuery(parts)
}

// sharpen prefixes the most specific placeholder names and strips filler.
func (s *QueryDesignerService) sharpen(previous string, analysis *models.TemplateAnalysis) string {
	var names []string
	for _, p := range analysis.Placeholders {
		names = append(names, p.Name)
		if len(names) == 3 {
			break
		}
	}

	var kept []string
	for _, w := range strings.Fields(previous) {
		if fillerWords[strings.ToLower(strings.Trim(w, ".,?!"))] {
			continue
		}
		kept = append(kept, w)
	}

	parts := append(names, strings.Join(kept, " "))
	return boundQuery(parts)
}

// reanchor rebuilds the query from the structural requirements alone.
func (s *QueryDesignerService) reanchor(analysis *models.TemplateAnalysis) string {
	parts := []string{string(analysis.StructureType) + " of"}
	parts = append(parts, requirementTerms(analysis)...)
	if len(analysis.SuggestedQueries) > 0 {
		parts = append(parts, analysis.SuggestedQueries[0])
	}
	return boundQuery(parts)
}

func requirementTerms(analysis *models.TemplateAnalysis) []string {
	terms := make([]string, 0, len(analysis.InformationRequirements))
	for _, r := range analysis.InformationRequirements {
		if term := requirementTerm(r); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// mineSuggestionTerms pulls content words out of evaluator suggestions,
// skipping filler and words already present in the query.
func mineSuggestionTerms(suggestions []string, existingLowered string) []string {
	var terms []string
	seen := make(map[string]bool)
	for _, s := range suggestions {
		for _, w := range strings.Fields(s) {
			word := strings.ToLower(strings.Trim(w, ".,;:'\"()?!"))
			if len(word) <= 3 || fillerWords[word] || seen[word] {
				continue
			}
			if existingLowered != "" && strings.Contains(existingLowered, word) {
				continue
			}
			seen[word] = true
			terms = append(terms, word)
			if len(terms) == 6 {
				return terms
			}
		}
	}
	return terms
}

// boundQuery joins non-empty parts and trims to MaxQueryLen by dropping
// whole trailing parts, then hard-cutting at a word boundary if one part
// alone still exceeds the bound.
func boundQuery(parts []string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}

	query := strings.Join(nonEmpty, " ")
	for len(query) > MaxQueryLen && len(nonEmpty) > 1 {
		nonEmpty = nonEmpty[:len(nonEmpty)-1]
		query = strings.Join(nonEmpty, " ")
	}
	if len(query) > MaxQueryLen {
		cut := query[:MaxQueryLen]
		if idx := strings.LastIndex(cut, " "); idx > 0 {
			cut = cut[:idx]
		}
		query = cut
	}
	return query
}
