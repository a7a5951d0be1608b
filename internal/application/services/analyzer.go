package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/longregen/promptforge/internal/domain/models"
)

var (
	placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)
	ordinalPattern     = regexp.MustCompile(`^\s*\d+[.)]\s`)
	tableRowPattern    = regexp.MustCompile(`^\s*\|.*\|\s*$`)
)

var placeholderTypeKeywords = []struct {
	typ      models.PlaceholderType
	keywords []string
}{
	{models.PlaceholderDate, []string{"date", "day", "month", "year", "time", "when", "deadline"}},
	{models.PlaceholderQuantity, []string{"count", "amount", "price", "total", "number", "quantity", "cost", "size"}},
	{models.PlaceholderList, []string{"list", "items", "features", "options", "tags", "steps"}},
	{models.PlaceholderFreeText, []string{"description", "summary", "details", "notes", "comment", "explanation"}},
}

// TemplateAnalyzerService derives placeholders, structure and retrieval hints
// from an output template. It implements ports.Analyzer and is deterministic,
// so the same spec always produces the same analysis.
type TemplateAnalyzerService struct{}

func NewTemplateAnalyzerService() *TemplateAnalyzerService {
	return &TemplateAnalyzerService{}
}

func (s *TemplateAnalyzerService) Analyze(spec *models.ExpectedOutputSpec) (*models.TemplateAnalysis, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	placeholders := extractPlaceholders(spec.Template)
	structure := classifyStructure(spec)
	requirements := buildRequirements(spec.Template, placeholders)
	queries := suggestQueries(spec, placeholders, requirements)

	return &models.TemplateAnalysis{
		Placeholders:            placeholders,
		StructureType:           structure,
		InformationRequirements: requirements,
		SuggestedQueries:        queries,
	}, nil
}

// extractPlaceholders finds {name} tokens in template order, de-duplicated.
func extractPlaceholders(template string) []models.Placeholder {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	seen := make(map[string]bool, len(matches))
	placeholders := make([]models.Placeholder, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		placeholders = append(placeholders, models.Placeholder{
			Name: name,
			Type: classifyPlaceholder(name),
		})
	}
	return placeholders
}

func classifyPlaceholder(name string) models.PlaceholderType {
	lowered := strings.ToLower(name)
	for _, entry := range placeholderTypeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lowered, kw) {
				return entry.typ
			}
		}
	}
	return models.PlaceholderIdentifier
}

// classifyStructure reads an explicit output format first; otherwise it
// inspects the template's line shapes.
func classifyStructure(spec *models.ExpectedOutputSpec) models.StructureType {
	switch spec.OutputFormat {
	case models.FormatList:
		return models.StructureEnumeratedList
	case models.FormatTable:
		return models.StructureTabular
	case models.FormatRecord:
		return models.StructureRecord
	}

	lines := strings.Split(spec.Template, "\n")
	var ordinal, tabular, record int
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case ordinalPattern.MatchString(line):
			ordinal++
		case tableRowPattern.MatchString(line):
			tabular++
		case strings.Contains(trimmed, ":"):
			record++
		}
	}

	switch {
	case ordinal > 2:
		return models.StructureEnumeratedList
	case tabular > 0:
		return models.StructureTabular
	case record > 2:
		return models.StructureRecord
	default:
		return models.StructureNarrative
	}
}

// buildRequirements lists one requirement per placeholder plus one per
// labeled template line that carries no placeholder of its own. Labels are
// either colon-prefixed ("Name: ...") or ordinal list items ("1. Name").
func buildRequirements(template string, placeholders []models.Placeholder) []string {
	requirements := make([]string, 0, len(placeholders))
	for _, p := range placeholders {
		requirements = append(requirements, fmt.Sprintf("need the %s (%s)", p.Name, p.Type))
	}

	for _, line := range strings.Split(template, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || placeholderPattern.MatchString(trimmed) {
			continue
		}
		ordinal := false
		if loc := ordinalPattern.FindStringIndex(line); loc != nil {
			ordinal = true
			trimmed = strings.TrimSpace(line[loc[1]:])
		}
		label, _, found := strings.Cut(trimmed, ":")
		label = strings.TrimSpace(label)
		if !found && ordinal {
			label = trimmed
		} else if !found {
			continue
		}
		if label != "" {
			requirements = append(requirements, fmt.Sprintf("need information about %s", strings.ToLower(label)))
		}
	}
	return requirements
}

func suggestQueries(spec *models.ExpectedOutputSpec, placeholders []models.Placeholder, requirements []string) []string {
	var queries []string

	if len(placeholders) > 0 {
		names := make([]string, 0, 3)
		for _, p := range placeholders {
			names = append(names, p.Name)
			if len(names) == 3 {
				break
			}
		}
		queries = append(queries, fmt.Sprintf("What are the %s?", strings.Join(names, ", ")))
	}

	if desc := strings.TrimSpace(spec.Description); desc != "" {
		queries = append(queries, desc)
	}

	if len(queries) < 3 && len(requirements) > 0 {
		terms := make([]string, 0, len(requirements))
		for _, r := range requirements {
			terms = append(terms, requirementTerm(r))
		}
		queries = append(queries, strings.Join(terms, " "))
	}

	if len(queries) == 0 {
		queries = append(queries, strings.TrimSpace(spec.Template))
	}
	if len(queries) > 3 {
		queries = queries[:3]
	}
	return queries
}

// requirementTerm strips the requirement phrasing down to its subject term.
func requirementTerm(requirement string) string {
	term := strings.TrimPrefix(requirement, "need the ")
	term = strings.TrimPrefix(term, "need information about ")
	if idx := strings.Index(term, " ("); idx > 0 {
		term = term[:idx]
	}
	return strings.TrimSpace(term)
}
