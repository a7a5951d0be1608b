package services

import (
	"fmt"
	"strings"

	"github.com/longregen/promptforge/internal/domain/models"
)

// extractionRules are appended to every system message. They pin the model
// to the retrieved passages and the literal template shape.
const extractionRules = `Rules:
- Use only facts found in the provided source passages.
- Fill every placeholder; write "unknown" when no passage supports a value.
- Reproduce the template's layout exactly, replacing only the placeholders.
- Do not add commentary, preamble or trailing explanation.`

// AssemblerService builds candidate chat prompts. It implements
// ports.Assembler and is stateless: the output is a pure function of the
// inputs, so identical iterations produce byte-identical prompts.
type AssemblerService struct{}

func NewAssemblerService() *AssemblerService {
	return &AssemblerService{}
}

func (s *AssemblerService) Assemble(spec *models.ExpectedOutputSpec, analysis *models.TemplateAnalysis, query string, contexts []models.RetrievedContext) *models.ChatPrompt {
	return &models.ChatPrompt{
		Messages: []models.ChatMessage{
			{Role: models.RoleSystem, Content: s.systemMessage(spec, analysis)},
			{Role: models.RoleUser, Content: s.userMessage(spec, query, contexts)},
		},
	}
}

func (s *AssemblerService) systemMessage(spec *models.ExpectedOutputSpec, analysis *models.TemplateAnalysis) string {
	var b strings.Builder

	b.WriteString("You produce output that fills the template below from source passages.\n\n")
	b.WriteString("Template:\n```\n")
	b.WriteString(spec.Template)
	b.WriteString("\n```\n\n")

	b.WriteString("Output shape: ")
	b.WriteString(formatConstraint(spec.OutputFormat, analysis.StructureType))
	b.WriteString("\n")

	if instructions := strings.TrimSpace(spec.OutputInstructions); instructions != "" {
		b.WriteString("Style: ")
		b.WriteString(instructions)
		b.WriteString("\n")
	}

	if len(analysis.Placeholders) > 0 {
		b.WriteString("\nPlaceholders to fill:\n")
		for _, p := range analysis.Placeholders {
			fmt.Fprintf(&b, "- {%s}: %s\n", p.Name, p.Type)
		}
	}

	if len(spec.Examples) > 0 {
		b.WriteString("\nExamples of correct output:\n")
		for _, ex := range spec.Examples {
			b.WriteString("```\n")
			b.WriteString(ex)
			b.WriteString("\n```\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(extractionRules)
	return b.String()
}

func (s *AssemblerService) userMessage(spec *models.ExpectedOutputSpec, query string, contexts []models.RetrievedContext) string {
	var b strings.Builder

	if len(contexts) > 0 {
		b.WriteString("Source passages, most relevant first:\n\n")
		for i, rc := range contexts {
			fmt.Fprintf(&b, "[Source %d: %s]\n%s\n\n", i+1, rc.DocumentID, rc.Text)
		}
	} else {
		b.WriteString("No source passages were retrieved.\n\n")
	}

	fmt.Fprintf(&b, "Question guiding retrieval: %s\n\n", query)
	b.WriteString("Task: fill the template from the system message using the passages above.")
	return b.String()
}

func formatConstraint(format models.OutputFormat, structure models.StructureType) string {
	switch format {
	case models.FormatList:
		return "a numbered list, one item per line"
	case models.FormatTable:
		return "a table with the template's columns, one row per entry"
	case models.FormatRecord:
		return "labeled fields, one per line, in template order"
	}

	switch structure {
	case models.StructureEnumeratedList:
		return "a numbered list, one item per line"
	case models.StructureTabular:
		return "a table with the template's columns, one row per entry"
	case models.StructureRecord:
		return "labeled fields, one per line, in template order"
	default:
		return "prose matching the template's paragraph shape"
	}
}
