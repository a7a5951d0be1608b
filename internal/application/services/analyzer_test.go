package services

import (
	"errors"
	"testing"

	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/domain/models"
)

func TestAnalyzer_EmptyTemplate(t *testing.T) {
	analyzer := NewTemplateAnalyzerService()

	_, err := analyzer.Analyze(&models.ExpectedOutputSpec{Template: "   \n  "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestAnalyzer_PlaceholderExtraction(t *testing.T) {
	analyzer := NewTemplateAnalyzerService()

	spec := &models.ExpectedOutputSpec{
		Template: "Invoice {invoice_number}\nDate: {due_date}\nTotal: {total_amount}\nItems: {item_list}\nNotes: {description}\nRef: {invoice_number}",
	}

	analysis, err := analyzer.Analyze(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(analysis.Placeholders) != 5 {
		t.Fatalf("expected 5 placeholders after dedup, got %d", len(analysis.Placeholders))
	}

	expected := []struct {
		name string
		typ  models.PlaceholderType
	}{
		{"invoice_number", models.PlaceholderQuantity},
		{"due_date", models.PlaceholderDate},
		{"total_amount", models.PlaceholderQuantity},
		{"item_list", models.PlaceholderList},
		{"description", models.PlaceholderFreeText},
	}
	for i, want := range expected {
		got := analysis.Placeholders[i]
		if got.Name != want.name {
			t.Errorf("placeholder %d: expected name %s, got %s", i, want.name, got.Name)
		}
		if got.Type != want.typ {
			t.Errorf("placeholder %s: expected type %s, got %s", want.name, want.typ, got.Type)
		}
	}
}

func TestAnalyzer_IdentifierFallback(t *testing.T) {
	analyzer := NewTemplateAnalyzerService()

	analysis, err := analyzer.Analyze(&models.ExpectedOutputSpec{Template: "{product_name}"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if analysis.Placeholders[0].Type != models.PlaceholderIdentifier {
		t.Errorf("expected identifier type, got %s", analysis.Placeholders[0].Type)
	}
}

func TestAnalyzer_StructureClassification(t *testing.T) {
	analyzer := NewTemplateAnalyzerService()

	tests := []struct {
		name     string
		template string
		format   models.OutputFormat
		want     models.StructureType
	}{
		{
			name:     "enumerated list from ordinals",
			template: "1. {first}\n2. {second}\n3. {third}",
			want:     models.StructureEnumeratedList,
		},
		{
			name:     "tabular from pipe rows",
			template: "| Name | Price |\n| {name} | {price} |",
			want:     models.StructureTabular,
		},
		{
			name:     "record from labeled lines",
			template: "Name: {name}\nEmail: {email}\nRole: {role}",
			want:     models.StructureRecord,
		},
		{
			name:     "narrative fallback",
			template: "A short paragraph about {topic} in plain prose.",
			want:     models.StructureNarrative,
		},
		{
			name:     "explicit format wins over line shapes",
			template: "Name: {name}\nEmail: {email}\nRole: {role}",
			format:   models.FormatList,
			want:     models.StructureEnumeratedList,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := analyzer.Analyze(&models.ExpectedOutputSpec{
				Template:     tt.template,
				OutputFormat: tt.format,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if analysis.StructureType != tt.want {
				t.Errorf("expected %s, got %s", tt.want, analysis.StructureType)
			}
		})
	}
}

func TestAnalyzer_Requirements(t *testing.T) {
	analyzer := NewTemplateAnalyzerService()

	spec := &models.ExpectedOutputSpec{
		Template: "Customer: {customer_name}\nShipping policy: standard terms apply",
	}

	analysis, err := analyzer.Analyze(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(analysis.InformationRequirements) != 2 {
		t.Fatalf("expected 2 requirements, got %d: %v", len(analysis.InformationRequirements), analysis.InformationRequirements)
	}
	if analysis.InformationRequirements[0] != "need the customer_name (identifier)" {
		t.Errorf("unexpected placeholder requirement: %s", analysis.InformationRequirements[0])
	}
	if analysis.InformationRequirements[1] != "need information about shipping policy" {
		t.Errorf("unexpected labeled-line requirement: %s", analysis.InformationRequirements[1])
	}
}

func TestAnalyzer_RequirementsFromOrdinalLabels(t *testing.T) {
	analyzer := NewTemplateAnalyzerService()

	analysis, err := analyzer.Analyze(&models.ExpectedOutputSpec{
		Template:     "1. Name\n2. Budget",
		OutputFormat: models.FormatList,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if analysis.StructureType != models.StructureEnumeratedList {
		t.Errorf("expected %s, got %s", models.StructureEnumeratedList, analysis.StructureType)
	}
	if len(analysis.InformationRequirements) != 2 {
		t.Fatalf("expected 2 requirements, got %d: %v", len(analysis.InformationRequirements), analysis.InformationRequirements)
	}
	if analysis.InformationRequirements[0] != "need information about name" {
		t.Errorf("unexpected requirement: %s", analysis.InformationRequirements[0])
	}
	if analysis.InformationRequirements[1] != "need information about budget" {
		t.Errorf("unexpected requirement: %s", analysis.InformationRequirements[1])
	}
}

func TestAnalyzer_SuggestedQueries(t *testing.T) {
	analyzer := NewTemplateAnalyzerService()

	spec := &models.ExpectedOutputSpec{
		Template:    "{name} ({role}) started {start_date} at {office}",
		Description: "Employee directory entries for the onboarding handbook",
	}

	analysis, err := analyzer.Analyze(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(analysis.SuggestedQueries) < 1 || len(analysis.SuggestedQueries) > 3 {
		t.Fatalf("expected 1-3 queries, got %d", len(analysis.SuggestedQueries))
	}

	if analysis.SuggestedQueries[0] != "What are the name, role, start_date?" {
		t.Errorf("unexpected first query: %s", analysis.SuggestedQueries[0])
	}
	if analysis.SuggestedQueries[1] != spec.Description {
		t.Errorf("expected description as second query, got %s", analysis.SuggestedQueries[1])
	}
}

func TestAnalyzer_Deterministic(t *testing.T) {
	analyzer := NewTemplateAnalyzerService()

	spec := &models.ExpectedOutputSpec{
		Template:    "1. {feature}: {description}\n2. {feature}: {description}",
		Description: "Product feature list",
	}

	first, err := analyzer.Analyze(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := analyzer.Analyze(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first.Placeholders) != len(second.Placeholders) ||
		first.StructureType != second.StructureType ||
		len(first.SuggestedQueries) != len(second.SuggestedQueries) {
		t.Error("expected identical analyses for identical specs")
	}
	for i := range first.SuggestedQueries {
		if first.SuggestedQueries[i] != second.SuggestedQueries[i] {
			t.Errorf("query %d differs between runs", i)
		}
	}
}
