package models

// PlaceholderType classifies what kind of value a template placeholder expects.
type PlaceholderType string

const (
	PlaceholderIdentifier PlaceholderType = "identifier"
	PlaceholderDate       PlaceholderType = "date"
	PlaceholderQuantity   PlaceholderType = "quantity"
	PlaceholderList       PlaceholderType = "list"
	PlaceholderFreeText   PlaceholderType = "freetext"
)

// Placeholder is a named slot detected in an expected-output template.
type Placeholder struct {
	Name string          `json:"name"`
	Type PlaceholderType `json:"type"`
}

// StructureType classifies the overall shape of a template.
type StructureType string

const (
	StructureEnumeratedList StructureType = "enumerated_list"
	StructureRecord         StructureType = "record"
	StructureNarrative      StructureType = "narrative"
	StructureTabular        StructureType = "tabular"
)

// TemplateAnalysis is the structural description derived from an
// ExpectedOutputSpec. It is a pure function of the spec and is recomputed
// per run, never mutated.
type TemplateAnalysis struct {
	Placeholders            []Placeholder `json:"placeholders"`
	StructureType           StructureType `json:"structure_type"`
	InformationRequirements []string      `json:"information_requirements"`
	SuggestedQueries        []string      `json:"suggested_queries"`
}
