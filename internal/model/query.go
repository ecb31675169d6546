package model

// Intent categorizes what the user is trying to do with a query.
type Intent string

const (
	IntentFactual     Intent = "factual"
	IntentConceptual  Intent = "conceptual"
	IntentComparison  Intent = "comparison"
	IntentProcedural  Intent = "procedural"
	IntentExploratory Intent = "exploratory"
)

// Complexity grades how involved a query is.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// LogicalRelation is a relation between two entities stated in the query
// (e.g. "compare", "belongs to").
type LogicalRelation struct {
	Subject  string `json:"subject"`
	Relation string `json:"relation"`
	Object   string `json:"object"`
}

// ParsedQuery is the structured interpretation of a user query.
// Immutable once produced by the parser.
type ParsedQuery struct {
	Original   string            `json:"original"`
	Entities   []ExtractedEntity `json:"entities"`
	Relations  []LogicalRelation `json:"relations,omitempty"`
	Intent     Intent            `json:"intent"`
	Complexity Complexity        `json:"complexity"`
	Confidence float64           `json:"confidence"`
	Keywords   []string          `json:"keywords,omitempty"`
	SmallTalk  bool              `json:"small_talk,omitempty"` // Greeting/chitchat, no retrieval needed
}
