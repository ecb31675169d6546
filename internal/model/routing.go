package model

// Action is the next move the strategy controller asks the orchestrator
// to take.
type Action string

const (
	ActionStructuredSearch Action = "structured_search"
	ActionSemanticSearch   Action = "semantic_search"
	ActionHybridSearch     Action = "hybrid_search"
	ActionRelaxConstraints Action = "relax_constraints"
	ActionGenerateResponse Action = "generate_response"
)

// Operator describes how a constraint value is compared.
type Operator string

const (
	OpEquals    Operator = "equals"
	OpContains  Operator = "contains"
	OpInSet     Operator = "in"
	OpRange     Operator = "range"
	OpNotEquals Operator = "not_equals"
)

// SearchConstraint is a single filter condition derived from a validated
// entity. Built fresh on every routing decision.
type SearchConstraint struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
	Priority int      `json:"priority"` // Lower rank = dropped last when relaxing
}

// RoutingDecision is the output of one iteration of the strategy loop.
// Recomputed each iteration; the RelaxedTypes list only ever grows within
// one query's lifetime.
type RoutingDecision struct {
	Action       Action             `json:"action"`
	Constraints  []SearchConstraint `json:"constraints,omitempty"`
	RelaxedTypes []EntityType       `json:"relaxed_types,omitempty"`
	RetryCount   int                `json:"retry_count"`
	MaxRetries   int                `json:"max_retries"`
	Reason       string             `json:"reason,omitempty"`
}
