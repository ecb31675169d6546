package model

import "time"

// StepStatus is the lifecycle state of a workflow step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepSkipped   StepStatus = "skipped"
	StepError     StepStatus = "error"
)

// WorkflowStep records one stage of a pipeline run. Appended by the
// orchestrator, never mutated after append.
type WorkflowStep struct {
	Name     string         `json:"name"`
	Status   StepStatus     `json:"status"`
	Duration time.Duration  `json:"duration"`
	Detail   map[string]any `json:"detail,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// PipelineState is the full, progressively-built state of one query run.
// Owned exclusively by a single orchestrator invocation.
type PipelineState struct {
	Query     string            `json:"query"`
	Parsed    *ParsedQuery      `json:"parsed,omitempty"`
	Validated []ValidatedEntity `json:"validated,omitempty"`
	Decisions []RoutingDecision `json:"decisions,omitempty"`
	Results   []SearchResult    `json:"results,omitempty"`
	Ranked    []RankedResult    `json:"ranked,omitempty"`
	Answer    string            `json:"answer,omitempty"`
	Steps     []WorkflowStep    `json:"steps"`
	Duration  time.Duration     `json:"duration"`
}

// AddStep appends a completed workflow step.
func (s *PipelineState) AddStep(step WorkflowStep) {
	s.Steps = append(s.Steps, step)
}
