package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noesis-ai/noesis/internal/answer"
	"github.com/noesis-ai/noesis/internal/detect"
	"github.com/noesis-ai/noesis/internal/embed"
	"github.com/noesis-ai/noesis/internal/llm"
	"github.com/noesis-ai/noesis/internal/model"
	"github.com/noesis-ai/noesis/internal/parse"
	"github.com/noesis-ai/noesis/internal/registry"
	"github.com/noesis-ai/noesis/internal/search"
	"github.com/noesis-ai/noesis/internal/strategy"
)

// InternalErrorAnswer replaces the answer when a stage fails hard. A
// query must always come back with some answer string.
const InternalErrorAnswer = "抱歉，处理您的问题时发生了内部错误，请稍后重试。"

// Pipeline orchestrates the complete question-answering run: parse the
// query, validate entities against the registry, loop route and search
// until results suffice or retries run out, rerank, then synthesize.
type Pipeline struct {
	parser      *parse.Parser
	controller  *strategy.Controller
	executor    *search.Executor
	synthesizer *answer.Synthesizer
	config      *model.Config
	logger      *zap.Logger
}

// Deps are the shared resources a pipeline runs against. The caller
// owns their lifecycles; the pipeline never closes them.
type Deps struct {
	Registry *registry.Registry
	Store    search.VectorStore
	Embedder embed.Embedder
	Provider llm.Provider // nil runs rule-based parsing and template answers only
	Logger   *zap.Logger
}

// New wires the pipeline components from configuration and shared deps.
func New(cfg *model.Config, deps Deps) *Pipeline {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		parser:      parse.New(deps.Provider, detect.New(), log),
		controller:  strategy.New(deps.Registry, deps.Provider, cfg.Retrieval, log),
		executor:    search.NewExecutor(deps.Store, deps.Embedder, deps.Provider, cfg.Retrieval, log),
		synthesizer: answer.New(deps.Provider, log),
		config:      cfg,
		logger:      log,
	}
}

// Ask runs one query through the full pipeline. It never returns an
// error: every failure is contained in the step log and the answer
// degrades to a fixed string instead.
func (p *Pipeline) Ask(ctx context.Context, query string) *model.PipelineState {
	state := &model.PipelineState{Query: query}
	started := time.Now()
	defer func() { state.Duration = time.Since(started) }()

	ok := p.runStep(state, "parse", func() (map[string]any, error) {
		state.Parsed = p.parser.Parse(ctx, query, p.config.LLM.Model)
		return map[string]any{
			"entities":   len(state.Parsed.Entities),
			"intent":     state.Parsed.Intent,
			"complexity": state.Parsed.Complexity,
			"small_talk": state.Parsed.SmallTalk,
		}, nil
	})
	if !ok {
		state.Answer = InternalErrorAnswer
		return state
	}

	if state.Parsed.SmallTalk {
		p.skipStep(state, "validate")
		p.skipStep(state, "route")
		p.skipStep(state, "rerank")
		p.runStep(state, "generate", func() (map[string]any, error) {
			state.Answer = answer.GreetingAnswer
			return map[string]any{"small_talk": true}, nil
		})
		return state
	}

	ok = p.runStep(state, "validate", func() (map[string]any, error) {
		state.Validated = p.controller.ValidateEntities(ctx, state.Parsed.Entities)
		valid := 0
		for _, v := range state.Validated {
			if v.Valid {
				valid++
			}
		}
		return map[string]any{"entities": len(state.Validated), "valid": valid}, nil
	})
	if !ok {
		state.Answer = InternalErrorAnswer
		return state
	}

	if !p.retrieve(ctx, state) {
		state.Answer = InternalErrorAnswer
		return state
	}

	ok = p.runStep(state, "rerank", func() (map[string]any, error) {
		state.Ranked = p.executor.Rerank(ctx, state.Results, state.Parsed, p.config.Retrieval.RerankTopK)
		return map[string]any{"candidates": len(state.Results), "kept": len(state.Ranked)}, nil
	})
	if !ok {
		state.Answer = InternalErrorAnswer
		return state
	}

	p.runStep(state, "generate", func() (map[string]any, error) {
		state.Answer = p.synthesizer.Generate(ctx, state.Parsed, state.Ranked)
		return map[string]any{"answer_runes": len([]rune(state.Answer))}, nil
	})
	if state.Answer == "" {
		state.Answer = InternalErrorAnswer
	}
	return state
}

// retrieve runs the route/search loop. Each iteration asks the
// controller for the next action and executes it; the loop ends on a
// generate_response decision, after a terminal semantic search, or once
// the iteration bound is hit. A failed search logs an error step and
// lets the next routing round relax constraints instead of aborting.
func (p *Pipeline) retrieve(ctx context.Context, state *model.PipelineState) bool {
	var previous *model.RoutingDecision

	maxIterations := p.config.Retrieval.MaxRetries + 1
	for i := 0; i < maxIterations; i++ {
		var decision model.RoutingDecision
		ok := p.runStep(state, "route", func() (map[string]any, error) {
			decision = p.controller.MakeRoutingDecision(state.Parsed, state.Validated, previous, len(state.Results))
			state.Decisions = append(state.Decisions, decision)
			return map[string]any{
				"action": decision.Action,
				"reason": decision.Reason,
				"retry":  decision.RetryCount,
			}, nil
		})
		if !ok {
			return false
		}

		if decision.Action == model.ActionGenerateResponse {
			return true
		}

		terminal := decision.Action == model.ActionSemanticSearch
		p.runStep(state, "search", func() (map[string]any, error) {
			results, err := p.executeSearch(ctx, state.Parsed.Original, decision)
			if err != nil {
				return map[string]any{"action": decision.Action}, err
			}
			state.Results = results
			return map[string]any{"action": decision.Action, "results": len(results)}, nil
		})
		if terminal {
			return true
		}
		previous = &decision
	}
	return true
}

// executeSearch dispatches one routing decision to the executor. A
// relax_constraints decision re-runs structured search with the
// already-rebuilt constraint list.
func (p *Pipeline) executeSearch(ctx context.Context, query string, decision model.RoutingDecision) ([]model.SearchResult, error) {
	topK := p.config.Retrieval.TopK
	switch decision.Action {
	case model.ActionStructuredSearch:
		return p.executor.StructuredSearch(ctx, query, decision.Constraints, topK)
	case model.ActionRelaxConstraints:
		if len(decision.Constraints) == 0 {
			return p.executor.HybridSearch(ctx, query, nil, topK)
		}
		return p.executor.StructuredSearch(ctx, query, decision.Constraints, topK)
	case model.ActionSemanticSearch:
		return p.executor.SemanticSearch(ctx, query, topK)
	case model.ActionHybridSearch:
		return p.executor.HybridSearch(ctx, query, decision.Constraints, topK)
	default:
		return nil, fmt.Errorf("unknown routing action: %s", decision.Action)
	}
}

// runStep executes one stage, recording exactly one workflow step with
// timing. A panic inside the stage is converted to a step error so a
// single bad stage cannot take the whole process down.
func (p *Pipeline) runStep(state *model.PipelineState, name string, fn func() (map[string]any, error)) bool {
	started := time.Now()
	detail, err := p.safely(name, fn)
	step := model.WorkflowStep{
		Name:     name,
		Status:   model.StepCompleted,
		Duration: time.Since(started),
		Detail:   detail,
	}
	if err != nil {
		step.Status = model.StepError
		step.Error = err.Error()
		p.logger.Error("pipeline step failed", zap.String("step", name), zap.Error(err))
	}
	state.AddStep(step)
	return err == nil
}

func (p *Pipeline) skipStep(state *model.PipelineState, name string) {
	state.AddStep(model.WorkflowStep{Name: name, Status: model.StepSkipped})
}

func (p *Pipeline) safely(name string, fn func() (map[string]any, error)) (detail map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", name, r)
		}
	}()
	return fn()
}
