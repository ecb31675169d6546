// Package strategy validates parsed entities against the registry and
// decides, one iteration at a time, how the next retrieval attempt should
// run: constrained, unconstrained, hybrid, or relaxed.
package strategy

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noesis-ai/noesis/internal/llm"
	"github.com/noesis-ai/noesis/internal/model"
	"github.com/noesis-ai/noesis/internal/registry"
)

const validationCandidates = 5

// typePriority orders entity types from most to least selective. Priority
// is the index; relaxation drops from the tail of this list first.
var typePriority = []model.EntityType{
	model.EntityProduct,
	model.EntityPerson,
	model.EntityOrganization,
	model.EntityEvent,
	model.EntityLocation,
	model.EntityDate,
	model.EntityConcept,
	model.EntityOther,
}

// typeField maps an entity type to the store field its constraint targets.
var typeField = map[model.EntityType]string{
	model.EntityPerson:       "person",
	model.EntityOrganization: "organization",
	model.EntityLocation:     "location",
	model.EntityProduct:      "product",
	model.EntityDate:         "date",
	model.EntityEvent:        "event",
	model.EntityConcept:      "concept",
	model.EntityOther:        "text",
}

// Controller owns entity validation and routing.
type Controller struct {
	registry *registry.Registry
	provider llm.Provider
	cfg      model.RetrievalConfig
	logger   *zap.Logger
}

// New creates a strategy controller. provider may be nil; validation then
// never consults the model.
func New(reg *registry.Registry, provider llm.Provider, cfg model.RetrievalConfig, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{registry: reg, provider: provider, cfg: cfg, logger: logger}
}

// adjudication is the structured output of the model match judgment.
type adjudication struct {
	Match        bool     `json:"match"`
	MatchedName  string   `json:"matched_name"`
	Confidence   float64  `json:"confidence"`
	Canonical    string   `json:"canonical_name"`
	Alternatives []string `json:"alternatives"`
}

// ValidateEntities checks each extracted entity against the registry.
// Deterministic tiers (alias-exact, name-exact) resolve without a model
// call; ambiguous candidate sets go to the model; a failed model call
// accepts the original name with score 0.5.
func (c *Controller) ValidateEntities(ctx context.Context, entities []model.ExtractedEntity) []model.ValidatedEntity {
	out := make([]model.ValidatedEntity, 0, len(entities))
	for _, ent := range entities {
		out = append(out, c.validateOne(ctx, ent))
	}
	return out
}

func (c *Controller) validateOne(ctx context.Context, ent model.ExtractedEntity) model.ValidatedEntity {
	candidates := c.registry.FindSimilar(ent.Name, ent.Type, validationCandidates)
	if len(candidates) == 0 {
		// Unknown to the registry: accept as-is.
		return model.ValidatedEntity{
			ExtractedEntity: ent,
			Valid:           true,
			Canonical:       ent.Name,
			MatchScore:      1.0,
		}
	}

	lower := strings.ToLower(ent.Name)

	// Alias-exact tier
	for _, cand := range candidates {
		for _, alias := range cand.Aliases {
			if strings.ToLower(alias) == lower {
				return model.ValidatedEntity{
					ExtractedEntity: ent,
					Valid:           true,
					Canonical:       cand.Name,
					MatchScore:      1.0,
					Alternatives:    otherNames(candidates, cand.Name),
				}
			}
		}
	}

	// Name-exact tier
	for _, cand := range candidates {
		if strings.ToLower(cand.Name) == lower {
			return model.ValidatedEntity{
				ExtractedEntity: ent,
				Valid:           true,
				Canonical:       cand.Name,
				MatchScore:      1.0,
				Alternatives:    otherNames(candidates, cand.Name),
			}
		}
	}

	// Ambiguous: let the model adjudicate among the candidates.
	if c.provider != nil {
		if v, ok := c.adjudicate(ctx, ent, candidates); ok {
			return v
		}
	}

	// Model unavailable or failed: accept the original name, half score.
	return model.ValidatedEntity{
		ExtractedEntity: ent,
		Valid:           true,
		Canonical:       ent.Name,
		MatchScore:      0.5,
		Alternatives:    otherNames(candidates, ""),
	}
}

func (c *Controller) adjudicate(ctx context.Context, ent model.ExtractedEntity, candidates []registry.Record) (model.ValidatedEntity, bool) {
	var b strings.Builder
	for i, cand := range candidates {
		fmt.Fprintf(&b, "%d. %s (类型:%s", i+1, cand.Name, cand.Type)
		if len(cand.Aliases) > 0 {
			fmt.Fprintf(&b, ", 别名:%s", strings.Join(cand.Aliases, "/"))
		}
		b.WriteString(")\n")
	}

	prompt := fmt.Sprintf(`判断实体 "%s"(类型:%s) 是否指向下列候选实体之一：
%s
只输出JSON：{"match": true或false, "matched_name": "命中的候选名", "confidence": 0.9, "canonical_name": "规范名", "alternatives": ["其他可能的名称"]}`,
		ent.Name, ent.Type, b.String())

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:   prompt,
		JSONOnly: true,
	})
	if err != nil {
		c.logger.Warn("entity adjudication call failed",
			zap.String("entity", ent.Name), zap.Error(err))
		return model.ValidatedEntity{}, false
	}

	var adj adjudication
	if err := llm.DecodeJSON(resp.Text, &adj); err != nil {
		c.logger.Warn("entity adjudication undecodable",
			zap.String("entity", ent.Name), zap.Error(err))
		return model.ValidatedEntity{}, false
	}

	score := adj.Confidence
	if score <= 0 || score > 1 {
		score = 0.8
	}

	if adj.Match {
		canonical := adj.Canonical
		if canonical == "" {
			canonical = adj.MatchedName
		}
		if canonical == "" {
			canonical = ent.Name
		}
		return model.ValidatedEntity{
			ExtractedEntity: ent,
			Valid:           true,
			Canonical:       canonical,
			MatchScore:      score,
			Alternatives:    adj.Alternatives,
		}, true
	}

	// No match: keep the original name, surface the candidates as
	// suggestions for the caller (who may promote the entity).
	return model.ValidatedEntity{
		ExtractedEntity: ent,
		Valid:           true,
		Canonical:       ent.Name,
		MatchScore:      score,
		Alternatives:    otherNames(candidates, ""),
	}, true
}

func otherNames(candidates []registry.Record, except string) []string {
	var out []string
	for _, cand := range candidates {
		if cand.Name != except {
			out = append(out, cand.Name)
		}
	}
	return out
}

// MakeRoutingDecision computes the next retrieval action. Pure: no I/O,
// no mutation of its inputs. previous is nil on the first iteration;
// resultCount is the number of results accumulated so far.
func (c *Controller) MakeRoutingDecision(
	parsed *model.ParsedQuery,
	validated []model.ValidatedEntity,
	previous *model.RoutingDecision,
	resultCount int,
) model.RoutingDecision {
	retry := 0
	var relaxed []model.EntityType
	if previous != nil {
		retry = previous.RetryCount
		relaxed = append(relaxed, previous.RelaxedTypes...)
	}

	if resultCount >= c.cfg.MinResults {
		d := model.RoutingDecision{
			Action:       model.ActionGenerateResponse,
			RelaxedTypes: relaxed,
			RetryCount:   retry,
			MaxRetries:   c.cfg.MaxRetries,
			Reason:       "sufficient results",
		}
		if previous != nil {
			d.Constraints = previous.Constraints
		}
		return d
	}

	if retry >= c.cfg.MaxRetries {
		return model.RoutingDecision{
			Action:       model.ActionSemanticSearch,
			RelaxedTypes: relaxed,
			RetryCount:   retry,
			MaxRetries:   c.cfg.MaxRetries,
			Reason:       "exhausted retries, degrade to pure semantic",
		}
	}

	if parsed.Intent == model.IntentConceptual || parsed.Intent == model.IntentExploratory {
		return model.RoutingDecision{
			Action:       model.ActionSemanticSearch,
			RelaxedTypes: relaxed,
			RetryCount:   0,
			MaxRetries:   c.cfg.MaxRetries,
			Reason:       fmt.Sprintf("%s intent favors unconstrained semantic search", parsed.Intent),
		}
	}

	constraints := buildConstraints(validated, relaxed)

	previousSearchEmpty := previous != nil && isSearchAction(previous.Action) && resultCount == 0
	if len(constraints) == 0 || previousSearchEmpty {
		if t, ok := lowestPriorityType(validated, relaxed); ok {
			relaxed = append(relaxed, t)
			return model.RoutingDecision{
				Action:       model.ActionRelaxConstraints,
				Constraints:  buildConstraints(validated, relaxed),
				RelaxedTypes: relaxed,
				RetryCount:   retry + 1,
				MaxRetries:   c.cfg.MaxRetries,
				Reason:       fmt.Sprintf("relaxing %s constraint", t),
			}
		}
	}

	if len(constraints) > 0 {
		return model.RoutingDecision{
			Action:       model.ActionStructuredSearch,
			Constraints:  constraints,
			RelaxedTypes: relaxed,
			RetryCount:   retry,
			MaxRetries:   c.cfg.MaxRetries,
			Reason:       fmt.Sprintf("%d entity constraints active", len(constraints)),
		}
	}

	return model.RoutingDecision{
		Action:       model.ActionHybridSearch,
		RelaxedTypes: relaxed,
		RetryCount:   retry,
		MaxRetries:   c.cfg.MaxRetries,
		Reason:       "no usable constraints, hybrid search",
	}
}

// buildConstraints turns valid, not-yet-relaxed entities into an ordered
// constraint list, sorted ascending by priority.
func buildConstraints(validated []model.ValidatedEntity, relaxed []model.EntityType) []model.SearchConstraint {
	relaxedSet := make(map[model.EntityType]bool, len(relaxed))
	for _, t := range relaxed {
		relaxedSet[t] = true
	}

	var out []model.SearchConstraint
	for _, ent := range validated {
		if !ent.Valid || relaxedSet[ent.Type] {
			continue
		}
		out = append(out, model.SearchConstraint{
			Field:    typeField[ent.Type],
			Operator: model.OpContains,
			Value:    ent.Canonical,
			Priority: priorityOf(ent.Type),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// lowestPriorityType picks the least selective entity type present among
// valid entities that has not been relaxed yet.
func lowestPriorityType(validated []model.ValidatedEntity, relaxed []model.EntityType) (model.EntityType, bool) {
	relaxedSet := make(map[model.EntityType]bool, len(relaxed))
	for _, t := range relaxed {
		relaxedSet[t] = true
	}

	best := -1
	var bestType model.EntityType
	for _, ent := range validated {
		if !ent.Valid || relaxedSet[ent.Type] {
			continue
		}
		if p := priorityOf(ent.Type); p > best {
			best = p
			bestType = ent.Type
		}
	}
	return bestType, best >= 0
}

func priorityOf(t model.EntityType) int {
	for i, pt := range typePriority {
		if pt == t {
			return i
		}
	}
	return len(typePriority)
}

func isSearchAction(a model.Action) bool {
	switch a {
	case model.ActionStructuredSearch, model.ActionSemanticSearch,
		model.ActionHybridSearch, model.ActionRelaxConstraints:
		return true
	default:
		return false
	}
}
