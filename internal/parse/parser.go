// Package parse turns a raw user query into a structured interpretation:
// entities, logical relations, intent, complexity, keywords. Parsing never
// fails — when the model call or its output is unusable, a deterministic
// fallback produces a lower-confidence result.
package parse

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noesis-ai/noesis/internal/detect"
	"github.com/noesis-ai/noesis/internal/llm"
	"github.com/noesis-ai/noesis/internal/model"
)

// greetingPatterns covers small talk that needs no retrieval at all.
var greetingPatterns = []string{
	"你好", "您好", "嗨", "哈喽", "早上好", "下午好", "晚上好",
	"谢谢", "多谢", "再见", "拜拜",
	"hello", "hi", "hey", "thanks", "thank you", "bye", "goodbye",
}

const defaultConfidence = 0.8

// Parser is the cognitive query parser.
type Parser struct {
	provider llm.Provider
	detector *detect.Detector
	logger   *zap.Logger
}

// New creates a parser. provider may be nil; parsing then always takes the
// deterministic fallback path.
func New(provider llm.Provider, detector *detect.Detector, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if detector == nil {
		detector = detect.New()
	}
	return &Parser{provider: provider, detector: detector, logger: logger}
}

// parserResponse is the structured output requested from the model.
type parserResponse struct {
	Entities []struct {
		Name       string  `json:"name"`
		Type       string  `json:"type"`
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"entities"`
	Relations []struct {
		Subject  string `json:"subject"`
		Relation string `json:"relation"`
		Object   string `json:"object"`
	} `json:"relations"`
	Intent     string   `json:"intent"`
	Complexity string   `json:"complexity"`
	Confidence float64  `json:"confidence"`
	Keywords   []string `json:"keywords"`
}

// Parse produces a ParsedQuery for the given query and model identifier.
func (p *Parser) Parse(ctx context.Context, query, modelName string) *model.ParsedQuery {
	query = strings.TrimSpace(query)

	if isGreeting(query) {
		return &model.ParsedQuery{
			Original:   query,
			Entities:   []model.ExtractedEntity{},
			Intent:     model.IntentExploratory,
			Complexity: model.ComplexitySimple,
			Confidence: 0.95,
			SmallTalk:  true,
		}
	}

	ruleEntities := p.detector.Detect(query)

	if p.provider == nil {
		return p.fallback(query, ruleEntities)
	}

	capability := llm.ClassifyModel(modelName)

	// Small models get the alias-annotated text so canonical names are in
	// front of them; bigger models handle raw text fine.
	modelInput := query
	var preMapped map[string]string
	if capability == llm.CapabilityLow {
		modelInput, preMapped = p.detector.Preprocess(query)
	}

	resp, err := p.provider.Complete(ctx, llm.CompletionRequest{
		System:   extractionSystemPrompt,
		Prompt:   extractionPrompt(modelInput),
		Model:    modelName,
		JSONOnly: true,
	})
	if err != nil {
		p.logger.Warn("extraction model call failed, using fallback parse",
			zap.String("model", modelName), zap.Error(err))
		return p.fallback(query, ruleEntities)
	}

	var decoded parserResponse
	if err := llm.DecodeJSON(resp.Text, &decoded); err != nil {
		p.logger.Warn("extraction response undecodable, using fallback parse",
			zap.String("model", modelName), zap.Error(err))
		return p.fallback(query, ruleEntities)
	}

	modelEntities := make([]model.ExtractedEntity, 0, len(decoded.Entities))
	for _, e := range decoded.Entities {
		ent := model.ExtractedEntity{
			Name:       strings.TrimSpace(e.Name),
			Type:       model.NormalizeEntityType(e.Type),
			Text:       strings.TrimSpace(e.Text),
			Confidence: clamp01(e.Confidence, defaultConfidence),
		}
		if ent.Name == "" {
			continue
		}
		// Anti-hallucination guard: the entity must literally appear in
		// what the model was shown or in the original query.
		if !appearsIn(ent, query, modelInput) {
			continue
		}
		modelEntities = append(modelEntities, ent)
	}

	if capability == llm.CapabilityLow {
		modelEntities = p.detector.Postprocess(modelEntities, preMapped)
	}

	entities := mergeEntities(ruleEntities, modelEntities)

	relations := make([]model.LogicalRelation, 0, len(decoded.Relations))
	for _, rel := range decoded.Relations {
		if rel.Subject != "" && rel.Object != "" {
			relations = append(relations, model.LogicalRelation{
				Subject:  rel.Subject,
				Relation: rel.Relation,
				Object:   rel.Object,
			})
		}
	}

	confidence := decoded.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = defaultConfidence
	}

	return &model.ParsedQuery{
		Original:   query,
		Entities:   entities,
		Relations:  relations,
		Intent:     normalizeIntent(decoded.Intent),
		Complexity: complexityFor(len(entities)),
		Confidence: confidence,
		Keywords:   decoded.Keywords,
	}
}

const extractionSystemPrompt = `你是一个查询理解引擎。只输出一个JSON对象，不要输出任何其他文字。`

func extractionPrompt(query string) string {
	return fmt.Sprintf(`分析下面的用户查询，输出严格的JSON：
{
  "entities": [{"name": "实体名", "type": "PERSON|ORGANIZATION|LOCATION|PRODUCT|DATE|EVENT|CONCEPT|OTHER", "text": "原文中的文字", "confidence": 0.9}],
  "relations": [{"subject": "主体", "relation": "关系", "object": "客体"}],
  "intent": "factual|conceptual|comparison|procedural|exploratory",
  "complexity": "simple|moderate|complex",
  "confidence": 0.9,
  "keywords": ["关键词"]
}

规则：
- entities 只能包含查询原文中出现的内容，禁止推测或补充
- 查询中括号标注 "X(即Y)" 表示 X 是 Y 的别名，实体名用 Y

查询：%s`, query)
}

// appearsIn enforces the anti-hallucination invariant: an entity survives
// only if its name or matched text is a case-insensitive substring of the
// original or annotated query.
func appearsIn(ent model.ExtractedEntity, original, annotated string) bool {
	lo := strings.ToLower(original)
	la := strings.ToLower(annotated)
	name := strings.ToLower(ent.Name)
	if strings.Contains(lo, name) || strings.Contains(la, name) {
		return true
	}
	if ent.Text != "" {
		text := strings.ToLower(ent.Text)
		if strings.Contains(lo, text) || strings.Contains(la, text) {
			return true
		}
	}
	return false
}

// mergeEntities injects rule entities first (they take priority), then
// model entities, de-duplicating by lower-cased name.
func mergeEntities(rule, fromModel []model.ExtractedEntity) []model.ExtractedEntity {
	out := make([]model.ExtractedEntity, 0, len(rule)+len(fromModel))
	seen := make(map[string]bool)

	for _, ent := range rule {
		key := strings.ToLower(ent.Name)
		if !seen[key] {
			seen[key] = true
			out = append(out, ent)
		}
	}
	for _, ent := range fromModel {
		key := strings.ToLower(ent.Name)
		if !seen[key] {
			seen[key] = true
			out = append(out, ent)
		}
	}
	return out
}

func complexityFor(entityCount int) model.Complexity {
	switch {
	case entityCount > 2:
		return model.ComplexityComplex
	case entityCount > 0:
		return model.ComplexityModerate
	default:
		return model.ComplexitySimple
	}
}

func normalizeIntent(s string) model.Intent {
	switch model.Intent(strings.ToLower(strings.TrimSpace(s))) {
	case model.IntentFactual:
		return model.IntentFactual
	case model.IntentConceptual:
		return model.IntentConceptual
	case model.IntentComparison:
		return model.IntentComparison
	case model.IntentProcedural:
		return model.IntentProcedural
	case model.IntentExploratory:
		return model.IntentExploratory
	default:
		return model.IntentFactual
	}
}

func isGreeting(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	q = strings.Trim(q, "!！?？。.,，~ ")
	if q == "" {
		return false
	}
	for _, pat := range greetingPatterns {
		if q == pat {
			return true
		}
	}
	// Short queries that start with a greeting and carry nothing else
	for _, pat := range greetingPatterns {
		if strings.HasPrefix(q, pat) && len([]rune(q)) <= len([]rune(pat))+2 {
			return true
		}
	}
	return false
}

func clamp01(v, fallback float64) float64 {
	if v <= 0 || v > 1 {
		return fallback
	}
	return v
}
