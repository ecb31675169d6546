package parse

import (
	"regexp"
	"strings"

	"github.com/noesis-ai/noesis/internal/model"
)

// Deterministic parse used when the model call or its output is unusable.
// Rule entities are kept, then cheap lexical extraction fills the gaps.

var (
	quotedPattern      = regexp.MustCompile(`["'“”‘’「」]([^"'“”‘’「」]{1,50})["'“”‘’「」]`)
	productCodePattern = regexp.MustCompile(`\b[A-Za-z]{1,10}[-_]?\d{1,6}[A-Za-z0-9]*\b`)
	yearPattern        = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	latinWordPattern   = regexp.MustCompile(`[A-Za-z]{2,}`)
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "in": true, "on": true,
	"for": true, "and": true, "or": true, "is": true, "are": true,
	"what": true, "how": true, "why": true, "who": true, "which": true,
	"to": true, "with": true, "about": true,
}

// Intent trigger words for the keyword-based inference.
var (
	comparisonWords = []string{"对比", "比较", "区别", "差异", "哪个好", "vs", "versus", "compare", "difference"}
	proceduralWords = []string{"怎么", "如何", "怎样", "步骤", "教程", "how to", "how do", "steps"}
	conceptualWords = []string{"是什么", "什么是", "概念", "原理", "介绍", "what is", "explain", "meaning"}
)

func (p *Parser) fallback(query string, ruleEntities []model.ExtractedEntity) *model.ParsedQuery {
	entities := make([]model.ExtractedEntity, 0, len(ruleEntities)+4)
	seen := make(map[string]bool)

	add := func(name string, typ model.EntityType, conf float64) {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		entities = append(entities, model.ExtractedEntity{
			Name:       strings.TrimSpace(name),
			Type:       typ,
			Text:       strings.TrimSpace(name),
			Confidence: conf,
		})
	}

	for _, ent := range ruleEntities {
		key := strings.ToLower(ent.Name)
		if !seen[key] {
			seen[key] = true
			entities = append(entities, ent)
		}
	}

	// Quoted substrings are explicit user emphasis
	for _, m := range quotedPattern.FindAllStringSubmatch(query, -1) {
		add(m[1], model.EntityOther, 0.7)
	}

	// Alphanumeric product codes ("RTX4090", "GPT-4")
	for _, m := range productCodePattern.FindAllString(query, -1) {
		add(m, model.EntityProduct, 0.6)
	}

	// 4-digit years
	for _, m := range yearPattern.FindAllString(query, -1) {
		add(m, model.EntityDate, 0.6)
	}

	return &model.ParsedQuery{
		Original:   query,
		Entities:   entities,
		Intent:     inferIntent(query),
		Complexity: complexityFor(len(entities)),
		Confidence: 0.5,
		Keywords:   extractKeywords(query),
	}
}

// inferIntent picks an intent from trigger keywords, defaulting to factual.
func inferIntent(query string) model.Intent {
	q := strings.ToLower(query)

	for _, w := range comparisonWords {
		if strings.Contains(q, w) {
			return model.IntentComparison
		}
	}
	for _, w := range proceduralWords {
		if strings.Contains(q, w) {
			return model.IntentProcedural
		}
	}
	for _, w := range conceptualWords {
		if strings.Contains(q, w) {
			return model.IntentConceptual
		}
	}
	return model.IntentFactual
}

// extractKeywords pulls stop-word-filtered Latin words out of the query.
// CJK segmentation is left to the model path; the fallback stays cheap.
func extractKeywords(query string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, w := range latinWordPattern.FindAllString(query, -1) {
		lw := strings.ToLower(w)
		if stopWords[lw] || seen[lw] {
			continue
		}
		seen[lw] = true
		out = append(out, w)
	}
	return out
}
