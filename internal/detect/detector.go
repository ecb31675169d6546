// Package detect spots entities in query text with dictionaries and
// literal patterns. It runs before any model call, is purely synchronous,
// and its hits take priority over model extraction downstream.
package detect

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/noesis-ai/noesis/internal/model"
)

// Tiered confidence per dictionary. Alias hits are the most trustworthy:
// a colloquial alias is almost never an accidental substring.
const (
	confAlias   = 0.95
	confPlace   = 0.93
	confOrg     = 0.92
	confPerson  = 0.92
	confProduct = 0.90
	confConcept = 0.85
)

// errorCodePattern matches "error 404", "错误码500", "code 1045" style
// mentions, which read as CONCEPT entities for retrieval purposes.
var errorCodePattern = regexp.MustCompile(`(?i)(?:error|err|code|错误码?|报错)\s*[:：]?\s*(\d{3,5})`)

// Detector is the rule-based entity spotter.
type Detector struct{}

// New creates a Detector.
func New() *Detector {
	return &Detector{}
}

// Detect scans text against the ordered dictionaries using literal
// substring containment and returns entities with tiered confidence.
func (d *Detector) Detect(text string) []model.ExtractedEntity {
	lower := strings.ToLower(text)
	var out []model.ExtractedEntity
	seen := make(map[string]bool)

	add := func(name string, typ model.EntityType, matched string, conf float64, preMapped bool) {
		key := strings.ToLower(name)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, model.ExtractedEntity{
			Name:       name,
			Type:       typ,
			Text:       matched,
			Confidence: conf,
			PreMapped:  preMapped,
		})
	}

	// Alias dictionary first: the canonical name is reported, the alias is
	// kept as the matched text.
	for _, alias := range sortedAliasKeys() {
		if strings.Contains(text, alias) {
			add(placeAliases[alias], model.EntityLocation, alias, confAlias, true)
		}
	}

	for _, name := range placeNames {
		if strings.Contains(text, name) {
			add(name, model.EntityLocation, name, confPlace, false)
		}
	}
	for _, name := range organizations {
		if containsFold(lower, name) {
			add(name, model.EntityOrganization, name, confOrg, false)
		}
	}
	for _, name := range persons {
		if strings.Contains(text, name) {
			add(name, model.EntityPerson, name, confPerson, false)
		}
	}
	for _, name := range products {
		if containsFold(lower, name) {
			add(name, model.EntityProduct, name, confProduct, false)
		}
	}
	for _, name := range concepts {
		if containsFold(lower, name) {
			add(name, model.EntityConcept, name, confConcept, false)
		}
	}

	for _, m := range errorCodePattern.FindAllStringSubmatch(text, -1) {
		add(fmt.Sprintf("错误码%s", m[1]), model.EntityConcept, m[0], confConcept, false)
	}

	return out
}

// Preprocess annotates detected alias phrases in place as
// `alias(即canonical)` and returns the alias-to-canonical mapping. Small
// models receive the annotated text so they see canonical names without a
// separate resolution step.
func (d *Detector) Preprocess(text string) (string, map[string]string) {
	mapping := make(map[string]string)
	annotated := text

	for _, alias := range sortedAliasKeys() {
		if !strings.Contains(annotated, alias) {
			continue
		}
		canonical := placeAliases[alias]
		mapping[alias] = canonical
		annotated = strings.ReplaceAll(annotated, alias, fmt.Sprintf("%s(即%s)", alias, canonical))
	}

	return annotated, mapping
}

// Postprocess reconciles model output with the pre-mapping: pre-mapped
// entities win over model output, and any model entity named after a known
// alias is corrected to its canonical form.
func (d *Detector) Postprocess(modelEntities []model.ExtractedEntity, preMapped map[string]string) []model.ExtractedEntity {
	out := make([]model.ExtractedEntity, 0, len(modelEntities)+len(preMapped))
	seen := make(map[string]bool)

	// Pre-mapped canonicals injected first.
	for _, alias := range sortedKeys(preMapped) {
		canonical := preMapped[alias]
		key := strings.ToLower(canonical)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, model.ExtractedEntity{
			Name:       canonical,
			Type:       model.EntityLocation,
			Text:       alias,
			Confidence: confAlias,
			PreMapped:  true,
		})
	}

	for _, ent := range modelEntities {
		// Correct names that are actually known aliases.
		if canonical, ok := placeAliases[ent.Name]; ok {
			ent.Text = ent.Name
			ent.Name = canonical
			ent.Type = model.EntityLocation
		} else if canonical, ok := preMapped[ent.Name]; ok {
			ent.Text = ent.Name
			ent.Name = canonical
		}

		key := strings.ToLower(ent.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ent)
	}

	return out
}

// containsFold is substring containment that is case-insensitive for
// Latin dictionary entries (CJK entries are unaffected by folding).
func containsFold(lowerText, name string) bool {
	return strings.Contains(lowerText, strings.ToLower(name))
}

// sortedAliasKeys returns alias dictionary keys in stable order.
func sortedAliasKeys() []string {
	keys := make([]string, 0, len(placeAliases))
	for k := range placeAliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
