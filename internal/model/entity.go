package model

import "strings"

// EntityType classifies a named entity mentioned in a query.
type EntityType string

const (
	EntityPerson       EntityType = "PERSON"
	EntityOrganization EntityType = "ORGANIZATION"
	EntityLocation     EntityType = "LOCATION"
	EntityProduct      EntityType = "PRODUCT"
	EntityDate         EntityType = "DATE"
	EntityEvent        EntityType = "EVENT"
	EntityConcept      EntityType = "CONCEPT"
	EntityOther        EntityType = "OTHER"
)

// entityTypeAliases maps variant spellings seen in model output to the
// closed enumeration.
var entityTypeAliases = map[string]EntityType{
	"PERSON":       EntityPerson,
	"PEOPLE":       EntityPerson,
	"NAME":         EntityPerson,
	"ORGANIZATION": EntityOrganization,
	"ORGANISATION": EntityOrganization,
	"ORG":          EntityOrganization,
	"COMPANY":      EntityOrganization,
	"LOCATION":     EntityLocation,
	"PLACE":        EntityLocation,
	"CITY":         EntityLocation,
	"GPE":          EntityLocation,
	"PRODUCT":      EntityProduct,
	"DATE":         EntityDate,
	"TIME":         EntityDate,
	"YEAR":         EntityDate,
	"EVENT":        EntityEvent,
	"CONCEPT":      EntityConcept,
	"TERM":         EntityConcept,
	"TOPIC":        EntityConcept,
	"OTHER":        EntityOther,
}

// NormalizeEntityType maps an open string (lower-case, variant spellings,
// unknown labels) to the nearest enum member, falling back to OTHER.
func NormalizeEntityType(s string) EntityType {
	if t, ok := entityTypeAliases[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return t
	}
	return EntityOther
}

// ExtractedEntity is a named entity produced by the rule detector or the
// cognitive parser.
type ExtractedEntity struct {
	Name       string     `json:"name"`
	Type       EntityType `json:"type"`
	Text       string     `json:"text,omitempty"`       // The literal text that matched
	Confidence float64    `json:"confidence"`           // [0,1]
	PreMapped  bool       `json:"pre_mapped,omitempty"` // Originated from a rule-based alias pre-mapping
}

// ValidatedEntity is an ExtractedEntity checked against the entity registry.
type ValidatedEntity struct {
	ExtractedEntity
	Valid        bool     `json:"valid"`
	Canonical    string   `json:"canonical"`              // Canonical name (may equal Name)
	MatchScore   float64  `json:"match_score"`            // [0,1]
	Alternatives []string `json:"alternatives,omitempty"` // Suggested alternative names
}
