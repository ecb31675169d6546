package llm

import "strings"

// Capability grades a model by how reliably it follows structured-output
// instructions. Small local models need alias pre-annotation and more
// defensive parsing.
type Capability int

const (
	CapabilityLow Capability = iota
	CapabilityMedium
	CapabilityHigh
)

func (c Capability) String() string {
	switch c {
	case CapabilityLow:
		return "low"
	case CapabilityMedium:
		return "medium"
	default:
		return "high"
	}
}

var lowMarkers = []string{"0.5b", "1b", "1.5b", "2b"}
var mediumMarkers = []string{"3b", "4b", "7b", "8b"}

// ClassifyModel infers a capability tier from the model identifier string.
// Parameter-size markers decide first; known small-model families without a
// size marker get fixed overrides; everything else is assumed high.
func ClassifyModel(name string) Capability {
	n := strings.ToLower(name)

	for _, m := range lowMarkers {
		if strings.Contains(n, m) {
			return CapabilityLow
		}
	}
	for _, m := range mediumMarkers {
		if strings.Contains(n, m) {
			return CapabilityMedium
		}
	}

	// Families whose names often carry no size marker
	if strings.Contains(n, "deepseek-r1") || strings.Contains(n, "qwen3") {
		return CapabilityMedium
	}

	return CapabilityHigh
}
