package model

// MatchType tags which retrieval path produced a result.
type MatchType string

const (
	MatchStructured MatchType = "structured"
	MatchSemantic   MatchType = "semantic"
	MatchHybrid     MatchType = "hybrid"
)

// SearchResult is a retrieved document chunk with its similarity score.
type SearchResult struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Score     float64           `json:"score"` // Similarity, possibly constraint-boosted
	Metadata  map[string]string `json:"metadata,omitempty"`
	MatchType MatchType         `json:"match_type"`
}

// RankedResult is a SearchResult re-scored by the model-based judge.
type RankedResult struct {
	SearchResult
	RerankScore float64 `json:"rerank_score"`
	Explanation string  `json:"explanation,omitempty"`
}
