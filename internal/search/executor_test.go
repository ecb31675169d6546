package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/noesis-ai/noesis/internal/llm"
	"github.com/noesis-ai/noesis/internal/model"
)

// fakeStore serves canned results, optionally failing.
type fakeStore struct {
	results []model.SearchResult
	err     error

	mu       sync.Mutex
	lastOpts Options
}

func (s *fakeStore) Upsert(ctx context.Context, docs []Document) error { return nil }

func (s *fakeStore) Search(ctx context.Context, vector []float32, opts Options) ([]model.SearchResult, error) {
	s.mu.Lock()
	s.lastOpts = opts
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.SearchResult, len(s.results))
	copy(out, s.results)
	return out, nil
}

func (s *fakeStore) Count(ctx context.Context) (int64, error) { return int64(len(s.results)), nil }
func (s *fakeStore) Close() error                             { return nil }

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (e *fakeEmbedder) Dimensions() int { return 3 }

func testRetrievalConfig() model.RetrievalConfig {
	return model.RetrievalConfig{TopK: 10, MinResults: 1, MaxRetries: 3, SimilarityFloor: 0.3, RerankTopK: 5}
}

func TestStructuredSearchBoostsConstraintHits(t *testing.T) {
	store := &fakeStore{results: []model.SearchResult{
		{ID: "a", Content: "上海的人工智能公司名录", Score: 0.5},
		{ID: "b", Content: "广州的餐饮指南", Score: 0.6},
	}}
	e := NewExecutor(store, &fakeEmbedder{}, nil, testRetrievalConfig(), nil)

	constraints := []model.SearchConstraint{
		{Field: "location", Operator: model.OpContains, Value: "上海", Priority: 4},
	}
	got, err := e.StructuredSearch(context.Background(), "人工智能公司", constraints, 10)
	if err != nil {
		t.Fatalf("StructuredSearch: %v", err)
	}

	// a: 0.5*1.1 = 0.55, b unchanged at 0.6; both tagged structured.
	byID := map[string]model.SearchResult{}
	for _, hit := range got {
		byID[hit.ID] = hit
		if hit.MatchType != model.MatchStructured {
			t.Errorf("MatchType = %s, want structured", hit.MatchType)
		}
	}
	if byID["a"].Score <= 0.5 {
		t.Errorf("constraint hit not boosted: %v", byID["a"].Score)
	}
	if byID["b"].Score != 0.6 {
		t.Errorf("non-matching hit changed: %v", byID["b"].Score)
	}
}

func TestBoostScoreCap(t *testing.T) {
	constraints := []model.SearchConstraint{
		{Value: "上海"}, {Value: "公司"},
	}
	got := boostScore(0.95, "上海的公司", constraints)
	if got != 1.0 {
		t.Errorf("boostScore = %v, want capped 1.0", got)
	}
}

func TestStructuredSearchTextConstraintPushdown(t *testing.T) {
	store := &fakeStore{}
	e := NewExecutor(store, &fakeEmbedder{}, nil, testRetrievalConfig(), nil)

	constraints := []model.SearchConstraint{
		{Field: "text", Operator: model.OpContains, Value: "错误码404", Priority: 7},
	}
	if _, err := e.StructuredSearch(context.Background(), "报错404", constraints, 10); err != nil {
		t.Fatalf("StructuredSearch: %v", err)
	}
	if store.lastOpts.Contains != "错误码404" {
		t.Errorf("Contains = %q, want pushdown of text constraint", store.lastOpts.Contains)
	}
}

func TestSemanticSearchTagsResults(t *testing.T) {
	store := &fakeStore{results: []model.SearchResult{{ID: "a", Content: "x", Score: 0.8}}}
	e := NewExecutor(store, &fakeEmbedder{}, nil, testRetrievalConfig(), nil)

	got, err := e.SemanticSearch(context.Background(), "查询", 10)
	if err != nil {
		t.Fatalf("SemanticSearch: %v", err)
	}
	if len(got) != 1 || got[0].MatchType != model.MatchSemantic {
		t.Errorf("got = %v", got)
	}
}

func TestSemanticSearchEmbedError(t *testing.T) {
	e := NewExecutor(&fakeStore{}, &fakeEmbedder{err: errors.New("embed down")}, nil, testRetrievalConfig(), nil)

	if _, err := e.SemanticSearch(context.Background(), "查询", 10); err == nil {
		t.Error("expected error when embedding fails")
	}
}

func TestHybridSearchMergesKeepingMaxScore(t *testing.T) {
	store := &fakeStore{results: []model.SearchResult{
		{ID: "a", Content: "上海 文档", Score: 0.5},
		{ID: "b", Content: "其他文档", Score: 0.4},
	}}
	e := NewExecutor(store, &fakeEmbedder{}, nil, testRetrievalConfig(), nil)

	constraints := []model.SearchConstraint{
		{Field: "location", Operator: model.OpContains, Value: "上海", Priority: 4},
	}
	got, err := e.HybridSearch(context.Background(), "查询", constraints, 10)
	if err != nil {
		t.Fatalf("HybridSearch: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("merged %d results, want 2", len(got))
	}
	for _, hit := range got {
		if hit.MatchType != model.MatchHybrid {
			t.Errorf("MatchType = %s, want hybrid", hit.MatchType)
		}
	}
	// "a" matched the constraint in the structured leg: 0.5*1.1 = 0.55,
	// which outranks its semantic 0.5.
	if got[0].ID != "a" || got[0].Score <= 0.5 {
		t.Errorf("top hit = %+v, want boosted a", got[0])
	}
	// Descending order with ID tiebreak.
	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Errorf("results not sorted: %v", got)
		}
	}
}

func TestHybridSearchTruncates(t *testing.T) {
	var results []model.SearchResult
	for _, id := range []string{"a", "b", "c", "d"} {
		results = append(results, model.SearchResult{ID: id, Content: id, Score: 0.5})
	}
	store := &fakeStore{results: results}
	e := NewExecutor(store, &fakeEmbedder{}, nil, testRetrievalConfig(), nil)

	got, err := e.HybridSearch(context.Background(), "查询", nil, 2)
	if err != nil {
		t.Fatalf("HybridSearch: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestHybridSearchBothLegsFail(t *testing.T) {
	e := NewExecutor(&fakeStore{err: errors.New("store down")}, &fakeEmbedder{}, nil, testRetrievalConfig(), nil)

	if _, err := e.HybridSearch(context.Background(), "查询", nil, 10); err == nil {
		t.Error("expected error when both legs fail")
	}
}

// judgeProvider scores every snippet with a fixed judgment.
type judgeProvider struct {
	text string
	err  error
}

func (p *judgeProvider) Name() string { return "judge" }

func (p *judgeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Text: p.text}, nil
}

func (p *judgeProvider) IsAvailable(ctx context.Context) bool { return true }

func rerankInput() ([]model.SearchResult, *model.ParsedQuery) {
	results := []model.SearchResult{
		{ID: "a", Content: "上海的人工智能公司", Score: 0.6},
		{ID: "b", Content: "无关内容", Score: 0.9},
	}
	parsed := &model.ParsedQuery{
		Original: "魔都有哪些人工智能公司",
		Entities: []model.ExtractedEntity{{Name: "上海", Type: model.EntityLocation}},
		Intent:   model.IntentFactual,
	}
	return results, parsed
}

func TestRerankNilProviderKeepsSimilarity(t *testing.T) {
	e := NewExecutor(&fakeStore{}, &fakeEmbedder{}, nil, testRetrievalConfig(), nil)
	results, parsed := rerankInput()

	got := e.Rerank(context.Background(), results, parsed, 5)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Similarity order preserved: b (0.9) over a (0.6).
	if got[0].ID != "b" || got[0].RerankScore != 0.9 {
		t.Errorf("top = %+v", got[0])
	}
	for _, r := range got {
		if r.Explanation != rerankFallbackExplanation {
			t.Errorf("Explanation = %q", r.Explanation)
		}
	}
}

func TestRerankModelReorders(t *testing.T) {
	provider := &judgeProvider{text: `{"score": 0.95, "reason": "直接相关"}`}
	e := NewExecutor(&fakeStore{}, &fakeEmbedder{}, provider, testRetrievalConfig(), nil)

	results := []model.SearchResult{{ID: "a", Content: "上海", Score: 0.4}}
	_, parsed := rerankInput()

	got := e.Rerank(context.Background(), results, parsed, 5)
	if got[0].RerankScore != 0.95 || got[0].Explanation != "直接相关" {
		t.Errorf("got = %+v", got[0])
	}
}

func TestRerankFailedJudgeKeepsScores(t *testing.T) {
	provider := &judgeProvider{err: errors.New("model down")}
	e := NewExecutor(&fakeStore{}, &fakeEmbedder{}, provider, testRetrievalConfig(), nil)
	results, parsed := rerankInput()

	got := e.Rerank(context.Background(), results, parsed, 5)

	if len(got) != len(results) {
		t.Fatalf("rerank changed length: %d != %d", len(got), len(results))
	}
	for _, r := range got {
		if r.RerankScore != r.Score {
			t.Errorf("score changed on failure: %+v", r)
		}
	}
}

func TestRerankInvalidScoreRejected(t *testing.T) {
	provider := &judgeProvider{text: `{"score": 7.5, "reason": "越界"}`}
	e := NewExecutor(&fakeStore{}, &fakeEmbedder{}, provider, testRetrievalConfig(), nil)
	results, parsed := rerankInput()

	got := e.Rerank(context.Background(), results, parsed, 5)
	for _, r := range got {
		if r.RerankScore != r.Score {
			t.Errorf("out-of-range judgment applied: %+v", r)
		}
	}
}

func TestRerankTruncatesToTopK(t *testing.T) {
	e := NewExecutor(&fakeStore{}, &fakeEmbedder{}, nil, testRetrievalConfig(), nil)

	var results []model.SearchResult
	for i := 0; i < 8; i++ {
		results = append(results, model.SearchResult{ID: string(rune('a' + i)), Score: 0.5})
	}
	got := e.Rerank(context.Background(), results, &model.ParsedQuery{}, 3)
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}
