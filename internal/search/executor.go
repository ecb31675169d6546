package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noesis-ai/noesis/internal/embed"
	"github.com/noesis-ai/noesis/internal/llm"
	"github.com/noesis-ai/noesis/internal/model"
)

// Per-constraint score boost for hits that literally contain the
// constraint value. Capped at 1.0.
const constraintBoost = 1.1

// Executor runs retrieval against the vector store.
type Executor struct {
	store    VectorStore
	embedder embed.Embedder
	provider llm.Provider
	cfg      model.RetrievalConfig
	logger   *zap.Logger
}

// NewExecutor creates a retrieval executor. provider may be nil; reranking
// then keeps similarity scores.
func NewExecutor(store VectorStore, embedder embed.Embedder, provider llm.Provider, cfg model.RetrievalConfig, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{store: store, embedder: embedder, provider: provider, cfg: cfg, logger: logger}
}

// StructuredSearch runs similarity search biased by entity constraints.
// The store only supports a contains filter on the free-text field, so
// entity-typed constraint values are appended to the query text before
// embedding instead of being pushed down; hits containing constraint
// values literally get their scores boosted.
func (e *Executor) StructuredSearch(ctx context.Context, query string, constraints []model.SearchConstraint, topK int) ([]model.SearchResult, error) {
	augmented := query
	contains := ""
	for _, c := range constraints {
		if c.Field == "text" && contains == "" {
			contains = c.Value
			continue
		}
		if !strings.Contains(augmented, c.Value) {
			augmented += " " + c.Value
		}
	}

	vec, err := e.embedder.Embed(ctx, augmented)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := e.store.Search(ctx, vec, Options{
		TopK:     topK,
		Floor:    e.cfg.SimilarityFloor,
		Contains: contains,
	})
	if err != nil {
		return nil, err
	}

	for i := range hits {
		hits[i].MatchType = model.MatchStructured
		hits[i].Score = boostScore(hits[i].Score, hits[i].Content, constraints)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	e.logger.Debug("structured search",
		zap.String("query", query),
		zap.Int("constraints", len(constraints)),
		zap.Int("hits", len(hits)))
	return hits, nil
}

// SemanticSearch runs plain nearest-neighbor search, no constraints.
func (e *Executor) SemanticSearch(ctx context.Context, query string, topK int) ([]model.SearchResult, error) {
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := e.store.Search(ctx, vec, Options{
		TopK:  topK,
		Floor: e.cfg.SimilarityFloor,
	})
	if err != nil {
		return nil, err
	}

	for i := range hits {
		hits[i].MatchType = model.MatchSemantic
	}

	e.logger.Debug("semantic search",
		zap.String("query", query),
		zap.Int("hits", len(hits)))
	return hits, nil
}

// HybridSearch issues the structured and semantic searches concurrently,
// unions results by id keeping the higher score, re-sorts descending, and
// truncates to topK. The merge pass itself runs single-threaded for
// determinism.
func (e *Executor) HybridSearch(ctx context.Context, query string, constraints []model.SearchConstraint, topK int) ([]model.SearchResult, error) {
	var wg sync.WaitGroup
	var structured, semantic []model.SearchResult
	var structuredErr, semanticErr error

	// A panicking leg must not take down the caller's goroutine tree.
	runLeg := func(out *[]model.SearchResult, errOut *error, fn func() ([]model.SearchResult, error)) {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				*errOut = fmt.Errorf("search leg panic: %v", r)
			}
		}()
		*out, *errOut = fn()
	}

	wg.Add(2)
	go runLeg(&structured, &structuredErr, func() ([]model.SearchResult, error) {
		return e.StructuredSearch(ctx, query, constraints, topK)
	})
	go runLeg(&semantic, &semanticErr, func() ([]model.SearchResult, error) {
		return e.SemanticSearch(ctx, query, topK)
	})
	wg.Wait()

	if structuredErr != nil && semanticErr != nil {
		return nil, fmt.Errorf("hybrid search: structured: %v; semantic: %w", structuredErr, semanticErr)
	}
	if structuredErr != nil {
		e.logger.Warn("hybrid: structured leg failed, semantic only", zap.Error(structuredErr))
	}
	if semanticErr != nil {
		e.logger.Warn("hybrid: semantic leg failed, structured only", zap.Error(semanticErr))
	}

	merged := make(map[string]model.SearchResult, len(structured)+len(semantic))
	for _, hit := range structured {
		merged[hit.ID] = hit
	}
	for _, hit := range semantic {
		if existing, ok := merged[hit.ID]; !ok || hit.Score > existing.Score {
			merged[hit.ID] = hit
		}
	}

	out := make([]model.SearchResult, 0, len(merged))
	for _, hit := range merged {
		hit.MatchType = model.MatchHybrid
		out = append(out, hit)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// boostScore applies +10% per constraint value literally present in the
// hit content, capped at 1.0.
func boostScore(score float64, content string, constraints []model.SearchConstraint) float64 {
	lower := strings.ToLower(content)
	for _, c := range constraints {
		if c.Value != "" && strings.Contains(lower, strings.ToLower(c.Value)) {
			score *= constraintBoost
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
