// Package search executes structured, semantic, and hybrid retrieval
// against the vector store and reranks candidates with a model judge.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sqvect "github.com/liliang-cn/sqvect/v2/pkg/core"

	"github.com/noesis-ai/noesis/internal/model"
)

// Document is a chunk stored in the vector index.
type Document struct {
	ID       string
	Content  string
	Vector   []float32
	Metadata map[string]string
}

// Options bound a single store query. Contains, when set, restricts hits
// to those whose free-text content literally contains the value — the only
// pushdown filter the store contract supports.
type Options struct {
	TopK     int
	Floor    float64 // minimum similarity
	Contains string
}

// VectorStore is the similarity-store collaborator contract.
type VectorStore interface {
	Upsert(ctx context.Context, docs []Document) error
	Search(ctx context.Context, vector []float32, opts Options) ([]model.SearchResult, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

// SQLiteStore backs the VectorStore contract with an embedded sqvect
// index: no server to run, one file on disk.
type SQLiteStore struct {
	store *sqvect.SQLiteStore
}

// OpenSQLite opens (creating if needed) the vector store at path.
func OpenSQLite(ctx context.Context, path string, dimensions int) (*SQLiteStore, error) {
	store, err := sqvect.New(path, dimensions)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}
	return &SQLiteStore{store: store}, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, docs []Document) error {
	embs := make([]*sqvect.Embedding, 0, len(docs))
	for _, doc := range docs {
		embs = append(embs, &sqvect.Embedding{
			ID:       doc.ID,
			Vector:   doc.Vector,
			Content:  doc.Content,
			Metadata: doc.Metadata,
		})
	}
	if err := s.store.UpsertBatch(ctx, embs); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Search(ctx context.Context, vector []float32, opts Options) ([]model.SearchResult, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 10
	}

	// Over-fetch when a contains filter applies; it is enforced here, not
	// inside the index.
	fetch := topK
	if opts.Contains != "" {
		fetch = topK * 3
	}

	scored, err := s.store.Search(ctx, vector, sqvect.SearchOptions{
		TopK:      fetch,
		Threshold: opts.Floor,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	needle := strings.ToLower(opts.Contains)
	out := make([]model.SearchResult, 0, len(scored))
	for _, hit := range scored {
		if needle != "" && !strings.Contains(strings.ToLower(hit.Content), needle) {
			continue
		}
		out = append(out, model.SearchResult{
			ID:       hit.ID,
			Content:  hit.Content,
			Score:    hit.Score,
			Metadata: hit.Metadata,
		})
		if len(out) == topK {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return 0, fmt.Errorf("store stats: %w", err)
	}
	return stats.Count, nil
}

func (s *SQLiteStore) Close() error {
	return s.store.Close()
}
