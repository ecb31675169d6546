package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/noesis-ai/noesis/internal/model"
	"github.com/noesis-ai/noesis/internal/search"
)

type captureStore struct {
	mu   sync.Mutex
	docs []search.Document
}

func (s *captureStore) Upsert(ctx context.Context, docs []search.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, docs...)
	return nil
}

func (s *captureStore) Search(ctx context.Context, vector []float32, opts search.Options) ([]model.SearchResult, error) {
	return nil, nil
}

func (s *captureStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.docs)), nil
}

func (s *captureStore) Close() error { return nil }

type constEmbedder struct{}

func (constEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (constEmbedder) Dimensions() int { return 2 }

func TestIngestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("上海是中国的经济中心。商汤科技总部位于上海。"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := &captureStore{}
	ing := New(nil, constEmbedder{}, store, model.IngestConfig{ChunkSize: 800, ChunkOverlap: 80}, nil)

	report, err := ing.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if report.Chunks != 1 || len(store.docs) != 1 {
		t.Fatalf("report = %+v, docs = %d", report, len(store.docs))
	}

	doc := store.docs[0]
	if doc.ID == "" || doc.Vector == nil {
		t.Errorf("doc = %+v", doc)
	}
	if doc.Metadata["source"] != path || doc.Metadata["chunk"] != "0" {
		t.Errorf("metadata = %v", doc.Metadata)
	}
}

func TestIngestHTMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	page := "<html><body><script>x()</script><p>上海的公司名录。</p></body></html>"
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := &captureStore{}
	ing := New(nil, constEmbedder{}, store, model.IngestConfig{ChunkSize: 800, ChunkOverlap: 80}, nil)

	if _, err := ing.IngestFile(context.Background(), path); err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if len(store.docs) != 1 {
		t.Fatalf("docs = %d", len(store.docs))
	}
	content := store.docs[0].Content
	if content == "" || strings.Contains(content, "x()") {
		t.Errorf("content = %q", content)
	}
}

func TestIngestURLsWithoutFetcher(t *testing.T) {
	ing := New(nil, constEmbedder{}, &captureStore{}, model.IngestConfig{}, nil)
	if _, err := ing.IngestURLs(context.Background(), []string{"https://example.com"}); err == nil {
		t.Error("expected error without a fetcher")
	}
}
