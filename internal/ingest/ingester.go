// Package ingest populates the vector store: fetch or read documents,
// extract visible text, chunk, embed, upsert.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noesis-ai/noesis/internal/embed"
	"github.com/noesis-ai/noesis/internal/model"
	"github.com/noesis-ai/noesis/internal/search"
	"github.com/noesis-ai/noesis/internal/worker"
)

// Report summarizes one ingestion run.
type Report struct {
	Sources int
	Chunks  int
	Failed  []string
}

// Ingester turns source documents into embedded chunks in the store.
type Ingester struct {
	fetcher  *Fetcher
	embedder embed.Embedder
	store    search.VectorStore
	cfg      model.IngestConfig
	logger   *zap.Logger
}

// New creates an ingester. fetcher may be nil when only local files
// are ingested.
func New(fetcher *Fetcher, embedder embed.Embedder, store search.VectorStore, cfg model.IngestConfig, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{
		fetcher:  fetcher,
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

// IngestURLs fetches every URL concurrently and indexes its text.
// Individual failures are recorded in the report, not fatal.
func (i *Ingester) IngestURLs(ctx context.Context, urls []string) (*Report, error) {
	if i.fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured")
	}

	report := &Report{Sources: len(urls)}
	var mu sync.Mutex

	pool := worker.NewPool(i.cfg.Workers)
	pool.Start(ctx)
	for _, rawURL := range urls {
		rawURL := rawURL
		pool.Submit(ctx, func(ctx context.Context) error {
			body, err := i.fetcher.Fetch(ctx, rawURL)
			if err != nil {
				mu.Lock()
				report.Failed = append(report.Failed, rawURL)
				mu.Unlock()
				return fmt.Errorf("%s: %w", rawURL, err)
			}
			n, err := i.indexText(ctx, ExtractText(body), rawURL)
			if err != nil {
				mu.Lock()
				report.Failed = append(report.Failed, rawURL)
				mu.Unlock()
				return fmt.Errorf("%s: %w", rawURL, err)
			}
			mu.Lock()
			report.Chunks += n
			mu.Unlock()
			return nil
		})
	}

	for _, err := range pool.Wait() {
		i.logger.Warn("ingest source failed", zap.Error(err))
	}
	i.logger.Info("url ingestion done",
		zap.Int("sources", report.Sources),
		zap.Int("chunks", report.Chunks),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}

// IngestFile indexes a local plain-text or HTML file.
func (i *Ingester) IngestFile(ctx context.Context, path string) (*Report, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	text := string(body)
	if isHTMLFile(path) {
		text = ExtractText(body)
	}

	n, err := i.indexText(ctx, text, path)
	if err != nil {
		return nil, err
	}
	i.logger.Info("file ingested", zap.String("path", path), zap.Int("chunks", n))
	return &Report{Sources: 1, Chunks: n}, nil
}

// indexText chunks, embeds, and upserts one document's text. Returns
// the number of chunks written.
func (i *Ingester) indexText(ctx context.Context, text, source string) (int, error) {
	chunks := ChunkText(text, i.cfg.ChunkSize, i.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	docs := make([]search.Document, 0, len(chunks))
	for idx, chunk := range chunks {
		vector, err := i.embedder.Embed(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", idx, err)
		}
		docs = append(docs, search.Document{
			ID:      uuid.NewString(),
			Content: chunk,
			Vector:  vector,
			Metadata: map[string]string{
				"source": source,
				"chunk":  strconv.Itoa(idx),
			},
		})
	}

	if err := i.store.Upsert(ctx, docs); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}
	return len(docs), nil
}

func isHTMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}
