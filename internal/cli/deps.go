package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noesis-ai/noesis/internal/cache"
	"github.com/noesis-ai/noesis/internal/embed"
	"github.com/noesis-ai/noesis/internal/llm"
	"github.com/noesis-ai/noesis/internal/logger"
	"github.com/noesis-ai/noesis/internal/model"
	"github.com/noesis-ai/noesis/internal/registry"
	"github.com/noesis-ai/noesis/internal/search"
)

// runtimeDeps bundles the shared resources commands run against.
type runtimeDeps struct {
	Logger   *zap.Logger
	Registry *registry.Registry
	Store    *search.SQLiteStore
	Embedder embed.Embedder
	Provider llm.Provider
	Cache    cache.Cache
}

// buildDeps opens every backing resource a command needs. Callers must
// Close() when done.
func buildDeps(ctx context.Context, cfg *model.Config) (*runtimeDeps, error) {
	log, err := logger.New(cfg.Logging.Env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	reg, err := registry.New(cfg.Registry.Path, log)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	store, err := search.OpenSQLite(ctx, cfg.Store.Path, cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		log.Warn("chat provider unavailable, degrading to rule-based parsing", zap.Error(err))
		provider = nil
	}

	var c cache.Cache
	ttl := time.Duration(cfg.Cache.TTL) * time.Second
	if cfg.Cache.Enabled {
		c = cache.NewLayeredCache(ttl, cfg.Cache.Dir, ttl)
	}

	var embedder embed.Embedder = embed.NewOpenAIEmbedder(embed.ConfigFromModel(cfg.Embedding))
	if c != nil {
		embedder = embed.NewCachedEmbedder(embedder, c, ttl)
	}

	return &runtimeDeps{
		Logger:   log,
		Registry: reg,
		Store:    store,
		Embedder: embedder,
		Provider: provider,
		Cache:    c,
	}, nil
}

// newCommandLogger builds a logger for commands that do not need the
// full dependency set.
func newCommandLogger(cfg *model.Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.Logging.Env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func (d *runtimeDeps) Close() {
	if err := d.Store.Close(); err != nil {
		d.Logger.Warn("close store", zap.Error(err))
	}
	_ = d.Logger.Sync()
}
