// Package embed wraps the embedding client the retrieval executor and the
// ingester share. The provider is treated as a black-box text-in,
// vector-out service.
package embed

import (
	"context"

	"github.com/noesis-ai/noesis/internal/model"
)

// Embedder converts text into a fixed-length float vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

// ConfigFromModel converts model.EmbeddingConfig to embed.Config.
func ConfigFromModel(mc model.EmbeddingConfig) Config {
	return Config{
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Model:      mc.Model,
		Dimensions: mc.Dimensions,
	}
}
