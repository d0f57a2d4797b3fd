// Package embedder turns text into fixed-dimension vectors using a local
// Ollama server or any OpenAI-compatible embeddings endpoint.
package embedder

import (
	"context"
	"errors"
	"fmt"
)

// Func embeds a batch of texts. The result has the same length and order as
// the input.
type Func func(ctx context.Context, texts []string) ([][]float32, error)

// Embedder is a concrete embedding backend. Its Embed method value satisfies
// Func.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Model returns the configured model name.
	Model() string
}

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	DefaultOllamaURL = "http://localhost:11434"
)

// ErrMissingAPIKey is returned when a hosted provider has no credentials.
var ErrMissingAPIKey = errors.New("missing API key")

// Config selects and configures an embedding backend.
type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

// New creates the embedder described by cfg.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case ProviderOllama, "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		return NewOllamaEmbedder(baseURL, cfg.Model), nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai embedder: %w", ErrMissingAPIKey)
		}
		return NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
