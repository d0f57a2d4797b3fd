// Package app wires configuration into the services used by every surface:
// the vector index, the chunk store, the indexer and the answer pipeline.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"coderag/internal/chunker"
	"coderag/internal/chunker/languages"
	"coderag/internal/chunkstore"
	"coderag/internal/config"
	"coderag/internal/embedder"
	"coderag/internal/graph"
	"coderag/internal/index"
	"coderag/internal/llm"
	"coderag/internal/rag"
	"coderag/internal/store"
)

// App owns the open index handle. Close it on every exit path.
type App struct {
	Config   *config.Config
	Registry *chunker.Registry
	Store    *chunkstore.Store

	index    store.Index
	embedder embedder.Embedder
	logger   *slog.Logger

	genOnce sync.Once
	gen     llm.Generator
	genErr  error
}

// Open constructs the services described by cfg. Relative store directories
// are resolved against root.
func Open(cfg *config.Config, root string, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	emb, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return nil, err
	}

	idx, err := OpenIndex(cfg.Store, cfg.Embedding.Dimensions, root)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Registry: languages.Default(),
		index:    idx,
		logger:   logger,
	}
	a.setEmbedder(emb)
	return a, nil
}

func newEmbedder(ec config.EmbeddingConfig) (embedder.Embedder, error) {
	emb, err := embedder.New(embedder.Config{
		Provider: ec.Provider,
		Model:    ec.Model,
		BaseURL:  ec.BaseURL,
		APIKey:   ec.APIKey(),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return emb, nil
}

func (a *App) setEmbedder(emb embedder.Embedder) {
	a.embedder = emb
	a.Store = chunkstore.New(a.index, emb.Embed, chunkstore.Options{
		BatchSize:  a.Config.Index.BatchSize,
		Dimensions: a.Config.Embedding.Dimensions,
		Logger:     a.logger,
	})
}

// UseModels switches the embedding and answer models. Empty names keep the
// current model. The answer model can only change before the generator is
// first used.
func (a *App) UseModels(embedModel, chatModel string) error {
	if embedModel != "" && embedModel != a.Config.Embedding.Model {
		ec := a.Config.Embedding
		ec.Model = embedModel
		emb, err := newEmbedder(ec)
		if err != nil {
			return err
		}
		a.Config.Embedding = ec
		a.setEmbedder(emb)
	}
	if chatModel != "" && chatModel != a.Config.Generation.Model {
		if a.gen != nil || a.genErr != nil {
			return errors.New("answer model already in use")
		}
		a.Config.Generation.Model = chatModel
	}
	return nil
}

// OpenIndex opens the configured vector index backend.
func OpenIndex(sc config.StoreConfig, dims int, root string) (store.Index, error) {
	dir := sc.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	switch sc.Backend {
	case config.BackendSQLite:
		idx, err := store.OpenSQLite(dir, dims)
		if err != nil {
			return nil, fmt.Errorf("open sqlite index: %w", err)
		}
		return idx, nil
	case config.BackendChromem, "":
		idx, err := store.OpenChromem(store.ChromemOptions{
			Dir:        dir,
			Collection: sc.Collection,
			Dimensions: dims,
		})
		if err != nil {
			return nil, fmt.Errorf("open chromem index: %w", err)
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", sc.Backend)
	}
}

// Indexer returns an indexer over the app's store.
func (a *App) Indexer(onProgress index.ProgressFunc) *index.Indexer {
	return index.New(a.Store, a.Registry, index.Config{
		Languages:  a.Config.Index.Languages,
		Exclude:    a.Config.Index.Exclude,
		OnProgress: onProgress,
		Logger:     a.logger,
	})
}

// Graph returns a code graph builder over the app's registry.
func (a *App) Graph() *graph.Builder {
	return graph.NewBuilder(a.Registry, a.logger)
}

// Generator returns the configured generator, creating it on first use so
// that indexing never needs generation credentials.
func (a *App) Generator() (llm.Generator, error) {
	a.genOnce.Do(func() {
		g := a.Config.Generation
		a.gen, a.genErr = llm.New(llm.Config{
			Provider:    g.Provider,
			Model:       g.Model,
			BaseURL:     g.BaseURL,
			APIKey:      g.APIKey(),
			Temperature: g.Temperature,
			MaxTokens:   g.MaxTokens,
		})
	})
	return a.gen, a.genErr
}

// Pipeline returns the question answering pipeline.
func (a *App) Pipeline() (*rag.Pipeline, error) {
	gen, err := a.Generator()
	if err != nil {
		return nil, err
	}
	return rag.NewPipeline(a.Store, gen, rag.Options{
		K:                a.Config.Retrieval.K,
		MaxContextTokens: a.Config.Retrieval.MaxContextTokens,
		Logger:           a.logger,
	}), nil
}

// EmbeddingModel returns the name of the embedding model in use.
func (a *App) EmbeddingModel() string {
	return a.embedder.Model()
}

// Close releases the index handle.
func (a *App) Close() error {
	if a.index == nil {
		return errors.New("app already closed")
	}
	err := a.index.Close()
	a.index = nil
	return err
}
