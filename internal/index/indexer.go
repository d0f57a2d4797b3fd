// Package index drives a full indexing run: walk a project, chunk every
// recognized file and store the records that are not stored yet.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"coderag/internal/chunker"
	"coderag/internal/chunkstore"
)

// ErrInvalidRoot is returned when the project root is missing or is not a
// directory.
var ErrInvalidRoot = errors.New("invalid project root")

// DefaultLanguages are indexed when Config.Languages is empty.
var DefaultLanguages = []string{"typescript", "tsx"}

// ProgressFunc receives progress updates. done and total count records for
// the "embed" stage and files for the "chunk" stage.
type ProgressFunc func(stage string, done, total int)

// Config holds the indexer configuration.
type Config struct {
	// Languages restricts the walk to the extensions of these registered
	// languages.
	Languages []string
	// Exclude lists extra ignore patterns.
	Exclude    []string
	OnProgress ProgressFunc
	Logger     *slog.Logger
}

// Stats reports indexing results.
type Stats struct {
	FilesTotal    int
	FilesFailed   int
	ChunksTotal   int
	ChunksSkipped int
	ChunksAdded   int
	Batches       int
}

// Indexer embeds the units of a project into a chunk store.
type Indexer struct {
	store    *chunkstore.Store
	chunker  *chunker.ASTChunker
	registry *chunker.Registry
	config   Config
	logger   *slog.Logger
}

// New creates an Indexer.
func New(s *chunkstore.Store, reg *chunker.Registry, cfg Config) *Indexer {
	if len(cfg.Languages) == 0 {
		cfg.Languages = DefaultLanguages
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:    s,
		chunker:  chunker.NewASTChunker(reg),
		registry: reg,
		config:   cfg,
		logger:   logger.With("component", "indexer"),
	}
}

// Index indexes the codebase at root. Records already in the store are not
// embedded again, so an interrupted run can simply be repeated. On
// cancellation the stats gathered so far are returned with ctx.Err().
func (idx *Indexer) Index(ctx context.Context, root string) (*Stats, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}
	return runPipeline(ctx, root, idx)
}

func (idx *Indexer) progress(stage string, done, total int) {
	if idx.config.OnProgress != nil {
		idx.config.OnProgress(stage, done, total)
	}
}
