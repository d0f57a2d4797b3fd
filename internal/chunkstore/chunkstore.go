// Package chunkstore embeds chunk records and persists them in a vector
// index, and answers nearest-neighbour queries over them.
package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"coderag/internal/embedder"
	"coderag/internal/store"
)

// DefaultBatchSize is the number of texts embedded per call.
const DefaultBatchSize = 4

var (
	// ErrInvalidK is returned by Search for a non-positive result count.
	ErrInvalidK = errors.New("k must be a positive integer")
	// ErrDimension is returned when the embedding function produces a vector
	// of the wrong length.
	ErrDimension = errors.New("embedding has wrong dimension")
)

// State describes how a Snapshot was obtained.
type State int

const (
	StateReady State = iota
	StateEmpty
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateEmpty:
		return "empty"
	case StateUnavailable:
		return "unavailable"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Snapshot is the content of the store at the time GetAll ran. When State is
// StateUnavailable, Entries is empty and Err holds the read failure.
type Snapshot struct {
	Entries []store.Entry
	State   State
	Err     error
}

// IDs returns the set of stored ids.
func (s Snapshot) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Entries))
	for _, e := range s.Entries {
		ids[e.ID] = struct{}{}
	}
	return ids
}

// Options configures a Store.
type Options struct {
	// BatchSize is the number of record texts per embedding call. Defaults to
	// DefaultBatchSize.
	BatchSize int
	// Dimensions is the expected embedding length. Zero skips the check and
	// leaves it to the index.
	Dimensions int
	Logger     *slog.Logger
}

// Store persists chunk records in a vector index using an injected embedding
// function.
type Store struct {
	index     store.Index
	embed     embedder.Func
	batchSize int
	dims      int
	logger    *slog.Logger
}

// New creates a Store over idx.
func New(idx store.Index, embed embedder.Func, opts Options) *Store {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		index:     idx,
		embed:     embed,
		batchSize: opts.BatchSize,
		dims:      opts.Dimensions,
		logger:    logger.With("component", "chunkstore"),
	}
}

// BatchSize returns the configured embedding batch size.
func (s *Store) BatchSize() int { return s.batchSize }

// Add embeds and stores records. Records are not checked against existing
// ids; adding a stored id replaces it.
func (s *Store) Add(ctx context.Context, records []Record) error {
	for start := 0; start < len(records); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := records[start:min(start+s.batchSize, len(records))]

		ids := make([]string, len(batch))
		texts := make([]string, len(batch))
		metas := make([]store.Metadata, len(batch))
		for i, r := range batch {
			ids[i] = r.ID
			texts[i] = r.Text
			metas[i] = r.Metadata()
		}

		embs, err := s.embedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if err := s.index.Add(ctx, ids, texts, embs, metas); err != nil {
			return fmt.Errorf("store batch: %w", err)
		}
		s.logger.Debug("stored batch", "records", len(batch), "first_id", ids[0])
	}
	return nil
}

// GetAll returns every stored id and its metadata. It never fails: a read
// error yields an empty snapshot in StateUnavailable.
func (s *Store) GetAll(ctx context.Context) Snapshot {
	entries, err := s.index.Get(ctx)
	if err != nil {
		return Snapshot{State: StateUnavailable, Err: err}
	}
	if len(entries) == 0 {
		return Snapshot{State: StateEmpty}
	}
	return Snapshot{Entries: entries, State: StateReady}
}

// Search returns the k records nearest to query, nearest first. A store with
// fewer than k records returns all of them.
func (s *Store) Search(ctx context.Context, query string, k int) (store.QueryResult, error) {
	if k <= 0 {
		return store.QueryResult{}, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	embs, err := s.embedTexts(ctx, []string{query})
	if err != nil {
		return store.QueryResult{}, err
	}
	res, err := s.index.Query(ctx, embs[0], k)
	if err != nil {
		return store.QueryResult{}, fmt.Errorf("query index: %w", err)
	}
	return res, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.index.Count(ctx)
}

func (s *Store) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	embs, err := s.embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(embs) != len(texts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d texts", len(embs), len(texts))
	}
	if s.dims > 0 {
		for _, e := range embs {
			if len(e) != s.dims {
				return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(e), s.dims)
			}
		}
	}
	return embs, nil
}
