package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/philippgille/chromem-go"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "code_embeddings"

// ChromemOptions configures a chromem-go backed index.
type ChromemOptions struct {
	// Dir is the persistence directory. Empty keeps the index in memory.
	Dir        string
	Collection string
	Dimensions int
	Compress   bool
}

// ChromemIndex implements Index on a chromem-go collection.
type ChromemIndex struct {
	db   *chromem.DB
	col  *chromem.Collection
	dims int
}

// OpenChromem opens or creates the collection described by opts.
func OpenChromem(opts ChromemOptions) (*ChromemIndex, error) {
	if opts.Dimensions <= 0 {
		return nil, fmt.Errorf("invalid dimensions %d", opts.Dimensions)
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}

	var db *chromem.DB
	if opts.Dir == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(opts.Dir, opts.Compress)
		if err != nil {
			return nil, fmt.Errorf("open chromem db %s: %w", opts.Dir, err)
		}
	}

	col, err := db.GetOrCreateCollection(opts.Collection, nil, suppliedEmbeddings)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", opts.Collection, err)
	}
	return &ChromemIndex{db: db, col: col, dims: opts.Dimensions}, nil
}

// suppliedEmbeddings is registered as the collection's embedding function.
// Every call site passes precomputed vectors, so reaching it is a bug.
func suppliedEmbeddings(context.Context, string) ([]float32, error) {
	return nil, errors.New("chromem index: embeddings must be supplied by the caller")
}

func (c *ChromemIndex) Add(ctx context.Context, ids, documents []string, embeddings [][]float32, metadatas []Metadata) error {
	if err := checkAdd(c.dims, ids, documents, embeddings, metadatas); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(ids))
	for i, id := range ids {
		meta, err := toChromemMetadata(Sanitize(metadatas[i]))
		if err != nil {
			return fmt.Errorf("document %s: %w", id, err)
		}
		// chromem normalizes in place; keep the caller's slice intact.
		emb := make([]float32, len(embeddings[i]))
		copy(emb, embeddings[i])
		docs[i] = chromem.Document{
			ID:        id,
			Metadata:  meta,
			Embedding: emb,
			Content:   documents[i],
		}
	}
	if err := c.col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Get returns every document. chromem has no listing call, so the collection
// is queried for all of its documents with an arbitrary unit vector.
func (c *ChromemIndex) Get(ctx context.Context) ([]Entry, error) {
	n := c.col.Count()
	if n == 0 {
		return nil, nil
	}
	results, err := c.col.QueryEmbedding(ctx, c.unitVector(), n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	entries := make([]Entry, len(results))
	for i, r := range results {
		entries[i] = Entry{ID: r.ID, Document: r.Content, Metadata: fromChromemMetadata(r.Metadata)}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (c *ChromemIndex) Query(ctx context.Context, embedding []float32, n int) (QueryResult, error) {
	if n <= 0 {
		return QueryResult{}, fmt.Errorf("invalid result count %d", n)
	}
	if err := checkDims(c.dims, embedding); err != nil {
		return QueryResult{}, err
	}
	count := c.col.Count()
	if count == 0 {
		return EmptyResult(), nil
	}
	if n > count {
		n = count
	}
	q := make([]float32, len(embedding))
	copy(q, embedding)

	results, err := c.col.QueryEmbedding(ctx, q, n, nil, nil)
	if err != nil {
		return QueryResult{}, fmt.Errorf("query: %w", err)
	}
	out := EmptyResult()
	for _, r := range results {
		out.IDs[0] = append(out.IDs[0], r.ID)
		out.Distances[0] = append(out.Distances[0], 1-float64(r.Similarity))
		out.Metadatas[0] = append(out.Metadatas[0], fromChromemMetadata(r.Metadata))
		out.Documents[0] = append(out.Documents[0], r.Content)
	}
	return out, nil
}

func (c *ChromemIndex) Count(context.Context) (int, error) {
	return c.col.Count(), nil
}

// Close is a no-op: chromem persists every write as it happens.
func (c *ChromemIndex) Close() error {
	return nil
}

func (c *ChromemIndex) unitVector() []float32 {
	v := make([]float32, c.dims)
	v[0] = 1
	return v
}

func toChromemMetadata(m Metadata) (map[string]string, error) {
	out := make(map[string]string, len(m))
	for k, v := range m {
		s, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("metadata %s: %w", k, err)
		}
		out[k] = s
	}
	return out, nil
}

func fromChromemMetadata(m map[string]string) Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = decodeValue(v)
	}
	return out
}
