package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
)

// ErrDimensionMismatch is returned when an embedding's length differs from
// the dimension the index was opened with.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Metadata is a flat attribute map attached to every stored document. After
// Sanitize it only holds primitive values: bool, string, integers and floats.
type Metadata map[string]any

// String returns the value under key rendered as a string, or "".
func (m Metadata) String(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns the integer value under key. Floats with no fractional part
// are accepted; anything else reports false.
func (m Metadata) Int(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	case float32:
		if f := float64(v); f == math.Trunc(f) {
			return int(f), true
		}
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	}
	return 0, false
}

// Sanitize returns a copy of in that only holds primitive values. Nil values
// and nil pointers become "", pointers to primitives are dereferenced and any
// other value is rendered with fmt.Sprint.
func Sanitize(in map[string]any) Metadata {
	out := make(Metadata, len(in))
	for k, v := range in {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch v.(type) {
	case nil:
		return ""
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return ""
		}
		return sanitizeValue(rv.Elem().Interface())
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
	}
	return fmt.Sprint(v)
}

// Entry is a stored document as returned by Index.Get.
type Entry struct {
	ID       string
	Document string
	Metadata Metadata
}

// QueryResult holds nearest-neighbour results as parallel arrays grouped by
// query. Index 0 is the only batch; entries are ordered by ascending
// distance.
type QueryResult struct {
	IDs       [][]string
	Distances [][]float64
	Metadatas [][]Metadata
	Documents [][]string
}

// EmptyResult returns a result with a single empty batch.
func EmptyResult() QueryResult {
	return QueryResult{
		IDs:       [][]string{{}},
		Distances: [][]float64{{}},
		Metadatas: [][]Metadata{{}},
		Documents: [][]string{{}},
	}
}

// Len returns the number of hits in the first batch.
func (r QueryResult) Len() int {
	if len(r.IDs) == 0 {
		return 0
	}
	return len(r.IDs[0])
}

// Index is a persistent vector index keyed by document id. Adding an id that
// already exists replaces the stored document.
type Index interface {
	// Add stores documents with their embeddings and metadata. All slices
	// must have the same length.
	Add(ctx context.Context, ids, documents []string, embeddings [][]float32, metadatas []Metadata) error
	// Get returns every stored document ordered by id.
	Get(ctx context.Context) ([]Entry, error)
	// Query returns up to n documents nearest to embedding.
	Query(ctx context.Context, embedding []float32, n int) (QueryResult, error)
	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
	// Close releases the underlying handle.
	Close() error
}

func checkAdd(dims int, ids, documents []string, embeddings [][]float32, metadatas []Metadata) error {
	if len(documents) != len(ids) || len(embeddings) != len(ids) || len(metadatas) != len(ids) {
		return fmt.Errorf("mismatched batch: %d ids, %d documents, %d embeddings, %d metadatas",
			len(ids), len(documents), len(embeddings), len(metadatas))
	}
	for i, emb := range embeddings {
		if err := checkDims(dims, emb); err != nil {
			return fmt.Errorf("document %s: %w", ids[i], err)
		}
	}
	return nil
}

func checkDims(dims int, emb []float32) error {
	if len(emb) != dims {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(emb), dims)
	}
	return nil
}

// encodeValue renders a sanitized value as a JSON literal.
func encodeValue(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeValue parses a JSON literal written by encodeValue. Values that are
// not valid JSON are returned as plain strings.
func decodeValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return normalizeNumber(v)
}

func decodeMetadata(raw string) (Metadata, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = normalizeNumber(v)
	}
	return out, nil
}

// normalizeNumber turns whole JSON numbers back into ints.
func normalizeNumber(v any) any {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int(f)
	}
	return f
}
