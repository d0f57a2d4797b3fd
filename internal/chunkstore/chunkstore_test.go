package chunkstore

import (
	"context"
	"errors"
	"hash/fnv"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"coderag/internal/chunker"
	"coderag/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Embedder ---

const dims = 8

type mockEmbedder struct {
	calls atomic.Int64
	texts atomic.Int64
	err   error
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	m.texts.Add(int64(len(texts)))
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		h := fnv.New32a()
		h.Write([]byte(t))
		v := make([]float32, dims)
		v[h.Sum32()%dims] = 1
		out[i] = v
	}
	return out, nil
}

// --- Mock Index ---

type mockIndex struct {
	docs    map[string]store.Entry
	adds    [][]string
	getErr  error
	lastN   int
	queries int
}

func newMockIndex() *mockIndex {
	return &mockIndex{docs: make(map[string]store.Entry)}
}

func (m *mockIndex) Add(_ context.Context, ids, documents []string, _ [][]float32, metadatas []store.Metadata) error {
	m.adds = append(m.adds, append([]string(nil), ids...))
	for i, id := range ids {
		m.docs[id] = store.Entry{ID: id, Document: documents[i], Metadata: metadatas[i]}
	}
	return nil
}

func (m *mockIndex) Get(context.Context) ([]store.Entry, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []store.Entry
	for _, e := range m.docs {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockIndex) Query(_ context.Context, _ []float32, n int) (store.QueryResult, error) {
	m.queries++
	m.lastN = n
	res := store.EmptyResult()
	entries, _ := m.Get(context.Background())
	for i, e := range entries {
		if i == n {
			break
		}
		res.IDs[0] = append(res.IDs[0], e.ID)
		res.Distances[0] = append(res.Distances[0], float64(i))
		res.Metadatas[0] = append(res.Metadatas[0], e.Metadata)
		res.Documents[0] = append(res.Documents[0], e.Document)
	}
	return res, nil
}

func (m *mockIndex) Count(context.Context) (int, error) { return len(m.docs), nil }
func (m *mockIndex) Close() error                       { return nil }

func unit(path string, start, end int, name string) chunker.SourceUnit {
	return chunker.SourceUnit{
		FilePath:  path,
		Language:  "typescript",
		Kind:      chunker.KindFunction,
		Name:      name,
		StartLine: start,
		EndLine:   end,
		Text:      "function " + name + "() {}",
	}
}

// --- Tests ---

func TestRecordIDAndMetadata(t *testing.T) {
	r := NewRecord(unit("src/a.ts", 3, 7, ""))
	assert.Equal(t, "src/a.ts:3-7", r.ID)
	assert.Equal(t, store.Metadata{
		KeyFilePath:  "src/a.ts",
		KeyName:      "",
		KeyKind:      "function",
		KeyStartLine: 3,
		KeyEndLine:   7,
		KeyLanguage:  "typescript",
	}, r.Metadata())
}

func TestAdd_BatchesEmbeddingCalls(t *testing.T) {
	idx := newMockIndex()
	emb := &mockEmbedder{}
	s := New(idx, emb.Embed, Options{Dimensions: dims})

	var records []Record
	for i := 1; i <= 10; i++ {
		records = append(records, NewRecord(unit("a.ts", i, i, "f")))
	}
	require.NoError(t, s.Add(context.Background(), records))

	assert.EqualValues(t, 3, emb.calls.Load())
	assert.EqualValues(t, 10, emb.texts.Load())
	require.Len(t, idx.adds, 3)
	assert.Len(t, idx.adds[0], 4)
	assert.Len(t, idx.adds[2], 2)
	assert.Len(t, idx.docs, 10)
}

func TestAdd_EmptyIsNoop(t *testing.T) {
	idx := newMockIndex()
	emb := &mockEmbedder{}
	s := New(idx, emb.Embed, Options{})

	require.NoError(t, s.Add(context.Background(), nil))
	assert.Zero(t, emb.calls.Load())
	assert.Empty(t, idx.adds)
}

func TestAdd_EmbedErrorAndDimension(t *testing.T) {
	idx := newMockIndex()
	boom := errors.New("backend down")
	s := New(idx, (&mockEmbedder{err: boom}).Embed, Options{})
	err := s.Add(context.Background(), []Record{NewRecord(unit("a.ts", 1, 1, "f"))})
	assert.ErrorIs(t, err, boom)

	s = New(idx, (&mockEmbedder{}).Embed, Options{Dimensions: dims + 1})
	err = s.Add(context.Background(), []Record{NewRecord(unit("a.ts", 1, 1, "f"))})
	assert.ErrorIs(t, err, ErrDimension)
	assert.Empty(t, idx.docs)
}

func TestAdd_StopsOnCancelledContext(t *testing.T) {
	idx := newMockIndex()
	emb := &mockEmbedder{}
	s := New(idx, emb.Embed, Options{BatchSize: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Add(ctx, []Record{NewRecord(unit("a.ts", 1, 1, "f"))})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, emb.calls.Load())
}

func TestGetAll_States(t *testing.T) {
	idx := newMockIndex()
	s := New(idx, (&mockEmbedder{}).Embed, Options{})

	snap := s.GetAll(context.Background())
	assert.Equal(t, StateEmpty, snap.State)
	assert.Empty(t, snap.IDs())

	require.NoError(t, s.Add(context.Background(), []Record{
		NewRecord(unit("a.ts", 1, 2, "a")),
		NewRecord(unit("b.ts", 4, 9, "b")),
	}))
	snap = s.GetAll(context.Background())
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, map[string]struct{}{"a.ts:1-2": {}, "b.ts:4-9": {}}, snap.IDs())

	idx.getErr = errors.New("no such collection")
	snap = s.GetAll(context.Background())
	assert.Equal(t, StateUnavailable, snap.State)
	assert.Empty(t, snap.IDs())
	assert.EqualError(t, snap.Err, "no such collection")
}

func TestSearch(t *testing.T) {
	idx := newMockIndex()
	emb := &mockEmbedder{}
	s := New(idx, emb.Embed, Options{})

	_, err := s.Search(context.Background(), "login", 0)
	assert.ErrorIs(t, err, ErrInvalidK)
	_, err = s.Search(context.Background(), "login", -3)
	assert.ErrorIs(t, err, ErrInvalidK)
	assert.Zero(t, emb.calls.Load())

	res, err := s.Search(context.Background(), "login", 2)
	require.NoError(t, err)
	assert.Zero(t, res.Len())

	require.NoError(t, s.Add(context.Background(), []Record{NewRecord(unit("a.ts", 1, 2, "a"))}))
	res, err = s.Search(context.Background(), "login", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, idx.lastN)
	assert.Equal(t, []string{"a.ts:1-2"}, res.IDs[0])
}

func TestSearch_WithChromemIndex(t *testing.T) {
	idx, err := store.OpenChromem(store.ChromemOptions{Dimensions: dims})
	require.NoError(t, err)
	embed := func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, t := range texts {
			v := make([]float32, dims)
			if strings.Contains(t, "login") {
				v[0] = 1
			} else {
				v[1] = 1
			}
			out[i] = v
		}
		return out, nil
	}
	s := New(idx, embed, Options{Dimensions: dims})

	u := unit("auth.ts", 1, 3, "login")
	require.NoError(t, s.Add(context.Background(), []Record{NewRecord(u), NewRecord(unit("b.ts", 1, 1, "other"))}))

	res, err := s.Search(context.Background(), u.Text, 1)
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())
	assert.Equal(t, "auth.ts:1-3", res.IDs[0][0])
	assert.InDelta(t, 0, res.Distances[0][0], 1e-6)
	assert.Equal(t, "login", res.Metadatas[0][0].String(KeyName))
}
