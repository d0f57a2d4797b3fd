package rag

import (
	"strings"
	"testing"

	"coderag/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() store.QueryResult {
	return store.QueryResult{
		IDs:       [][]string{{"auth.ts:2-5", "util.ts:1-1"}},
		Distances: [][]float64{{0.1, 0.4}},
		Metadatas: [][]store.Metadata{{
			{"file_path": "auth.ts", "name": "login", "kind": "method", "start_line": 2, "end_line": 5, "language": "typescript"},
			{"file_path": "util.ts", "name": "", "kind": "arrow_function", "start_line": 1, "end_line": 1},
		}},
		Documents: [][]string{{"login(u) {\n  return check(u);\n}", "const id = x => x;"}},
	}
}

func TestNormalize_PreservesOrder(t *testing.T) {
	hits := Normalize(sampleResult())
	require.Len(t, hits, 2)
	assert.Equal(t, "auth.ts:2-5", hits[0].ID)
	assert.Equal(t, 0.1, hits[0].Distance)
	assert.Equal(t, "login", hits[0].Name())
	assert.Equal(t, "util.ts:1-1", hits[1].ID)
	assert.Equal(t, "const id = x => x;", hits[1].Document)

	assert.Empty(t, Normalize(store.QueryResult{}))
	assert.Empty(t, Normalize(store.EmptyResult()))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 1, EstimateTokens("ééé"))
}

func TestBudget_TailDrop(t *testing.T) {
	hits := []Hit{
		{ID: "a", Document: strings.Repeat("x", 40)}, // 10 tokens
		{ID: "b", Document: strings.Repeat("x", 8)},  // 2 tokens
		{ID: "c", Document: strings.Repeat("x", 4)},  // 1 token
	}

	assert.Equal(t, hits, Budget(hits, 0))
	assert.Equal(t, hits, Budget(hits, -1))
	assert.Equal(t, hits, Budget(hits, 13))
	assert.Equal(t, hits[:2], Budget(hits, 12))
	assert.Equal(t, hits[:1], Budget(hits, 11))
	assert.Empty(t, Budget(hits, 9))
}

func TestBudget_StopsAtFirstOverflow(t *testing.T) {
	hits := []Hit{
		{ID: "a", Document: strings.Repeat("x", 8)},
		{ID: "big", Document: strings.Repeat("x", 400)},
		{ID: "small", Document: "x"},
	}
	kept := Budget(hits, 5)
	require.Len(t, kept, 1)
	assert.Equal(t, "a", kept[0].ID)
}

func TestRender(t *testing.T) {
	out := Render(Normalize(sampleResult()), "")

	want := "###\n" +
		"// file: auth.ts\n" +
		"// name: login\n" +
		"// kind: method\n" +
		"// lines: 2–5\n" +
		"```ts\nlogin(u) {\n  return check(u);\n}\n```" +
		"\n\n" +
		"###\n" +
		"// file: util.ts\n" +
		"// kind: arrow_function\n" +
		"// lines: 1–1\n" +
		"```ts\nconst id = x => x;\n```"
	assert.Equal(t, want, out)
}

func TestRender_FenceAndMissingMetadata(t *testing.T) {
	hits := []Hit{
		{ID: "x", Document: "fn()", Metadata: store.Metadata{"language": "tsx"}},
		{ID: "y", Document: "pass"},
	}
	assert.Equal(t, "###\n```tsx\nfn()\n```\n\n###\n```py\npass\n```", Render(hits, "py"))
	assert.Equal(t, "", Render(nil, ""))
}

func TestAssemble(t *testing.T) {
	assert.Equal(t, "", Assemble(store.EmptyResult(), AssembleOptions{}))

	full := Assemble(sampleResult(), AssembleOptions{})
	assert.Equal(t, 2, strings.Count(full, "###\n"))

	// The first document alone costs 8 tokens.
	first := Assemble(sampleResult(), AssembleOptions{MaxTokens: 9})
	assert.Equal(t, 1, strings.Count(first, "###\n"))
	assert.True(t, strings.HasPrefix(full, first))
}
