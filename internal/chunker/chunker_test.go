package chunker_test

import (
	"context"
	"strings"
	"testing"

	"coderag/internal/chunker"
	"coderag/internal/chunker/languages"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const authSource = `class AuthService {
  login(user: string): boolean {
    const check = (u: string) => u.length > 0;
    return check(user);
  }
}
function add(a: number, b: number): number;
function add(a: any, b: any) {
  return a + b;
}`

func newChunker() *chunker.ASTChunker {
	return chunker.NewASTChunker(languages.Default())
}

func TestChunk_SingleLineFunction(t *testing.T) {
	units, err := newChunker().Chunk(context.Background(), "sum.ts", []byte("function sum(a,b){return a+b;}"))
	require.NoError(t, err)
	require.Len(t, units, 1)

	u := units[0]
	assert.Equal(t, chunker.KindFunction, u.Kind)
	assert.Equal(t, "sum", u.Name)
	assert.Equal(t, 1, u.StartLine)
	assert.Equal(t, 1, u.EndLine)
	assert.Equal(t, "function sum(a,b){return a+b;}", u.Text)
	assert.Equal(t, "sum.ts", u.FilePath)
	assert.Equal(t, "typescript", u.Language)
}

func TestChunk_PreOrderWithNesting(t *testing.T) {
	units, err := newChunker().Chunk(context.Background(), "auth.ts", []byte(authSource))
	require.NoError(t, err)

	type span struct {
		kind       chunker.Kind
		name       string
		start, end int
	}
	var got []span
	for _, u := range units {
		got = append(got, span{u.Kind, u.Name, u.StartLine, u.EndLine})
	}

	want := []span{
		{chunker.KindClass, "AuthService", 1, 6},
		{chunker.KindMethod, "login", 2, 5},
		{chunker.KindArrowFunction, "", 3, 3},
		{chunker.KindSignature, "add", 7, 7},
		{chunker.KindFunction, "add", 8, 10},
	}
	assert.Equal(t, want, got)
}

func TestChunk_TextRoundTrip(t *testing.T) {
	src := authSource + "\r\nexport const double = (n: number) => n * 2;\n"
	lines := strings.Split(src, "\n")

	units, err := newChunker().Chunk(context.Background(), "auth.ts", []byte(src))
	require.NoError(t, err)
	require.NotEmpty(t, units)

	for _, u := range units {
		require.LessOrEqual(t, u.StartLine, u.EndLine)
		want := strings.Join(lines[u.StartLine-1:u.EndLine], "\n")
		assert.Equal(t, want, u.Text, "unit %s %q at %d-%d", u.Kind, u.Name, u.StartLine, u.EndLine)
	}
}

func TestChunk_Idempotent(t *testing.T) {
	c := newChunker()
	first, err := c.Chunk(context.Background(), "auth.ts", []byte(authSource))
	require.NoError(t, err)
	second, err := c.Chunk(context.Background(), "auth.ts", []byte(authSource))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUnits_RestartableAndLazy(t *testing.T) {
	c := newChunker()
	seq := c.Units("auth.ts", []byte(authSource))

	var a, b []chunker.SourceUnit
	for u := range seq {
		a = append(a, u)
	}
	for u := range seq {
		b = append(b, u)
	}
	assert.Equal(t, a, b)

	collected, err := c.Chunk(context.Background(), "auth.ts", []byte(authSource))
	require.NoError(t, err)
	assert.Equal(t, collected, a)

	var firstOnly []chunker.SourceUnit
	for u := range seq {
		firstOnly = append(firstOnly, u)
		break
	}
	require.Len(t, firstOnly, 1)
	assert.Equal(t, "AuthService", firstOnly[0].Name)
}

func TestChunk_SyntaxErrorDoesNotFail(t *testing.T) {
	src := "function broken( {\n  class {\n    method() {\n}\nfunction ok() { return 1; }\n"
	units, err := newChunker().Chunk(context.Background(), "broken.ts", []byte(src))
	require.NoError(t, err)

	lines := strings.Split(src, "\n")
	for _, u := range units {
		assert.Equal(t, strings.Join(lines[u.StartLine-1:u.EndLine], "\n"), u.Text)
	}
}

func TestChunk_UnregisteredExtension(t *testing.T) {
	units, err := newChunker().Chunk(context.Background(), "README.md", []byte("# title"))
	require.NoError(t, err)
	assert.Nil(t, units)

	count := 0
	for range newChunker().Units("README.md", []byte("# title")) {
		count++
	}
	assert.Zero(t, count)
}

func TestChunk_TSXArrowComponent(t *testing.T) {
	src := "export const App = () => {\n  return <div>hello</div>;\n};\n"
	units, err := newChunker().Chunk(context.Background(), "App.tsx", []byte(src))
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, chunker.KindArrowFunction, units[0].Kind)
	assert.Equal(t, "tsx", units[0].Language)
	assert.Equal(t, 1, units[0].StartLine)
	assert.Equal(t, 3, units[0].EndLine)
}

func TestChunk_ArrowWithBareParameterTakesItsName(t *testing.T) {
	units, err := newChunker().Chunk(context.Background(), "x.ts", []byte("const f = x => x * 2;"))
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "x", units[0].Name)
}

func TestChunk_MatchesUnits(t *testing.T) {
	c := newChunker()
	src := []byte("const f = (a: number) => a;\nclass B { m() { return 1; } }\n")

	chunked, err := c.Chunk(context.Background(), "b.ts", src)
	require.NoError(t, err)

	var ranged []chunker.SourceUnit
	for u := range c.Units("b.ts", src) {
		ranged = append(ranged, u)
	}
	assert.Equal(t, chunked, ranged)
	assert.Len(t, chunked, 3)
}
