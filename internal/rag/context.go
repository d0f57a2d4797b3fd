package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"coderag/internal/chunkstore"
	"coderag/internal/store"
)

// DefaultFence tags code blocks whose hit carries no language.
const DefaultFence = "ts"

// fences maps language names to code fence tags where they differ.
var fences = map[string]string{
	"typescript": "ts",
	"javascript": "js",
	"python":     "py",
}

// Hit is one retrieved record.
type Hit struct {
	ID       string
	Distance float64
	Metadata store.Metadata
	Document string
}

func (h Hit) FilePath() string { return h.Metadata.String(chunkstore.KeyFilePath) }
func (h Hit) Name() string     { return h.Metadata.String(chunkstore.KeyName) }
func (h Hit) Kind() string     { return h.Metadata.String(chunkstore.KeyKind) }
func (h Hit) Language() string { return h.Metadata.String(chunkstore.KeyLanguage) }

// Lines returns the hit's line span, if both ends are recorded.
func (h Hit) Lines() (start, end int, ok bool) {
	start, ok1 := h.Metadata.Int(chunkstore.KeyStartLine)
	end, ok2 := h.Metadata.Int(chunkstore.KeyEndLine)
	return start, end, ok1 && ok2
}

// Normalize zips the first batch of res into hits, in the order received.
func Normalize(res store.QueryResult) []Hit {
	if len(res.IDs) == 0 {
		return nil
	}
	ids := res.IDs[0]
	hits := make([]Hit, 0, len(ids))
	for i, id := range ids {
		h := Hit{ID: id}
		if len(res.Distances) > 0 && i < len(res.Distances[0]) {
			h.Distance = res.Distances[0][i]
		}
		if len(res.Metadatas) > 0 && i < len(res.Metadatas[0]) {
			h.Metadata = res.Metadatas[0][i]
		}
		if len(res.Documents) > 0 && i < len(res.Documents[0]) {
			h.Document = res.Documents[0][i]
		}
		hits = append(hits, h)
	}
	return hits
}

// EstimateTokens approximates the token cost of text at four characters per
// token, rounded up.
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// Budget keeps the longest prefix of hits whose estimated document cost fits
// in maxTokens. A non-positive budget keeps everything.
func Budget(hits []Hit, maxTokens int) []Hit {
	if maxTokens <= 0 {
		return hits
	}
	used := 0
	for i, h := range hits {
		used += EstimateTokens(h.Document)
		if used > maxTokens {
			return hits[:i]
		}
	}
	return hits
}

// Render formats hits as delimited, fenced code blocks joined by a blank
// line. fence tags blocks whose hit has no language; empty means DefaultFence.
func Render(hits []Hit, fence string) string {
	if fence == "" {
		fence = DefaultFence
	}
	blocks := make([]string, 0, len(hits))
	for _, h := range hits {
		blocks = append(blocks, renderHit(h, fence))
	}
	return strings.Join(blocks, "\n\n")
}

func renderHit(h Hit, fallback string) string {
	var b strings.Builder
	b.WriteString("###\n")
	if v := h.FilePath(); v != "" {
		fmt.Fprintf(&b, "// file: %s\n", v)
	}
	if v := h.Name(); v != "" {
		fmt.Fprintf(&b, "// name: %s\n", v)
	}
	if v := h.Kind(); v != "" {
		fmt.Fprintf(&b, "// kind: %s\n", v)
	}
	if start, end, ok := h.Lines(); ok {
		fmt.Fprintf(&b, "// lines: %d–%d\n", start, end)
	}
	fmt.Fprintf(&b, "```%s\n%s\n```", fenceFor(h.Language(), fallback), h.Document)
	return b.String()
}

func fenceFor(lang, fallback string) string {
	if lang == "" {
		return fallback
	}
	if f, ok := fences[lang]; ok {
		return f
	}
	return lang
}

// AssembleOptions controls Assemble.
type AssembleOptions struct {
	// MaxTokens bounds the estimated size of the kept documents. Zero means
	// unlimited.
	MaxTokens int
	// Fence tags blocks whose hit has no language.
	Fence string
}

// Assemble normalizes, budgets and renders res. No hits yields "".
func Assemble(res store.QueryResult, opts AssembleOptions) string {
	return Render(Budget(Normalize(res), opts.MaxTokens), opts.Fence)
}
