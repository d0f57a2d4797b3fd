package chunker

import (
	"context"
	"fmt"
	"iter"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// SourceUnit is a syntactically meaningful span of a source file. Text always
// covers whole lines StartLine..EndLine (1-indexed, inclusive).
type SourceUnit struct {
	FilePath  string
	Language  string
	Kind      Kind
	Name      string // empty for anonymous units
	StartLine int
	EndLine   int
	Text      string
}

// ASTChunker parses source files using tree-sitter and extracts semantic units.
type ASTChunker struct {
	registry *Registry
}

// NewASTChunker creates a chunker backed by the given registry.
func NewASTChunker(r *Registry) *ASTChunker {
	return &ASTChunker{registry: r}
}

// Units returns the units of src in pre-order. The sequence is lazy and
// restartable: every range over it parses src again. Files without a
// registered grammar, and parses that fail outright, yield nothing.
func (c *ASTChunker) Units(path string, src []byte) iter.Seq[SourceUnit] {
	return func(yield func(SourceUnit) bool) {
		_ = c.walk(context.Background(), path, src, yield)
	}
}

// Chunk parses the source and returns its units in pre-order. If no grammar is
// registered for the file, it returns nil. Syntax errors never fail the call;
// tree-sitter's recovered tree is walked as is.
func (c *ASTChunker) Chunk(ctx context.Context, path string, src []byte) ([]SourceUnit, error) {
	var units []SourceUnit
	err := c.walk(ctx, path, src, func(u SourceUnit) bool {
		units = append(units, u)
		return true
	})
	if err != nil {
		return nil, err
	}
	return units, nil
}

// walk parses src and passes each unit to yield until it returns false.
func (c *ASTChunker) walk(ctx context.Context, path string, src []byte, yield func(SourceUnit) bool) error {
	spec, lang := c.registry.Lookup(path)
	if spec == nil {
		return nil
	}
	tree, err := Parse(ctx, spec, src)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	w := walker{
		spec:  spec,
		path:  path,
		lang:  lang,
		src:   src,
		lines: strings.Split(string(src), "\n"),
	}
	w.walk(tree.RootNode(), yield)
	return nil
}

// Parse parses src with the grammar of spec. The caller closes the tree.
func Parse(ctx context.Context, spec *LanguageSpec, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(spec.Language)
	return parser.ParseCtx(ctx, nil, src)
}

type walker struct {
	spec  *LanguageSpec
	path  string
	lang  string
	src   []byte
	lines []string
}

// walk visits n and all its descendants depth-first. It returns false once
// yield asks to stop.
func (w *walker) walk(n *sitter.Node, yield func(SourceUnit) bool) bool {
	if n == nil {
		return true
	}
	if kind := w.spec.KindOf(n.Type()); kind != "" {
		if !yield(w.unit(n, kind)) {
			return false
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if !w.walk(n.Child(i), yield) {
			return false
		}
	}
	return true
}

func (w *walker) unit(n *sitter.Node, kind Kind) SourceUnit {
	start := int(n.StartPoint().Row)
	end := int(n.EndPoint().Row)
	if end < start {
		end = start
	}
	return SourceUnit{
		FilePath:  w.path,
		Language:  w.lang,
		Kind:      kind,
		Name:      w.name(n),
		StartLine: start + 1,
		EndLine:   end + 1,
		Text:      w.text(start, end),
	}
}

// name returns the text of the first direct child with an identifier-like
// node type.
func (w *walker) name(n *sitter.Node) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && w.spec.isNameKind(child.Type()) {
			return child.Content(w.src)
		}
	}
	return ""
}

// text joins the 0-indexed source lines start..end.
func (w *walker) text(start, end int) string {
	if start >= len(w.lines) {
		return ""
	}
	if end >= len(w.lines) {
		end = len(w.lines) - 1
	}
	return strings.Join(w.lines[start:end+1], "\n")
}
