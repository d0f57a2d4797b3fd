// Package graph extracts a best-effort dependency graph from TypeScript
// sources: class and method nodes, plus decorator, call and import edges
// from each file. Names are not resolved across files.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"coderag/internal/chunker"
	"coderag/internal/walker"

	sitter "github.com/smacker/go-tree-sitter"
)

// Node types.
const (
	NodeClass  = "class"
	NodeMethod = "method"
)

// Edge types.
const (
	EdgeDecorator = "decorator"
	EdgeCall      = "call"
	EdgeImport    = "import"
)

// Node is a named declaration.
type Node struct {
	Type string `json:"type"`
	Name string `json:"name"`
	File string `json:"file"`
}

// Edge points from a file to the text of whatever it decorates with, calls
// or imports.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// Graph is keyed by "{file}:{name}". A later declaration with the same key
// replaces an earlier one.
type Graph struct {
	Nodes map[string]Node `json:"nodes"`
	Edges []Edge          `json:"edges"`
	// Failed lists the files Build could not read or parse.
	Failed []string `json:"-"`
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{Nodes: make(map[string]Node), Edges: []Edge{}}
}

// Merge adds the nodes and edges of other to g.
func (g *Graph) Merge(other *Graph) {
	for id, n := range other.Nodes {
		g.Nodes[id] = n
	}
	g.Edges = append(g.Edges, other.Edges...)
}

// WriteJSON writes g as indented JSON.
func (g *Graph) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

// WriteFile writes g as indented JSON to path.
func (g *Graph) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := g.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Builder extracts graphs using the grammars of a registry.
type Builder struct {
	registry *chunker.Registry
	logger   *slog.Logger
	readFile func(string) ([]byte, error)
}

// NewBuilder creates a Builder. A nil logger uses slog.Default().
func NewBuilder(r *chunker.Registry, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		registry: r,
		logger:   logger.With("component", "graph"),
		readFile: os.ReadFile,
	}
}

// BuildFile extracts the graph of one file. Files without a registered
// grammar yield an empty graph.
func (b *Builder) BuildFile(ctx context.Context, path string, src []byte) (*Graph, error) {
	g := New()
	spec, _ := b.registry.Lookup(path)
	if spec == nil {
		return g, nil
	}
	tree, err := chunker.Parse(ctx, spec, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	visit(tree.RootNode(), func(n *sitter.Node) {
		switch n.Type() {
		case "class_declaration":
			if name := n.ChildByFieldName("name"); name != nil {
				g.addNode(path, NodeClass, name.Content(src))
			}
		case "method_definition":
			if name := n.ChildByFieldName("name"); name != nil {
				g.addNode(path, NodeMethod, name.Content(src))
			}
		case "decorator":
			expr := n.ChildByFieldName("expression")
			if expr == nil && n.NamedChildCount() > 0 {
				expr = n.NamedChild(0)
			}
			if expr != nil {
				g.addEdge(path, expr.Content(src), EdgeDecorator)
			}
		case "call_expression":
			if fn := n.ChildByFieldName("function"); fn != nil {
				g.addEdge(path, fn.Content(src), EdgeCall)
			}
		case "import_statement":
			if source := n.ChildByFieldName("source"); source != nil {
				g.addEdge(path, strings.Trim(source.Content(src), `"'`), EdgeImport)
			}
		}
	})
	return g, nil
}

// Build walks root and merges the graphs of every file in the given
// languages. Files that cannot be read or parsed are logged, listed in
// Graph.Failed and skipped.
func (b *Builder) Build(ctx context.Context, root string, languages []string, exclude []string) (*Graph, error) {
	g := New()
	files, errs := walker.Walk(ctx, root, walker.Options{
		Extensions: b.registry.Extensions(languages...),
		Exclude:    exclude,
	})
	for fi := range files {
		src, err := b.readFile(fi.Path)
		if err != nil {
			b.logger.Error("read failed", "file", fi.RelPath, "error", err)
			g.Failed = append(g.Failed, fi.RelPath)
			continue
		}
		fg, err := b.BuildFile(ctx, fi.RelPath, src)
		if err != nil {
			b.logger.Error("parse failed", "file", fi.RelPath, "error", err)
			g.Failed = append(g.Failed, fi.RelPath)
			continue
		}
		g.Merge(fg)
	}
	if err := <-errs; err != nil {
		return nil, fmt.Errorf("walk error: %w", err)
	}
	return g, nil
}

func (g *Graph) addNode(file, typ, name string) {
	g.Nodes[file+":"+name] = Node{Type: typ, Name: name, File: file}
}

func (g *Graph) addEdge(file, to, typ string) {
	g.Edges = append(g.Edges, Edge{From: file, To: to, Type: typ})
}

// visit calls fn for n and its descendants in pre-order.
func visit(n *sitter.Node, fn func(*sitter.Node)) {
	if n == nil {
		return
	}
	fn(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		visit(n.Child(i), fn)
	}
}
