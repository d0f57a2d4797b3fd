// Package languages registers the tree-sitter grammars coderag can chunk.
package languages

import "coderag/internal/chunker"

// Default returns a registry with every supported language registered.
func Default() *chunker.Registry {
	r := chunker.NewRegistry()
	RegisterTypeScript(r)
	RegisterTSX(r)
	RegisterJavaScript(r)
	RegisterGo(r)
	RegisterPython(r)
	return r
}
