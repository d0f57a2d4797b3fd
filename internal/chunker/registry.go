package chunker

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// LanguageSpec defines the tree-sitter grammar and the node types that make
// up meaningful units for a language.
type LanguageSpec struct {
	Language *sitter.Language
	// Kinds maps relevant tree-sitter node types to unit kinds. Node types
	// missing from the map are walked through but never emitted.
	Kinds map[string]Kind
	// NameKinds lists the node types that can supply a unit's name when they
	// appear as a direct child of the unit node.
	NameKinds  []string
	Extensions []string
}

// KindOf returns the unit kind for a node type, or "" when the node type is
// not relevant.
func (s *LanguageSpec) KindOf(nodeType string) Kind {
	return s.Kinds[nodeType]
}

func (s *LanguageSpec) isNameKind(nodeType string) bool {
	for _, k := range s.NameKinds {
		if k == nodeType {
			return true
		}
	}
	return false
}

// Registry maps file extensions to language specs.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]*LanguageSpec // extension (without dot) → spec
	langs map[string]*LanguageSpec // language name → spec
	names map[*LanguageSpec]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		specs: make(map[string]*LanguageSpec),
		langs: make(map[string]*LanguageSpec),
		names: make(map[*LanguageSpec]string),
	}
}

// Register adds a language spec under the given name. It panics if the spec
// maps a node type to an unknown Kind.
func (r *Registry) Register(name string, spec *LanguageSpec) {
	for nodeType, kind := range spec.Kinds {
		if !kind.Valid() {
			panic(fmt.Sprintf("chunker: language %s maps %s to unknown kind %q", name, nodeType, kind))
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.langs[name] = spec
	r.names[spec] = name
	for _, ext := range spec.Extensions {
		r.specs[ext] = spec
	}
}

// Lookup returns the spec for a file path based on its extension, or nil.
func (r *Registry) Lookup(path string) (spec *LanguageSpec, lang string) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[ext]
	if !ok {
		return nil, ""
	}
	return s, r.names[s]
}

// Language returns the spec registered under name, or nil.
func (r *Registry) Language(name string) *LanguageSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.langs[name]
}

// LanguageName returns the language name for a file path, or "".
func (r *Registry) LanguageName(path string) string {
	_, lang := r.Lookup(path)
	return lang
}

// Extensions returns the file extensions (without dot) registered for the
// given languages. With no names, every registered extension is returned.
func (r *Registry) Extensions(languages ...string) map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make(map[string]bool, len(r.specs))
	if len(languages) == 0 {
		for ext := range r.specs {
			exts[ext] = true
		}
		return exts
	}
	for _, name := range languages {
		if spec, ok := r.langs[name]; ok {
			for _, ext := range spec.Extensions {
				exts[ext] = true
			}
		}
	}
	return exts
}
