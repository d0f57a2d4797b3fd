package languages

import (
	"coderag/internal/chunker"

	"github.com/smacker/go-tree-sitter/python"
)

func RegisterPython(r *chunker.Registry) {
	r.Register("python", &chunker.LanguageSpec{
		Language: python.GetLanguage(),
		Kinds: map[string]chunker.Kind{
			"function_definition": chunker.KindFunction,
			"class_definition":    chunker.KindClass,
			"lambda":              chunker.KindArrowFunction,
		},
		NameKinds:  []string{"identifier"},
		Extensions: []string{"py", "pyi"},
	})
}
