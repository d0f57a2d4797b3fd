package languages

import (
	"coderag/internal/chunker"

	"github.com/smacker/go-tree-sitter/golang"
)

func RegisterGo(r *chunker.Registry) {
	r.Register("go", &chunker.LanguageSpec{
		Language: golang.GetLanguage(),
		Kinds: map[string]chunker.Kind{
			"function_declaration": chunker.KindFunction,
			"method_declaration":   chunker.KindMethod,
			"func_literal":         chunker.KindArrowFunction,
			"type_spec":            chunker.KindType,
		},
		NameKinds:  []string{"identifier", "field_identifier", "type_identifier"},
		Extensions: []string{"go"},
	})
}
