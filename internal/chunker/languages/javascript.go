package languages

import (
	"coderag/internal/chunker"

	"github.com/smacker/go-tree-sitter/javascript"
)

func RegisterJavaScript(r *chunker.Registry) {
	r.Register("javascript", &chunker.LanguageSpec{
		Language: javascript.GetLanguage(),
		Kinds: map[string]chunker.Kind{
			"class_declaration":    chunker.KindClass,
			"function_declaration": chunker.KindFunction,
			"method_definition":    chunker.KindMethod,
			"arrow_function":       chunker.KindArrowFunction,
		},
		NameKinds:  []string{"identifier", "property_identifier"},
		Extensions: []string{"js", "jsx", "mjs", "cjs"},
	})
}
