package languages

import (
	"coderag/internal/chunker"

	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// typeScriptKinds is shared by the typescript and tsx grammars.
var typeScriptKinds = map[string]chunker.Kind{
	"class_declaration":    chunker.KindClass,
	"function_declaration": chunker.KindFunction,
	"method_definition":    chunker.KindMethod,
	"arrow_function":       chunker.KindArrowFunction,
	"function_signature":   chunker.KindSignature,
}

var typeScriptNameKinds = []string{"identifier", "property_identifier", "type_identifier"}

func RegisterTypeScript(r *chunker.Registry) {
	r.Register("typescript", &chunker.LanguageSpec{
		Language:   typescript.GetLanguage(),
		Kinds:      typeScriptKinds,
		NameKinds:  typeScriptNameKinds,
		Extensions: []string{"ts", "mts", "cts"},
	})
}

func RegisterTSX(r *chunker.Registry) {
	r.Register("tsx", &chunker.LanguageSpec{
		Language:   tsx.GetLanguage(),
		Kinds:      typeScriptKinds,
		NameKinds:  typeScriptNameKinds,
		Extensions: []string{"tsx"},
	})
}
