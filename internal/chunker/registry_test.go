package chunker_test

import (
	"testing"

	"coderag/internal/chunker"
	"coderag/internal/chunker/languages"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_Lookup(t *testing.T) {
	r := languages.Default()

	spec, lang := r.Lookup("src/app/service.ts")
	if assert.NotNil(t, spec) {
		assert.Equal(t, "typescript", lang)
		assert.Equal(t, chunker.KindClass, spec.KindOf("class_declaration"))
		assert.Equal(t, chunker.Kind(""), spec.KindOf("interface_declaration"))
	}

	assert.Equal(t, "tsx", r.LanguageName("ui/App.tsx"))
	assert.Equal(t, "", r.LanguageName("notes.txt"))
}

func TestRegistry_ExtensionsForLanguages(t *testing.T) {
	r := languages.Default()

	exts := r.Extensions("typescript", "tsx")
	assert.Equal(t, map[string]bool{"ts": true, "mts": true, "cts": true, "tsx": true}, exts)

	all := r.Extensions()
	assert.True(t, all["go"])
	assert.True(t, all["py"])
	assert.True(t, all["js"])

	assert.Empty(t, r.Extensions("cobol"))
}

func TestKind_Valid(t *testing.T) {
	assert.True(t, chunker.KindSignature.Valid())
	assert.False(t, chunker.Kind("decorator").Valid())
}

func TestRegistry_RegisterRejectsUnknownKind(t *testing.T) {
	r := chunker.NewRegistry()
	assert.PanicsWithValue(t,
		`chunker: language broken maps decorator to unknown kind "decorator"`,
		func() {
			r.Register("broken", &chunker.LanguageSpec{
				Kinds:      map[string]chunker.Kind{"decorator": "decorator"},
				Extensions: []string{"broken"},
			})
		})
	assert.Nil(t, r.Language("broken"))
}
