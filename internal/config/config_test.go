package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, BackendChromem, cfg.Store.Backend)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
	assert.Equal(t, 4, cfg.Index.BatchSize)
	assert.Equal(t, 2, cfg.Retrieval.K)
	assert.Equal(t, 0.2, cfg.Generation.Temperature)
	assert.Equal(t, []string{"typescript", "tsx"}, cfg.Index.Languages)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	original := DefaultConfig()
	original.Store.Backend = BackendSQLite
	original.Generation.Provider = ProviderGroq
	original.Generation.Model = "qwen/qwen3-32b"
	original.Index.Exclude = []string{"**/*.spec.ts"}
	original.Retrieval.MaxContextTokens = 2000

	require.NoError(t, original.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("retrieval:\n  k: 5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Retrieval.K)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CODERAG_EMBEDDING__MODEL", "mxbai-embed-large")
	t.Setenv("CODERAG_EMBEDDING__DIMENSIONS", "1024")
	t.Setenv("CODERAG_RETRIEVAL__MAX_CONTEXT_TOKENS", "1500")

	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, "mxbai-embed-large", cfg.Embedding.Model)
	assert.Equal(t, 1024, cfg.Embedding.Dimensions)
	assert.Equal(t, 1500, cfg.Retrieval.MaxContextTokens)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CODERAG_TEST_KEY_A=from-file\nCODERAG_TEST_KEY_B=from-file\n"), 0o644))
	t.Setenv("CODERAG_TEST_KEY_A", "from-env")
	t.Setenv("CODERAG_TEST_KEY_B", "")
	os.Unsetenv("CODERAG_TEST_KEY_B")
	t.Cleanup(func() { os.Unsetenv("CODERAG_TEST_KEY_B") })

	_, err := Load(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, "from-env", os.Getenv("CODERAG_TEST_KEY_A"))
	assert.Equal(t, "from-file", os.Getenv("CODERAG_TEST_KEY_B"))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Backend = "pinecone"
	cfg.Index.BatchSize = 0
	cfg.Retrieval.K = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.backend")
	assert.Contains(t, err.Error(), "index.batch_size")
	assert.Contains(t, err.Error(), "retrieval.k")
}

func TestAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-123")
	t.Setenv("MY_KEY", "custom")

	g := GenerationConfig{Provider: ProviderGroq}
	assert.Equal(t, "gsk-123", g.APIKey())

	g.APIKeyEnv = "MY_KEY"
	assert.Equal(t, "custom", g.APIKey())

	assert.Equal(t, "", EmbeddingConfig{Provider: ProviderOllama}.APIKey())
}

func TestLoad_ListReplacesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("index:\n  languages: [go]\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, cfg.Index.Languages)
	assert.Equal(t, 4, cfg.Index.BatchSize)
}
