package config

const (
	BackendChromem = "chromem"
	BackendSQLite  = "sqlite"

	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"

	// FileName is the configuration file looked up in the project root.
	FileName = ".coderag.yml"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:    BackendChromem,
			Dir:        ".coderag/index",
			Collection: "code_embeddings",
		},
		Embedding: EmbeddingConfig{
			Provider:   ProviderOllama,
			Model:      "nomic-embed-text",
			Dimensions: 768,
		},
		Generation: GenerationConfig{
			Provider:    ProviderOllama,
			Model:       "qwen3:8b",
			Temperature: 0.2,
		},
		Index: IndexConfig{
			BatchSize: 4,
			Languages: []string{"typescript", "tsx"},
		},
		Retrieval: RetrievalConfig{
			K: 2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
