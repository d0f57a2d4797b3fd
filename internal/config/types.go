package config

// Config is the top-level coderag configuration, corresponding to .coderag.yml.
type Config struct {
	Store      StoreConfig      `yaml:"store" koanf:"store"`
	Embedding  EmbeddingConfig  `yaml:"embedding" koanf:"embedding"`
	Generation GenerationConfig `yaml:"generation" koanf:"generation"`
	Index      IndexConfig      `yaml:"index" koanf:"index"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" koanf:"retrieval"`
	Log        LogConfig        `yaml:"log" koanf:"log"`
}

// StoreConfig selects the vector index backend and where it persists.
type StoreConfig struct {
	Backend    string `yaml:"backend" koanf:"backend"`
	Dir        string `yaml:"dir" koanf:"dir"`
	Collection string `yaml:"collection" koanf:"collection"`
}

// EmbeddingConfig configures the embedding backend.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" koanf:"provider"`
	Model      string `yaml:"model" koanf:"model"`
	Dimensions int    `yaml:"dimensions" koanf:"dimensions"`
	BaseURL    string `yaml:"base_url" koanf:"base_url"`
	// APIKeyEnv names the environment variable holding the API key. Empty
	// uses the provider's conventional variable.
	APIKeyEnv string `yaml:"api_key_env" koanf:"api_key_env"`
}

// GenerationConfig configures the answer generator.
type GenerationConfig struct {
	Provider    string  `yaml:"provider" koanf:"provider"`
	Model       string  `yaml:"model" koanf:"model"`
	BaseURL     string  `yaml:"base_url" koanf:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env" koanf:"api_key_env"`
	Temperature float64 `yaml:"temperature" koanf:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" koanf:"max_tokens"`
}

// IndexConfig controls what gets indexed and how.
type IndexConfig struct {
	BatchSize int      `yaml:"batch_size" koanf:"batch_size"`
	Languages []string `yaml:"languages" koanf:"languages"`
	Exclude   []string `yaml:"exclude" koanf:"exclude"`
}

// RetrievalConfig controls context retrieval for questions.
type RetrievalConfig struct {
	K                int `yaml:"k" koanf:"k"`
	MaxContextTokens int `yaml:"max_context_tokens" koanf:"max_context_tokens"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}
