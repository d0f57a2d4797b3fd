// Package config loads coderag settings from defaults, .coderag.yml, .env
// files and CODERAG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: CODERAG_EMBEDDING__MODEL sets embedding.model.
const EnvPrefix = "CODERAG_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides. Variables from .env and .env.local next to
// the file are exported first without replacing ones already set.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	// Decoding into a non-nil slice reuses it, so a shorter list would keep
	// trailing defaults.
	if k.Exists("index.languages") {
		cfg.Index.Languages = nil
	}
	if k.Exists("index.exclude") {
		cfg.Index.Exclude = nil
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// envKey maps CODERAG_RETRIEVAL__MAX_CONTEXT_TOKENS to
// retrieval.max_context_tokens.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func loadDotEnv(dir string) error {
	for _, name := range []string{".env", ".env.local"} {
		values, err := godotenv.Read(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		for k, v := range values {
			if _, exists := os.LookupEnv(k); !exists {
				if err := os.Setenv(k, v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var (
	validBackends            = map[string]bool{BackendChromem: true, BackendSQLite: true}
	validEmbeddingProviders  = map[string]bool{ProviderOllama: true, ProviderOpenAI: true}
	validGenerationProviders = map[string]bool{ProviderOllama: true, ProviderOpenAI: true, ProviderGroq: true}
	validLogFormats          = map[string]bool{"text": true, "json": true}
)

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	var errs []error
	if !validBackends[c.Store.Backend] {
		errs = append(errs, fmt.Errorf("invalid store.backend %q: must be chromem or sqlite", c.Store.Backend))
	}
	if c.Store.Dir == "" {
		errs = append(errs, errors.New("store.dir is required"))
	}
	if !validEmbeddingProviders[c.Embedding.Provider] {
		errs = append(errs, fmt.Errorf("invalid embedding.provider %q: must be ollama or openai", c.Embedding.Provider))
	}
	if c.Embedding.Model == "" {
		errs = append(errs, errors.New("embedding.model is required"))
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, errors.New("embedding.dimensions must be positive"))
	}
	if !validGenerationProviders[c.Generation.Provider] {
		errs = append(errs, fmt.Errorf("invalid generation.provider %q: must be ollama, openai or groq", c.Generation.Provider))
	}
	if c.Generation.Temperature < 0 {
		errs = append(errs, errors.New("generation.temperature must be non-negative"))
	}
	if c.Index.BatchSize <= 0 {
		errs = append(errs, errors.New("index.batch_size must be positive"))
	}
	if c.Retrieval.K <= 0 {
		errs = append(errs, errors.New("retrieval.k must be positive"))
	}
	if c.Retrieval.MaxContextTokens < 0 {
		errs = append(errs, errors.New("retrieval.max_context_tokens must be non-negative"))
	}
	if !validLogFormats[c.Log.Format] {
		errs = append(errs, fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGroq:
		return "GROQ_API_KEY"
	default:
		return ""
	}
}

// APIKey returns the embedding API key from the environment.
func (e EmbeddingConfig) APIKey() string {
	return lookupKey(e.APIKeyEnv, e.Provider)
}

// APIKey returns the generation API key from the environment.
func (g GenerationConfig) APIKey() string {
	return lookupKey(g.APIKeyEnv, g.Provider)
}

func lookupKey(name, provider string) string {
	if name == "" {
		name = APIKeyEnvVar(provider)
	}
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
