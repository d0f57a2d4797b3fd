// Package llm talks to chat-completion backends.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Generator produces an answer for a conversation.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, messages []Message) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

// ErrGeneration wraps every failure to obtain an answer: transport errors,
// missing credentials, rejected requests and empty completions.
var ErrGeneration = errors.New("generation failed")

// ErrEmptyCompletion is returned when the backend answers with no content.
var ErrEmptyCompletion = errors.New("malformed output: empty completion")

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"

	DefaultOllamaURL   = "http://localhost:11434"
	GroqBaseURL        = "https://api.groq.com/openai/v1"
	DefaultTemperature = 0.2
)

// Config selects and configures a generation backend.
type Config struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// New creates the generator described by cfg.
func New(cfg Config) (Generator, error) {
	switch cfg.Provider {
	case ProviderOllama, "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		return NewOllamaChat(baseURL, cfg.Model, cfg.Temperature), nil
	case ProviderOpenAI, ProviderGroq:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: %s provider requires an API key", ErrGeneration, cfg.Provider)
		}
		baseURL := cfg.BaseURL
		if baseURL == "" && cfg.Provider == ProviderGroq {
			baseURL = GroqBaseURL
		}
		return NewOpenAIChat(cfg.APIKey, baseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrGeneration, cfg.Provider)
	}
}
