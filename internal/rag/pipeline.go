// Package rag retrieves code context for a question and asks a generator to
// answer it.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"coderag/internal/llm"
	"coderag/internal/store"
)

const systemPrompt = `You are a code intelligence assistant. You answer questions about a codebase and about software development in general.

Guidelines:
- Give clear, concise and accurate explanations. Reference file paths and line numbers when the context provides them.
- Use examples when helpful, in the language of the question or of the provided code.
- If you don't know something, say so instead of guessing.
- If the provided context does not match the question, ignore it and answer from the question alone.
- Only answer questions about code, software projects and technology. For anything else, reply: "I am specialized in coding and technology questions, and cannot provide advice on this topic."`

// contextPreamble introduces the assembled context to the model.
const contextPreamble = "Here is the context:\n%s\n\nUse it ONLY if it is relevant."

// DefaultK is the number of records retrieved per question.
const DefaultK = 2

// Retriever finds the records nearest to a query.
type Retriever interface {
	Search(ctx context.Context, query string, k int) (store.QueryResult, error)
}

// Options configures a Pipeline.
type Options struct {
	K                int
	MaxContextTokens int
	Fence            string
	Logger           *slog.Logger
}

// Pipeline answers questions by retrieval, context assembly and generation.
type Pipeline struct {
	retriever Retriever
	generator llm.Generator
	opts      Options
	logger    *slog.Logger
}

// NewPipeline creates a pipeline.
func NewPipeline(r Retriever, g llm.Generator, opts Options) *Pipeline {
	if opts.K <= 0 {
		opts.K = DefaultK
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		retriever: r,
		generator: g,
		opts:      opts,
		logger:    logger.With("component", "rag"),
	}
}

// Answer is a generated reply together with the context it was given.
type Answer struct {
	Text    string
	Hits    []Hit
	Context string
}

// Retrieve searches for question and returns the hits that fit the context
// budget along with their rendering.
func (p *Pipeline) Retrieve(ctx context.Context, question string) ([]Hit, string, error) {
	res, err := p.retriever.Search(ctx, question, p.opts.K)
	if err != nil {
		return nil, "", fmt.Errorf("retrieve: %w", err)
	}
	hits := Budget(Normalize(res), p.opts.MaxContextTokens)
	return hits, Render(hits, p.opts.Fence), nil
}

// Ask retrieves context for question and generates an answer.
func (p *Pipeline) Ask(ctx context.Context, question string, history []llm.Message) (*Answer, error) {
	hits, assembled, err := p.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("retrieved context", "hits", len(hits), "tokens", EstimateTokens(assembled))

	text, err := p.Answer(ctx, question, assembled, history)
	if err != nil {
		return nil, err
	}
	return &Answer{Text: text, Hits: hits, Context: assembled}, nil
}

// Answer asks the generator to answer question given an already assembled
// context. An empty context means the question is answered on its own.
func (p *Pipeline) Answer(ctx context.Context, question, assembled string, history []llm.Message) (string, error) {
	answer, err := p.generator.Generate(ctx, BuildMessages(question, assembled, history))
	if err != nil {
		if !errors.Is(err, llm.ErrGeneration) {
			err = fmt.Errorf("%w: %w", llm.ErrGeneration, err)
		}
		return "", err
	}
	if answer == "" {
		return "", fmt.Errorf("%w: %w", llm.ErrGeneration, llm.ErrEmptyCompletion)
	}
	return answer, nil
}

// BuildMessages constructs the message list for the generator: the system
// prompt, the context (when there is any), prior history and the question.
func BuildMessages(question, assembled string, history []llm.Message) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+3)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	if assembled != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: fmt.Sprintf(contextPreamble, assembled)})
	}
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: question})
	return msgs
}
