package ollama

import (
	"context"

	"github.com/asorokin/legal-doc-classifier/internal/infrastructure/resilience"
)

// ResilientEmbedder adds retry and circuit breaking around the raw
// embedder. Transient failures surface as ErrTemporary so the caller
// can degrade instead of failing the request.
type ResilientEmbedder struct {
	inner    *Embedder
	executor *resilience.Executor
}

func NewResilientEmbedder(inner *Embedder, executor *resilience.Executor) *ResilientEmbedder {
	return &ResilientEmbedder{inner: inner, executor: executor}
}

func (r *ResilientEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := r.executor.Execute(ctx, "ollama_embed", func(ctx context.Context) error {
		vector, err := r.inner.EmbedQuery(ctx, text)
		if err != nil {
			return err
		}
		out = vector
		return nil
	}, classifyOllamaError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed", err)
	}
	return out, nil
}

// ResilientGenerator wraps the fallback-tier generator. Generation is
// never retried: a second attempt would hold the model slot past the
// tier deadline. Only the breaker applies.
type ResilientGenerator struct {
	inner    *Generator
	executor *resilience.Executor
}

func NewResilientGenerator(inner *Generator, executor *resilience.Executor) *ResilientGenerator {
	return &ResilientGenerator{inner: inner, executor: executor}
}

func (r *ResilientGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	err := r.executor.Execute(ctx, "ollama_generate", func(ctx context.Context) error {
		text, err := r.inner.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		out = text
		return nil
	}, classifyGenerateOnce)
	if err != nil {
		return "", wrapTemporaryIfNeeded("generate", err)
	}
	return out, nil
}

// classifyGenerateOnce records failures for the breaker but never
// marks them retryable.
func classifyGenerateOnce(err error) resilience.ErrorClassification {
	class := classifyOllamaError(err)
	class.Retryable = false
	return class
}
