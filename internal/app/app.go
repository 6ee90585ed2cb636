// Package app is the composition root. It turns explicit domain.Settings
// into a wired pipeline Orchestrator.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/custodia-labs/docrisk/internal/adapters/driven/ai"
	"github.com/custodia-labs/docrisk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docrisk/internal/adapters/driven/document"
	"github.com/custodia-labs/docrisk/internal/adapters/driven/retrieval/keyword"
	"github.com/custodia-labs/docrisk/internal/adapters/driven/retrieval/vector"
	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/core/services"
	"github.com/custodia-labs/docrisk/internal/logger"
)

// App holds a wired pipeline and the backends it owns.
// The embedded Orchestrator runs documents through the pipeline.
type App struct {
	*services.Orchestrator

	// Retrieval names the retriever backend in use ("vector" or "keyword").
	Retrieval string

	generator driven.TextGenerator
	embedder  driven.EmbeddingService

	ownsGenerator bool
	ownsEmbedder  bool
}

type options struct {
	generator driven.TextGenerator
	embedder  driven.EmbeddingService
	loader    driven.DocumentLoader
	prompts   driven.PromptStore
	sinks     []driven.Sink
	sinksSet  bool
	stdin     io.Reader
}

// Option configures New.
type Option func(*options)

// WithGenerator uses gen instead of creating one from settings.
// The caller keeps ownership; Close does not close it.
func WithGenerator(gen driven.TextGenerator) Option {
	return func(o *options) {
		o.generator = gen
	}
}

// WithEmbedding uses svc for vector retrieval instead of creating one from settings.
func WithEmbedding(svc driven.EmbeddingService) Option {
	return func(o *options) {
		o.embedder = svc
	}
}

// WithLoader replaces the filesystem document loader.
func WithLoader(l driven.DocumentLoader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithPrompts replaces the ~/.docrisk/prompts store.
func WithPrompts(p driven.PromptStore) Option {
	return func(o *options) {
		o.prompts = p
	}
}

// WithSinks replaces the sinks built from settings.
func WithSinks(sinks ...driven.Sink) Option {
	return func(o *options) {
		o.sinks = sinks
		o.sinksSet = true
	}
}

// WithStdin sets the reader used for the "-" document source.
func WithStdin(r io.Reader) Option {
	return func(o *options) {
		o.stdin = r
	}
}

// New wires the pipeline described by settings. It contacts the
// generator (and embedding provider in vector mode) to validate them.
// Sinks whose construction fails are reported as errors.
func New(ctx context.Context, settings domain.Settings, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if err := settings.Pipeline.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}

	a := &App{generator: o.generator, embedder: o.embedder}
	if a.generator == nil {
		gen, err := ai.CreateAndValidateGenerator(ctx, &settings.Generator)
		if err != nil {
			return nil, err
		}
		a.generator = gen
		a.ownsGenerator = true
	}

	builder := a.retrieverBuilder(ctx, settings)
	a.Retrieval = builder.Name()

	sinks := o.sinks
	if !o.sinksSet {
		var err error
		sinks, err = BuildSinks(ctx, settings.Sinks)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	loader := o.loader
	if loader == nil {
		var loaderOpts []document.Option
		if o.stdin != nil {
			loaderOpts = append(loaderOpts, document.WithStdin(o.stdin))
		}
		loader = document.NewLoader(nil, loaderOpts...)
	}

	prompts := o.prompts
	if prompts == nil {
		store, err := file.NewPromptStore("")
		if err != nil {
			logger.Warn("Prompt directory unavailable, using built-in prompts: %v", err)
		} else {
			prompts = store
		}
	}

	pipeline, err := services.NewOrchestrator(settings.Pipeline, loader, a.generator, builder, prompts, sinks)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Orchestrator = pipeline

	logger.Debug("Pipeline ready: generator=%s retrieval=%s sinks=%v",
		a.generator.ModelName(), a.Retrieval, pipeline.Sinks())
	return a, nil
}

// retrieverBuilder selects vector retrieval when it is requested and an
// embedding service is reachable, and keyword retrieval otherwise.
func (a *App) retrieverBuilder(ctx context.Context, settings domain.Settings) driven.RetrieverBuilder {
	if !settings.Retrieval.Mode.RequiresEmbedding() {
		return keyword.NewBuilder()
	}

	if a.embedder == nil {
		svc, err := ai.CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
		switch {
		case err != nil:
			logger.Warn("Vector retrieval unavailable, falling back to keyword: %v", err)
			return keyword.NewBuilder()
		case svc == nil:
			logger.Warn("No embedding provider configured, falling back to keyword retrieval")
			return keyword.NewBuilder()
		}
		a.embedder = svc
		a.ownsEmbedder = true
	}
	return vector.NewBuilder(a.embedder)
}

// Close releases the backends created by New.
func (a *App) Close() error {
	var firstErr error
	if a.ownsGenerator && a.generator != nil {
		firstErr = a.generator.Close()
	}
	if a.ownsEmbedder && a.embedder != nil {
		if err := a.embedder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
