package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/docrisk/internal/chunker"
	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/logger"
)

// contextSeparator joins retrieved segments in the answer prompt.
const contextSeparator = "\n\n"

// QueryResponder answers a free-form question about a whole document
// using retrieval plus generation.
type QueryResponder struct {
	generator   driven.TextGenerator
	builder     driven.RetrieverBuilder
	prompts     driven.PromptStore
	opts        driven.GenerateOptions
	calls       callPolicy
	segmentSize int
	k           int
}

// NewQueryResponder creates a query responder.
// Retrieval segments use the configured chunk size.
func NewQueryResponder(
	generator driven.TextGenerator,
	builder driven.RetrieverBuilder,
	prompts driven.PromptStore,
	cfg domain.PipelineConfig,
) *QueryResponder {
	k := cfg.RetrievalK
	if k <= 0 {
		k = domain.DefaultRetrievalK
	}
	segmentSize := cfg.ChunkSize
	if segmentSize <= 0 {
		segmentSize = domain.DefaultChunkSize
	}
	return &QueryResponder{
		generator: generator,
		builder:   builder,
		prompts:   prompts,
		opts: driven.GenerateOptions{
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
		calls:       callPolicy{retry: cfg.Retry, timeout: cfg.CallTimeout},
		segmentSize: segmentSize,
		k:           k,
	}
}

// Answer answers query from the content of doc.
// Every failure, including an empty query, is returned as a *domain.QueryError.
func (r *QueryResponder) Answer(ctx context.Context, doc *domain.Document, query string) (domain.QueryAnswer, error) {
	answer, err := r.answer(ctx, doc, query)
	if err != nil {
		return domain.QueryAnswer{Query: query}, &domain.QueryError{Cause: err}
	}
	return answer, nil
}

func (r *QueryResponder) answer(ctx context.Context, doc *domain.Document, query string) (domain.QueryAnswer, error) {
	if strings.TrimSpace(query) == "" {
		return domain.QueryAnswer{}, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if doc == nil {
		return domain.QueryAnswer{}, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}
	if r.generator == nil {
		return domain.QueryAnswer{}, domain.ErrGeneratorUnavailable
	}
	if r.builder == nil {
		return domain.QueryAnswer{}, errors.New("no retriever configured")
	}

	segments, err := chunker.Chunk(doc.Text, r.segmentSize)
	if err != nil {
		return domain.QueryAnswer{}, fmt.Errorf("split document: %w", err)
	}

	var retriever driven.Retriever
	err = r.calls.do(ctx, "build "+r.builder.Name()+" retriever", func(callCtx context.Context) error {
		var buildErr error
		retriever, buildErr = r.builder.Build(callCtx, segments)
		return buildErr
	})
	if err != nil {
		return domain.QueryAnswer{}, fmt.Errorf("build retriever: %w", err)
	}

	var sources []string
	err = r.calls.do(ctx, "retrieve", func(callCtx context.Context) error {
		var retrieveErr error
		sources, retrieveErr = retriever.Retrieve(callCtx, query, r.k)
		return retrieveErr
	})
	if err != nil {
		return domain.QueryAnswer{}, fmt.Errorf("retrieve: %w", err)
	}
	logger.Debug("Retrieved %d segments via %s", len(sources), r.builder.Name())

	prompt := fillPrompt(loadPrompt(r.prompts, driven.PromptQueryAnswer),
		strings.Join(sources, contextSeparator), query)

	var text string
	err = r.calls.do(ctx, "answer query", func(callCtx context.Context) error {
		out, genErr := r.generator.Generate(callCtx, prompt, r.opts)
		if genErr != nil {
			return genErr
		}
		if strings.TrimSpace(out) == "" {
			return errEmptyGeneration
		}
		text = strings.TrimSpace(out)
		return nil
	})
	if err != nil {
		return domain.QueryAnswer{}, fmt.Errorf("generate answer: %w", err)
	}

	return domain.QueryAnswer{
		Query:   query,
		Answer:  text,
		Sources: sources,
	}, nil
}
