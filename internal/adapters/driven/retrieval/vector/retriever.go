// Package vector provides a Retriever backed by an in-memory chromem-go
// collection. Segment and query embeddings come from an EmbeddingService.
package vector

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/logger"
)

// Ensure Builder and Retriever implement the interfaces.
var (
	_ driven.RetrieverBuilder = (*Builder)(nil)
	_ driven.Retriever        = (*Retriever)(nil)
)

const collectionName = "segments"

// Builder creates one chromem collection per run.
type Builder struct {
	embedder driven.EmbeddingService
}

// NewBuilder creates a vector retriever builder.
func NewBuilder(embedder driven.EmbeddingService) *Builder {
	return &Builder{embedder: embedder}
}

// Name identifies the backend.
func (b *Builder) Name() string {
	return string(domain.RetrievalModeVector)
}

// Build embeds every segment in one batch and stores it in a fresh
// in-memory database. Nothing is persisted or shared between runs.
func (b *Builder) Build(ctx context.Context, segments []domain.Chunk) (driven.Retriever, error) {
	if b.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments to index", domain.ErrInvalidInput)
	}

	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}

	embeddings, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed segments: %w", err)
	}
	if len(embeddings) != len(segments) {
		return nil, fmt.Errorf("embed segments: got %d embeddings for %d segments", len(embeddings), len(segments))
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, b.embedFunc())
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	docs := make([]chromem.Document, len(segments))
	for i, s := range segments {
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(s.Index),
			Content:   s.Text,
			Embedding: embeddings[i],
		}
	}

	// Embeddings are precomputed, so a single worker suffices.
	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		return nil, fmt.Errorf("index segments: %w", err)
	}

	logger.Debug("Indexed %d segments with %s", len(docs), b.embedder.ModelName())
	return &Retriever{collection: collection}, nil
}

// embedFunc adapts the EmbeddingService to chromem's query embedding hook.
func (b *Builder) embedFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return b.embedder.Embed(ctx, text)
	}
}

// Retriever answers similarity queries against one run's segments.
type Retriever struct {
	collection *chromem.Collection
}

// Retrieve returns up to k segments ordered by cosine similarity, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if query == "" {
		return nil, errors.New("query cannot be empty")
	}

	// chromem requires nResults <= document count.
	count := r.collection.Count()
	if count == 0 {
		return nil, nil
	}
	k = min(k, count)

	results, err := r.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	out := make([]string, len(results))
	for i, res := range results {
		out[i] = res.Content
	}
	return out, nil
}
