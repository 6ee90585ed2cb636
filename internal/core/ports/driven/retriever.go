package driven

import (
	"context"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// Retriever returns the document segments most relevant to a query.
// A Retriever is built for a single run and discarded afterwards.
type Retriever interface {
	// Retrieve returns up to k segments ranked by relevance, best first.
	// Fewer than k segments are returned when the document is short.
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// RetrieverBuilder indexes a document's segments into a fresh Retriever.
// Builders hold no per-run state and may be reused across runs.
type RetrieverBuilder interface {
	// Build indexes the given segments. Segments must be non-empty.
	Build(ctx context.Context, segments []domain.Chunk) (Retriever, error)

	// Name identifies the backend (e.g. "vector", "keyword").
	Name() string
}
