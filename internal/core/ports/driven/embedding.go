package driven

import "context"

// EmbeddingService turns text into vectors for the vector retriever. It is
// only built when retrieval mode is "vector"; keyword retrieval needs none.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds the retrieval segments of one document. Results
	// are in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is zero until the first vector has come back.
	Dimensions() int

	ModelName() string

	// Ping embeds a short sample text so misconfiguration fails at startup
	// instead of mid-run.
	Ping(ctx context.Context) error

	Close() error
}
