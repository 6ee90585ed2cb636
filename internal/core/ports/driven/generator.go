package driven

import (
	"context"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// TextGenerator produces text completions from prompts.
// Every chunk analysis, recommendation and query answer goes through it.
//
// Implementations may include:
//   - OpenAI and OpenAI-compatible servers (LM Studio, vLLM)
//   - Gemini
//   - Ollama (local models)
//
// Implementations must be safe for concurrent use; the pipeline issues
// several Generate calls in parallel.
type TextGenerator interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// AIConfigValidator checks that generator and embedding settings reach a
// working provider. Unconfigured settings validate as nil.
type AIConfigValidator interface {
	// ValidateGenerator creates the configured generator and pings it.
	ValidateGenerator(settings *domain.GeneratorSettings) error

	// ValidateEmbedding creates the configured embedding service and pings it.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error
}
