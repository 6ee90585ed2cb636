package domain

import (
	"fmt"
	"time"
)

// Pipeline defaults.
const (
	DefaultChunkSize   = 1000
	DefaultMaxTokens   = 200
	DefaultParallelism = 4
	DefaultCallTimeout = 60 * time.Second
	DefaultRetrievalK  = 4
	DefaultMaxRetries  = 2
	DefaultBackoff     = time.Second
)

// RetryPolicy bounds how often a failing external call is repeated.
// Waits grow linearly: Backoff, 2*Backoff, ...
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt. Zero disables retries.
	MaxRetries int

	// Backoff is the base wait between attempts.
	Backoff time.Duration
}

// Delay returns the wait before the given retry attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return time.Duration(attempt) * p.Backoff
}

// PipelineConfig is the explicit configuration handed to the orchestrator.
type PipelineConfig struct {
	// ChunkSize is the number of characters per chunk.
	ChunkSize int

	// MaxTokens is the generation budget per call.
	MaxTokens int

	// Temperature is passed to the generator. Zero means greedy decoding.
	Temperature float64

	// Parallelism is the maximum number of in-flight generation calls.
	Parallelism int

	// CallTimeout bounds each external call (generation, retrieval, delivery).
	CallTimeout time.Duration

	// ZeroTolerance escalates any per-chunk or query failure to a failed run.
	ZeroTolerance bool

	// RetrievalK is the number of segments retrieved as query context.
	RetrievalK int

	// Retry governs retries of generation, retrieval and delivery calls.
	Retry RetryPolicy
}

// DefaultPipelineConfig returns the configuration used when nothing is set.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ChunkSize:   DefaultChunkSize,
		MaxTokens:   DefaultMaxTokens,
		Parallelism: DefaultParallelism,
		CallTimeout: DefaultCallTimeout,
		RetrievalK:  DefaultRetrievalK,
		Retry: RetryPolicy{
			MaxRetries: DefaultMaxRetries,
			Backoff:    DefaultBackoff,
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c PipelineConfig) Validate() error {
	switch {
	case c.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidInput, c.ChunkSize)
	case c.MaxTokens <= 0:
		return fmt.Errorf("%w: max tokens must be positive, got %d", ErrInvalidInput, c.MaxTokens)
	case c.Parallelism <= 0:
		return fmt.Errorf("%w: parallelism must be positive, got %d", ErrInvalidInput, c.Parallelism)
	case c.CallTimeout <= 0:
		return fmt.Errorf("%w: call timeout must be positive, got %s", ErrInvalidInput, c.CallTimeout)
	case c.RetrievalK <= 0:
		return fmt.Errorf("%w: retrieval k must be positive, got %d", ErrInvalidInput, c.RetrievalK)
	case c.Retry.MaxRetries < 0:
		return fmt.Errorf("%w: max retries cannot be negative", ErrInvalidInput)
	case c.Retry.Backoff < 0:
		return fmt.Errorf("%w: backoff cannot be negative", ErrInvalidInput)
	}
	return nil
}
