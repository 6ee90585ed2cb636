package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid caller-supplied input.
	// It is always fatal and never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedType indicates an unknown provider, transport or sink type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrGeneration indicates a text generation call failed or returned nothing.
	ErrGeneration = errors.New("generation failed")

	// ErrQuery indicates the query could not be answered.
	ErrQuery = errors.New("query failed")

	// ErrDelivery indicates a sink could not deliver the report.
	ErrDelivery = errors.New("delivery failed")

	// ErrIncompleteFindings indicates findings do not cover every chunk exactly once.
	// This is an internal invariant violation and always fatal.
	ErrIncompleteFindings = errors.New("incomplete findings")

	// ErrCancelled indicates the run was cancelled between stages.
	ErrCancelled = errors.New("run cancelled")

	// ErrGeneratorUnavailable indicates no text generator is configured.
	ErrGeneratorUnavailable = errors.New("text generator unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector retrieval is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrPermanent marks a failure that retrying cannot fix
	// (authentication, permission or malformed request errors).
	ErrPermanent = errors.New("permanent failure")

	// ErrRateLimited indicates an external API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// GenerationError reports a failed finding for one chunk.
type GenerationError struct {
	ChunkIndex int
	Cause      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("chunk %d: %v: %v", e.ChunkIndex, ErrGeneration, e.Cause)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *GenerationError) Unwrap() []error {
	return []error{ErrGeneration, e.Cause}
}

// QueryError reports a failure to answer the user's query.
type QueryError struct {
	Cause error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%v: %v", ErrQuery, e.Cause)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *QueryError) Unwrap() []error {
	return []error{ErrQuery, e.Cause}
}

// DeliveryError reports a failed delivery to one sink.
type DeliveryError struct {
	Sink  string
	Cause error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("sink %s: %v: %v", e.Sink, ErrDelivery, e.Cause)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *DeliveryError) Unwrap() []error {
	return []error{ErrDelivery, e.Cause}
}

// IncompleteFindingsError describes which chunk indices broke the
// coverage invariant during aggregation.
type IncompleteFindingsError struct {
	Missing    []int
	Duplicated []int
	OutOfRange []int
}

func (e *IncompleteFindingsError) Error() string {
	return fmt.Sprintf("%v: missing=%v duplicated=%v out_of_range=%v",
		ErrIncompleteFindings, e.Missing, e.Duplicated, e.OutOfRange)
}

func (e *IncompleteFindingsError) Unwrap() error {
	return ErrIncompleteFindings
}

// StageError attaches the originating pipeline stage to a fatal error.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// IsRetryable returns false for errors that retrying cannot fix.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrInvalidInput) &&
		!errors.Is(err, ErrIncompleteFindings) &&
		!errors.Is(err, ErrPermanent) &&
		!errors.Is(err, ErrUnsupportedType)
}
