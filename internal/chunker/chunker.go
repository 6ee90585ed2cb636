// Package chunker splits document text into fixed-size, non-overlapping chunks.
package chunker

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// Chunk splits text into windows of size characters (Unicode code points).
// The last chunk may be shorter. Concatenating the chunk texts in index
// order reproduces text exactly. Invalid UTF-8 bytes count as one
// character each.
func Chunk(text string, size int) ([]domain.Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, size)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: document is empty", domain.ErrInvalidInput)
	}

	total := utf8.RuneCountInString(text)
	chunks := make([]domain.Chunk, 0, (total+size-1)/size)

	start := 0  // byte offset of the current chunk
	offset := 0 // character offset of the current chunk
	count := 0  // characters in the current chunk

	for pos := range text {
		if count == size {
			chunks = append(chunks, domain.Chunk{
				Index:  len(chunks),
				Text:   text[start:pos],
				Offset: offset,
			})
			start = pos
			offset += count
			count = 0
		}
		count++
	}

	chunks = append(chunks, domain.Chunk{
		Index:  len(chunks),
		Text:   text[start:],
		Offset: offset,
	})

	return chunks, nil
}

// Processor splits documents using a configured chunk size.
type Processor struct {
	chunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
// Non-positive sizes are ignored.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Process splits the document text into chunks.
func (p *Processor) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Chunk(doc.Text, p.chunkSize)
}
