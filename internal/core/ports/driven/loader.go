package driven

import (
	"context"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// DocumentLoader reads a document and extracts its text.
type DocumentLoader interface {
	// Load reads the document at source. The value "-" reads from the
	// loader's standard input. Returns domain.ErrNotFound when the
	// source does not exist and domain.ErrUnsupportedType when no
	// normaliser can extract its text.
	Load(ctx context.Context, source string) (*domain.Document, error)
}

// Normaliser extracts plain text from one family of document formats.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts the text of a raw document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (string, error)
}
