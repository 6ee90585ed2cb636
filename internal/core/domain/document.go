package domain

// Document represents a loaded text document.
// It is immutable once loaded and lives only for the duration of one run.
type Document struct {
	// Name is the human-readable identifier (usually the file base name).
	Name string

	// Path is the original location the document was read from.
	// Empty when the document was supplied directly.
	Path string

	// Text is the full document content.
	Text string
}

// Chunk is a fixed-size contiguous slice of a document's text.
// Chunks partition a document with no overlap; concatenating their
// texts in index order reproduces the document exactly.
type Chunk struct {
	// Index is the zero-based ordinal position within the document.
	Index int

	// Text is the content of this chunk.
	Text string

	// Offset is the character (code point) offset of the first
	// character of this chunk within the document.
	Offset int
}

// RawDocument is the undecoded content of a document before text extraction.
type RawDocument struct {
	// Name is the file base name, or "stdin".
	Name string

	// Path is the location the content was read from.
	Path string

	// MIMEType is detected from the extension or content.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}
