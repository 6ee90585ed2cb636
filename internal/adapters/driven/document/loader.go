// Package document loads documents from files or standard input and
// extracts their text through the normaliser registry.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/logger"
	"github.com/custodia-labs/docrisk/internal/normalisers"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// StdinSource is the source name that reads from standard input.
const StdinSource = "-"

// DefaultMaxSize is the largest document accepted, in bytes.
const DefaultMaxSize = 32 << 20

// TextExtractor turns raw document bytes into text.
type TextExtractor interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (string, error)
}

// Loader reads documents from the local filesystem.
type Loader struct {
	extractor TextExtractor
	stdin     io.Reader
	maxSize   int64
}

// Option configures a Loader.
type Option func(*Loader)

// WithStdin sets the reader used for the "-" source.
func WithStdin(r io.Reader) Option {
	return func(l *Loader) {
		l.stdin = r
	}
}

// WithMaxSize sets the largest accepted document size in bytes.
func WithMaxSize(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxSize = n
		}
	}
}

// NewLoader creates a loader. A nil extractor selects the built-in normalisers.
func NewLoader(extractor TextExtractor, opts ...Option) *Loader {
	if extractor == nil {
		extractor = normalisers.Default()
	}
	l := &Loader{
		extractor: extractor,
		stdin:     os.Stdin,
		maxSize:   DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads source, a file path or "-" for standard input, and returns
// its text. Missing files yield domain.ErrNotFound; unknown binary
// formats yield domain.ErrUnsupportedType.
func (l *Loader) Load(ctx context.Context, source string) (*domain.Document, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: no document given", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		raw *domain.RawDocument
		err error
	)
	if source == StdinSource {
		raw, err = l.readStdin()
	} else {
		raw, err = l.readFile(source)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Normalising %s as %s (%d bytes)", raw.Name, raw.MIMEType, len(raw.Content))
	text, err := l.extractor.Normalise(ctx, raw)
	if err != nil {
		return nil, err
	}

	return &domain.Document{Name: raw.Name, Path: raw.Path, Text: text}, nil
}

func (l *Loader) readStdin() (*domain.RawDocument, error) {
	if l.stdin == nil {
		return nil, fmt.Errorf("%w: standard input is not available", domain.ErrInvalidInput)
	}
	content, err := l.readLimited(l.stdin, "stdin")
	if err != nil {
		return nil, err
	}
	return &domain.RawDocument{
		Name:     "stdin",
		MIMEType: sniff(content),
		Content:  content,
	}, nil
}

func (l *Loader) readFile(path string) (*domain.RawDocument, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, path, err)
	}

	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if info.Size() > l.maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", domain.ErrInvalidInput, path, info.Size(), l.maxSize)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	content, err := l.readLimited(f, path)
	if err != nil {
		return nil, err
	}

	mimeType := normalisers.DetectMIMEType(abs)
	if mimeType == "" {
		mimeType = sniff(content)
	}

	return &domain.RawDocument{
		Name:     filepath.Base(abs),
		Path:     abs,
		MIMEType: mimeType,
		Content:  content,
	}, nil
}

func (l *Loader) readLimited(r io.Reader, name string) ([]byte, error) {
	content, err := io.ReadAll(io.LimitReader(r, l.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(content)) > l.maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidInput, name, l.maxSize)
	}
	return content, nil
}

// sniff guesses the MIME type of content without a usable extension.
func sniff(content []byte) string {
	mt, _, err := mime.ParseMediaType(http.DetectContentType(content))
	if err != nil {
		return "application/octet-stream"
	}
	if mt == "application/zip" {
		// DOCX files are zip archives; let the DOCX normaliser decide.
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return mt
}
