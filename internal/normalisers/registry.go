package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/normalisers/docx"
	"github.com/custodia-labs/docrisk/internal/normalisers/eml"
	"github.com/custodia-labs/docrisk/internal/normalisers/html"
	"github.com/custodia-labs/docrisk/internal/normalisers/markdown"
	"github.com/custodia-labs/docrisk/internal/normalisers/plaintext"
)

// extensionTypes maps file extensions to MIME types where the platform
// MIME table is unreliable or missing.
var extensionTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".htm":      "text/html",
	".html":     "text/html",
	".xhtml":    "application/xhtml+xml",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".eml":      "message/rfc822",
}

// Registry selects a normaliser by MIME type.
type Registry struct {
	mu       sync.RWMutex
	byMIME   map[string][]driven.Normaliser
	fallback string
}

// NewRegistry creates an empty registry. Documents with unknown types
// are treated as text/plain.
func NewRegistry() *Registry {
	return &Registry{
		byMIME:   make(map[string][]driven.Normaliser),
		fallback: "text/plain",
	}
}

// Default returns a registry holding every built-in normaliser.
func Default() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(eml.New())
	return r
}

// Register adds a normaliser for each MIME type it supports.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mt := range n.SupportedMIMETypes() {
		list := append(r.byMIME[mt], n)
		sort.SliceStable(list, func(i, j int) bool { return list[i].Priority() > list[j].Priority() })
		r.byMIME[mt] = list
	}
}

// Get returns the highest-priority normaliser for mimeType.
func (r *Registry) Get(mimeType string) (driven.Normaliser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.byMIME[mimeType]
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

// SupportedMIMETypes returns every registered MIME type, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.byMIME))
	for mt := range r.byMIME {
		types = append(types, mt)
	}
	sort.Strings(types)
	return types
}

// Normalise extracts text from raw using the normaliser for its MIME type.
// Returns domain.ErrUnsupportedType when no normaliser handles it.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	mimeType := raw.MIMEType
	if mimeType == "" {
		mimeType = r.fallback
	}
	n, ok := r.Get(mimeType)
	if !ok {
		return "", fmt.Errorf("%w: no normaliser for %s", domain.ErrUnsupportedType, mimeType)
	}
	return n.Normalise(ctx, raw)
}

// DetectMIMEType guesses a MIME type from the file extension. Unknown
// extensions yield "".
func DetectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	mt := mime.TypeByExtension(ext)
	if mt == "" {
		return ""
	}
	// Drop parameters such as "; charset=utf-8".
	base, _, err := mime.ParseMediaType(mt)
	if err != nil {
		return ""
	}
	return base
}
