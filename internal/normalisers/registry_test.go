package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

type stubNormaliser struct {
	types    []string
	priority int
	text     string
}

func (s *stubNormaliser) SupportedMIMETypes() []string { return s.types }

func (s *stubNormaliser) Priority() int { return s.priority }

func (s *stubNormaliser) Normalise(_ context.Context, _ *domain.RawDocument) (string, error) {
	return s.text, nil
}

func TestRegistry_SelectsHighestPriority(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{types: []string{"text/plain"}, priority: 5, text: "low"})
	r.Register(&stubNormaliser{types: []string{"text/plain"}, priority: 90, text: "high"})
	r.Register(&stubNormaliser{types: []string{"text/plain"}, priority: 50, text: "mid"})

	text, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/plain"})

	require.NoError(t, err)
	assert.Equal(t, "high", text)
}

func TestRegistry_EmptyMIMETypeFallsBackToPlainText(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{types: []string{"text/plain"}, text: "plain"})

	text, err := r.Normalise(context.Background(), &domain.RawDocument{})

	require.NoError(t, err)
	assert.Equal(t, "plain", text)
}

func TestRegistry_UnsupportedType(t *testing.T) {
	r := Default()

	_, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "application/pdf"})

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_NilDocument(t *testing.T) {
	_, err := Default().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDefault_RegistersBuiltins(t *testing.T) {
	types := Default().SupportedMIMETypes()

	for _, mt := range []string{
		"text/plain",
		"text/markdown",
		"text/html",
		"message/rfc822",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	} {
		assert.Contains(t, types, mt)
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"contract.txt", "text/plain"},
		{"/tmp/NDA.TXT", "text/plain"},
		{"terms.md", "text/markdown"},
		{"policy.html", "text/html"},
		{"msa.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"thread.eml", "message/rfc822"},
		{"README", ""},
		{"archive.unknownext", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMIMEType(tt.path))
		})
	}
}
