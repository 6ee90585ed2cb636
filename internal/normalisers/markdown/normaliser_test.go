package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	assert.Equal(t, []string{"text/markdown", "text/x-markdown"}, mimeTypes)
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		Name:     "terms.md",
		MIMEType: "text/markdown",
		Content: []byte("# Terms of Service\n\n" +
			"## 1. Liability\n\n" +
			"The **supplier** is _not_ liable for [indirect damages](https://example.com).\n\n" +
			"- Caps apply\n" +
			"- Exclusions apply\n\n" +
			"> Quoted clause\n\n" +
			"---\n" +
			"1. First obligation\n"),
	}

	text, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	assert.Contains(t, text, "Terms of Service")
	assert.Contains(t, text, "1. Liability")
	assert.Contains(t, text, "The supplier is not liable for indirect damages.")
	assert.Contains(t, text, "Caps apply\nExclusions apply")
	assert.Contains(t, text, "Quoted clause")
	assert.Contains(t, text, "1. First obligation")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "https://")
	assert.NotContains(t, text, "---")
}

func TestNormalise_KeepsCode(t *testing.T) {
	raw := &domain.RawDocument{Content: []byte("Run `terminate()` now.\n\n```text\nSection 9 applies.\n```\n")}

	text, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	assert.Contains(t, text, "Run terminate() now.")
	assert.Contains(t, text, "Section 9 applies.")
	assert.NotContains(t, text, "`")
}

func TestNormalise_RemovesImages(t *testing.T) {
	raw := &domain.RawDocument{Content: []byte("Signed ![signature](sig.png) here")}

	text, err := New().Normalise(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "Signed  here", text)
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_InvalidUTF8(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{Content: []byte{0xff, 0xfe}})

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
