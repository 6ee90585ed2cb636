// Package eml extracts text from RFC 822 e-mail messages.
package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	htmltext "github.com/custodia-labs/docrisk/internal/normalisers/html"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles EML (email) documents.
type Normaliser struct{}

// New creates a new EML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"message/rfc822",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser
}

// Normalise returns the message headers (From, To, Date, Subject)
// followed by the body text. Plain text parts are preferred over HTML.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Content))
	if err != nil {
		return "", fmt.Errorf("%w: %s is not an RFC 822 message: %w", domain.ErrInvalidInput, raw.Name, err)
	}

	body, err := extractBody(msg)
	if err != nil {
		return "", err
	}

	var content strings.Builder
	for _, h := range []string{"From", "To", "Date", "Subject"} {
		value := msg.Header.Get(h)
		if h != "Date" {
			value = decodeHeader(value)
		}
		if value != "" {
			content.WriteString(h + ": " + value + "\n")
		}
	}
	content.WriteString("\n")
	content.WriteString(body)

	return strings.TrimSpace(content.String()), nil
}

// decodeHeader decodes RFC 2047 encoded headers.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header // Return original if decoding fails
	}
	return decoded
}

// maxDepth bounds multipart nesting.
const maxDepth = 8

// partHeader is the subset of MIME part headers the body walk needs.
type partHeader interface {
	Get(key string) string
}

// extractBody returns the message text, preferring text/plain parts
// and falling back to the text of text/html parts.
func extractBody(msg *mail.Message) (string, error) {
	plain, htmlText, err := walkPart(msg.Header, msg.Body, 0)
	if err != nil {
		return "", fmt.Errorf("%w: read message body: %w", domain.ErrInvalidInput, err)
	}
	if len(plain) > 0 {
		return strings.Join(plain, "\n"), nil
	}
	return strings.Join(htmlText, "\n"), nil
}

// walkPart collects the text of one part and its descendants.
// Attachments are skipped.
func walkPart(h partHeader, body io.Reader, depth int) (plain, htmlText []string, err error) {
	if strings.HasPrefix(strings.ToLower(h.Get("Content-Disposition")), "attachment") {
		return nil, nil, nil
	}

	mediaType, params, parseErr := mime.ParseMediaType(h.Get("Content-Type"))
	if parseErr != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if depth >= maxDepth || params["boundary"] == "" {
			return nil, nil, nil
		}
		mr := multipart.NewReader(body, params["boundary"])
		for {
			part, nextErr := mr.NextPart()
			if errors.Is(nextErr, io.EOF) {
				break
			}
			if nextErr != nil {
				// Truncated multipart: keep what was read so far.
				break
			}
			p, ht, walkErr := walkPart(part.Header, part, depth+1)
			_ = part.Close()
			if walkErr != nil {
				return nil, nil, walkErr
			}
			plain = append(plain, p...)
			htmlText = append(htmlText, ht...)
		}
		return plain, htmlText, nil
	}

	if mediaType != "text/plain" && mediaType != "text/html" {
		return nil, nil, nil
	}

	content, err := io.ReadAll(decodeTransfer(h.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return nil, nil, err
	}
	if mediaType == "text/html" {
		return nil, []string{stripHTMLTags(string(content))}, nil
	}
	return []string{string(content)}, nil, nil
}

// decodeTransfer undoes base64 and quoted-printable transfer encodings.
// multipart.Reader already decodes quoted-printable parts itself.
func decodeTransfer(encoding string, body io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, &newlineStripper{r: body})
	case "quoted-printable":
		return quotedprintable.NewReader(body)
	default:
		return body
	}
}

// newlineStripper drops CR and LF so wrapped base64 decodes cleanly.
type newlineStripper struct {
	r io.Reader
}

func (s *newlineStripper) Read(p []byte) (int, error) {
	for {
		n, err := s.r.Read(p)
		j := 0
		for _, c := range p[:n] {
			if c != '\r' && c != '\n' {
				p[j] = c
				j++
			}
		}
		if j > 0 || err != nil {
			return j, err
		}
	}
}

// stripHTMLTags extracts visible text from an HTML part. Unparseable
// parts are kept verbatim.
func stripHTMLTags(content string) string {
	text, err := htmltext.ExtractText([]byte(content))
	if err != nil {
		return content
	}
	return text
}
