// Package mail builds plain-text RFC 5322 messages shared by the e-mail
// transports. Subpackages deliver them over SMTP.
package mail

import (
	"bytes"
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// Message is a plain-text e-mail.
type Message struct {
	// ID is written as the Message-ID header when set.
	ID      string
	From    string
	To      []string
	Subject string
	Body    string
	Date    time.Time
}

// NewMessageID returns a unique Message-ID local part at the sender's domain.
func NewMessageID(from string) string {
	domainPart := "docrisk.local"
	if addr, err := mail.ParseAddress(from); err == nil {
		if at := strings.LastIndex(addr.Address, "@"); at >= 0 && at < len(addr.Address)-1 {
			domainPart = addr.Address[at+1:]
		}
	}
	return uuid.NewString() + "@" + domainPart
}

// ParseRecipients splits a comma-separated address list and validates every entry.
func ParseRecipients(list string) ([]string, error) {
	addrs, err := mail.ParseAddressList(list)
	if err != nil {
		return nil, fmt.Errorf("%w: recipients %q: %w", domain.ErrInvalidInput, list, err)
	}
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.Address
	}
	return out, nil
}

// Bytes renders the message with CRLF line endings. Non-ASCII subjects
// are Q-encoded and the body is sent as 8bit UTF-8.
func (m Message) Bytes() []byte {
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}

	var buf bytes.Buffer
	writeHeader(&buf, "From", m.From)
	writeHeader(&buf, "To", strings.Join(m.To, ", "))
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	writeHeader(&buf, "Date", date.Format(time.RFC1123Z))
	if m.ID != "" {
		writeHeader(&buf, "Message-ID", "<"+m.ID+">")
	}
	writeHeader(&buf, "MIME-Version", "1.0")
	writeHeader(&buf, "Content-Type", `text/plain; charset="utf-8"`)
	writeHeader(&buf, "Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")

	body := strings.ReplaceAll(m.Body, "\r\n", "\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.Bytes()
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	// Header values must not smuggle extra header lines.
	value = strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
	fmt.Fprintf(buf, "%s: %s\r\n", key, value)
}
