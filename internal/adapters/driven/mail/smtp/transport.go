// Package smtp provides a MessageTransport that submits mail over SMTP
// with STARTTLS.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/custodia-labs/docrisk/internal/adapters/driven/mail"
	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/logger"
)

// Ensure Transport implements the interface.
var _ driven.MessageTransport = (*Transport)(nil)

// Default configuration values.
const (
	DefaultHost        = domain.DefaultSMTPHost
	DefaultPort        = domain.DefaultSMTPPort
	DefaultDialTimeout = 30 * time.Second
)

// Config holds configuration for the SMTP transport.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// From is the envelope and header sender. Defaults to Username.
	From string

	// AllowInsecure permits delivery when the server does not offer
	// STARTTLS. Only meant for local relays.
	AllowInsecure bool

	// TLSConfig overrides the STARTTLS configuration.
	TLSConfig *tls.Config
}

// Transport sends one message per Send call on a fresh connection.
type Transport struct {
	cfg Config
	now func() time.Time
}

// New creates a new SMTP transport.
func New(cfg Config) (*Transport, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("%w: smtp sender address is required", domain.ErrInvalidInput)
	}
	return &Transport{cfg: cfg, now: time.Now}, nil
}

// Name identifies the transport.
func (t *Transport) Name() string {
	return string(domain.EmailTransportSMTP)
}

// Send delivers the message to every comma-separated recipient and returns its Message-ID.
func (t *Transport) Send(ctx context.Context, recipient, subject, body string) (string, error) {
	to, err := mail.ParseRecipients(recipient)
	if err != nil {
		return "", err
	}

	msg := mail.Message{
		ID:      mail.NewMessageID(t.cfg.From),
		From:    t.cfg.From,
		To:      to,
		Subject: subject,
		Body:    body,
		Date:    t.now(),
	}

	if err := t.deliver(ctx, to, msg.Bytes()); err != nil {
		return "", classify(err)
	}
	logger.Debug("Sent mail %s to %d recipients via %s", msg.ID, len(to), t.cfg.Host)
	return msg.ID, nil
}

func (t *Transport) deliver(ctx context.Context, to []string, raw []byte) error {
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))

	dialer := &net.Dialer{Timeout: DefaultDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsCfg := t.cfg.TLSConfig
		if tlsCfg == nil {
			tlsCfg = &tls.Config{ServerName: t.cfg.Host, MinVersion: tls.VersionTLS12}
		}
		if err := client.StartTLS(tlsCfg); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	} else if !t.cfg.AllowInsecure {
		return fmt.Errorf("%w: %s does not offer STARTTLS", domain.ErrPermanent, addr)
	}

	if t.cfg.Username != "" {
		auth := smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(t.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}
	return client.Quit()
}

// classify marks 5xx SMTP replies as permanent; 4xx replies are transient by definition.
func classify(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code >= 500 {
		return fmt.Errorf("smtp: %w: %w", domain.ErrPermanent, err)
	}
	return fmt.Errorf("smtp: %w", err)
}
