// Package gmail provides a MessageTransport that sends mail through the
// Gmail API as the authenticated user.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/custodia-labs/docrisk/internal/adapters/driven/google"
	"github.com/custodia-labs/docrisk/internal/adapters/driven/mail"
	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
)

// Ensure Transport implements the interface.
var _ driven.MessageTransport = (*Transport)(nil)

// authenticatedUser is the Gmail API alias for the credential owner.
const authenticatedUser = "me"

// Transport sends messages with users.messages.send.
type Transport struct {
	svc     *gmail.Service
	from    string
	limiter *google.RateLimiter
	now     func() time.Time
}

// New creates a transport from an existing Gmail service.
func New(svc *gmail.Service, from string) *Transport {
	return &Transport{
		svc:     svc,
		from:    from,
		limiter: google.NewRateLimiter(google.ServiceGmail),
		now:     time.Now,
	}
}

// NewFromCredentials creates a transport authenticated with a credentials file.
func NewFromCredentials(ctx context.Context, credentialsFile, from string, extra ...option.ClientOption) (*Transport, error) {
	opts, err := google.ClientOptions(ctx, credentialsFile, google.GmailScopes...)
	if err != nil {
		return nil, err
	}
	svc, err := google.NewGmailService(ctx, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return New(svc, from), nil
}

// Name identifies the transport.
func (t *Transport) Name() string {
	return string(domain.EmailTransportGmail)
}

// Send delivers the message and returns the Gmail message ID.
func (t *Transport) Send(ctx context.Context, recipient, subject, body string) (string, error) {
	to, err := mail.ParseRecipients(recipient)
	if err != nil {
		return "", err
	}

	raw := mail.Message{
		From:    t.from,
		To:      to,
		Subject: subject,
		Body:    body,
		Date:    t.now(),
	}.Bytes()

	var sent *gmail.Message
	err = t.limiter.Do(ctx, func() error {
		var callErr error
		sent, callErr = t.svc.Users.Messages.Send(authenticatedUser, &gmail.Message{
			Raw: base64.URLEncoding.EncodeToString(raw),
		}).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("gmail send: %w", err)
	}
	return sent.Id, nil
}
