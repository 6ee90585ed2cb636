// Package telegram provides a MessageTransport that posts notifications
// to a Telegram chat through a bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/logger"
)

// Ensure Transport implements the interface.
var _ driven.MessageTransport = (*Transport)(nil)

// MaxMessageLength is Telegram's limit per message, in characters.
const MaxMessageLength = 4096

// botAPI abstracts the Telegram bot methods used by the transport, enabling testing with mocks.
type botAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Transport sends plain-text messages. Long bodies are split across
// several messages on line boundaries.
type Transport struct {
	bot botAPI
}

// New creates a transport for the given bot token.
// The token is not verified until the first message is sent.
func New(token string, opts ...bot.Option) (*Transport, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: telegram bot token is required", domain.ErrInvalidInput)
	}
	opts = append([]bot.Option{bot.WithSkipGetMe()}, opts...)
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Transport{bot: b}, nil
}

// Name identifies the transport.
func (t *Transport) Name() string {
	return "telegram"
}

// Send posts subject and body to the chat identified by recipient, which
// is a numeric chat ID or an @channel username. The returned ID lists the
// message IDs of every part, comma separated.
func (t *Transport) Send(ctx context.Context, recipient, subject, body string) (string, error) {
	chatID, err := parseChatID(recipient)
	if err != nil {
		return "", err
	}

	text := body
	if subject != "" {
		text = subject + "\n\n" + body
	}

	parts := Split(text, MaxMessageLength)
	ids := make([]string, 0, len(parts))
	for i, part := range parts {
		msg, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   part,
		})
		if err != nil {
			return strings.Join(ids, ","), fmt.Errorf("telegram: part %d/%d: %w", i+1, len(parts), classify(err))
		}
		ids = append(ids, strconv.Itoa(msg.ID))
	}

	logger.Debug("Sent %d telegram messages to %v", len(parts), chatID)
	return strings.Join(ids, ","), nil
}

func parseChatID(recipient string) (any, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, fmt.Errorf("%w: telegram chat id is required", domain.ErrInvalidInput)
	}
	if strings.HasPrefix(recipient, "@") {
		return recipient, nil
	}
	id, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: telegram chat id %q", domain.ErrInvalidInput, recipient)
	}
	return id, nil
}

// classify marks rejected requests as permanent. Rate limiting and
// network failures stay retryable.
func classify(err error) error {
	switch {
	case bot.IsTooManyRequestsError(err):
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	case errors.Is(err, bot.ErrorUnauthorized),
		errors.Is(err, bot.ErrorForbidden),
		errors.Is(err, bot.ErrorBadRequest),
		errors.Is(err, bot.ErrorNotFound):
		return fmt.Errorf("%w: %w", domain.ErrPermanent, err)
	default:
		return err
	}
}

// Split breaks text into parts of at most limit characters, preferring
// to cut after a newline. Concatenating the parts yields text.
func Split(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
