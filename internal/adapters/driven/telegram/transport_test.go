package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

type mockBot struct {
	sent  []*bot.SendMessageParams
	errAt int
	err   error
}

func (m *mockBot) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if m.err != nil && len(m.sent) == m.errAt {
		return nil, m.err
	}
	m.sent = append(m.sent, params)
	return &models.Message{ID: 100 + len(m.sent)}, nil
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNew(t *testing.T) {
	tr, err := New("123:abc")
	require.NoError(t, err)
	assert.Equal(t, "telegram", tr.Name())
}

func TestSend(t *testing.T) {
	mb := &mockBot{}
	tr := &Transport{bot: mb}

	id, err := tr.Send(context.Background(), "-1001234", "Results", "two gaps found")

	require.NoError(t, err)
	assert.Equal(t, "101", id)
	require.Len(t, mb.sent, 1)
	assert.Equal(t, int64(-1001234), mb.sent[0].ChatID)
	assert.Equal(t, "Results\n\ntwo gaps found", mb.sent[0].Text)
}

func TestSend_ChannelUsername(t *testing.T) {
	mb := &mockBot{}
	tr := &Transport{bot: mb}

	_, err := tr.Send(context.Background(), "@legal_alerts", "", "body")

	require.NoError(t, err)
	assert.Equal(t, "@legal_alerts", mb.sent[0].ChatID)
	assert.Equal(t, "body", mb.sent[0].Text)
}

func TestSend_InvalidChatID(t *testing.T) {
	tr := &Transport{bot: &mockBot{}}

	for _, recipient := range []string{"", "legal-team"} {
		_, err := tr.Send(context.Background(), recipient, "s", "b")
		assert.ErrorIs(t, err, domain.ErrInvalidInput, recipient)
	}
}

func TestSend_SplitsLongBodies(t *testing.T) {
	mb := &mockBot{}
	tr := &Transport{bot: mb}
	body := strings.Repeat(strings.Repeat("x", 99)+"\n", 100)

	id, err := tr.Send(context.Background(), "42", "", body)

	require.NoError(t, err)
	require.Len(t, mb.sent, 3)
	assert.Equal(t, "101,102,103", id)

	var joined strings.Builder
	for _, p := range mb.sent {
		assert.LessOrEqual(t, len([]rune(p.Text)), MaxMessageLength)
		joined.WriteString(p.Text)
	}
	assert.Equal(t, body, joined.String())
}

func TestSend_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		permanent bool
		limited   bool
	}{
		{"forbidden", bot.ErrorForbidden, true, false},
		{"bad request", bot.ErrorBadRequest, true, false},
		{"unauthorised", bot.ErrorUnauthorized, true, false},
		{"too many requests", &bot.TooManyRequestsError{Message: "slow down", RetryAfter: 3}, false, true},
		{"network", errors.New("connection reset"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Transport{bot: &mockBot{err: tt.err}}

			_, err := tr.Send(context.Background(), "42", "s", "b")

			require.Error(t, err)
			assert.Equal(t, tt.permanent, errors.Is(err, domain.ErrPermanent))
			assert.Equal(t, tt.limited, errors.Is(err, domain.ErrRateLimited))
		})
	}
}

func TestSend_PartialFailureReportsSentParts(t *testing.T) {
	mb := &mockBot{err: errors.New("boom"), errAt: 1}
	tr := &Transport{bot: mb}

	id, err := tr.Send(context.Background(), "42", "", strings.Repeat("y", MaxMessageLength+10))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "part 2/2")
	assert.Equal(t, "101", id)
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"short"}, Split("short", 10))
	assert.Equal(t, []string{"abcdefghij", "kl"}, Split("abcdefghijkl", 10))
	assert.Equal(t, []string{"abcdefg\n", "hijkl"}, Split("abcdefg\nhijkl", 10))
	assert.Equal(t, []string{"ééééé", "éé"}, Split("ééééééé", 5))
}
