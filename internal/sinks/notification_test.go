package sinks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

func TestNewNotification_Names(t *testing.T) {
	assert.Equal(t, "email", NewNotification(&mockTransport{name: "smtp"}, "a@b.c", "").Name())
	assert.Equal(t, "email", NewNotification(&mockTransport{name: "gmail"}, "a@b.c", "").Name())
	assert.Equal(t, "telegram", NewNotification(&mockTransport{name: "telegram"}, "42", "").Name())
}

func TestNotification_DeliverFollowUp(t *testing.T) {
	transport := &mockTransport{name: "smtp"}
	sink := NewNotification(transport, "legal@example.com", "")

	prior := []domain.SinkResult{
		{Sink: "sheets", Status: domain.DeliveryDelivered, Location: "https://sheet"},
		{Sink: "s3", Status: domain.DeliveryFailed, Reason: "denied"},
		{Sink: "archive", Status: domain.DeliveryDelivered, Location: "/tmp/risk.json"},
	}

	id, err := sink.DeliverFollowUp(context.Background(), sampleReport(), prior)

	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, "legal@example.com", transport.recipient)
	assert.Equal(t, domain.DefaultEmailSubject, transport.subject)
	assert.Contains(t, transport.body, "Query: Who bears liability?")
	assert.Contains(t, transport.body, "Query Result: The supplier.")
	assert.Contains(t, transport.body, "- sheets: https://sheet")
	assert.Contains(t, transport.body, "- archive: /tmp/risk.json")
	assert.NotContains(t, transport.body, "s3")
	assert.Contains(t, transport.body, "[Chunk 2]")
	assert.Contains(t, transport.body, "- chunk 1: generation timed out")
}

func TestNotification_Deliver(t *testing.T) {
	transport := &mockTransport{name: "telegram"}

	_, err := NewNotification(transport, "42", "Risk report").Deliver(context.Background(), sampleReport())

	require.NoError(t, err)
	assert.Equal(t, "Risk report", transport.subject)
	assert.NotContains(t, transport.body, "Delivered to:")
}

func TestNotification_Failure(t *testing.T) {
	sink := NewNotification(&mockTransport{name: "gmail", err: errors.New("unauthorised")}, "a@b.c", "")

	_, err := sink.Deliver(context.Background(), sampleReport())

	var de *domain.DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "email", de.Sink)
	assert.Contains(t, err.Error(), "gmail: unauthorised")
}

func TestFormatBody_NoAnswer(t *testing.T) {
	report := sampleReport()
	report.QueryAnswer.Answer = ""

	assert.Contains(t, FormatBody(report, nil), "Query Result: (no answer)")
}
