package sinks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
)

// Ensure Notification implements the interface.
var _ driven.FollowUpSink = (*Notification)(nil)

// Notification sends a plain-text summary of the report to one recipient.
// It runs after the other sinks so the message lists where the report
// was delivered.
type Notification struct {
	name      string
	transport driven.MessageTransport
	recipient string
	subject   string
}

// NewNotification creates a notification sink. The sink is named after
// the transport's channel ("email" for smtp and gmail, otherwise the
// transport name). An empty subject uses domain.DefaultEmailSubject.
func NewNotification(transport driven.MessageTransport, recipient, subject string) *Notification {
	if subject == "" {
		subject = domain.DefaultEmailSubject
	}
	name := transport.Name()
	if name == string(domain.EmailTransportSMTP) || name == string(domain.EmailTransportGmail) {
		name = "email"
	}
	return &Notification{
		name:      name,
		transport: transport,
		recipient: recipient,
		subject:   subject,
	}
}

// Name returns the sink name.
func (n *Notification) Name() string {
	return n.name
}

// Deliver sends the summary without any delivery locations.
func (n *Notification) Deliver(ctx context.Context, report *domain.AnalysisReport) (string, error) {
	return n.DeliverFollowUp(ctx, report, nil)
}

// DeliverFollowUp sends the summary, listing the locations of the
// sinks in prior that delivered. Returns the transport's message ID.
func (n *Notification) DeliverFollowUp(
	ctx context.Context, report *domain.AnalysisReport, prior []domain.SinkResult,
) (string, error) {
	if report == nil {
		return "", deliveryError(n.name, fmt.Errorf("%w: nil report", domain.ErrInvalidInput))
	}

	id, err := n.transport.Send(ctx, n.recipient, n.subject, FormatBody(report, prior))
	if err != nil {
		return "", deliveryError(n.name, fmt.Errorf("%s: %w", n.transport.Name(), err))
	}
	return id, nil
}

// FormatBody renders the notification text.
func FormatBody(report *domain.AnalysisReport, prior []domain.SinkResult) string {
	var b strings.Builder

	b.WriteString("Here are the results of the legal and risk analysis.\n\n")
	if report.Source != "" {
		fmt.Fprintf(&b, "Document: %s\n", report.Source)
	}
	fmt.Fprintf(&b, "Run: %s\n", report.RunID)
	fmt.Fprintf(&b, "Chunks: %d analysed, %d gaps\n\n", len(report.Findings), len(report.Gaps))

	fmt.Fprintf(&b, "Query: %s\n", report.QueryAnswer.Query)
	answer := report.QueryAnswer.Answer
	if answer == "" {
		answer = "(no answer)"
	}
	fmt.Fprintf(&b, "Query Result: %s\n", answer)

	var delivered []domain.SinkResult
	for _, r := range prior {
		if r.Delivered() && r.Location != "" {
			delivered = append(delivered, r)
		}
	}
	if len(delivered) > 0 {
		b.WriteString("\nDelivered to:\n")
		for _, r := range delivered {
			fmt.Fprintf(&b, "- %s: %s\n", r.Sink, r.Location)
		}
	}

	if len(report.Findings) > 0 {
		b.WriteString("\nFindings:\n")
		for _, f := range report.Findings {
			fmt.Fprintf(&b, "\n[Chunk %d]\n", f.ChunkIndex)
			fmt.Fprintf(&b, "Analysis: %s\n", strings.TrimSpace(f.Analysis))
			fmt.Fprintf(&b, "Recommendations: %s\n", strings.TrimSpace(f.Recommendation))
		}
	}

	if len(report.Gaps) > 0 {
		gaps := append([]domain.Gap(nil), report.Gaps...)
		sort.Slice(gaps, func(i, j int) bool { return gaps[i].ChunkIndex < gaps[j].ChunkIndex })

		b.WriteString("\nGaps:\n")
		for _, g := range gaps {
			fmt.Fprintf(&b, "- chunk %d: %s\n", g.ChunkIndex, g.Reason)
		}
	}

	return b.String()
}
