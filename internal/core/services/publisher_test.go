package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/sinks"
)

func testReport() *domain.AnalysisReport {
	return &domain.AnalysisReport{
		RunID:      "run-1",
		Findings:   []domain.Finding{{ChunkIndex: 0, Analysis: "risk"}},
		ChunkCount: 1,
	}
}

func TestSinkPublisher_DeliversToAllInOrder(t *testing.T) {
	a := &mockSink{name: "a", location: "loc-a"}
	b := &mockSink{name: "b", location: "loc-b"}
	p := NewSinkPublisher(domain.RetryPolicy{}, time.Second)

	results := p.Publish(context.Background(), testReport(), []driven.Sink{a, b})

	require.Len(t, results, 2)
	assert.Equal(t, domain.SinkResult{Sink: "a", Status: domain.DeliveryDelivered, Location: "loc-a"}, results[0])
	assert.Equal(t, domain.SinkResult{Sink: "b", Status: domain.DeliveryDelivered, Location: "loc-b"}, results[1])
	assert.Equal(t, "run-1", a.received.RunID)
}

func TestSinkPublisher_FailuresAreIndependent(t *testing.T) {
	bad := &mockSink{name: "bad", errs: []error{domain.ErrPermanent}}
	boom := &mockSink{name: "boom", panicWith: "kaboom"}
	good := &mockSink{name: "good", location: "ok"}
	p := NewSinkPublisher(domain.RetryPolicy{MaxRetries: 3}, time.Second)

	results := p.Publish(context.Background(), testReport(), []driven.Sink{bad, boom, good})

	require.Len(t, results, 3)
	assert.Equal(t, domain.DeliveryFailed, results[0].Status)
	assert.Contains(t, results[0].Reason, "permanent")
	assert.Equal(t, domain.DeliveryFailed, results[1].Status)
	assert.Contains(t, results[1].Reason, "kaboom")
	assert.True(t, results[2].Delivered())

	assert.Equal(t, 1, bad.callCount(), "permanent errors are not retried")
	assert.Equal(t, 1, boom.callCount(), "panics are not retried")
}

func TestSinkPublisher_RetriesTransientFailures(t *testing.T) {
	flaky := &mockSink{name: "flaky", location: "ok", errs: []error{errTransient, errTransient}}
	p := NewSinkPublisher(domain.RetryPolicy{MaxRetries: 2}, time.Second)

	results := p.Publish(context.Background(), testReport(), []driven.Sink{flaky})

	assert.True(t, results[0].Delivered())
	assert.Equal(t, 3, flaky.callCount())
}

func TestSinkPublisher_FollowUpReceivesPriorResults(t *testing.T) {
	sheet := &mockSink{name: "sheets", location: "https://sheet"}
	broken := &mockSink{name: "s3", errs: []error{domain.ErrPermanent}}
	notify := &mockFollowUpSink{mockSink: mockSink{name: "email", location: "msg-1"}}
	p := NewSinkPublisher(domain.RetryPolicy{}, time.Second)

	results := p.Publish(context.Background(), testReport(), []driven.Sink{notify, sheet, broken})

	require.Len(t, results, 3)
	assert.Equal(t, "email", results[0].Sink, "results keep configuration order")
	assert.True(t, results[0].Delivered())

	require.Len(t, notify.prior, 2)
	assert.Equal(t, "sheets", notify.prior[0].Sink)
	assert.Equal(t, "https://sheet", notify.prior[0].Location)
	assert.Equal(t, domain.DeliveryFailed, notify.prior[1].Status)
}

func TestSinkPublisher_NilReport(t *testing.T) {
	s := &mockSink{name: "a"}
	p := NewSinkPublisher(domain.RetryPolicy{}, time.Second)

	results := p.Publish(context.Background(), nil, []driven.Sink{s})

	assert.Equal(t, domain.DeliveryFailed, results[0].Status)
	assert.Zero(t, s.callCount())
}

func TestSinkPublisher_NoSinks(t *testing.T) {
	p := NewSinkPublisher(domain.RetryPolicy{}, time.Second)

	assert.Empty(t, p.Publish(context.Background(), testReport(), nil))
}

func TestSinkPublisher_TimeoutIsFailure(t *testing.T) {
	slow := &blockingSink{}
	p := NewSinkPublisher(domain.RetryPolicy{}, 10*time.Millisecond)

	results := p.Publish(context.Background(), testReport(), []driven.Sink{slow})

	assert.Equal(t, domain.DeliveryFailed, results[0].Status)
	assert.Contains(t, results[0].Reason, "deadline")
}

type blockingSink struct{}

func (blockingSink) Name() string { return "slow" }

func (blockingSink) Deliver(ctx context.Context, _ *domain.AnalysisReport) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestSinkPublisher_CancelDoesNotAbortDeliveryInFlight(t *testing.T) {
	slow := &slowSink{delay: 200 * time.Millisecond}
	p := NewSinkPublisher(domain.RetryPolicy{MaxRetries: 1}, 5*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	results := p.Publish(ctx, testReport(), []driven.Sink{slow})

	require.Len(t, results, 1)
	assert.Equal(t, domain.SinkResult{Sink: "slow", Status: domain.DeliveryDelivered, Location: "done"}, results[0])
	assert.NoError(t, slow.ctxErr)
}

func TestSinkPublisher_CancelledBeforeDeliverySkipsSink(t *testing.T) {
	s := &mockSink{name: "a", location: "loc"}
	p := NewSinkPublisher(domain.RetryPolicy{}, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := p.Publish(ctx, testReport(), []driven.Sink{s})

	assert.Equal(t, domain.DeliveryFailed, results[0].Status)
	assert.Contains(t, results[0].Reason, "run cancelled")
	assert.Zero(t, s.callCount())
}

func TestSinkPublisher_TabularAndNotificationSinks(t *testing.T) {
	store := &memoryTable{ref: driven.TableRef{ID: "sheet-1", URL: "https://sheet/1"}}
	mail := &memoryTransport{}
	sinkList := []driven.Sink{
		sinks.NewNotification(mail, "legal@example.com", ""),
		sinks.NewTabularExport(store, "Contracts"),
	}
	p := NewSinkPublisher(domain.RetryPolicy{}, time.Second)

	results := p.Publish(context.Background(), testReport(), sinkList)

	require.Len(t, results, 2)
	assert.Equal(t, domain.SinkResult{Sink: "email", Status: domain.DeliveryDelivered, Location: "msg-1"}, results[0])
	assert.Equal(t, domain.SinkResult{Sink: "sheets", Status: domain.DeliveryDelivered, Location: "https://sheet/1"}, results[1])
	assert.Equal(t, "legal@example.com", mail.recipient)
	assert.Contains(t, mail.body, "https://sheet/1")
	assert.Equal(t, [][]string{sinks.TabularHeader, {"0", "", "risk", ""}}, store.rows)
}

func TestSinkPublisher_TabularRetryWritesRowsOnce(t *testing.T) {
	tests := []struct {
		name  string
		store *memoryTable
	}{
		{"append rejected", &memoryTable{failAppends: 1}},
		{"append applied but unacknowledged", &memoryTable{lostAcks: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.store.ref = driven.TableRef{ID: "sheet-1"}
			p := NewSinkPublisher(domain.RetryPolicy{MaxRetries: 2}, time.Second)

			results := p.Publish(context.Background(), testReport(),
				[]driven.Sink{sinks.NewTabularExport(tt.store, "")})

			require.True(t, results[0].Delivered(), results[0].Reason)
			assert.Equal(t, [][]string{sinks.TabularHeader, {"0", "", "risk", ""}}, tt.store.rows)
		})
	}
}

// slowSink takes delay to deliver unless its context ends first.
type slowSink struct {
	delay  time.Duration
	ctxErr error
}

func (s *slowSink) Name() string { return "slow" }

func (s *slowSink) Deliver(ctx context.Context, _ *domain.AnalysisReport) (string, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
	}
	s.ctxErr = ctx.Err()
	if s.ctxErr != nil {
		return "", s.ctxErr
	}
	return "done", nil
}

// memoryTable is an in-memory tabular store.
type memoryTable struct {
	ref         driven.TableRef
	failAppends int
	lostAcks    int

	mu   sync.Mutex
	rows [][]string
}

func (m *memoryTable) CreateOrOpen(context.Context, string) (driven.TableRef, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ref, len(m.rows) == 0, nil
}

func (m *memoryTable) AppendRows(_ context.Context, _ driven.TableRef, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAppends > 0 {
		m.failAppends--
		return errTransient
	}
	m.rows = append(m.rows, rows...)
	if m.lostAcks > 0 {
		m.lostAcks--
		return context.DeadlineExceeded
	}
	return nil
}

func (m *memoryTable) RowCount(context.Context, driven.TableRef) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

type memoryTransport struct {
	recipient, body string
}

func (m *memoryTransport) Name() string { return string(domain.EmailTransportSMTP) }

func (m *memoryTransport) Send(_ context.Context, recipient, _, body string) (string, error) {
	m.recipient, m.body = recipient, body
	return "msg-1", nil
}
