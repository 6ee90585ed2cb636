package sinks

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
)

type mockTableStore struct {
	ref      driven.TableRef
	created  bool
	openErr  error
	appendEr error
	countErr error

	// failAppends fails this many appends before succeeding.
	failAppends int
	// lostAcks applies this many appends but still reports an error.
	lostAcks int

	opened   []string
	appended [][]string
	appends  int
}

func (m *mockTableStore) CreateOrOpen(_ context.Context, name string) (driven.TableRef, bool, error) {
	m.opened = append(m.opened, name)
	if m.openErr != nil {
		return driven.TableRef{}, false, m.openErr
	}
	return m.ref, m.created, nil
}

func (m *mockTableStore) AppendRows(_ context.Context, _ driven.TableRef, rows [][]string) error {
	m.appends++
	if m.appendEr != nil {
		return m.appendEr
	}
	if m.failAppends > 0 {
		m.failAppends--
		return errors.New("503 backend error")
	}
	m.appended = append(m.appended, rows...)
	if m.lostAcks > 0 {
		m.lostAcks--
		return context.DeadlineExceeded
	}
	return nil
}

func (m *mockTableStore) RowCount(_ context.Context, _ driven.TableRef) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.appended), nil
}

type mockTransport struct {
	name      string
	err       error
	recipient string
	subject   string
	body      string
}

func (m *mockTransport) Send(_ context.Context, recipient, subject, body string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.recipient, m.subject, m.body = recipient, subject, body
	return "msg-1", nil
}

func (m *mockTransport) Name() string {
	return m.name
}

type mockObjectStore struct {
	err         error
	key         string
	contentType string
	body        []byte
}

func (m *mockObjectStore) Put(_ context.Context, key string, body io.Reader, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.key, m.contentType, m.body = key, contentType, data
	return "s3://bucket/" + key, nil
}

func sampleReport() *domain.AnalysisReport {
	return &domain.AnalysisReport{
		RunID:       "run-42",
		Source:      "contract.txt",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ChunkCount:  3,
		QueryAnswer: domain.QueryAnswer{
			Query:   "Who bears liability?",
			Answer:  "The supplier.",
			Sources: []string{"The supplier shall indemnify"},
		},
		Findings: []domain.Finding{
			{ChunkIndex: 0, Context: "The supplier shall indemnify", Analysis: "Broad indemnity.", Recommendation: "Cap it."},
			{ChunkIndex: 2, Context: "Governing law <NY>", Analysis: "Foreign venue.", Recommendation: "Negotiate."},
		},
		Gaps: []domain.Gap{
			{ChunkIndex: 1, Reason: "generation timed out"},
		},
	}
}
