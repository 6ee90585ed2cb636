package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
)

// Prompt prefixes of the built-in templates, used to route mock responses.
const (
	riskPrefix  = "Analyze the following text for legal risks"
	recPrefix   = "Provide recommendations"
	queryPrefix = "Use the following pieces of context"
)

// mockGenerator answers prompts with respond, or echoes a canned reply.
type mockGenerator struct {
	respond func(ctx context.Context, prompt string) (string, error)

	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	mu      sync.Mutex
	prompts []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		cur := m.maxInFlight.Load()
		if n <= cur || m.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.respond != nil {
		return m.respond(ctx, prompt)
	}
	switch {
	case strings.HasPrefix(prompt, riskPrefix):
		return "risk found", nil
	case strings.HasPrefix(prompt, recPrefix):
		return "mitigate it", nil
	default:
		return "the answer", nil
	}
}

func (m *mockGenerator) ModelName() string { return "mock-model" }

func (m *mockGenerator) Ping(_ context.Context) error { return nil }

func (m *mockGenerator) Close() error { return nil }

func (m *mockGenerator) promptsWithPrefix(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, p := range m.prompts {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

// mockRetrieverBuilder returns the first k segments for any query.
type mockRetrieverBuilder struct {
	buildErr    error
	retrieveErr error
	builds      atomic.Int32
	segments    []domain.Chunk
}

func (m *mockRetrieverBuilder) Build(_ context.Context, segments []domain.Chunk) (driven.Retriever, error) {
	m.builds.Add(1)
	if m.buildErr != nil {
		return nil, m.buildErr
	}
	m.segments = segments
	return &mockRetriever{builder: m}, nil
}

func (m *mockRetrieverBuilder) Name() string { return "mock" }

type mockRetriever struct {
	builder *mockRetrieverBuilder
}

func (r *mockRetriever) Retrieve(_ context.Context, _ string, k int) ([]string, error) {
	if r.builder.retrieveErr != nil {
		return nil, r.builder.retrieveErr
	}
	var out []string
	for i, s := range r.builder.segments {
		if i >= k {
			break
		}
		out = append(out, s.Text)
	}
	return out, nil
}

// mockSink records deliveries and returns err (or panics) on demand.
type mockSink struct {
	name      string
	location  string
	errs      []error
	panicWith any

	mu       sync.Mutex
	calls    int
	received *domain.AnalysisReport
}

func (m *mockSink) Name() string { return m.name }

func (m *mockSink) Deliver(_ context.Context, report *domain.AnalysisReport) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.received = report
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return m.location, nil
}

func (m *mockSink) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockFollowUpSink records the prior results it was given.
type mockFollowUpSink struct {
	mockSink
	prior []domain.SinkResult
}

func (m *mockFollowUpSink) DeliverFollowUp(
	ctx context.Context, report *domain.AnalysisReport, prior []domain.SinkResult,
) (string, error) {
	m.mu.Lock()
	m.prior = prior
	m.mu.Unlock()
	return m.Deliver(ctx, report)
}

// mockLoader serves documents from a map keyed by source.
type mockLoader struct {
	docs  map[string]*domain.Document
	calls atomic.Int32
}

func (m *mockLoader) Load(_ context.Context, source string) (*domain.Document, error) {
	m.calls.Add(1)
	doc, ok := m.docs[source]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

var errTransient = errors.New("transient backend error")

// testConfig returns a fast pipeline configuration for tests.
func testConfig() domain.PipelineConfig {
	cfg := domain.DefaultPipelineConfig()
	cfg.Retry.Backoff = 0
	return cfg
}
