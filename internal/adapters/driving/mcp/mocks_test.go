package mcp

import (
	"context"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// mockPipeline is a mock implementation of driving.Pipeline.
type mockPipeline struct {
	result *domain.RunResult
	err    error

	source string
	doc    *domain.Document
	query  string
}

func (m *mockPipeline) Run(_ context.Context, source, query string) (*domain.RunResult, error) {
	m.source, m.query = source, query
	return m.result, m.err
}

func (m *mockPipeline) Analyze(_ context.Context, doc *domain.Document, query string) (*domain.RunResult, error) {
	m.doc, m.query = doc, query
	return m.result, m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings *domain.Settings
	err      error
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Save(_ *domain.Settings) error {
	return m.err
}

func (m *mockSettingsService) Validate(_ *domain.Settings) error {
	return m.err
}

func (m *mockSettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// mockPromptStore is a mock implementation of driven.PromptStore.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.prompts[name], nil
}

func (m *mockPromptStore) Reload() {}

func completedResult() *domain.RunResult {
	return &domain.RunResult{
		RunID:  "run-1",
		Status: domain.RunCompletedWithWarnings,
		Report: &domain.AnalysisReport{
			RunID:       "run-1",
			ChunkCount:  2,
			QueryAnswer: domain.QueryAnswer{Query: "q", Answer: "yes"},
			Findings: []domain.Finding{
				{ChunkIndex: 0, Context: "c", Analysis: "risky", Recommendation: "fix"},
			},
			Gaps: []domain.Gap{{ChunkIndex: 1, Reason: "timeout"}},
		},
		SinkResults: []domain.SinkResult{
			{Sink: "archive", Status: domain.DeliveryDelivered, Location: "/tmp/r.json"},
		},
		Warnings: []string{"chunk 1: timeout"},
	}
}
