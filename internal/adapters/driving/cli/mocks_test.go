package cli

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driving"
)

// mockSession is a mock implementation of Session.
type mockSession struct {
	mu sync.Mutex

	result    *domain.RunResult
	err       error
	sinks     []string
	observers []driving.RunObserver
	closed    bool

	sources []string
	queries []string
}

func (m *mockSession) Run(_ context.Context, source, query string) (*domain.RunResult, error) {
	m.mu.Lock()
	m.sources = append(m.sources, source)
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	for _, obs := range m.observers {
		obs.OnStage(domain.StageEvent{RunID: "run-42", Stage: domain.StageLoading})
		obs.OnStage(domain.StageEvent{RunID: "run-42", Stage: domain.StageAnalyzing, Detail: "2/3 chunks"})
	}
	return m.result, m.err
}

func (m *mockSession) sourcesSnapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sources...)
}

func (m *mockSession) Analyze(ctx context.Context, doc *domain.Document, query string) (*domain.RunResult, error) {
	source := doc.Path
	if source == "" {
		source = doc.Name
	}
	return m.Run(ctx, source, query)
}

func (m *mockSession) AddObserver(obs driving.RunObserver) {
	m.observers = append(m.observers, obs)
}

func (m *mockSession) Sinks() []string {
	return m.sinks
}

func (m *mockSession) Close() error {
	m.closed = true
	return nil
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    *domain.Settings
	getErr      error
	validateErr error
	saved       *domain.Settings
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	cp := *m.settings
	return &cp, nil
}

func (m *mockSettingsService) Save(s *domain.Settings) error {
	m.saved = s
	return nil
}

func (m *mockSettingsService) Validate(_ *domain.Settings) error {
	return m.validateErr
}

func (m *mockSettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

func configuredSettings() *domain.Settings {
	s := domain.DefaultSettings()
	s.Generator = domain.GeneratorSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-1234567890abcdef",
	}
	return &s
}

func sampleResult() *domain.RunResult {
	return &domain.RunResult{
		RunID:  "run-42",
		Status: domain.RunCompletedWithWarnings,
		Stage:  domain.StageDone,
		Report: &domain.AnalysisReport{
			RunID:       "run-42",
			Source:      "contract.txt",
			GeneratedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			ChunkCount:  3,
			QueryAnswer: domain.QueryAnswer{Query: "Who indemnifies?", Answer: "The supplier."},
			Findings: []domain.Finding{
				{ChunkIndex: 0, Context: "ctx", Analysis: "Unlimited liability.", Recommendation: "Cap it."},
				{ChunkIndex: 2, Context: "ctx", Analysis: "Auto renewal.", Recommendation: "Add notice."},
			},
			Gaps: []domain.Gap{{ChunkIndex: 1, Reason: "generation failed"}},
		},
		SinkResults: []domain.SinkResult{
			{Sink: "archive", Status: domain.DeliveryDelivered, Location: "/tmp/risk_analysis.json"},
			{Sink: "email", Status: domain.DeliveryFailed, Reason: "connection refused"},
		},
		Warnings: []string{"chunk 1: generation failed", "sink email: connection refused"},
	}
}

// testEnv installs mocks as the CLI services and resets command state.
type testEnv struct {
	session  *mockSession
	settings *mockSettingsService
	got      *domain.Settings
	stdin    io.Reader
}

func setupCLI(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		session:  &mockSession{result: sampleResult(), sinks: []string{"archive", "email"}},
		settings: &mockSettingsService{settings: configuredSettings()},
	}

	oldServices, oldSettings, oldPath := services, settingsService, configPath
	services = &Services{
		NewSession: func(_ context.Context, s domain.Settings, stdin io.Reader) (Session, error) {
			env.got = &s
			env.stdin = stdin
			return env.session, nil
		},
	}
	settingsService = env.settings
	configPath = ""

	analyzeOpts = analyzeFlags{}
	analyzeJSON = false
	analyzeProgress = false
	watchOpts = analyzeFlags{}
	for _, cmd := range []*cobra.Command{analyzeCmd, watchCmd} {
		cmd.Flags().Lookup("zero-tolerance").Changed = false
		// cobra only propagates ExecuteContext's ctx to a subcommand whose
		// ctx is still nil, so a previous test's context would otherwise stick.
		cmd.SetContext(nil) //nolint:staticcheck // reset shared command state
	}
	cfgFile = ""
	verbose = false
	authClientSecret, authOut = "", ""
	authNoBrowser, authSave = false, false
	authTimeout = 5 * time.Second

	t.Cleanup(func() {
		services, settingsService, configPath = oldServices, oldSettings, oldPath
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return env
}

// execute runs the root command with args and returns stdout and stderr.
func execute(args ...string) (string, string, error) {
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}
