package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

func TestAnalyzeCmd_Use(t *testing.T) {
	assert.Equal(t, "analyze <file|->", analyzeCmd.Use)
}

func TestAnalyzeCmd_RequiresArg(t *testing.T) {
	setupCLI(t)

	_, _, err := execute("analyze", "--query", "q")

	assert.Error(t, err)
}

func TestAnalyzeCmd_RequiresQuery(t *testing.T) {
	setupCLI(t)

	_, _, err := execute("analyze", "contract.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--query is required")
}

func TestAnalyzeCmd_TextOutput(t *testing.T) {
	env := setupCLI(t)

	out, errOut, err := execute("analyze", "contract.txt", "-q", "Who indemnifies?")

	require.NoError(t, err)
	assert.Equal(t, []string{"contract.txt"}, env.session.sources)
	assert.Equal(t, []string{"Who indemnifies?"}, env.session.queries)
	assert.True(t, env.session.closed)

	assert.Contains(t, out, "Run run-42:")
	assert.Contains(t, out, domain.RunCompletedWithWarnings.Description())
	assert.Contains(t, out, "Document: contract.txt (3 chunks, 2 findings, 1 gaps)")
	assert.Contains(t, out, "Answer: The supplier.")
	assert.Contains(t, out, "✓ archive /tmp/risk_analysis.json")
	assert.Contains(t, out, "✗ email connection refused")
	assert.Contains(t, out, "- chunk 1: generation failed")

	assert.Contains(t, errOut, domain.StageLoading.Description()+"...")
	assert.Contains(t, errOut, "2/3 chunks")
}

func TestAnalyzeCmd_JSONOutput(t *testing.T) {
	env := setupCLI(t)

	out, errOut, err := execute("analyze", "contract.txt", "-q", "Who indemnifies?", "--json")

	require.NoError(t, err)
	assert.Empty(t, env.session.observers)
	assert.Empty(t, errOut)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "run-42", got["run_id"])
	assert.Equal(t, "completed_with_warnings", got["status"])

	report, ok := got["report"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, report["findings"], 2)
	assert.Len(t, report["gaps"], 1)

	sinksOut, ok := got["sinks"].([]any)
	require.True(t, ok)
	require.Len(t, sinksOut, 2)
	assert.Equal(t, "failed", sinksOut[1].(map[string]any)["status"])
}

func TestAnalyzeCmd_FlagsOverrideSettings(t *testing.T) {
	env := setupCLI(t)

	_, _, err := execute("analyze", "contract.txt", "-q", "q",
		"--chunk-size", "500", "--parallelism", "2", "--retrieval", "vector", "--zero-tolerance")

	require.NoError(t, err)
	require.NotNil(t, env.got)
	assert.Equal(t, 500, env.got.Pipeline.ChunkSize)
	assert.Equal(t, 2, env.got.Pipeline.Parallelism)
	assert.Equal(t, domain.RetrievalModeVector, env.got.Retrieval.Mode)
	assert.True(t, env.got.Pipeline.ZeroTolerance)
}

func TestAnalyzeCmd_ZeroToleranceFlag(t *testing.T) {
	tests := []struct {
		name       string
		configured bool
		args       []string
		want       bool
	}{
		{"unset keeps configured true", true, nil, true},
		{"unset keeps configured false", false, nil, false},
		{"false overrides configured true", true, []string{"--zero-tolerance=false"}, false},
		{"true overrides configured false", false, []string{"--zero-tolerance"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupCLI(t)
			env.settings.settings.Pipeline.ZeroTolerance = tt.configured

			_, _, err := execute(append([]string{"analyze", "contract.txt", "-q", "q"}, tt.args...)...)

			require.NoError(t, err)
			require.NotNil(t, env.got)
			assert.Equal(t, tt.want, env.got.Pipeline.ZeroTolerance)
		})
	}
}

func TestAnalyzeCmd_StdinIsPassedToSession(t *testing.T) {
	env := setupCLI(t)
	rootCmd.SetIn(strings.NewReader("contract text"))

	_, _, err := execute("analyze", "-", "-q", "q")

	require.NoError(t, err)
	require.NotNil(t, env.stdin)
	data, err := io.ReadAll(env.stdin)
	require.NoError(t, err)
	assert.Equal(t, "contract text", string(data))
	assert.Equal(t, []string{"-"}, env.session.sources)
}

func TestAnalyzeCmd_FailedRun(t *testing.T) {
	env := setupCLI(t)
	runErr := &domain.StageError{Stage: domain.StageLoading, Err: domain.ErrNotFound}
	env.session.result = &domain.RunResult{RunID: "run-9", Status: domain.RunFailed, Stage: domain.StageLoading, Err: runErr}
	env.session.err = runErr

	out, _, err := execute("analyze", "missing.txt", "-q", "q")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "analysis failed")
	assert.Contains(t, out, "Error: loading:")
}

func TestAnalyzeCmd_SessionError(t *testing.T) {
	setupCLI(t)
	services.NewSession = func(context.Context, domain.Settings, io.Reader) (Session, error) {
		return nil, domain.ErrGeneratorUnavailable
	}

	_, _, err := execute("analyze", "contract.txt", "-q", "q")

	assert.ErrorIs(t, err, domain.ErrGeneratorUnavailable)
}

func TestAnalyzeCmd_SettingsError(t *testing.T) {
	env := setupCLI(t)
	env.settings.getErr = errors.New("disk gone")

	_, _, err := execute("analyze", "contract.txt", "-q", "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get settings")
}

func TestAnalyzeCmd_OverlayApplied(t *testing.T) {
	env := setupCLI(t)
	services.Overlay = func(s *domain.Settings) error {
		s.Pipeline.ChunkSize = 42
		return nil
	}

	_, _, err := execute("analyze", "contract.txt", "-q", "q")

	require.NoError(t, err)
	assert.Equal(t, 42, env.got.Pipeline.ChunkSize)
}

func TestNewRunResultJSON_NeverNull(t *testing.T) {
	out := newRunResultJSON(&domain.RunResult{RunID: "r", Status: domain.RunFailed, Err: errors.New("boom")})

	assert.NotNil(t, out.Sinks)
	assert.NotNil(t, out.Warnings)
	assert.Nil(t, out.Report)
	assert.Equal(t, "boom", out.Error)
}
