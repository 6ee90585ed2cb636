package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := New(context.Background(), Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	return g
}

func TestNew_RequiresAPIKey(t *testing.T) {
	g, err := New(context.Background(), Config{})

	assert.Nil(t, g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestNew_Defaults(t *testing.T) {
	g, err := New(context.Background(), Config{APIKey: "k"})

	require.NoError(t, err)
	assert.Equal(t, DefaultModel, g.ModelName())
	assert.NoError(t, g.Close())
}

func TestGenerate(t *testing.T) {
	var body map[string]any
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/"+DefaultModel+":generateContent"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"termination "},{"text":"is unilateral"}]}}]}`))
	})

	out, err := g.Generate(context.Background(), "Analyze", driven.GenerateOptions{MaxTokens: 200})

	require.NoError(t, err)
	assert.Equal(t, "termination is unilateral", out)

	genCfg, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 200, genCfg["maxOutputTokens"])
	assert.Contains(t, genCfg, "temperature")
}

func TestGenerate_NoCandidates(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := g.Generate(context.Background(), "p", driven.GenerateOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestGenerate_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		permanent bool
		limited   bool
	}{
		{"invalid key", http.StatusBadRequest, true, false},
		{"quota", http.StatusTooManyRequests, false, true},
		{"unavailable", http.StatusServiceUnavailable, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"nope","status":"FAILED"}}`, tt.status)
			})

			_, err := g.Generate(context.Background(), "p", driven.GenerateOptions{})

			require.Error(t, err)
			assert.Equal(t, tt.permanent, errors.Is(err, domain.ErrPermanent))
			assert.Equal(t, tt.limited, errors.Is(err, domain.ErrRateLimited))
		})
	}
}

func TestPing(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/"+DefaultModel), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"models/gemini-2.0-flash"}`))
	})

	assert.NoError(t, g.Ping(context.Background()))
}

func TestPing_Failure(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	})

	err := g.Ping(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPermanent)
	assert.Contains(t, err.Error(), "ping failed")
}
