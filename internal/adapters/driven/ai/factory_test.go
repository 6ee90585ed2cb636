package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

func TestCreateGenerator(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.GeneratorSettings
		wantModel string
		wantErr   error
	}{
		{
			name:     "nil settings",
			settings: nil,
			wantErr:  domain.ErrGeneratorUnavailable,
		},
		{
			name:     "openai without key is unconfigured",
			settings: &domain.GeneratorSettings{Provider: domain.AIProviderOpenAI},
			wantErr:  domain.ErrGeneratorUnavailable,
		},
		{
			name:     "unknown provider is unconfigured",
			settings: &domain.GeneratorSettings{Provider: "anthropic", APIKey: "k"},
			wantErr:  domain.ErrGeneratorUnavailable,
		},
		{
			name:      "ollama default model",
			settings:  &domain.GeneratorSettings{Provider: domain.AIProviderOllama},
			wantModel: "llama3.2",
		},
		{
			name:      "openai explicit model",
			settings:  &domain.GeneratorSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-4o"},
			wantModel: "gpt-4o",
		},
		{
			name:      "gemini default model",
			settings:  &domain.GeneratorSettings{Provider: domain.AIProviderGemini, APIKey: "k"},
			wantModel: "gemini-2.0-flash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := CreateGenerator(context.Background(), tt.settings)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, gen)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, gen)
			assert.Equal(t, tt.wantModel, gen.ModelName())
			assert.NoError(t, gen.Close())
		})
	}
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
		wantErr  error
	}{
		{name: "nil settings", settings: nil, wantNil: true},
		{name: "empty provider", settings: &domain.EmbeddingSettings{}, wantNil: true},
		{name: "openai without key", settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}, wantNil: true},
		{name: "ollama", settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama}},
		{name: "openai", settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"}},
		{
			name:     "gemini unsupported",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderGemini, APIKey: "k"},
			wantNil:  true,
			wantErr:  domain.ErrUnsupportedType,
		},
		{
			name:     "unknown provider",
			settings: &domain.EmbeddingSettings{Provider: "cohere"},
			wantNil:  true,
			wantErr:  domain.ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateAndValidateGenerator(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		_, err := CreateAndValidateGenerator(context.Background(), &domain.GeneratorSettings{})
		assert.ErrorIs(t, err, domain.ErrGeneratorUnavailable)
	})

	t.Run("reachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"models":[]}`))
		}))
		defer srv.Close()

		gen, err := CreateAndValidateGenerator(context.Background(), &domain.GeneratorSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  srv.URL,
		})
		require.NoError(t, err)
		assert.NotNil(t, gen)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		gen, err := CreateAndValidateGenerator(context.Background(), &domain.GeneratorSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  url,
		})
		assert.Nil(t, gen)
		assert.ErrorIs(t, err, domain.ErrGeneratorUnavailable)
		assert.Contains(t, err.Error(), "ollama unreachable")
	})
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("unconfigured returns nil", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(context.Background(), nil)
		assert.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  url,
		})
		assert.Nil(t, svc)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}
