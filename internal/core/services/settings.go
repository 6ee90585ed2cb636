package services

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize     = "pipeline.chunk_size"
	keyMaxTokens     = "pipeline.max_tokens"
	keyTemperature   = "pipeline.temperature"
	keyParallelism   = "pipeline.parallelism"
	keyCallTimeout   = "pipeline.call_timeout"
	keyZeroTolerance = "pipeline.zero_tolerance"
	keyRetrievalK    = "pipeline.retrieval_k"
	keyMaxRetries    = "pipeline.retry.max_retries"
	keyBackoff       = "pipeline.retry.backoff"

	keyGenProvider = "generator.provider"
	keyGenModel    = "generator.model"
	keyGenBaseURL  = "generator.base_url"
	keyGenAPIKey   = "generator.api_key"

	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"

	keyRetrievalMode = "retrieval.mode"

	keyArchiveEnabled = "sinks.archive.enabled"
	keyArchivePath    = "sinks.archive.path"

	keySheetsEnabled     = "sinks.sheets.enabled"
	keySheetsName        = "sinks.sheets.name"
	keySheetsCredentials = "sinks.sheets.credentials_file"
	keySheetsShareWith   = "sinks.sheets.share_with"

	keyEmailEnabled     = "sinks.email.enabled"
	keyEmailTransport   = "sinks.email.transport"
	keyEmailFrom        = "sinks.email.from"
	keyEmailTo          = "sinks.email.to"
	keyEmailSubject     = "sinks.email.subject"
	keySMTPHost         = "sinks.email.host"
	keySMTPPort         = "sinks.email.port"
	keySMTPUsername     = "sinks.email.username"
	keySMTPPassword     = "sinks.email.password"
	keyGmailCredentials = "sinks.email.credentials_file"

	keyTelegramEnabled = "sinks.telegram.enabled"
	keyTelegramToken   = "sinks.telegram.bot_token"
	keyTelegramChatID  = "sinks.telegram.chat_id"

	keyS3Enabled   = "sinks.s3.enabled"
	keyS3Bucket    = "sinks.s3.bucket"
	keyS3Region    = "sinks.s3.region"
	keyS3Endpoint  = "sinks.s3.endpoint"
	keyS3AccessKey = "sinks.s3.access_key"
	keyS3SecretKey = "sinks.s3.secret_key"
	keyS3Prefix    = "sinks.s3.prefix"
	keyS3PathStyle = "sinks.s3.use_path_style"
)

// SettingsService maps the flat key space of a ConfigStore onto domain.Settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or malformed
// values fall back to defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		Pipeline: domain.PipelineConfig{
			ChunkSize:     s.getInt(keyChunkSize, d.Pipeline.ChunkSize),
			MaxTokens:     s.getInt(keyMaxTokens, d.Pipeline.MaxTokens),
			Temperature:   s.getFloat(keyTemperature, d.Pipeline.Temperature),
			Parallelism:   s.getInt(keyParallelism, d.Pipeline.Parallelism),
			CallTimeout:   s.getDuration(keyCallTimeout, d.Pipeline.CallTimeout),
			ZeroTolerance: s.getBool(keyZeroTolerance, d.Pipeline.ZeroTolerance),
			RetrievalK:    s.getInt(keyRetrievalK, d.Pipeline.RetrievalK),
			Retry: domain.RetryPolicy{
				MaxRetries: s.getIntAllowZero(keyMaxRetries, d.Pipeline.Retry.MaxRetries),
				Backoff:    s.getDuration(keyBackoff, d.Pipeline.Retry.Backoff),
			},
		},
		Generator: domain.GeneratorSettings{
			Provider: s.getProvider(keyGenProvider, d.Generator.Provider),
			Model:    s.configStore.GetString(keyGenModel),
			BaseURL:  s.configStore.GetString(keyGenBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyGenAPIKey),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:    s.configStore.GetString(keyEmbedModel),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		Retrieval: domain.RetrievalSettings{
			Mode: s.getRetrievalMode(d.Retrieval.Mode),
		},
		Sinks: domain.SinkSettings{
			Archive: domain.ArchiveSettings{
				Enabled: s.getBool(keyArchiveEnabled, d.Sinks.Archive.Enabled),
				Path:    s.getString(keyArchivePath, d.Sinks.Archive.Path),
			},
			Sheets: domain.SheetsSettings{
				Enabled:         s.getBool(keySheetsEnabled, d.Sinks.Sheets.Enabled),
				Name:            s.getString(keySheetsName, d.Sinks.Sheets.Name),
				CredentialsFile: s.configStore.GetString(keySheetsCredentials),
				ShareWith:       s.configStore.GetString(keySheetsShareWith),
			},
			Email: domain.EmailSettings{
				Enabled:         s.getBool(keyEmailEnabled, d.Sinks.Email.Enabled),
				Transport:       s.getTransport(d.Sinks.Email.Transport),
				From:            s.configStore.GetString(keyEmailFrom),
				To:              s.configStore.GetString(keyEmailTo),
				Subject:         s.getString(keyEmailSubject, d.Sinks.Email.Subject),
				Host:            s.getString(keySMTPHost, d.Sinks.Email.Host),
				Port:            s.getInt(keySMTPPort, d.Sinks.Email.Port),
				Username:        s.configStore.GetString(keySMTPUsername),
				Password:        s.configStore.GetString(keySMTPPassword),
				CredentialsFile: s.configStore.GetString(keyGmailCredentials),
			},
			Telegram: domain.TelegramSettings{
				Enabled:  s.getBool(keyTelegramEnabled, d.Sinks.Telegram.Enabled),
				BotToken: s.configStore.GetString(keyTelegramToken),
				ChatID:   s.getChatID(),
			},
			S3: domain.S3Settings{
				Enabled:      s.getBool(keyS3Enabled, d.Sinks.S3.Enabled),
				Bucket:       s.configStore.GetString(keyS3Bucket),
				Region:       s.configStore.GetString(keyS3Region),
				Endpoint:     s.configStore.GetString(keyS3Endpoint),
				AccessKey:    s.configStore.GetString(keyS3AccessKey),
				SecretKey:    s.configStore.GetString(keyS3SecretKey),
				Prefix:       s.getString(keyS3Prefix, d.Sinks.S3.Prefix),
				UsePathStyle: s.getBool(keyS3PathStyle, d.Sinks.S3.UsePathStyle),
			},
		},
	}

	return settings, nil
}

// Save persists application settings. Secrets are only written when set.
func (s *SettingsService) Save(settings *domain.Settings) error {
	p := settings.Pipeline
	sk := settings.Sinks

	values := []struct {
		key    string
		value  any
		secret bool
	}{
		{keyChunkSize, p.ChunkSize, false},
		{keyMaxTokens, p.MaxTokens, false},
		{keyTemperature, p.Temperature, false},
		{keyParallelism, p.Parallelism, false},
		{keyCallTimeout, p.CallTimeout.String(), false},
		{keyZeroTolerance, p.ZeroTolerance, false},
		{keyRetrievalK, p.RetrievalK, false},
		{keyMaxRetries, p.Retry.MaxRetries, false},
		{keyBackoff, p.Retry.Backoff.String(), false},

		{keyGenProvider, settings.Generator.Provider.String(), false},
		{keyGenModel, settings.Generator.Model, false},
		{keyGenBaseURL, settings.Generator.BaseURL, false},
		{keyGenAPIKey, settings.Generator.APIKey, true},

		{keyEmbedProvider, settings.Embedding.Provider.String(), false},
		{keyEmbedModel, settings.Embedding.Model, false},
		{keyEmbedBaseURL, settings.Embedding.BaseURL, false},
		{keyEmbedAPIKey, settings.Embedding.APIKey, true},

		{keyRetrievalMode, settings.Retrieval.Mode.String(), false},

		{keyArchiveEnabled, sk.Archive.Enabled, false},
		{keyArchivePath, sk.Archive.Path, false},

		{keySheetsEnabled, sk.Sheets.Enabled, false},
		{keySheetsName, sk.Sheets.Name, false},
		{keySheetsCredentials, sk.Sheets.CredentialsFile, false},
		{keySheetsShareWith, sk.Sheets.ShareWith, false},

		{keyEmailEnabled, sk.Email.Enabled, false},
		{keyEmailTransport, string(sk.Email.Transport), false},
		{keyEmailFrom, sk.Email.From, false},
		{keyEmailTo, sk.Email.To, false},
		{keyEmailSubject, sk.Email.Subject, false},
		{keySMTPHost, sk.Email.Host, false},
		{keySMTPPort, sk.Email.Port, false},
		{keySMTPUsername, sk.Email.Username, false},
		{keySMTPPassword, sk.Email.Password, true},
		{keyGmailCredentials, sk.Email.CredentialsFile, false},

		{keyTelegramEnabled, sk.Telegram.Enabled, false},
		{keyTelegramToken, sk.Telegram.BotToken, true},
		{keyTelegramChatID, sk.Telegram.ChatID, false},

		{keyS3Enabled, sk.S3.Enabled, false},
		{keyS3Bucket, sk.S3.Bucket, false},
		{keyS3Region, sk.S3.Region, false},
		{keyS3Endpoint, sk.S3.Endpoint, false},
		{keyS3AccessKey, sk.S3.AccessKey, true},
		{keyS3SecretKey, sk.S3.SecretKey, true},
		{keyS3Prefix, sk.S3.Prefix, false},
		{keyS3PathStyle, sk.S3.UsePathStyle, false},
	}

	for _, v := range values {
		if str, ok := v.value.(string); ok && v.secret && str == "" {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// SetGeneratorProvider configures the text generation provider.
func (s *SettingsService) SetGeneratorProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid generator provider: %s", domain.ErrUnsupportedType, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Generator.Provider = provider
	settings.Generator.Model = modelOrDefault(model, domain.DefaultGeneratorModels()[provider])
	settings.Generator.APIKey = apiKey
	if provider.IsLocal() && settings.Generator.BaseURL == "" {
		settings.Generator.BaseURL = "http://localhost:11434"
	}

	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider and switches
// retrieval to vector mode.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrUnsupportedType, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.APIKey = apiKey
	if provider.IsLocal() && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = "http://localhost:11434"
	}
	settings.Retrieval.Mode = domain.RetrievalModeVector

	return s.Save(settings)
}

// Validate checks that the given settings can drive a pipeline run.
func (s *SettingsService) Validate(settings *domain.Settings) error {
	if err := settings.Pipeline.Validate(); err != nil {
		return err
	}
	if !settings.Generator.IsConfigured() {
		return fmt.Errorf("%w: set generator.provider (and generator.api_key for cloud providers)",
			domain.ErrGeneratorUnavailable)
	}
	if !settings.Retrieval.Mode.IsValid() {
		return fmt.Errorf("%w: invalid retrieval mode: %s", domain.ErrInvalidInput, settings.Retrieval.Mode)
	}

	sk := settings.Sinks
	var problems []string
	if sk.Archive.Enabled && sk.Archive.Path == "" {
		problems = append(problems, "sinks.archive.path is empty")
	}
	if sk.Sheets.Enabled && sk.Sheets.CredentialsFile == "" {
		problems = append(problems, "sinks.sheets.credentials_file is required")
	}
	if sk.Email.Enabled {
		if !sk.Email.Transport.IsValid() {
			problems = append(problems, "sinks.email.transport must be smtp or gmail")
		}
		if sk.Email.To == "" {
			problems = append(problems, "sinks.email.to is required")
		}
		if sk.Email.Transport == domain.EmailTransportSMTP && (sk.Email.Host == "" || sk.Email.From == "") {
			problems = append(problems, "sinks.email.host and sinks.email.from are required for smtp")
		}
		if sk.Email.Transport == domain.EmailTransportGmail && sk.Email.CredentialsFile == "" {
			problems = append(problems, "sinks.email.credentials_file is required for gmail")
		}
	}
	if sk.Telegram.Enabled && (sk.Telegram.BotToken == "" || sk.Telegram.ChatID == "") {
		problems = append(problems, "sinks.telegram.bot_token and sinks.telegram.chat_id are required")
	}
	if sk.S3.Enabled && sk.S3.Bucket == "" {
		problems = append(problems, "sinks.s3.bucket is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero distinguishes an explicit 0 from an unset key.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// getDuration reads a duration string like "45s" or "2m".
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getRetrievalMode(defaultVal domain.RetrievalMode) domain.RetrievalMode {
	mode := domain.RetrievalMode(s.configStore.GetString(keyRetrievalMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getTransport(defaultVal domain.EmailTransport) domain.EmailTransport {
	t := domain.EmailTransport(s.configStore.GetString(keyEmailTransport))
	if !t.IsValid() {
		return defaultVal
	}
	return t
}

// getChatID accepts both quoted and bare numeric chat IDs.
func (s *SettingsService) getChatID() string {
	if id := s.configStore.GetString(keyTelegramChatID); id != "" {
		return id
	}
	if id := s.configStore.GetInt(keyTelegramChatID); id != 0 {
		return fmt.Sprint(id)
	}
	return ""
}

func modelOrDefault(model, defaultModel string) string {
	if model != "" {
		return model
	}
	return defaultModel
}
