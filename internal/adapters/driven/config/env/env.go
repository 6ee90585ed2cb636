// Package env overlays settings from DOCRISK_* environment variables,
// optionally loaded from a .env file first.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// Prefix is the environment variable prefix.
const Prefix = "DOCRISK"

// overrides mirrors the overridable settings. A field tagged
// envconfig:"X" reads DOCRISK_X, falling back to plain X, which lets
// conventional variables like OPENAI_API_KEY work unprefixed.
type overrides struct {
	ChunkSize     int           `envconfig:"CHUNK_SIZE"`
	MaxTokens     int           `envconfig:"MAX_TOKENS"`
	Temperature   float64       `envconfig:"TEMPERATURE"`
	Parallelism   int           `envconfig:"PARALLELISM"`
	CallTimeout   time.Duration `envconfig:"CALL_TIMEOUT"`
	ZeroTolerance bool          `envconfig:"ZERO_TOLERANCE"`
	RetrievalK    int           `envconfig:"RETRIEVAL_K"`
	MaxRetries    int           `envconfig:"MAX_RETRIES"`
	Backoff       time.Duration `envconfig:"BACKOFF"`

	GeneratorProvider string `envconfig:"GENERATOR_PROVIDER"`
	GeneratorModel    string `envconfig:"GENERATOR_MODEL"`
	GeneratorBaseURL  string `envconfig:"GENERATOR_BASE_URL"`
	GeneratorAPIKey   string `envconfig:"GENERATOR_API_KEY"`

	EmbeddingProvider string `envconfig:"EMBEDDING_PROVIDER"`
	EmbeddingModel    string `envconfig:"EMBEDDING_MODEL"`
	EmbeddingBaseURL  string `envconfig:"EMBEDDING_BASE_URL"`
	EmbeddingAPIKey   string `envconfig:"EMBEDDING_API_KEY"`

	RetrievalMode string `envconfig:"RETRIEVAL_MODE"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`

	ArchivePath string `envconfig:"ARCHIVE_PATH"`

	SheetsCredentials string `envconfig:"SHEETS_CREDENTIALS_FILE"`
	SheetsShareWith   string `envconfig:"SHEETS_SHARE_WITH"`

	EmailFrom     string `envconfig:"EMAIL_FROM"`
	EmailTo       string `envconfig:"EMAIL_TO"`
	SMTPHost      string `envconfig:"SMTP_HOST"`
	SMTPPort      int    `envconfig:"SMTP_PORT"`
	SMTPUsername  string `envconfig:"SMTP_USERNAME"`
	SMTPPassword  string `envconfig:"SMTP_PASSWORD"`
	GmailCredFile string `envconfig:"GMAIL_CREDENTIALS_FILE"`

	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `envconfig:"TELEGRAM_CHAT_ID"`

	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Region    string `envconfig:"S3_REGION"`
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
}

// LoadDotenv loads variables from the given .env files (default ".env")
// without overriding variables already set. Missing files are ignored.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Apply overwrites fields of settings with any environment variables that are set.
func Apply(settings *domain.Settings) error {
	p := &settings.Pipeline
	g := &settings.Generator
	e := &settings.Embedding
	sk := &settings.Sinks

	o := overrides{
		ChunkSize:     p.ChunkSize,
		MaxTokens:     p.MaxTokens,
		Temperature:   p.Temperature,
		Parallelism:   p.Parallelism,
		CallTimeout:   p.CallTimeout,
		ZeroTolerance: p.ZeroTolerance,
		RetrievalK:    p.RetrievalK,
		MaxRetries:    p.Retry.MaxRetries,
		Backoff:       p.Retry.Backoff,

		GeneratorProvider: string(g.Provider),
		GeneratorModel:    g.Model,
		GeneratorBaseURL:  g.BaseURL,
		GeneratorAPIKey:   g.APIKey,

		EmbeddingProvider: string(e.Provider),
		EmbeddingModel:    e.Model,
		EmbeddingBaseURL:  e.BaseURL,
		EmbeddingAPIKey:   e.APIKey,

		RetrievalMode: string(settings.Retrieval.Mode),

		ArchivePath: sk.Archive.Path,

		SheetsCredentials: sk.Sheets.CredentialsFile,
		SheetsShareWith:   sk.Sheets.ShareWith,

		EmailFrom:     sk.Email.From,
		EmailTo:       sk.Email.To,
		SMTPHost:      sk.Email.Host,
		SMTPPort:      sk.Email.Port,
		SMTPUsername:  sk.Email.Username,
		SMTPPassword:  sk.Email.Password,
		GmailCredFile: sk.Email.CredentialsFile,

		TelegramBotToken: sk.Telegram.BotToken,
		TelegramChatID:   sk.Telegram.ChatID,

		S3Bucket:    sk.S3.Bucket,
		S3Region:    sk.S3.Region,
		S3Endpoint:  sk.S3.Endpoint,
		S3AccessKey: sk.S3.AccessKey,
		S3SecretKey: sk.S3.SecretKey,
	}

	if err := envconfig.Process(Prefix, &o); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}

	p.ChunkSize = o.ChunkSize
	p.MaxTokens = o.MaxTokens
	p.Temperature = o.Temperature
	p.Parallelism = o.Parallelism
	p.CallTimeout = o.CallTimeout
	p.ZeroTolerance = o.ZeroTolerance
	p.RetrievalK = o.RetrievalK
	p.Retry.MaxRetries = o.MaxRetries
	p.Retry.Backoff = o.Backoff

	g.Provider = domain.AIProvider(o.GeneratorProvider)
	g.Model = o.GeneratorModel
	g.BaseURL = o.GeneratorBaseURL
	g.APIKey = o.GeneratorAPIKey

	e.Provider = domain.AIProvider(o.EmbeddingProvider)
	e.Model = o.EmbeddingModel
	e.BaseURL = o.EmbeddingBaseURL
	e.APIKey = o.EmbeddingAPIKey

	settings.Retrieval.Mode = domain.RetrievalMode(o.RetrievalMode)

	// Provider-conventional keys fill in only what is still missing.
	fillKey(&g.APIKey, g.Provider, o.OpenAIAPIKey, o.GeminiAPIKey)
	fillKey(&e.APIKey, e.Provider, o.OpenAIAPIKey, o.GeminiAPIKey)

	sk.Archive.Path = o.ArchivePath

	sk.Sheets.CredentialsFile = o.SheetsCredentials
	sk.Sheets.ShareWith = o.SheetsShareWith

	sk.Email.From = o.EmailFrom
	sk.Email.To = o.EmailTo
	sk.Email.Host = o.SMTPHost
	sk.Email.Port = o.SMTPPort
	sk.Email.Username = o.SMTPUsername
	sk.Email.Password = o.SMTPPassword
	sk.Email.CredentialsFile = o.GmailCredFile

	sk.Telegram.BotToken = o.TelegramBotToken
	sk.Telegram.ChatID = o.TelegramChatID

	sk.S3.Bucket = o.S3Bucket
	sk.S3.Region = o.S3Region
	sk.S3.Endpoint = o.S3Endpoint
	sk.S3.AccessKey = o.S3AccessKey
	sk.S3.SecretKey = o.S3SecretKey

	return nil
}

func fillKey(dst *string, provider domain.AIProvider, openaiKey, geminiKey string) {
	if *dst != "" {
		return
	}
	switch provider {
	case domain.AIProviderOpenAI:
		*dst = openaiKey
	case domain.AIProviderGemini:
		*dst = geminiKey
	}
}
