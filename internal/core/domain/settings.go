package domain

// AIProvider identifies an AI service provider for generation or embeddings.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI or any OpenAI-compatible API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// GeneratorSettings holds text generation provider configuration.
type GeneratorSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the model name. Empty selects the provider default.
	Model string

	// BaseURL is the API endpoint (Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI/Gemini).
	APIKey string
}

// IsConfigured returns true if the generator provider is set up.
func (g GeneratorSettings) IsConfigured() bool {
	if !g.Provider.IsValid() {
		return false
	}
	if g.Provider.RequiresAPIKey() && g.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
// Gemini is not offered as an embedding backend.
func (e EmbeddingSettings) IsConfigured() bool {
	if e.Provider != AIProviderOllama && e.Provider != AIProviderOpenAI {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// RetrievalMode selects how query context is retrieved from the document.
type RetrievalMode string

// Available retrieval modes.
const (
	// RetrievalModeVector ranks segments by embedding similarity.
	RetrievalModeVector RetrievalMode = "vector"

	// RetrievalModeKeyword ranks segments by query term overlap.
	RetrievalModeKeyword RetrievalMode = "keyword"
)

// IsValid returns true if the retrieval mode is recognised.
func (m RetrievalMode) IsValid() bool {
	return m == RetrievalModeVector || m == RetrievalModeKeyword
}

// RequiresEmbedding returns true if this mode needs an embedding provider.
func (m RetrievalMode) RequiresEmbedding() bool {
	return m == RetrievalModeVector
}

// String returns the string representation.
func (m RetrievalMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m RetrievalMode) Description() string {
	switch m {
	case RetrievalModeVector:
		return "Vector (embedding similarity)"
	case RetrievalModeKeyword:
		return "Keyword (term overlap)"
	default:
		return unknownDescription
	}
}

// RetrievalSettings holds query retrieval configuration.
type RetrievalSettings struct {
	// Mode is the retrieval backend. Vector falls back to keyword
	// when no embedding provider is configured.
	Mode RetrievalMode
}

// Settings is the complete explicit configuration of one docrisk process.
type Settings struct {
	Pipeline  PipelineConfig
	Generator GeneratorSettings
	Embedding EmbeddingSettings
	Retrieval RetrievalSettings
	Sinks     SinkSettings
}

// DefaultSettings returns settings with sensible defaults.
// The generator is left unconfigured; a provider must be chosen explicitly.
// Only the local JSON archive sink is enabled.
func DefaultSettings() Settings {
	return Settings{
		Pipeline:  DefaultPipelineConfig(),
		Retrieval: RetrievalSettings{Mode: RetrievalModeKeyword},
		Sinks:     DefaultSinkSettings(),
	}
}

// AllGeneratorProviders returns providers that support text generation.
func AllGeneratorProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultGeneratorModels returns default models for each generation provider.
func DefaultGeneratorModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: "gpt-4o-mini",
		AIProviderGemini: "gemini-2.0-flash",
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}
