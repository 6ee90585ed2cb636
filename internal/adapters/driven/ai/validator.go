package ai

import (
	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateGenerator validates a generator configuration by pinging the provider.
func (v *ConfigValidator) ValidateGenerator(config *domain.GeneratorSettings) error {
	return ValidateGeneratorConfig(config)
}

// ValidateEmbedding validates an embedding configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(config)
}
