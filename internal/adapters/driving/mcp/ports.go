package mcp

import (
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
	"github.com/custodia-labs/docrisk/internal/core/ports/driving"
)

// Ports aggregates the interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Pipeline runs analyses.
	Pipeline driving.Pipeline

	// Settings exposes the active configuration as a resource. Optional.
	Settings driving.SettingsService

	// Prompts exposes prompt templates as resources. Optional; the
	// built-in templates are served without it.
	Prompts driven.PromptStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Pipeline == nil {
		return ErrMissingPipeline
	}
	return nil
}
