// Package tui provides the terminal progress view for docrisk analysis runs.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docrisk/internal/core/ports/driving"
)

// ObserverRegistry accepts run observers.
type ObserverRegistry interface {
	AddObserver(obs driving.RunObserver)
}

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Pipeline runs the analysis.
	Pipeline driving.Pipeline

	// Observers receives the TUI's stage observer. Optional; without it
	// only the final outcome is shown.
	Observers ObserverRegistry
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Pipeline == nil {
		return ErrMissingPipeline
	}
	return nil
}
