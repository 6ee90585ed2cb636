// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// StageChanged carries a pipeline stage transition into the model.
// It is sent from the run observer, outside the Bubbletea event loop.
type StageChanged struct {
	Event domain.StageEvent
}

// RunFinished is sent once the pipeline call returns.
type RunFinished struct {
	Result *domain.RunResult
	Err    error
}

// Status returns the run outcome. A run that returned no result
// counts as failed.
func (m RunFinished) Status() domain.RunStatus {
	if m.Result == nil {
		return domain.RunFailed
	}
	return m.Result.Status
}

// Quit is a command to exit the application.
type Quit struct{}
