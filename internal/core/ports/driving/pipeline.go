package driving

import (
	"context"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// Pipeline runs the chunk analysis pipeline for one document and query.
type Pipeline interface {
	// Run loads the document at source and analyses it.
	// The returned RunResult is non-nil whenever the run started;
	// a fatal failure is also returned as a *domain.StageError.
	Run(ctx context.Context, source, query string) (*domain.RunResult, error)

	// Analyze runs the pipeline on an already-loaded document.
	Analyze(ctx context.Context, doc *domain.Document, query string) (*domain.RunResult, error)
}

// RunObserver receives stage transitions and progress of pipeline runs.
// Events of one run are serialised but may arrive from worker goroutines,
// so implementations must not block.
type RunObserver interface {
	OnStage(event domain.StageEvent)
}

// RunObserverFunc adapts a function to RunObserver.
type RunObserverFunc func(event domain.StageEvent)

// OnStage calls f(event).
func (f RunObserverFunc) OnStage(event domain.StageEvent) {
	f(event)
}
