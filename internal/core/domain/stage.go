package domain

const unknownDescription = "Unknown"

// Stage is a state of the pipeline run state machine:
//
//	idle -> loading -> chunking -> analyzing || answering -> aggregating -> publishing -> done
//
// Failed is reachable from any non-terminal stage.
type Stage string

// Pipeline stages.
const (
	StageIdle        Stage = "idle"
	StageLoading     Stage = "loading"
	StageChunking    Stage = "chunking"
	StageAnalyzing   Stage = "analyzing"
	StageAnswering   Stage = "answering"
	StageAggregating Stage = "aggregating"
	StagePublishing  Stage = "publishing"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// IsTerminal returns true for Done and Failed.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// Description returns a human-readable description of the stage.
func (s Stage) Description() string {
	switch s {
	case StageIdle:
		return "Idle"
	case StageLoading:
		return "Loading document"
	case StageChunking:
		return "Splitting into chunks"
	case StageAnalyzing:
		return "Analysing chunks"
	case StageAnswering:
		return "Answering query"
	case StageAggregating:
		return "Aggregating findings"
	case StagePublishing:
		return "Publishing to sinks"
	case StageDone:
		return "Done"
	case StageFailed:
		return "Failed"
	default:
		return unknownDescription
	}
}

// StageEvent reports a stage transition to observers.
type StageEvent struct {
	// RunID identifies the run.
	RunID string

	// Stage is the stage being entered.
	Stage Stage

	// Detail is optional progress text (e.g. "3/10 chunks").
	Detail string

	// Err is set when Stage is StageFailed.
	Err error
}
