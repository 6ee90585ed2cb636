package domain

import "time"

// Finding is the analysis and recommendation produced for one chunk.
// Exactly one Finding (or one Gap) exists per chunk of a run.
type Finding struct {
	// ChunkIndex links the finding to its source chunk.
	ChunkIndex int

	// Context is the chunk text the finding was generated from.
	Context string

	// Analysis is the generated legal risk analysis.
	Analysis string

	// Recommendation is the generated mitigation advice.
	Recommendation string
}

// Gap records a chunk whose finding could not be produced.
type Gap struct {
	// ChunkIndex identifies the chunk that was skipped.
	ChunkIndex int

	// Reason is a human-readable description of the failure.
	Reason string
}

// QueryAnswer is the response to the user's free-form question.
type QueryAnswer struct {
	// Query is the question as asked.
	Query string

	// Answer is the generated answer. Empty when answering failed
	// and the failure was recorded as a warning.
	Answer string

	// Sources are the retrieved document segments used as context.
	Sources []string
}

// AnalysisReport is the unit handed to every sink.
// Findings are ordered by chunk index; Findings and Gaps together
// cover every chunk of the input document exactly once.
type AnalysisReport struct {
	// RunID uniquely identifies the run that produced the report.
	RunID string

	// Source names the analysed document.
	Source string

	// GeneratedAt is when aggregation completed.
	GeneratedAt time.Time

	// QueryAnswer is the answer to the user's question.
	QueryAnswer QueryAnswer

	// Findings holds one entry per successfully analysed chunk.
	Findings []Finding

	// Gaps holds one entry per chunk that could not be analysed.
	Gaps []Gap

	// ChunkCount is the number of chunks the document was split into.
	ChunkCount int
}

// HasGaps returns true if any chunk is missing a finding.
func (r *AnalysisReport) HasGaps() bool {
	return len(r.Gaps) > 0
}
