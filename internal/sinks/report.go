package sinks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// ReportJSON is the serialised form of an AnalysisReport shared by the
// archive sinks and the CLI's --json output.
type ReportJSON struct {
	RunID       string        `json:"run_id"`
	Source      string        `json:"source"`
	GeneratedAt time.Time     `json:"generated_at"`
	ChunkCount  int           `json:"chunk_count"`
	Query       QueryJSON     `json:"query"`
	Findings    []FindingJSON `json:"findings"`
	Gaps        []GapJSON     `json:"gaps"`
}

// QueryJSON is the serialised query answer.
type QueryJSON struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources,omitempty"`
}

// FindingJSON keeps the context/analysis/recommendations field names of
// the original export format.
type FindingJSON struct {
	Chunk           int    `json:"chunk"`
	Context         string `json:"context"`
	Analysis        string `json:"analysis"`
	Recommendations string `json:"recommendations"`
}

// GapJSON is a chunk with no finding.
type GapJSON struct {
	Chunk  int    `json:"chunk"`
	Reason string `json:"reason"`
}

// NewReportJSON converts a report. Findings and gaps are emitted in
// chunk order and are never null.
func NewReportJSON(report *domain.AnalysisReport) ReportJSON {
	out := ReportJSON{
		RunID:       report.RunID,
		Source:      report.Source,
		GeneratedAt: report.GeneratedAt.UTC(),
		ChunkCount:  report.ChunkCount,
		Query: QueryJSON{
			Question: report.QueryAnswer.Query,
			Answer:   report.QueryAnswer.Answer,
			Sources:  report.QueryAnswer.Sources,
		},
		Findings: make([]FindingJSON, 0, len(report.Findings)),
		Gaps:     make([]GapJSON, 0, len(report.Gaps)),
	}

	for _, f := range report.Findings {
		out.Findings = append(out.Findings, FindingJSON{
			Chunk:           f.ChunkIndex,
			Context:         f.Context,
			Analysis:        f.Analysis,
			Recommendations: f.Recommendation,
		})
	}
	for _, g := range report.Gaps {
		out.Gaps = append(out.Gaps, GapJSON{Chunk: g.ChunkIndex, Reason: g.Reason})
	}
	sort.Slice(out.Gaps, func(i, j int) bool { return out.Gaps[i].Chunk < out.Gaps[j].Chunk })

	return out
}

// MarshalReport encodes a report as indented JSON with a trailing newline.
// HTML characters are not escaped so chunk text stays readable.
func MarshalReport(report *domain.AnalysisReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("%w: nil report", domain.ErrInvalidInput)
	}
	return marshalIndent(NewReportJSON(report))
}

func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// deliveryError wraps cause for the named sink.
func deliveryError(sink string, cause error) error {
	return &domain.DeliveryError{Sink: sink, Cause: cause}
}
