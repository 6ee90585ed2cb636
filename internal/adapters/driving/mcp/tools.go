package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// AnalyzeInput is the input schema for the analyze_document tool.
type AnalyzeInput struct {
	Query string `json:"query" jsonschema:"the question to answer about the document"`
	Path  string `json:"path,omitempty" jsonschema:"path of a local document to analyse"`
	Text  string `json:"text,omitempty" jsonschema:"document text to analyse instead of a file"`
	Name  string `json:"name,omitempty" jsonschema:"display name for inline text (default inline)"`
}

// AnalyzeOutput is the output schema for the analyze_document tool.
type AnalyzeOutput struct {
	RunID    string          `json:"run_id"`
	Status   string          `json:"status"`
	Answer   string          `json:"answer"`
	Chunks   int             `json:"chunks"`
	Findings []FindingOutput `json:"findings"`
	Gaps     []GapOutput     `json:"gaps,omitempty"`
	Sinks    []SinkOutput    `json:"sinks,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

// FindingOutput is the analysis of one chunk.
type FindingOutput struct {
	Chunk           int    `json:"chunk"`
	Analysis        string `json:"analysis"`
	Recommendations string `json:"recommendations"`
}

// GapOutput is a chunk that could not be analysed.
type GapOutput struct {
	Chunk  int    `json:"chunk"`
	Reason string `json:"reason"`
}

// SinkOutput is the delivery outcome of one sink.
type SinkOutput struct {
	Sink     string `json:"sink"`
	Status   string `json:"status"`
	Location string `json:"location,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "analyze_document",
		Description: "Split a document into chunks, analyse each for legal risks with " +
			"mitigation recommendations, and answer a question about it",
	}, s.handleAnalyze)
}

// handleAnalyze handles the analyze_document tool invocation.
func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	var (
		result *domain.RunResult
		err    error
	)

	switch {
	case input.Text != "" && input.Path != "":
		return nil, AnalyzeOutput{}, errors.New("provide either path or text, not both")
	case input.Text != "":
		name := input.Name
		if name == "" {
			name = "inline"
		}
		result, err = s.ports.Pipeline.Analyze(ctx, &domain.Document{Name: name, Text: input.Text}, input.Query)
	case strings.TrimSpace(input.Path) != "":
		result, err = s.ports.Pipeline.Run(ctx, input.Path, input.Query)
	default:
		return nil, AnalyzeOutput{}, errors.New("path or text is required")
	}

	if err != nil {
		return nil, AnalyzeOutput{}, fmt.Errorf("analysis failed: %w", err)
	}
	return nil, toOutput(result), nil
}

func toOutput(result *domain.RunResult) AnalyzeOutput {
	out := AnalyzeOutput{
		RunID:    result.RunID,
		Status:   string(result.Status),
		Findings: []FindingOutput{},
		Warnings: result.Warnings,
	}

	if r := result.Report; r != nil {
		out.Answer = r.QueryAnswer.Answer
		out.Chunks = r.ChunkCount
		for _, f := range r.Findings {
			out.Findings = append(out.Findings, FindingOutput{
				Chunk:           f.ChunkIndex,
				Analysis:        f.Analysis,
				Recommendations: f.Recommendation,
			})
		}
		for _, g := range r.Gaps {
			out.Gaps = append(out.Gaps, GapOutput{Chunk: g.ChunkIndex, Reason: g.Reason})
		}
	}

	for _, sr := range result.SinkResults {
		out.Sinks = append(out.Sinks, SinkOutput{
			Sink:     sr.Sink,
			Status:   string(sr.Status),
			Location: sr.Location,
			Reason:   sr.Reason,
		})
	}
	return out
}
