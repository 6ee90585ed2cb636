package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStage_IsTerminal(t *testing.T) {
	assert.True(t, StageDone.IsTerminal())
	assert.True(t, StageFailed.IsTerminal())

	for _, s := range []Stage{StageIdle, StageLoading, StageChunking, StageAnalyzing,
		StageAnswering, StageAggregating, StagePublishing} {
		assert.False(t, s.IsTerminal(), s)
	}
}

func TestStage_Description(t *testing.T) {
	assert.Equal(t, "Analysing chunks", StageAnalyzing.Description())
	assert.Equal(t, "Publishing to sinks", StagePublishing.Description())
	assert.Equal(t, unknownDescription, Stage("bogus").Description())
	assert.Equal(t, "loading", StageLoading.String())
}

func TestRunStatus_Description(t *testing.T) {
	assert.Equal(t, "Completed", RunCompleted.Description())
	assert.Equal(t, "Completed with warnings", RunCompletedWithWarnings.Description())
	assert.Equal(t, "Failed", RunFailed.Description())
	assert.Equal(t, unknownDescription, RunStatus("").Description())
}

func TestRunResult_FailedSinks(t *testing.T) {
	r := &RunResult{SinkResults: []SinkResult{
		{Sink: "archive", Status: DeliveryDelivered, Location: "risk_analysis.json"},
		{Sink: "sheets", Status: DeliveryFailed, Reason: "unreachable"},
		{Sink: "email", Status: DeliveryDelivered},
	}}

	failed := r.FailedSinks()
	assert.Len(t, failed, 1)
	assert.Equal(t, "sheets", failed[0].Sink)
	assert.False(t, failed[0].Delivered())
}

func TestAnalysisReport_HasGaps(t *testing.T) {
	r := &AnalysisReport{}
	assert.False(t, r.HasGaps())

	r.Gaps = []Gap{{ChunkIndex: 1, Reason: "timeout"}}
	assert.True(t, r.HasGaps())
}
