package domain

// DeliveryStatus is the outcome of delivering a report to one sink.
type DeliveryStatus string

// Delivery outcomes.
const (
	// DeliveryDelivered means the sink accepted the report.
	DeliveryDelivered DeliveryStatus = "delivered"

	// DeliveryFailed means the sink rejected the report or was unreachable.
	DeliveryFailed DeliveryStatus = "failed"
)

// SinkResult records the outcome of one sink delivery.
type SinkResult struct {
	// Sink is the configured sink name.
	Sink string

	// Status is Delivered or Failed.
	Status DeliveryStatus

	// Reason describes the failure. Empty when delivered.
	Reason string

	// Location is where the report ended up (URL, path, message ID).
	// Optional; some sinks have no addressable location.
	Location string
}

// Delivered returns true if the sink accepted the report.
func (r SinkResult) Delivered() bool {
	return r.Status == DeliveryDelivered
}

// RunStatus is the overall outcome of a pipeline run.
type RunStatus string

// Run outcomes.
const (
	// RunCompleted means every stage and sink succeeded.
	RunCompleted RunStatus = "completed"

	// RunCompletedWithWarnings means the run finished but recorded gaps,
	// a failed query answer, or sink failures.
	RunCompletedWithWarnings RunStatus = "completed_with_warnings"

	// RunFailed means a non-recoverable error stopped the run.
	RunFailed RunStatus = "failed"
)

// Description returns a human-readable description of the status.
func (s RunStatus) Description() string {
	switch s {
	case RunCompleted:
		return "Completed"
	case RunCompletedWithWarnings:
		return "Completed with warnings"
	case RunFailed:
		return "Failed"
	default:
		return unknownDescription
	}
}

// RunResult is returned to the caller of a pipeline run.
type RunResult struct {
	// RunID uniquely identifies the run.
	RunID string

	// Status is the overall outcome.
	Status RunStatus

	// Stage is the last stage reached. On failure it is the stage that failed.
	Stage Stage

	// Report is the aggregated report. Nil if the run failed before aggregation.
	Report *AnalysisReport

	// SinkResults holds one entry per configured sink, in configuration order.
	SinkResults []SinkResult

	// Warnings lists recoverable problems recorded during the run.
	Warnings []string

	// Err is the cause of failure when Status is RunFailed.
	Err error
}

// FailedSinks returns the results of sinks that did not deliver.
func (r *RunResult) FailedSinks() []SinkResult {
	var failed []SinkResult
	for _, sr := range r.SinkResults {
		if !sr.Delivered() {
			failed = append(failed, sr)
		}
	}
	return failed
}
