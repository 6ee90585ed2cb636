// Package domain defines the core business entities for docrisk.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A loaded text document
//   - Chunk: A fixed-size contiguous slice of a document
//   - Finding: Risk analysis and recommendation for one chunk
//   - AnalysisReport: The aggregated result handed to every sink
//   - RunResult: The outcome of one pipeline run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
