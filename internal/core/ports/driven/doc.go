// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for a pipeline run to function:
//
//   - TextGenerator: Produces analyses, recommendations and query answers
//   - RetrieverBuilder: Builds a per-run Retriever over the document's segments
//   - DocumentLoader: Reads a document from a path or stdin
//   - PromptStore: Prompt templates with embedded defaults
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, retrieval falls back to keyword ranking.
//   - Sink: Zero or more report destinations. Without sinks the report is only returned to the caller.
//
// # Sink Backends
//
// Sinks in internal/sinks delegate the actual I/O to narrower ports:
//
//   - TabularStore: Spreadsheet-like row storage (Google Sheets)
//   - MessageTransport: Message delivery (SMTP, Gmail API, Telegram)
//   - ObjectStore: Blob storage (S3-compatible)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or sink package
package driven
