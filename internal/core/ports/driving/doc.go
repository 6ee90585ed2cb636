// Package driving holds the ports the front ends call into: the pipeline
// that analyses documents, the observer it reports stage changes to, and
// the settings service. The cli, mcp and tui adapters depend on these
// interfaces only; internal/core/services and internal/app implement them.
package driving
