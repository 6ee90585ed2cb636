// Package sinks provides the report destinations of a pipeline run.
//
// Each sink turns an AnalysisReport into the shape its destination
// expects and delegates I/O to a narrow driven port:
//
//   - TabularExport: one row per chunk through a driven.TabularStore
//   - Notification: a plain-text summary through a driven.MessageTransport
//   - LocalArchive: indented JSON written atomically to a local file
//   - ObjectArchive: the same JSON uploaded through a driven.ObjectStore
//
// Every sink reports failures as *domain.DeliveryError.
package sinks
