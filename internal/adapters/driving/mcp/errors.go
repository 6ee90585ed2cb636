// Package mcp provides an MCP (Model Context Protocol) server adapter for docrisk.
// It lets AI assistants run legal risk analyses on local documents.
package mcp

import "errors"

// ErrMissingPipeline is returned when the pipeline is not provided.
var ErrMissingPipeline = errors.New("mcp: pipeline is required")
