// Package mcp provides an MCP (Model Context Protocol) server adapter for intellidocs.
// It lets AI assistants ask questions over uploaded documents and inspect their status.
package mcp

import "errors"

// ErrMissingQAService is returned when the Q&A service is not provided.
var ErrMissingQAService = errors.New("mcp: qa service is required")
