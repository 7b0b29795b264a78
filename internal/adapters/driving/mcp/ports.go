package mcp

import (
	"github.com/custodia-labs/intellidocs/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// QA answers questions and runs vector search.
	QA driving.QAService

	// Document exposes document status and summaries. Optional.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.QA == nil {
		return ErrMissingQAService
	}
	return nil
}
