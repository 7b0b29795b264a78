// Package plaintext normalises plain text files.
package plaintext

import (
	"context"
	"strings"

	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedFormats returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedFormats() []string {
	return []string{"txt", "text", "log", "csv"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise decodes raw as UTF-8, dropping invalid bytes, a leading BOM and
// carriage returns.
func (n *Normaliser) Normalise(_ context.Context, raw []byte) (string, error) {
	return Clean(string(raw)), nil
}

// Clean applies the plain text rules to s. Other normalisers reuse it.
func Clean(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
