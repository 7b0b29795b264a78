package driven

import "context"

// Parser turns raw uploaded bytes into normalised text.
type Parser interface {
	// Parse returns the text of raw, interpreted as format (a lower-case
	// file extension). Fails with domain.ErrUnsupportedFormat or
	// domain.ErrCorruptInput.
	Parse(ctx context.Context, raw []byte, format string) (string, error)

	// Supports reports whether format can be parsed.
	Supports(format string) bool

	// SupportedFormats lists every parseable format.
	SupportedFormats() []string
}

// Normaliser handles one family of file formats.
// A Parser dispatches to the highest priority Normaliser for a format.
type Normaliser interface {
	// SupportedFormats returns the file extensions this normaliser handles.
	SupportedFormats() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts plain text from raw bytes.
	Normalise(ctx context.Context, raw []byte) (string, error)
}
