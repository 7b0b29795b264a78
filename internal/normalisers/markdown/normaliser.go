// Package markdown normalises Markdown documents.
//
// Inline formatting is simplified to plain text. Fenced code blocks and pipe
// tables are kept verbatim so the chunker can treat them as single units.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
	"github.com/custodia-labs/intellidocs/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedFormats returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedFormats() []string {
	return []string{"md", "markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts markdown to text with formatting simplified.
func (n *Normaliser) Normalise(_ context.Context, raw []byte) (string, error) {
	return stripMarkdown(plaintext.Clean(string(raw))), nil
}

var (
	images        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	headings      = regexp.MustCompile(`^#{1,6}\s+`)
	blockquote    = regexp.MustCompile(`^>\s?`)
	hr            = regexp.MustCompile(`^[-*_]{3,}\s*$`)
	listMarkers   = regexp.MustCompile(`^(\s*)[-*+]\s+`)
	emphasis      = regexp.MustCompile(`(\*\*|__|\*)([^*_\n]+)(\*\*|__|\*)`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown simplifies markdown line by line. Lines inside a code fence
// and lines starting with a pipe are copied unchanged.
func stripMarkdown(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	inFence := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			out = append(out, line)
			continue
		}
		if inFence || strings.HasPrefix(trimmed, "|") {
			out = append(out, line)
			continue
		}
		if hr.MatchString(trimmed) {
			out = append(out, "")
			continue
		}

		line = headings.ReplaceAllString(trimmed, "")
		line = blockquote.ReplaceAllString(line, "")
		line = listMarkers.ReplaceAllString(line, "$1")
		line = images.ReplaceAllString(line, "")
		line = links.ReplaceAllString(line, "$1")
		line = inlineCode.ReplaceAllString(line, "$1")
		line = emphasis.ReplaceAllString(line, "$2")
		out = append(out, line)
	}

	content = strings.Join(out, "\n")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
