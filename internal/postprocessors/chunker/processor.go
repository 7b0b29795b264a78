// Package chunker provides an offset-preserving sliding-window chunker.
package chunker

import (
	"context"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 120

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// chunkNamespace seeds deterministic chunk IDs.
var chunkNamespace = uuid.MustParse("6f1b7a52-3c1e-4c8e-9a61-0d2f5b7c9e44")

// Processor splits document content into overlapping chunks.
// Every byte of the input is covered by at least one chunk; offsets refer to
// the input string. Tables and fenced code blocks are never split.
type Processor struct {
	chunkSize  int
	overlap    int
	boundaries bool
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithBoundaries makes windows end on a sentence or paragraph break when one
// falls in the last fifth of the window.
func WithBoundaries(enabled bool) Option {
	return func(p *Processor) {
		p.boundaries = enabled
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	return p.Chunk(doc.ID, doc.Content), nil
}

// ChunkID returns the stable identity of the seq-th chunk of a document.
func ChunkID(documentID string, seq int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+"#"+strconv.Itoa(seq))).String()
}

// Chunk splits text. Empty or whitespace-only text yields nil.
func (p *Processor) Chunk(documentID, text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	atomic := atomicSpans(text)
	n := len(text)
	step := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, n/step+1)

	start := 0
	for {
		end := start + p.chunkSize
		if end >= n {
			end = n
		} else {
			end = floorRune(text, end, start)
			if p.boundaries {
				end = p.sentenceEnd(text, start, end)
			}
		}

		for _, span := range atomic {
			if span.start < end && span.end > end {
				if span.start <= start {
					end = span.end
				} else {
					end = span.start
				}
				break
			}
		}

		seq := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:         ChunkID(documentID, seq),
			DocumentID: documentID,
			Sequence:   seq,
			Text:       text[start:end],
			Start:      start,
			End:        end,
		})

		if end >= n {
			return chunks
		}

		next := end - p.overlap
		if next <= start {
			next = end
		}
		next = ceilRune(text, next, end)
		for _, span := range atomic {
			if span.start < next && next < span.end {
				next = span.end
				break
			}
		}
		start = next
	}
}

// sentenceEnd pulls end back to just after the last sentence or paragraph
// break in the final fifth of the window. Returns end unchanged if none.
func (p *Processor) sentenceEnd(text string, start, end int) int {
	floor := start + p.chunkSize*4/5
	if floor >= end {
		return end
	}
	window := text[floor:end]
	best := -1
	for _, sep := range []string{"\n\n", ". ", "? ", "! ", ".\n", "\n"} {
		if i := strings.LastIndex(window, sep); i >= 0 && floor+i+len(sep) > best {
			best = floor + i + len(sep)
		}
	}
	if best <= start {
		return end
	}
	return best
}

// floorRune moves i back to a rune start above lo. When the window is
// narrower than one rune it moves forward instead.
func floorRune(text string, i, lo int) int {
	j := i
	for j > lo && !utf8.RuneStart(text[j]) {
		j--
	}
	if j > lo {
		return j
	}
	for i < len(text) && !utf8.RuneStart(text[i]) {
		i++
	}
	return i
}

// ceilRune moves i forward to a rune start, never beyond hi.
func ceilRune(text string, i, hi int) int {
	for i < hi && !utf8.RuneStart(text[i]) {
		i++
	}
	return i
}

type span struct {
	start, end int
}

// atomicSpans finds pipe tables and fenced code blocks, by byte range.
// Spans include their trailing newline.
func atomicSpans(text string) []span {
	var spans []span
	tableStart, fenceStart := -1, -1

	pos := 0
	for pos < len(text) {
		lineEnd := strings.IndexByte(text[pos:], '\n')
		next := len(text)
		if lineEnd >= 0 {
			next = pos + lineEnd + 1
		}
		line := strings.TrimLeftFunc(text[pos:next], unicode.IsSpace)

		switch {
		case fenceStart >= 0:
			if strings.HasPrefix(line, "```") {
				spans = append(spans, span{fenceStart, next})
				fenceStart = -1
			}
		case strings.HasPrefix(line, "```"):
			if tableStart >= 0 {
				spans = append(spans, span{tableStart, pos})
				tableStart = -1
			}
			fenceStart = pos
		case strings.HasPrefix(line, "|"):
			if tableStart < 0 {
				tableStart = pos
			}
		default:
			if tableStart >= 0 {
				spans = append(spans, span{tableStart, pos})
				tableStart = -1
			}
		}
		pos = next
	}
	if tableStart >= 0 {
		spans = append(spans, span{tableStart, len(text)})
	}
	return spans
}
