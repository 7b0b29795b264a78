package domain

// Chunk is a contiguous, citable span of a document's normalised text.
// Chunks are immutable once created except for Embedding, which is set once.
type Chunk struct {
	// ID is stable across re-indexing of the same document.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Sequence is the 0-based position within the document; it defines citation order.
	Sequence int

	// Text is the raw span, equal to content[Start:End].
	Text string

	// Start is the byte offset of the span in the normalised text.
	Start int

	// End is the exclusive byte offset of the span.
	End int

	// Embedding is the vector representation.
	Embedding []float32
}

// Record converts an embedded chunk to its vector-store form.
func (c Chunk) Record() VectorRecord {
	return VectorRecord{
		ChunkID:    c.ID,
		DocumentID: c.DocumentID,
		Sequence:   c.Sequence,
		Vector:     c.Embedding,
		Metadata: ChunkMetadata{
			Start: c.Start,
			End:   c.End,
			Text:  c.Text,
		},
	}
}

// snippetRunes bounds citation snippets.
const snippetRunes = 200

// Citation points an answer back at a chunk.
type Citation struct {
	DocumentID string
	ChunkID    string
	Sequence   int
	Start      int
	End        int
	Snippet    string
}

// CitationFromHit builds a citation from a search hit.
func CitationFromHit(h VectorHit) Citation {
	snippet := h.Metadata.Text
	if r := []rune(snippet); len(r) > snippetRunes {
		snippet = string(r[:snippetRunes])
	}
	return Citation{
		DocumentID: h.DocumentID,
		ChunkID:    h.ChunkID,
		Sequence:   h.Sequence,
		Start:      h.Metadata.Start,
		End:        h.Metadata.End,
		Snippet:    snippet,
	}
}
