package domain

import (
	"math"
	"sort"
)

// ChunkMetadata is stored next to each vector so a citation can be rebuilt
// without reading the chunk table.
type ChunkMetadata struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// VectorRecord is one row in a vector store, keyed by ChunkID.
type VectorRecord struct {
	ChunkID    string
	DocumentID string
	Sequence   int
	Vector     []float32
	Metadata   ChunkMetadata
}

// VectorHit is a search result.
type VectorHit struct {
	VectorRecord

	// Score is the cosine similarity to the query.
	Score float64
}

// VectorFilter restricts a search to a set of documents. Empty means unscoped.
type VectorFilter struct {
	DocumentIDs []string
}

// IsScoped returns true when the filter names documents.
func (f VectorFilter) IsScoped() bool {
	return len(f.DocumentIDs) > 0
}

// Distinct returns the document ids without duplicates, in first-seen order.
func (f VectorFilter) Distinct() []string {
	if !f.IsScoped() {
		return nil
	}
	seen := make(map[string]bool, len(f.DocumentIDs))
	ids := make([]string, 0, len(f.DocumentIDs))
	for _, id := range f.DocumentIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// Allows reports whether a document passes the filter.
func (f VectorFilter) Allows(documentID string) bool {
	if !f.IsScoped() {
		return true
	}
	for _, id := range f.DocumentIDs {
		if id == documentID {
			return true
		}
	}
	return false
}

// CosineSimilarity scores two vectors in float64.
// Mismatched lengths and zero vectors score 0.
// Every vector store backend ranks with this function so rankings agree.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// SortHits orders hits by score descending, then sequence, document id
// and chunk id ascending.
func SortHits(hits []VectorHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Sequence != b.Sequence {
			return a.Sequence < b.Sequence
		}
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		return a.ChunkID < b.ChunkID
	})
}

// RankTopK scores candidates against query, sorts them and keeps at most k.
func RankTopK(query []float32, candidates []VectorRecord, k int) []VectorHit {
	hits := make([]VectorHit, 0, len(candidates))
	for _, rec := range candidates {
		hits = append(hits, VectorHit{VectorRecord: rec, Score: CosineSimilarity(query, rec.Vector)})
	}
	SortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
