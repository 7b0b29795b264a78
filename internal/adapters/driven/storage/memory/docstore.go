package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Documents are cloned on the way in and out so callers never share state.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document
	chunks    map[string][]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc.Clone()
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc.Clone(), nil
}

// ListDocuments returns all documents, oldest first.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		result = append(result, *doc.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// ListIDsByStatus returns the ids of documents in status, oldest first.
func (s *DocumentStore) ListIDsByStatus(_ context.Context, status domain.Status) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*domain.Document
	for _, doc := range s.documents {
		if doc.Status == status {
			matched = append(matched, doc)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	ids := make([]string, len(matched))
	for i, doc := range matched {
		ids[i] = doc.ID
	}
	return ids, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}

// SaveChunks replaces the chunks of a document.
func (s *DocumentStore) SaveChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if c.DocumentID != documentID {
			return domain.ErrValidation
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(chunks) == 0 {
		delete(s.chunks, documentID)
		return nil
	}
	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)
	sort.Slice(stored, func(i, j int) bool { return stored[i].Sequence < stored[j].Sequence })
	s.chunks[documentID] = stored
	return nil
}

// GetChunks retrieves all chunks for a document.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.chunks[documentID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}
