package mcp

import (
	"context"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driving"
)

// mockQAService is a mock implementation of driving.QAService.
type mockQAService struct {
	record    *domain.QARecord
	hits      []domain.VectorHit
	err       error
	lastScope []string
	lastK     int
}

func (m *mockQAService) Ask(_ context.Context, question string, scope []string) (*domain.QARecord, error) {
	m.lastScope = scope
	if m.err != nil {
		return nil, m.err
	}
	rec := *m.record
	rec.Question = question
	return &rec, nil
}

func (m *mockQAService) Search(_ context.Context, _ string, k int, scope []string) ([]domain.VectorHit, error) {
	m.lastK = k
	m.lastScope = scope
	return m.hits, m.err
}

func (m *mockQAService) History(_ context.Context, _ int) ([]domain.QARecord, error) {
	return nil, m.err
}

// mockDocumentService implements the parts of driving.DocumentService the
// server uses. Calling any other method panics on the nil embedded interface.
type mockDocumentService struct {
	driving.DocumentService

	documents []domain.Document
	status    *driving.DocumentStatus
	summary   []byte
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Status(_ context.Context, _ string) (*driving.DocumentStatus, error) {
	return m.status, m.err
}

func (m *mockDocumentService) ExportSummary(_ context.Context, _ string) ([]byte, error) {
	return m.summary, m.err
}
