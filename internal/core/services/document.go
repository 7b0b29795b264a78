package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driving"
	"github.com/custodia-labs/intellidocs/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// Summary version notes written by the document service.
const (
	NoteManualSave = "manual_save"
	NoteRegenerate = "regenerate"
)

// DocumentService manages uploaded documents, their summaries and entities.
type DocumentService struct {
	registry   *Registry
	pipeline   *IngestionPipeline
	summarizer *Summarizer
}

// NewDocumentService creates a new document service.
func NewDocumentService(registry *Registry, pipeline *IngestionPipeline, summarizer *Summarizer) *DocumentService {
	if summarizer == nil {
		summarizer = NewSummarizer(SummarizerConfig{})
	}
	return &DocumentService{
		registry:   registry,
		pipeline:   pipeline,
		summarizer: summarizer,
	}
}

// Upload registers a document and schedules background ingestion.
func (s *DocumentService) Upload(ctx context.Context, filename string, raw []byte) (*domain.Document, error) {
	return s.pipeline.Submit(ctx, filename, raw)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.registry.Get(ctx, documentID)
}

// List returns all documents, oldest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.registry.List(ctx)
}

// Status returns the lifecycle view of a document.
func (s *DocumentService) Status(ctx context.Context, documentID string) (*driving.DocumentStatus, error) {
	return s.registry.Status(ctx, documentID)
}

// Versions returns the full ordered summary history.
func (s *DocumentService) Versions(ctx context.Context, documentID string) ([]domain.SummaryVersion, error) {
	return s.registry.Versions(ctx, documentID)
}

// SaveSummary appends a validated user-edited version. Stored entities are
// left as they are.
func (s *DocumentService) SaveSummary(ctx context.Context, documentID, text string) (*domain.SummaryVersion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: summary text is required", domain.ErrValidation)
	}
	return s.registry.AppendSummaryVersion(ctx, documentID, text, domain.SummaryUserEdited,
		NoteManualSave, s.summarizer.Validate(text))
}

// RegenerateSummary drafts a new summary from the indexed content of a
// ready document. words overrides the configured target length when
// positive and is recorded in the version note. Generator failures are
// returned and nothing is appended.
func (s *DocumentService) RegenerateSummary(ctx context.Context, documentID string, words int) (*domain.SummaryVersion, error) {
	if words < 0 {
		return nil, fmt.Errorf("%w: target words must not be negative", domain.ErrValidation)
	}
	doc, err := s.registry.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != domain.StatusReady {
		return nil, fmt.Errorf("%w: document %s is %s", domain.ErrValidation, documentID, doc.Status)
	}

	summary, validation, err := s.summarizer.SummarizeWords(ctx, doc.Content, words)
	if err != nil {
		return nil, fmt.Errorf("regenerate summary: %w", err)
	}
	note := NoteRegenerate
	if words > 0 {
		note = fmt.Sprintf("%s (target %d words)", NoteRegenerate, words)
	}
	v, err := s.registry.AppendSummaryVersion(ctx, documentID, summary, domain.SummaryGenerated, note, validation)
	if err != nil {
		return nil, err
	}
	logger.Debug("regenerated summary for %s as version %d", documentID, v.Index)
	return v, nil
}

// ValidateSummary scores the current summary without changing it.
func (s *DocumentService) ValidateSummary(ctx context.Context, documentID string) (*domain.Validation, error) {
	doc, err := s.registry.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	text := doc.SummaryText()
	if text == "" {
		return nil, fmt.Errorf("summary for %s: %w", documentID, domain.ErrNotFound)
	}
	v := s.summarizer.Validate(text)
	if v == nil {
		return nil, fmt.Errorf("%w: no validator configured", domain.ErrValidation)
	}
	return v, nil
}

// Rollback moves the current summary pointer to index. Stored entities
// are left as they are.
func (s *DocumentService) Rollback(ctx context.Context, documentID string, index int) error {
	return s.registry.SetCurrentVersion(ctx, documentID, index)
}

// Entities returns the stored entity set, or extracts one from the current
// summary when none has been stored. A stored set, whether extracted at
// ingest or replaced by the user, wins over later summary edits and
// rollbacks; ReplaceEntities is the way to change it.
func (s *DocumentService) Entities(ctx context.Context, documentID string) (domain.Entities, error) {
	doc, err := s.registry.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Entities != nil {
		return doc.Entities, nil
	}
	entities, err := s.summarizer.Entities(ctx, doc.SummaryText())
	if err != nil {
		return nil, err
	}
	if entities == nil {
		entities = domain.Entities{}
	}
	return entities, nil
}

// ReplaceEntities swaps the entity set.
func (s *DocumentService) ReplaceEntities(ctx context.Context, documentID string, entities domain.Entities) error {
	if entities == nil {
		entities = domain.Entities{}
	}
	return s.registry.ReplaceEntities(ctx, documentID, entities)
}

// Reindex re-chunks and re-embeds a ready document in the background.
func (s *DocumentService) Reindex(ctx context.Context, documentID string) error {
	return s.pipeline.Reindex(ctx, documentID)
}

// Delete removes a document with its chunks and vectors.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	return s.registry.Delete(ctx, documentID)
}

// ExportSummary renders the current summary of a ready document as Markdown.
func (s *DocumentService) ExportSummary(ctx context.Context, documentID string) ([]byte, error) {
	doc, err := s.registry.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	summary := doc.SummaryText()
	if doc.Status != domain.StatusReady || summary == "" {
		return nil, fmt.Errorf("summary for %s: %w", documentID, domain.ErrNotFound)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Summary - %s\n\n", doc.Filename)
	buf.WriteString(summary)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// ExportEntities renders the entity set as indented JSON.
func (s *DocumentService) ExportEntities(ctx context.Context, documentID string) ([]byte, error) {
	doc, err := s.registry.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Entities == nil && doc.SummaryText() == "" {
		return nil, fmt.Errorf("entities for %s: %w", documentID, domain.ErrNotFound)
	}

	entities, err := s.Entities(ctx, documentID)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode entities: %w", err)
	}
	return append(out, '\n'), nil
}
