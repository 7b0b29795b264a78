package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driving"
	"github.com/custodia-labs/intellidocs/internal/logger"
)

// StaleDetail is the failure detail recorded for orphaned documents.
const StaleDetail = "ingestion task no longer running"

// DefaultStaleAfter is how long an in-flight document may go without an
// update before it is checked for an orphaned task.
const DefaultStaleAfter = 10 * time.Minute

// TaskTracker reports whether an ingestion task is running for a document.
type TaskTracker interface {
	Running(documentID string) bool
}

// Registry owns document records: lifecycle status, summary history and
// entities. Every mutation of one document is serialised by a per-document
// lock, so concurrent callers never lose updates.
type Registry struct {
	docs       driven.DocumentStore
	vectors    driven.VectorStore
	locks      *keyedMutex
	indexLocks *keyedMutex
	tracker    TaskTracker
	staleAfter time.Duration
	now        func() time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStaleAfter sets the staleness threshold.
func WithStaleAfter(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.staleAfter = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates a registry over the given stores.
func NewRegistry(docs driven.DocumentStore, vectors driven.VectorStore, opts ...RegistryOption) *Registry {
	r := &Registry{
		docs:       docs,
		vectors:    vectors,
		locks:      newKeyedMutex(),
		indexLocks: newKeyedMutex(),
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetTaskTracker installs the source of truth for running tasks. Without
// one, every in-flight document past the threshold is considered orphaned.
func (r *Registry) SetTaskTracker(t TaskTracker) {
	r.tracker = t
}

// Create registers a new pending document.
func (r *Registry) Create(ctx context.Context, filename string) (*domain.Document, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrValidation)
	}
	doc := domain.NewDocument(uuid.NewString(), filename, r.now().UTC())
	if err := r.docs.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return doc.Clone(), nil
}

// Update loads a document under its lock, applies fn and saves the result.
// Nothing is saved when fn fails.
func (r *Registry) Update(ctx context.Context, id string, fn func(*domain.Document) error) (*domain.Document, error) {
	unlock := r.locks.Lock(id)
	defer unlock()
	return r.updateLocked(ctx, id, fn)
}

func (r *Registry) updateLocked(ctx context.Context, id string, fn func(*domain.Document) error) (*domain.Document, error) {
	doc, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := r.docs.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document %s: %w", id, err)
	}
	return doc.Clone(), nil
}

// Advance moves a document to next. Illegal moves fail with a
// *domain.TransitionError and leave the status unchanged. detail is kept
// only for failed.
func (r *Registry) Advance(ctx context.Context, id string, next domain.Status, detail string) error {
	_, err := r.Update(ctx, id, func(d *domain.Document) error {
		return d.Advance(next, detail, r.now().UTC())
	})
	if err == nil {
		logger.Debug("document %s -> %s", id, next)
	}
	return err
}

// AppendSummaryVersion adds a version and makes it current.
func (r *Registry) AppendSummaryVersion(
	ctx context.Context,
	id, text string,
	source domain.SummarySource,
	note string,
	validation *domain.Validation,
) (*domain.SummaryVersion, error) {
	var v domain.SummaryVersion
	_, err := r.Update(ctx, id, func(d *domain.Document) error {
		v = d.AppendVersion(text, source, note, validation, r.now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// SetCurrentVersion moves the current pointer without touching history.
func (r *Registry) SetCurrentVersion(ctx context.Context, id string, index int) error {
	_, err := r.Update(ctx, id, func(d *domain.Document) error {
		if err := d.SetCurrent(index, r.now().UTC()); err != nil {
			return fmt.Errorf("%w: %d of %d", err, index, len(d.Versions))
		}
		return nil
	})
	return err
}

// ReplaceEntities swaps the whole entity set.
func (r *Registry) ReplaceEntities(ctx context.Context, id string, entities domain.Entities) error {
	_, err := r.Update(ctx, id, func(d *domain.Document) error {
		d.ReplaceEntities(entities, r.now().UTC())
		return nil
	})
	return err
}

// BeginReindex moves a ready document back to indexing.
func (r *Registry) BeginReindex(ctx context.Context, id string) error {
	return r.Advance(ctx, id, domain.StatusIndexing, "")
}

// Get returns a document, failing stale in-flight documents first.
func (r *Registry) Get(ctx context.Context, id string) (*domain.Document, error) {
	unlock := r.locks.Lock(id)
	defer unlock()

	doc, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.failIfStale(ctx, doc)
}

// List returns every document, oldest first.
func (r *Registry) List(ctx context.Context) ([]domain.Document, error) {
	docs, err := r.docs.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// ReadyIDs returns the ids of searchable documents, oldest first.
func (r *Registry) ReadyIDs(ctx context.Context) ([]string, error) {
	ids, err := r.docs.ListIDsByStatus(ctx, domain.StatusReady)
	if err != nil {
		return nil, fmt.Errorf("list ready documents: %w", err)
	}
	return ids, nil
}

// Versions returns the ordered summary history.
func (r *Registry) Versions(ctx context.Context, id string) ([]domain.SummaryVersion, error) {
	doc, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.Versions, nil
}

// Status returns the polling view of a document.
func (r *Registry) Status(ctx context.Context, id string) (*driving.DocumentStatus, error) {
	doc, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return statusOf(doc), nil
}

// LockIndex serialises writes to a document's chunks and vectors. Callers
// holding it may take the document lock, never the reverse.
func (r *Registry) LockIndex(id string) (unlock func()) {
	return r.indexLocks.Lock(id)
}

// Delete removes a document with its chunks and vectors.
func (r *Registry) Delete(ctx context.Context, id string) error {
	unlockIndex := r.LockIndex(id)
	defer unlockIndex()
	unlock := r.locks.Lock(id)
	defer unlock()

	if _, err := r.get(ctx, id); err != nil {
		return err
	}
	if err := r.vectors.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("delete vectors for %s: %w", id, err)
	}
	if err := r.docs.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	logger.Info("Deleted document %s", id)
	return nil
}

// SweepStale fails every orphaned in-flight document and returns how many
// were failed.
func (r *Registry) SweepStale(ctx context.Context) (int, error) {
	docs, err := r.List(ctx)
	if err != nil {
		return 0, err
	}

	failed := 0
	var errs []error
	for i := range docs {
		if !r.isStale(&docs[i]) {
			continue
		}
		doc, err := r.Get(ctx, docs[i].ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			continue
		case err != nil:
			errs = append(errs, err)
		case doc.Status == domain.StatusFailed && doc.Error == StaleDetail:
			failed++
		}
	}
	return failed, errors.Join(errs...)
}

func (r *Registry) get(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := r.docs.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

func (r *Registry) isStale(doc *domain.Document) bool {
	if !doc.Status.InFlight() {
		return false
	}
	if r.now().Sub(doc.UpdatedAt) < r.staleAfter {
		return false
	}
	return r.tracker == nil || !r.tracker.Running(doc.ID)
}

// failIfStale must be called with the document's lock held.
func (r *Registry) failIfStale(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if !r.isStale(doc) {
		return doc, nil
	}
	if err := doc.Advance(domain.StatusFailed, StaleDetail, r.now().UTC()); err != nil {
		return nil, err
	}
	if err := r.docs.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	logger.Warn("document %s: %s", doc.ID, StaleDetail)
	return doc.Clone(), nil
}

func statusOf(doc *domain.Document) *driving.DocumentStatus {
	return &driving.DocumentStatus{
		ID:             doc.ID,
		Filename:       doc.Filename,
		Status:         doc.Status,
		Summary:        doc.SummaryText(),
		VersionCount:   len(doc.Versions),
		CurrentVersion: doc.Current,
		ChunkCount:     doc.ChunkCount,
		Error:          doc.Error,
		UpdatedAt:      doc.UpdatedAt,
	}
}
