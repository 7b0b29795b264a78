package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// Ensure QAHistoryStore implements the interface.
var _ driven.QAHistoryStore = (*QAHistoryStore)(nil)

// DefaultHistoryMax is the number of records kept when no cap is given.
const DefaultHistoryMax = 200

// QAHistoryStore keeps answered questions in insertion order.
type QAHistoryStore struct {
	mu      sync.RWMutex
	records []domain.QARecord
	max     int
}

// NewQAHistoryStore creates a history store capped at max records.
func NewQAHistoryStore(max int) *QAHistoryStore {
	if max <= 0 {
		max = DefaultHistoryMax
	}
	return &QAHistoryStore{max: max}
}

// Append adds a record and drops the oldest beyond the cap.
func (s *QAHistoryStore) Append(_ context.Context, record *domain.QARecord) error {
	if record == nil {
		return domain.ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, cloneRecord(*record))
	s.trim(s.max)
	return nil
}

// List returns up to limit records, newest first.
func (s *QAHistoryStore) List(_ context.Context, limit int) ([]domain.QARecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.QARecord, 0, n)
	for i := len(s.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, cloneRecord(s.records[i]))
	}
	return out, nil
}

// Prune keeps the newest keep records.
func (s *QAHistoryStore) Prune(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trim(keep)
	return nil
}

func (s *QAHistoryStore) trim(keep int) {
	if keep < 0 {
		keep = 0
	}
	if drop := len(s.records) - keep; drop > 0 {
		s.records = append([]domain.QARecord(nil), s.records[drop:]...)
	}
}

func cloneRecord(r domain.QARecord) domain.QARecord {
	r.Scope = append([]string(nil), r.Scope...)
	r.Citations = append([]domain.Citation(nil), r.Citations...)
	if r.Validation != nil {
		v := r.Validation.Clone()
		r.Validation = &v
	}
	return r
}
