package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

const defaultHistoryMax = 200

// historyStore implements driven.QAHistoryStore.
type historyStore struct {
	store *Store
	max   int
}

var _ driven.QAHistoryStore = (*historyStore)(nil)

// Append inserts a record and trims the table to the cap in one transaction.
func (s *historyStore) Append(ctx context.Context, record *domain.QARecord) error {
	if record == nil || record.ID == "" {
		return domain.ErrValidation
	}

	scopeJSON, err := json.Marshal(record.Scope)
	if err != nil {
		return fmt.Errorf("marshalling scope: %w", err)
	}
	citationsJSON, err := json.Marshal(record.Citations)
	if err != nil {
		return fmt.Errorf("marshalling citations: %w", err)
	}
	validationJSON, err := json.Marshal(record.Validation)
	if err != nil {
		return fmt.Errorf("marshalling validation: %w", err)
	}

	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO qa_history (id, question, scope, answer, citations, score, validation, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, record.ID, record.Question, string(scopeJSON), record.Answer, string(citationsJSON),
			record.Score, string(validationJSON), formatTime(record.CreatedAt))
		if err != nil {
			return storeErr("appending history", err)
		}

		if err := pruneHistory(ctx, tx, s.max); err != nil {
			return err
		}
		return nil
	})
}

// List returns up to limit records, newest first.
func (s *historyStore) List(ctx context.Context, limit int) ([]domain.QARecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, question, scope, answer, citations, score, validation, created_at
		FROM qa_history
		ORDER BY pos DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, storeErr("querying history", err)
	}
	defer rows.Close()

	var records []domain.QARecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.QARecord
		var scopeJSON, citationsJSON, validationJSON, createdAt string
		if err := rows.Scan(&r.ID, &r.Question, &scopeJSON, &r.Answer, &citationsJSON,
			&r.Score, &validationJSON, &createdAt); err != nil {
			return nil, storeErr("scanning history", err)
		}
		if err := json.Unmarshal([]byte(scopeJSON), &r.Scope); err != nil {
			return nil, fmt.Errorf("unmarshalling scope: %w", err)
		}
		if err := json.Unmarshal([]byte(citationsJSON), &r.Citations); err != nil {
			return nil, fmt.Errorf("unmarshalling citations: %w", err)
		}
		if validationJSON != jsonNull {
			var v domain.Validation
			if err := json.Unmarshal([]byte(validationJSON), &v); err != nil {
				return nil, fmt.Errorf("unmarshalling validation: %w", err)
			}
			r.Validation = &v
		}
		r.CreatedAt = parseTime(createdAt)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating history", err)
	}
	return records, nil
}

// Prune keeps the newest keep records.
func (s *historyStore) Prune(ctx context.Context, keep int) error {
	return pruneHistory(ctx, s.store.db, keep)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func pruneHistory(ctx context.Context, db execer, keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := db.ExecContext(ctx, `
		DELETE FROM qa_history
		WHERE pos NOT IN (SELECT pos FROM qa_history ORDER BY pos DESC LIMIT ?)
	`, keep)
	if err != nil {
		return storeErr("pruning history", err)
	}
	return nil
}
