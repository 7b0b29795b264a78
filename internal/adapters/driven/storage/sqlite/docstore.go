package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, filename, format, status, content, error, chunk_count,
	current_version, entities, created_at, updated_at`

// ErrStaleDocument is returned by SaveDocument when the stored row has a
// newer updated_at than the document being saved.
var ErrStaleDocument = errors.New("document was updated by another writer")

// SaveDocument upserts the document row and its summary versions in one
// transaction. A row with a newer updated_at is left alone and the save
// fails with ErrStaleDocument.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrValidation
	}

	entitiesJSON, err := json.Marshal(doc.Entities)
	if err != nil {
		return fmt.Errorf("marshalling entities: %w", err)
	}

	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO documents (`+documentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				filename = excluded.filename,
				format = excluded.format,
				status = excluded.status,
				content = excluded.content,
				error = excluded.error,
				chunk_count = excluded.chunk_count,
				current_version = excluded.current_version,
				entities = excluded.entities,
				updated_at = excluded.updated_at
			WHERE documents.updated_at <= excluded.updated_at
		`, doc.ID, doc.Filename, doc.Format, string(doc.Status), doc.Content, doc.Error,
			doc.ChunkCount, doc.Current, string(entitiesJSON),
			formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))
		if err != nil {
			return storeErr("saving document", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storeErr("saving document", err)
		}
		if n == 0 {
			return storeErr("saving document "+doc.ID, ErrStaleDocument)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO summary_versions (document_id, idx, text, source, note, validation, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(document_id, idx) DO NOTHING
		`)
		if err != nil {
			return storeErr("preparing statement", err)
		}
		defer stmt.Close()

		// Versions are append-only, so existing rows never change.
		for _, v := range doc.Versions {
			validationJSON, err := json.Marshal(v.Validation)
			if err != nil {
				return fmt.Errorf("marshalling validation: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, doc.ID, v.Index, v.Text, string(v.Source), v.Note,
				string(validationJSON), formatTime(v.CreatedAt)); err != nil {
				return storeErr("saving summary version", err)
			}
		}
		return nil
	})
}

// GetDocument retrieves a document with its summary versions.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, notFound("scanning document", err)
	}

	versions, err := s.versions(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Versions = versions
	return doc, nil
}

// ListDocuments returns all documents ordered by creation time.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY created_at, id`)
	if err != nil {
		return nil, storeErr("querying documents", err)
	}

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, storeErr("scanning document", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, storeErr("iterating documents", err)
	}
	rows.Close()

	for i := range docs {
		versions, err := s.versions(ctx, docs[i].ID)
		if err != nil {
			return nil, err
		}
		docs[i].Versions = versions
	}
	return docs, nil
}

// ListIDsByStatus returns the ids of documents in status, oldest first.
func (s *documentStore) ListIDsByStatus(ctx context.Context, status domain.Status) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT id FROM documents WHERE status = ? ORDER BY created_at, id`, string(status))
	if err != nil {
		return nil, storeErr("querying document ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("scanning document id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating document ids", err)
	}
	return ids, nil
}

// DeleteDocument removes a document; versions and chunks cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return storeErr("deleting document", err)
	}
	return nil
}

// SaveChunks replaces the chunk set of a document.
func (s *documentStore) SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if c.DocumentID != documentID {
			return fmt.Errorf("%w: chunk %s belongs to %s", domain.ErrValidation, c.ID, c.DocumentID)
		}
	}

	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
			return storeErr("clearing chunks", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (id, document_id, sequence, text, start_offset, end_offset, embedding)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return storeErr("preparing statement", err)
		}
		defer stmt.Close()

		for _, c := range chunks {
			if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Sequence, c.Text,
				c.Start, c.End, encodeVector(c.Embedding)); err != nil {
				return storeErr("saving chunk", err)
			}
		}
		return nil
	})
}

// GetChunks retrieves all chunks for a document ordered by sequence.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, sequence, text, start_offset, end_offset, embedding
		FROM chunks WHERE document_id = ?
		ORDER BY sequence
	`, documentID)
	if err != nil {
		return nil, storeErr("querying chunks", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Sequence, &c.Text, &c.Start, &c.End, &blob); err != nil {
			return nil, storeErr("scanning chunk", err)
		}
		c.Embedding = decodeVector(blob)
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating chunks", err)
	}
	return chunks, nil
}

func (s *documentStore) versions(ctx context.Context, documentID string) ([]domain.SummaryVersion, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT idx, text, source, note, validation, created_at
		FROM summary_versions WHERE document_id = ?
		ORDER BY idx
	`, documentID)
	if err != nil {
		return nil, storeErr("querying summary versions", err)
	}
	defer rows.Close()

	var versions []domain.SummaryVersion //nolint:prealloc // size unknown from query
	for rows.Next() {
		var v domain.SummaryVersion
		var source, validationJSON, createdAt string
		if err := rows.Scan(&v.Index, &v.Text, &source, &v.Note, &validationJSON, &createdAt); err != nil {
			return nil, storeErr("scanning summary version", err)
		}
		v.Source = domain.SummarySource(source)
		v.CreatedAt = parseTime(createdAt)
		if validationJSON != jsonNull {
			var val domain.Validation
			if err := json.Unmarshal([]byte(validationJSON), &val); err != nil {
				return nil, fmt.Errorf("unmarshalling validation: %w", err)
			}
			v.Validation = &val
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating summary versions", err)
	}
	return versions, nil
}

// jsonNull is the JSON representation of null.
const jsonNull = "null"

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var status, entitiesJSON, createdAt, updatedAt string

	if err := row.Scan(&doc.ID, &doc.Filename, &doc.Format, &status, &doc.Content, &doc.Error,
		&doc.ChunkCount, &doc.Current, &entitiesJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	doc.Status = domain.Status(status)
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)

	if entitiesJSON != jsonNull && entitiesJSON != "" {
		if err := json.Unmarshal([]byte(entitiesJSON), &doc.Entities); err != nil {
			return nil, fmt.Errorf("unmarshalling entities: %w", err)
		}
	}
	return &doc, nil
}
