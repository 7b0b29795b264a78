package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore.
// Vectors are stored as little-endian float32 blobs and ranked in Go.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Upsert inserts or replaces records in one transaction.
func (s *vectorStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	for _, r := range records {
		if r.ChunkID == "" || r.DocumentID == "" {
			return fmt.Errorf("%w: record missing chunk or document id", domain.ErrValidation)
		}
	}
	if len(records) == 0 {
		return nil
	}

	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO vectors (chunk_id, document_id, sequence, dim, embedding, start_offset, end_offset, text)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(chunk_id) DO UPDATE SET
				document_id = excluded.document_id,
				sequence = excluded.sequence,
				dim = excluded.dim,
				embedding = excluded.embedding,
				start_offset = excluded.start_offset,
				end_offset = excluded.end_offset,
				text = excluded.text
		`)
		if err != nil {
			return storeErr("preparing statement", err)
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, r.ChunkID, r.DocumentID, r.Sequence, len(r.Vector),
				encodeVector(r.Vector), r.Metadata.Start, r.Metadata.End, r.Metadata.Text); err != nil {
				return storeErr("upserting vector", err)
			}
		}
		return nil
	})
}

// DeleteByDocument removes every vector for a document.
func (s *vectorStore) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM vectors WHERE document_id = ?", documentID); err != nil {
		return storeErr("deleting vectors", err)
	}
	return nil
}

// Search streams the candidate rows allowed by filter and ranks them.
func (s *vectorStore) Search(
	ctx context.Context,
	query []float32,
	k int,
	filter domain.VectorFilter,
) ([]domain.VectorHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrValidation)
	}

	q := `SELECT chunk_id, document_id, sequence, embedding, start_offset, end_offset, text FROM vectors`
	var args []any
	if filter.IsScoped() {
		ids := filter.Distinct()
		q += ` WHERE document_id IN (` + placeholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	rows, err := s.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr("querying vectors", err)
	}
	defer rows.Close()

	var candidates []domain.VectorRecord
	for rows.Next() {
		var r domain.VectorRecord
		var blob []byte
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Sequence, &blob,
			&r.Metadata.Start, &r.Metadata.End, &r.Metadata.Text); err != nil {
			return nil, storeErr("scanning vector", err)
		}
		r.Vector = decodeVector(blob)
		candidates = append(candidates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating vectors", err)
	}

	return domain.RankTopK(query, candidates, k), nil
}

// CountByDocument returns the number of vectors stored for a document.
func (s *vectorStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vectors WHERE document_id = ?", documentID).Scan(&n)
	if err != nil {
		return 0, storeErr("counting vectors", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the database.
func (s *vectorStore) Close() error {
	return nil
}
