// Package pgvector provides a VectorStore backed by PostgreSQL with the
// pgvector extension. Candidates are selected by an exact scan ordered by
// cosine distance and then by the same tie-break columns as
// domain.SortHits, so ties are never cut arbitrarily. Final scores and
// ordering come from domain.RankTopK and match the other backends.
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Defaults.
const (
	DefaultTable      = "intellidocs_vectors"
	DefaultOversample = 4
)

// Config configures the store.
type Config struct {
	// DatabaseURL is the Postgres connection string (required).
	DatabaseURL string

	// Dimensions is the fixed vector size of the table (required).
	Dimensions int

	// Table overrides the table name.
	Table string

	// Oversample multiplies k when fetching candidates, absorbing float
	// rounding differences between Postgres and Go scores.
	Oversample int
}

// Store is a pgvector-backed VectorStore.
type Store struct {
	pool       *pgxpool.Pool
	table      string
	dimensions int
	oversample int
}

// New connects, pings and creates the schema if missing.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: pgvector: database url is required", domain.ErrValidation)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: pgvector: dimensions must be positive", domain.ErrValidation)
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.Oversample <= 0 {
		cfg.Oversample = DefaultOversample
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create connection pool: %w", domain.ErrStore, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", domain.ErrStore, err)
	}

	s := &Store{
		pool:       pool,
		table:      pgx.Identifier{cfg.Table}.Sanitize(),
		dimensions: cfg.Dimensions,
		oversample: cfg.Oversample,
	}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			chunk_id     TEXT PRIMARY KEY,
			document_id  TEXT NOT NULL,
			sequence     INTEGER NOT NULL,
			embedding    vector(%d) NOT NULL,
			start_offset INTEGER NOT NULL,
			end_offset   INTEGER NOT NULL,
			text         TEXT NOT NULL
		)`, s.table, s.dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (document_id)`,
			pgx.Identifier{indexName(s.table, "doc")}.Sanitize(), s.table),
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: creating schema: %w", domain.ErrStore, err)
		}
	}
	return nil
}

// indexName derives an index name from the sanitised table name.
func indexName(sanitizedTable, suffix string) string {
	name := sanitizedTable
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		name = name[1 : len(name)-1]
	}
	return name + "_" + suffix + "_idx"
}

// Upsert writes all records in one transaction using a pgx batch.
func (s *Store) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	for _, r := range records {
		if r.ChunkID == "" || r.DocumentID == "" {
			return fmt.Errorf("%w: record missing chunk or document id", domain.ErrValidation)
		}
		if len(r.Vector) != s.dimensions {
			return fmt.Errorf("%w: vector for %s has %d dimensions, table has %d",
				domain.ErrValidation, r.ChunkID, len(r.Vector), s.dimensions)
		}
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrStore, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := fmt.Sprintf(`
		INSERT INTO %s (chunk_id, document_id, sequence, embedding, start_offset, end_offset, text)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (chunk_id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			sequence = EXCLUDED.sequence,
			embedding = EXCLUDED.embedding,
			start_offset = EXCLUDED.start_offset,
			end_offset = EXCLUDED.end_offset,
			text = EXCLUDED.text`, s.table)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(query, r.ChunkID, r.DocumentID, r.Sequence, pgvector.NewVector(r.Vector),
			r.Metadata.Start, r.Metadata.End, r.Metadata.Text)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("%w: failed to upsert vector %d: %w", domain.ErrStore, i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("%w: closing batch: %w", domain.ErrStore, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrStore, err)
	}
	return nil
}

// DeleteByDocument removes every vector for a document.
func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, s.table), documentID)
	if err != nil {
		return fmt.Errorf("%w: deleting vectors: %w", domain.ErrStore, err)
	}
	return nil
}

// Search ranks the k*oversample nearest candidates with domain.RankTopK.
// The candidate scan is exact so scoped searches see every chunk in scope.
func (s *Store) Search(
	ctx context.Context,
	query []float32,
	k int,
	filter domain.VectorFilter,
) ([]domain.VectorHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrValidation)
	}
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, table has %d",
			domain.ErrValidation, len(query), s.dimensions)
	}

	rows, err := s.pool.Query(ctx, searchSQL(s.table, filter.IsScoped()),
		searchArgs(pgvector.NewVector(query), k*s.oversample, filter)...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to search vectors: %w", domain.ErrStore, err)
	}
	defer rows.Close()

	var candidates []domain.VectorRecord
	for rows.Next() {
		var r domain.VectorRecord
		var v pgvector.Vector
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Sequence, &v,
			&r.Metadata.Start, &r.Metadata.End, &r.Metadata.Text); err != nil {
			return nil, fmt.Errorf("%w: failed to scan vector: %w", domain.ErrStore, err)
		}
		r.Vector = v.Slice()
		candidates = append(candidates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating vectors: %w", domain.ErrStore, err)
	}

	return domain.RankTopK(query, candidates, k), nil
}

// searchSQL orders by distance, then sequence, document id and chunk id.
func searchSQL(table string, scoped bool) string {
	where := ""
	if scoped {
		where = "WHERE document_id = ANY($3)"
	}
	return fmt.Sprintf(`
		SELECT chunk_id, document_id, sequence, embedding, start_offset, end_offset, text
		FROM %s
		%s
		ORDER BY embedding <=> $1, sequence, document_id, chunk_id
		LIMIT $2`, table, where)
}

// searchArgs binds the query vector, the limit and, for scoped searches,
// the distinct document ids.
func searchArgs(query pgvector.Vector, limit int, filter domain.VectorFilter) []any {
	args := []any{query, limit}
	if filter.IsScoped() {
		args = append(args, filter.Distinct())
	}
	return args
}

// CountByDocument returns the number of vectors stored for a document.
func (s *Store) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE document_id = $1`, s.table), documentID).Scan(&n)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: counting vectors: %w", domain.ErrStore, err)
	}
	return n, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
