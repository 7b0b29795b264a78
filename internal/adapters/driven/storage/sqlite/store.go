package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/intellidocs/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// DatabaseFile is the file name of the database inside the data directory.
const DatabaseFile = "intellidocs.db"

// pragmas are applied to every pooled connection. _txlock=immediate takes
// the write lock at BEGIN so concurrent writers queue on busy_timeout
// instead of failing on lock upgrade.
var pragmas = []string{
	"_pragma=journal_mode(WAL)",
	"_pragma=busy_timeout(5000)",
	"_pragma=foreign_keys(1)",
	"_txlock=immediate",
}

// Store owns the database handle. The port implementations it hands out
// share it.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens the database in dataDir, creating the directory and
// applying pending migrations. An empty dataDir means ~/.intellidocs/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".intellidocs", "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", path+"?"+strings.Join(pragmas, "&"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(context.Background(), migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns the documents, versions and chunks store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// VectorStore returns the vector store. Closing it is a no-op; close the
// Store instead.
func (s *Store) VectorStore() driven.VectorStore {
	return &vectorStore{store: s}
}

// QAHistoryStore returns a history store capped at maxItems records.
func (s *Store) QAHistoryStore(maxItems int) driven.QAHistoryStore {
	if maxItems <= 0 {
		maxItems = defaultHistoryMax
	}
	return &historyStore{store: s, max: maxItems}
}

// SchedulerStore returns the maintenance task store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// withTx runs fn in a transaction, committing only when fn returns nil.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeErr("committing transaction", err)
	}
	return nil
}

// migration is one NNN_name.up.sql file.
type migration struct {
	version int
	file    string
}

// pendingMigrations lists the up migrations in fsys newer than current,
// oldest first. Files without a numeric prefix are ignored.
func pendingMigrations(fsys fs.FS, current int) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	var pending []migration
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		v, err := strconv.Atoi(prefix)
		if err != nil || v <= current {
			continue
		}
		pending = append(pending, migration{version: v, file: name})
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].version < pending[j].version })
	return pending, nil
}

// migrate applies pending migrations, each in its own transaction together
// with its schema_migrations row.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	pending, err := pendingMigrations(fsys, current)
	if err != nil {
		return err
	}
	for _, m := range pending {
		script, err := fs.ReadFile(fsys, m.file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", m.file, err)
		}
		err = s.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(script)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
				m.version, formatTime(time.Now()))
			return err
		})
		if err != nil {
			return fmt.Errorf("applying %s: %w", m.file, err)
		}
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// storeErr marks err as a backend failure.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStore, op, err)
}

// notFound maps sql.ErrNoRows to domain.ErrNotFound.
func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return storeErr(op, err)
}

// encodeVector packs v as little-endian float32s.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// decodeVector reverses encodeVector. A trailing partial value is dropped.
func decodeVector(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}

// timeLayout is RFC 3339 with a fixed nine-digit fraction, so stored times
// compare correctly as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime stores times in UTC using timeLayout.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reverses formatTime. Unparseable input yields the zero time.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
