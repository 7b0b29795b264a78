// Package sqlite provides a single-file SQLite implementation of the
// intellidocs storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. One database connection backs several stores:
//
//   - DocumentStore: documents, summary versions and chunks
//   - VectorStore: chunk vectors, ranked in Go with domain.RankTopK
//   - QAHistoryStore: answered questions, capped
//   - SchedulerStore: background task state
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.intellidocs/data/intellidocs.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. Multi-row writes run inside a
// transaction and the database runs in WAL mode with a busy timeout.
package sqlite
