// Package sqlite reads and writes chunk metadata stored as a SQLite artifact.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Each row of the chunks table describes the chunk stored at
// the same position in the vector index.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files. Open applies pending migrations and is meant for tooling that
// builds artifacts. OpenReadOnly never writes: it opens the file with
// mode=ro and only checks that a chunks table exists.
//
// # Reading
//
// The corpus loader reads every row once through Chunks and serves them from
// memory, so a store is never held open while queries run.
package sqlite
