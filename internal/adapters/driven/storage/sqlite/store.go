package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

// Store reads and writes a SQLite chunk metadata artifact. Rows are keyed
// by their position in the vector index.
type Store struct {
	db    *sql.DB
	path  string
	count int
}

// Open opens or creates the database at path for writing, applies pending
// migrations and validates that chunk positions form the contiguous range
// [0, n). Use OpenReadOnly to serve an existing artifact.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := s.refresh(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenReadOnly opens an existing artifact without writing to it. Files that
// are not SQLite databases, lack a chunks table or have gapped positions
// yield domain.ErrCorruptData.
func OpenReadOnly(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	uri := (&url.URL{Path: filepath.ToSlash(abs)}).EscapedPath()
	db, err := sql.Open("sqlite", "file:"+uri+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	ctx := context.Background()
	if err := s.checkSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.refresh(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of chunks.
func (s *Store) Len() int {
	return s.count
}

// checkSchema requires a chunks table.
func (s *Store) checkSchema(ctx context.Context) error {
	var tables int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'chunks'",
	).Scan(&tables)
	if err != nil {
		return fmt.Errorf("%w: reading schema: %w", domain.ErrCorruptData, err)
	}
	if tables == 0 {
		return fmt.Errorf("%w: no chunks table", domain.ErrCorruptData)
	}
	return nil
}

// Chunks returns every chunk in position order.
func (s *Store) Chunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, id, text, source, page, section, location, extra
		FROM chunks ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]domain.Chunk, 0, s.count)
	for rows.Next() {
		var position int
		var r chunkRow
		if err := rows.Scan(&position, &r.id, &r.text, &r.source, &r.page, &r.section, &r.location, &r.extra); err != nil {
			return nil, fmt.Errorf("%w: scanning chunk: %w", domain.ErrCorruptData, err)
		}
		chunk, err := r.toChunk(position)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// ReplaceChunks overwrites the table with chunks at positions 0..n-1.
func (s *Store) ReplaceChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (position, id, text, source, page, section, location, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		extra, err := marshalExtra(c.Extra)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		_, err = stmt.ExecContext(ctx, i, c.ID, c.Text,
			nullString(c.SourceDocument), nullInt(c.PageNumber),
			nullString(c.SectionTitle), nullString(c.Location), extra)
		if err != nil {
			return fmt.Errorf("inserting chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return s.refresh(ctx)
}

// refresh recounts chunks and checks position contiguity.
func (s *Store) refresh(ctx context.Context) error {
	var count, minPos, maxPos int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(MIN(position), 0), COALESCE(MAX(position), -1) FROM chunks",
	).Scan(&count, &minPos, &maxPos)
	if err != nil {
		return fmt.Errorf("%w: counting chunks: %w", domain.ErrCorruptData, err)
	}
	if count > 0 && (minPos != 0 || maxPos != count-1) {
		return fmt.Errorf("%w: chunk positions span [%d, %d] for %d rows",
			domain.ErrCorruptData, minPos, maxPos, count)
	}
	s.count = count
	return nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_chunks.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// chunkRow holds the nullable columns of a chunks row.
type chunkRow struct {
	id       string
	text     string
	source   sql.NullString
	page     sql.NullInt64
	section  sql.NullString
	location sql.NullString
	extra    sql.NullString
}

func (r *chunkRow) toChunk(position int) (domain.Chunk, error) {
	chunk := domain.Chunk{
		ID:             r.id,
		Text:           r.text,
		SourceDocument: r.source.String,
		SectionTitle:   r.section.String,
		Location:       r.location.String,
	}
	if chunk.ID == "" {
		chunk.ID = fmt.Sprintf("chunk-%d", position)
	}
	if r.page.Valid {
		chunk.PageNumber = domain.IntPtr(int(r.page.Int64))
	}
	if r.extra.Valid && r.extra.String != "" && r.extra.String != jsonNull {
		if err := json.Unmarshal([]byte(r.extra.String), &chunk.Extra); err != nil {
			return domain.Chunk{}, fmt.Errorf("%w: chunk %d extra: %w", domain.ErrCorruptData, position, err)
		}
	}
	markEmpty(&chunk, "source", r.source)
	markEmpty(&chunk, "section", r.section)
	markEmpty(&chunk, "location", r.location)
	return chunk, nil
}

// markEmpty records a column holding an empty string in Extra, keeping it
// distinct from NULL for filters.
func markEmpty(c *domain.Chunk, key string, col sql.NullString) {
	if !col.Valid || col.String != "" {
		return
	}
	if c.Extra == nil {
		c.Extra = make(map[string]any)
	}
	c.Extra[key] = ""
}

// jsonNull is the JSON representation of null.
const jsonNull = "null"

func marshalExtra(extra map[string]any) (sql.NullString, error) {
	if len(extra) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshalling extra: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
