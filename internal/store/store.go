// Package store persists analysis results to SQLite: one row per file with
// its content hash, plus the exports and gaps the analysis produced. The
// hash lets repeated runs skip files whose content has not changed.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the analysis index.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  hash            TEXT NOT NULL,
  analyzed_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS exports (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  resolved        BOOLEAN NOT NULL DEFAULT FALSE,
  confidence      TEXT NOT NULL,
  summary         TEXT
);

CREATE TABLE IF NOT EXISTS gaps (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  what            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  line            INTEGER,
  col             INTEGER,
  suggestion      TEXT
);

CREATE INDEX IF NOT EXISTS idx_exports_file ON exports(file_id);
CREATE INDEX IF NOT EXISTS idx_exports_name ON exports(name);
CREATE INDEX IF NOT EXISTS idx_gaps_file ON gaps(file_id);
CREATE INDEX IF NOT EXISTS idx_gaps_kind ON gaps(kind);
`

// File is one analyzed file.
type File struct {
	ID         int64
	Path       string
	Hash       string
	AnalyzedAt time.Time
}

// Export is one exported binding of an analyzed file.
type Export struct {
	ID         int64
	FileID     int64
	Path       string // populated by queries that join files
	Name       string
	Kind       string
	Resolved   bool
	Confidence string
	Summary    string
}

// Gap is one persisted analysis gap.
type Gap struct {
	ID         int64
	FileID     int64
	Path       string // populated by queries that join files
	What       string
	Kind       string
	Line       int
	Col        int
	Suggestion string
}

// FileHash returns the stored content hash for path, or false if the file
// has never been analyzed.
func (s *Store) FileHash(path string) (string, bool, error) {
	var hash string
	err := s.db.QueryRow("SELECT hash FROM files WHERE path = ?", path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("file hash: %w", err)
	}
	return hash, true, nil
}

// SaveAnalysis replaces the stored analysis for path in one transaction:
// the file row is upserted and its exports and gaps rewritten.
func (s *Store) SaveAnalysis(path, hash string, exports []Export, gaps []Gap) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO files (path, hash, analyzed_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, analyzed_at = excluded.analyzed_at`,
		path, hash, time.Now(),
	); err != nil {
		return fmt.Errorf("upsert file: %w", err)
	}
	var fileID int64
	if err := tx.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&fileID); err != nil {
		return fmt.Errorf("file id: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM exports WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("clear exports: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM gaps WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("clear gaps: %w", err)
	}

	for _, e := range exports {
		if _, err := tx.Exec(
			"INSERT INTO exports (file_id, name, kind, resolved, confidence, summary) VALUES (?, ?, ?, ?, ?, ?)",
			fileID, e.Name, e.Kind, e.Resolved, e.Confidence, e.Summary,
		); err != nil {
			return fmt.Errorf("insert export %s: %w", e.Name, err)
		}
	}
	for _, g := range gaps {
		if _, err := tx.Exec(
			"INSERT INTO gaps (file_id, what, kind, line, col, suggestion) VALUES (?, ?, ?, ?, ?, ?)",
			fileID, g.What, g.Kind, g.Line, g.Col, g.Suggestion,
		); err != nil {
			return fmt.Errorf("insert gap: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Files lists all analyzed files ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT id, path, hash, analyzed_at FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Hash, &f.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *Store) queryExports(query string, args ...any) ([]*Export, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("exports: %w", err)
	}
	defer rows.Close()
	var out []*Export
	for rows.Next() {
		e := &Export{}
		if err := rows.Scan(&e.ID, &e.FileID, &e.Path, &e.Name, &e.Kind, &e.Resolved, &e.Confidence, &e.Summary); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ExportsForFile lists the stored exports of one file.
func (s *Store) ExportsForFile(path string) ([]*Export, error) {
	return s.queryExports(
		`SELECT e.id, e.file_id, f.path, e.name, e.kind, e.resolved, e.confidence, e.summary
		 FROM exports e JOIN files f ON f.id = e.file_id
		 WHERE f.path = ? ORDER BY e.name`, path)
}

// ExportsByName lists stored exports with the given name across all files.
func (s *Store) ExportsByName(name string) ([]*Export, error) {
	return s.queryExports(
		`SELECT e.id, e.file_id, f.path, e.name, e.kind, e.resolved, e.confidence, e.summary
		 FROM exports e JOIN files f ON f.id = e.file_id
		 WHERE e.name = ? ORDER BY f.path`, name)
}

func (s *Store) queryGaps(query string, args ...any) ([]*Gap, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("gaps: %w", err)
	}
	defer rows.Close()
	var out []*Gap
	for rows.Next() {
		g := &Gap{}
		if err := rows.Scan(&g.ID, &g.FileID, &g.Path, &g.What, &g.Kind, &g.Line, &g.Col, &g.Suggestion); err != nil {
			return nil, fmt.Errorf("scan gap: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GapsForFile lists the stored gaps of one file in source order.
func (s *Store) GapsForFile(path string) ([]*Gap, error) {
	return s.queryGaps(
		`SELECT g.id, g.file_id, f.path, g.what, g.kind, g.line, g.col, g.suggestion
		 FROM gaps g JOIN files f ON f.id = g.file_id
		 WHERE f.path = ? ORDER BY g.line, g.col`, path)
}

// GapsByKind lists all stored gaps of one kind.
func (s *Store) GapsByKind(kind string) ([]*Gap, error) {
	return s.queryGaps(
		`SELECT g.id, g.file_id, f.path, g.what, g.kind, g.line, g.col, g.suggestion
		 FROM gaps g JOIN files f ON f.id = g.file_id
		 WHERE g.kind = ? ORDER BY f.path, g.line`, kind)
}

// FileStat is a per-file aggregate over the stored analysis.
type FileStat struct {
	Path       string
	Exports    int
	Resolved   int
	Gaps       int
	AnalyzedAt time.Time
}

// Stats aggregates export and gap counts per analyzed file.
func (s *Store) Stats() ([]*FileStat, error) {
	rows, err := s.db.Query(`
		SELECT f.path, f.analyzed_at,
		       COUNT(DISTINCT e.id),
		       COUNT(DISTINCT CASE WHEN e.resolved THEN e.id END),
		       COUNT(DISTINCT g.id)
		FROM files f
		LEFT JOIN exports e ON e.file_id = f.id
		LEFT JOIN gaps g ON g.file_id = f.id
		GROUP BY f.id ORDER BY f.path`)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()
	var out []*FileStat
	for rows.Next() {
		st := &FileStat{}
		if err := rows.Scan(&st.Path, &st.AnalyzedAt, &st.Exports, &st.Resolved, &st.Gaps); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// AllGaps lists every stored gap ordered by file and position.
func (s *Store) AllGaps() ([]*Gap, error) {
	return s.queryGaps(
		`SELECT g.id, g.file_id, f.path, g.what, g.kind, g.line, g.col, g.suggestion
		 FROM gaps g JOIN files f ON f.id = g.file_id
		 ORDER BY f.path, g.line, g.col`)
}
