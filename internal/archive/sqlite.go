package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLite implements Store on a single-file SQLite database.
type SQLite struct {
	db   *sql.DB
	path string
}

var archiveDDL = []string{
	`CREATE TABLE IF NOT EXISTS project_archive (
		id           TEXT PRIMARY KEY,
		project_uuid TEXT NOT NULL,
		taken_at     TEXT NOT NULL,
		payload      BLOB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS project_archive_by_project
		ON project_archive (project_uuid, taken_at DESC)`,
}

// NewSQLite opens (or creates) a SQLite-backed archive at path.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "spectracore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, stmt := range archiveDDL {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create archive table: %w", err)
		}
	}
	return &SQLite{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *SQLite) Path() string { return s.path }

// Put appends a record.
func (s *SQLite) Put(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO project_archive(id, project_uuid, taken_at, payload) VALUES(?,?,?,?)`,
		rec.ID, rec.ProjectID, rec.TakenAt.UTC().Format(time.RFC3339Nano), rec.Payload)
	if err != nil {
		return fmt.Errorf("insert archive record: %w", err)
	}
	return nil
}

// Get returns the record with the given identifier.
func (s *SQLite) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_uuid, taken_at, payload FROM project_archive WHERE id = ?`, id)
	return scanRecord(row)
}

// List returns every record for a project, newest first.
func (s *SQLite) List(ctx context.Context, projectID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_uuid, taken_at, payload FROM project_archive
		 WHERE project_uuid = ? ORDER BY taken_at DESC, id ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("select archive records: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectRecords(rows)
}

// Prune deletes all but the newest keep records for a project.
func (s *SQLite) Prune(ctx context.Context, projectID string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM project_archive WHERE project_uuid = ? AND id NOT IN (
			SELECT id FROM project_archive WHERE project_uuid = ?
			ORDER BY taken_at DESC, id ASC LIMIT ?
		)`, projectID, projectID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune archive records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var takenAt string
	if err := row.Scan(&rec.ID, &rec.ProjectID, &takenAt, &rec.Payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("scan archive record: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, takenAt)
	if err != nil {
		return Record{}, fmt.Errorf("parse taken_at: %w", err)
	}
	rec.TakenAt = t.UTC()
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
