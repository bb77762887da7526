package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	pgDriver = "pgx"
	// Default DSN targets a local development database; deployments override
	// it through configuration.
	pgDefaultDSN = "postgres://localhost/spectracore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driver, dsn string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}

// Postgres implements Store on a PostgreSQL database.
type Postgres struct {
	db *sql.DB
}

var pgDDL = []string{
	`CREATE TABLE IF NOT EXISTS project_archive (
		id           TEXT PRIMARY KEY,
		project_uuid TEXT NOT NULL,
		taken_at     TIMESTAMPTZ NOT NULL,
		payload      BYTEA NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS project_archive_by_project
		ON project_archive (project_uuid, taken_at DESC)`,
}

// NewPostgres opens a Postgres-backed archive using the provided DSN (falls
// back to a local development default).
func NewPostgres(dsn string) (*Postgres, error) {
	if dsn == "" {
		dsn = pgDefaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(pgDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range pgDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create archive table: %w", err)
		}
	}
	return &Postgres{db: db}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (p *Postgres) DB() *sql.DB { return p.db }

// Put appends a record.
func (p *Postgres) Put(ctx context.Context, rec Record) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO project_archive(id, project_uuid, taken_at, payload) VALUES($1,$2,$3,$4)`,
		rec.ID, rec.ProjectID, rec.TakenAt.UTC(), rec.Payload)
	if err != nil {
		return fmt.Errorf("insert archive record: %w", err)
	}
	return nil
}

// Get returns the record with the given identifier.
func (p *Postgres) Get(ctx context.Context, id string) (Record, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, project_uuid, taken_at, payload FROM project_archive WHERE id = $1`, id)
	var rec Record
	if err := row.Scan(&rec.ID, &rec.ProjectID, &rec.TakenAt, &rec.Payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("scan archive record: %w", err)
	}
	rec.TakenAt = rec.TakenAt.UTC()
	return rec, nil
}

// List returns every record for a project, newest first.
func (p *Postgres) List(ctx context.Context, projectID string) ([]Record, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, project_uuid, taken_at, payload FROM project_archive
		 WHERE project_uuid = $1 ORDER BY taken_at DESC, id ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("select archive records: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.TakenAt, &rec.Payload); err != nil {
			return nil, fmt.Errorf("scan archive record: %w", err)
		}
		rec.TakenAt = rec.TakenAt.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep records for a project.
func (p *Postgres) Prune(ctx context.Context, projectID string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM project_archive WHERE project_uuid = $1 AND id NOT IN (
			SELECT id FROM project_archive WHERE project_uuid = $1
			ORDER BY taken_at DESC, id ASC LIMIT $2
		)`, projectID, keep)
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
func (p *Postgres) Close() error { return p.db.Close() }
