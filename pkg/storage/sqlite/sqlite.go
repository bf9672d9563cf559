// Package sqlite provides a SQLite-backed storage driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/reweaveco/reweave/pkg/artifact"
	"github.com/reweaveco/reweave/pkg/storage"
)

// Driver implements storage.Driver using SQLite.
type Driver struct {
	db *sql.DB
}

// NewDriver creates a new SQLite-backed driver.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &Driver{db: db}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return d, nil
}

// migrate creates the necessary tables if they don't exist.
func (d *Driver) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS artifacts (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		code TEXT NOT NULL,
		files TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_artifacts_created_at ON artifacts(created_at);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Put stores an artifact. If the artifact already exists (by ID), this is a no-op.
func (d *Driver) Put(ctx context.Context, a *artifact.Artifact) (bool, error) {
	if a == nil {
		return false, fmt.Errorf("cannot store nil artifact")
	}

	filesJSON, err := json.Marshal(a.Files)
	if err != nil {
		return false, fmt.Errorf("failed to marshal files: %w", err)
	}

	query := `INSERT OR IGNORE INTO artifacts (id, created_at, code, files) VALUES (?, ?, ?, ?)`

	res, err := d.db.ExecContext(ctx, query, a.ID, a.CreatedAt, a.Code, string(filesJSON))
	if err != nil {
		return false, fmt.Errorf("failed to insert artifact: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return n > 0, nil
}

// Get retrieves an artifact by its ID.
func (d *Driver) Get(ctx context.Context, id string) (*artifact.Artifact, error) {
	query := `SELECT id, created_at, code, files FROM artifacts WHERE id = ?`

	a, err := scanArtifact(d.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artifact: %w", err)
	}

	return a, nil
}

// List returns all artifacts, newest first.
func (d *Driver) List(ctx context.Context) ([]*artifact.Artifact, error) {
	query := `SELECT id, created_at, code, files FROM artifacts ORDER BY created_at DESC`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}
	defer rows.Close()

	var all []*artifact.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		all = append(all, a)
	}

	return all, rows.Err()
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row scanner) (*artifact.Artifact, error) {
	var a artifact.Artifact
	var createdAt time.Time
	var filesJSON string

	if err := row.Scan(&a.ID, &createdAt, &a.Code, &filesJSON); err != nil {
		return nil, err
	}

	a.CreatedAt = createdAt
	if err := json.Unmarshal([]byte(filesJSON), &a.Files); err != nil {
		return nil, fmt.Errorf("failed to unmarshal files: %w", err)
	}

	return &a, nil
}
