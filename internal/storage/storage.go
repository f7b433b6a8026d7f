// Package storage persists raw datasets and explorer sessions in SQLite.
//
// Only the raw input text is stored. Cubes are rebuilt from it on load, so a
// stored dataset never goes stale when the aggregation rules change.
// The number of stored datasets is bounded: RotateDatasets drops the oldest
// ones together with their sessions.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rewired-gh/usercube/internal/logger"
	"github.com/rewired-gh/usercube/internal/models"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a dataset or session does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	source    TEXT NOT NULL,
	raw       TEXT NOT NULL,
	row_count INTEGER NOT NULL,
	loaded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_datasets_loaded_at ON datasets(loaded_at);

CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	dataset_id    TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	filter        TEXT NOT NULL,
	selected_cell TEXT NOT NULL,
	updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_dataset ON sessions(dataset_id, updated_at);
`

// Storage provides SQLite-backed dataset and session persistence
type Storage struct {
	db          *sql.DB
	maxDatasets int
}

// New opens (or creates) the database at path. ":memory:" keeps everything in
// memory. maxDatasets below 1 disables rotation.
func New(maxDatasets int, path string) (*Storage, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), "usercube", "usercube.db")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Storage{db: db, maxDatasets: maxDatasets}, nil
}

// Close releases the database.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AddDataset stores a dataset, replacing one with the same id.
func (s *Storage) AddDataset(d *models.Dataset) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid dataset: %w", err)
	}
	_, err := s.db.Exec(`
INSERT INTO datasets (id, name, source, raw, row_count, loaded_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	source = excluded.source,
	raw = excluded.raw,
	row_count = excluded.row_count,
	loaded_at = excluded.loaded_at`,
		d.ID, d.Name, d.Source, d.Raw, d.RowCount, d.LoadedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to store dataset %s: %w", d.ID, err)
	}
	return nil
}

// GetDataset retrieves a dataset by ID, raw text included.
func (s *Storage) GetDataset(id string) (*models.Dataset, error) {
	row := s.db.QueryRow(`
SELECT id, name, source, raw, row_count, loaded_at FROM datasets WHERE id = ?`, id)
	d, err := scanDataset(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	return d, err
}

// LatestDataset returns the most recently loaded dataset, raw text included.
func (s *Storage) LatestDataset() (*models.Dataset, error) {
	row := s.db.QueryRow(`
SELECT id, name, source, raw, row_count, loaded_at FROM datasets
ORDER BY loaded_at DESC, id DESC LIMIT 1`)
	d, err := scanDataset(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest dataset: %w", ErrNotFound)
	}
	return d, err
}

// ListDatasets returns all datasets, newest first, without raw text.
func (s *Storage) ListDatasets() ([]*models.Dataset, error) {
	rows, err := s.db.Query(`
SELECT id, name, source, '', row_count, loaded_at FROM datasets
ORDER BY loaded_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	datasets := make([]*models.Dataset, 0)
	for rows.Next() {
		d, err := scanDataset(rows, false)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, d)
	}
	return datasets, rows.Err()
}

// RotateDatasets deletes the oldest datasets beyond the configured maximum
// and returns how many were removed.
func (s *Storage) RotateDatasets() (int, error) {
	if s.maxDatasets < 1 {
		return 0, nil
	}
	res, err := s.db.Exec(`
DELETE FROM datasets WHERE id IN (
	SELECT id FROM datasets ORDER BY loaded_at DESC, id DESC LIMIT -1 OFFSET ?
)`, s.maxDatasets)
	if err != nil {
		return 0, fmt.Errorf("failed to rotate datasets: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logger.Debug("Rotated %d old datasets", n)
	}
	return int(n), nil
}

// SaveSession stores an explorer session, replacing one with the same id.
func (s *Storage) SaveSession(sess *models.Session) error {
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("invalid session: %w", err)
	}
	_, err := s.db.Exec(`
INSERT INTO sessions (id, dataset_id, filter, selected_cell, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	dataset_id = excluded.dataset_id,
	filter = excluded.filter,
	selected_cell = excluded.selected_cell,
	updated_at = excluded.updated_at`,
		sess.ID, sess.DatasetID, sess.Filter, sess.SelectedCell, sess.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to store session %s: %w", sess.ID, err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *Storage) GetSession(id string) (*models.Session, error) {
	row := s.db.QueryRow(`
SELECT id, dataset_id, filter, selected_cell, updated_at FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return sess, err
}

// LatestSession returns the most recently updated session for a dataset.
func (s *Storage) LatestSession(datasetID string) (*models.Session, error) {
	row := s.db.QueryRow(`
SELECT id, dataset_id, filter, selected_cell, updated_at FROM sessions
WHERE dataset_id = ? ORDER BY updated_at DESC, id DESC LIMIT 1`, datasetID)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session for dataset %s: %w", datasetID, ErrNotFound)
	}
	return sess, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(row scanner, withRaw bool) (*models.Dataset, error) {
	var d models.Dataset
	var loadedAt int64
	if err := row.Scan(&d.ID, &d.Name, &d.Source, &d.Raw, &d.RowCount, &loadedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan dataset: %w", err)
	}
	if !withRaw {
		d.Raw = ""
	}
	d.LoadedAt = time.Unix(0, loadedAt)
	return &d, nil
}

func scanSession(row scanner) (*models.Session, error) {
	var sess models.Session
	var updatedAt int64
	if err := row.Scan(&sess.ID, &sess.DatasetID, &sess.Filter, &sess.SelectedCell, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	sess.UpdatedAt = time.Unix(0, updatedAt)
	return &sess, nil
}
