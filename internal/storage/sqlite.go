// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/bibliodash/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS saved_views (
		id TEXT PRIMARY KEY,
		dataset TEXT NOT NULL,
		name TEXT NOT NULL,
		query TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_saved_views_dataset ON saved_views(dataset, created_at);

	CREATE TABLE IF NOT EXISTS dataset_loads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dataset TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		books INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		loaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_dataset_loads_dataset ON dataset_loads(dataset, loaded_at);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateView inserts a saved view, assigning an ID when empty.
func (s *SQLiteStorage) CreateView(ctx context.Context, view *models.SavedView) error {
	if view.ID == "" {
		view.ID = uuid.New().String()
	}
	now := time.Now()
	view.CreatedAt = now
	view.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_views (id, dataset, name, query, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		view.ID, view.Dataset, view.Name, view.Query, view.CreatedAt, view.UpdatedAt,
	)
	return err
}

// GetView returns a saved view by ID.
func (s *SQLiteStorage) GetView(ctx context.Context, id string) (*models.SavedView, error) {
	var view models.SavedView
	err := s.db.QueryRowContext(ctx,
		`SELECT id, dataset, name, query, created_at, updated_at
		 FROM saved_views WHERE id = ?`, id,
	).Scan(&view.ID, &view.Dataset, &view.Name, &view.Query, &view.CreatedAt, &view.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, models.ErrViewNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// UpdateView updates the name and query of an existing view.
func (s *SQLiteStorage) UpdateView(ctx context.Context, view *models.SavedView) error {
	view.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx,
		`UPDATE saved_views SET name = ?, query = ?, updated_at = ?
		 WHERE id = ?`,
		view.Name, view.Query, view.UpdatedAt, view.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%s: %w", view.ID, models.ErrViewNotFound)
	}
	return nil
}

// DeleteView removes a saved view by ID.
func (s *SQLiteStorage) DeleteView(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM saved_views WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%s: %w", id, models.ErrViewNotFound)
	}
	return nil
}

// ListViews returns saved views, newest first, with offset and limit.
func (s *SQLiteStorage) ListViews(ctx context.Context, dataset string, offset, limit int) ([]*models.SavedView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dataset, name, query, created_at, updated_at
		 FROM saved_views WHERE (? = '' OR dataset = ?)
		 ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		dataset, dataset, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []*models.SavedView{}
	for rows.Next() {
		var view models.SavedView
		if err := rows.Scan(&view.ID, &view.Dataset, &view.Name, &view.Query, &view.CreatedAt, &view.UpdatedAt); err != nil {
			return nil, err
		}
		views = append(views, &view)
	}
	return views, rows.Err()
}

// RecordLoad appends a dataset load to the history.
func (s *SQLiteStorage) RecordLoad(ctx context.Context, rec *models.LoadRecord) error {
	if rec.LoadedAt.IsZero() {
		rec.LoadedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dataset_loads (dataset, fingerprint, books, duration_ms, loaded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.Dataset, rec.Fingerprint, rec.Books, rec.DurationMs, rec.LoadedAt,
	)
	return err
}

// ListLoads returns the most recent loads of dataset, newest first.
func (s *SQLiteStorage) ListLoads(ctx context.Context, dataset string, limit int) ([]*models.LoadRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT dataset, fingerprint, books, duration_ms, loaded_at
		 FROM dataset_loads WHERE dataset = ? ORDER BY loaded_at DESC, id DESC LIMIT ?`,
		dataset, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.LoadRecord
	for rows.Next() {
		var rec models.LoadRecord
		if err := rows.Scan(&rec.Dataset, &rec.Fingerprint, &rec.Books, &rec.DurationMs, &rec.LoadedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// CountViews returns the total number of saved views.
func (s *SQLiteStorage) CountViews(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saved_views`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
