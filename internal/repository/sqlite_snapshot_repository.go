package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"sim-sync/internal/domain"
)

// sqliteSnapshotRepository stores one JSON payload per snapshot key.
type sqliteSnapshotRepository struct {
	db *sql.DB
}

func NewSQLiteSnapshotRepository(path string) (SnapshotRepository, error) {
	if path == "" {
		path = "sim-sync.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		saved_at TIMESTAMP NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshots table: %w", err)
	}

	return &sqliteSnapshotRepository{db: db}, nil
}

func (r *sqliteSnapshotRepository) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	saved := *snapshot
	if saved.SavedAt.IsZero() {
		saved.SavedAt = time.Now()
	}

	payload, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO snapshots(key, payload, saved_at) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		domain.SnapshotKey(saved.Resource, saved.GameID), payload, saved.SavedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

func (r *sqliteSnapshotRepository) Find(ctx context.Context, resource string, gameID int) (*domain.Snapshot, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE key = ?`,
		domain.SnapshotKey(resource, gameID)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find snapshot: %w", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return &snapshot, nil
}

func (r *sqliteSnapshotRepository) Delete(ctx context.Context, resource string, gameID int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, domain.SnapshotKey(resource, gameID)); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (r *sqliteSnapshotRepository) Close() error {
	return r.db.Close()
}
