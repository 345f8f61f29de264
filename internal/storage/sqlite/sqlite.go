// Package sqlite provides a SQLite-backed implementation of the
// storage.SnapshotStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/zaman-app/zaman-cli/internal/models"
	"github.com/zaman-app/zaman-cli/internal/storage"
)

// Ensure SnapshotStore implements storage.SnapshotStore
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore implements storage.SnapshotStore using SQLite.
type SnapshotStore struct {
	db *sql.DB
}

// New creates a SnapshotStore backed by the database at dbPath, creating the
// parent directories and running migrations automatically.
func New(dbPath string) (*SnapshotStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

// Close closes the database connection.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save replaces the stored snapshot with the given aims in a single
// transaction, so a crash mid-write never leaves a half-replaced snapshot.
func (s *SnapshotStore) Save(ctx context.Context, aims []models.Aim) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM aims"); err != nil {
		return fmt.Errorf("failed to clear previous snapshot: %w", err)
	}

	for i, aim := range aims {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO aims (id, position, user_id, title, description, target_amount, current_amount, is_completed)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			aim.ID, i, aim.UserID, aim.Title, aim.Description,
			aim.TargetAmount.String(), aim.CurrentAmount.String(), aim.IsCompleted,
		)
		if err != nil {
			return fmt.Errorf("failed to insert aim %d: %w", aim.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, fetched_at) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET fetched_at = excluded.fetched_at`,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record snapshot time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot in its original order.
func (s *SnapshotStore) Load(ctx context.Context) (*storage.Snapshot, error) {
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT fetched_at FROM snapshot_meta WHERE id = 1",
	).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot meta: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, target_amount, current_amount, is_completed
		 FROM aims ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached aims: %w", err)
	}
	defer rows.Close()

	snap := &storage.Snapshot{FetchedAt: time.Unix(fetchedAt, 0)}
	for rows.Next() {
		var (
			aim             models.Aim
			target, current string
		)
		if err := rows.Scan(&aim.ID, &aim.UserID, &aim.Title, &aim.Description,
			&target, &current, &aim.IsCompleted); err != nil {
			return nil, fmt.Errorf("failed to scan cached aim: %w", err)
		}
		if aim.TargetAmount, err = decimal.NewFromString(target); err != nil {
			return nil, fmt.Errorf("corrupt target_amount for aim %d: %w", aim.ID, err)
		}
		if aim.CurrentAmount, err = decimal.NewFromString(current); err != nil {
			return nil, fmt.Errorf("corrupt current_amount for aim %d: %w", aim.ID, err)
		}
		snap.Aims = append(snap.Aims, aim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cached aims: %w", err)
	}
	return snap, nil
}
