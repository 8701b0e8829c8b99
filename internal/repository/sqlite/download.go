package sqlite

import (
	"context"
	"fmt"
)

// DownloadRepository implements repository.DownloadRepository for SQLite
type DownloadRepository struct {
	db *DB
}

// NewDownloadRepository creates a new DownloadRepository
func NewDownloadRepository(db *DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Increment bumps the counter for a resource and returns the new value
func (r *DownloadRepository) Increment(ctx context.Context, resourceID string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO downloads (resource_id, count, updated_at) VALUES (?, 1, ?)
		 ON CONFLICT(resource_id) DO UPDATE SET count = count + 1, updated_at = excluded.updated_at`,
		resourceID,
		timeNow(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to increment download count: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT count FROM downloads WHERE resource_id = ?",
		resourceID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to read download count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return count, nil
}

// GetAll returns every recorded counter keyed by resource id
func (r *DownloadRepository) GetAll(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT resource_id, count FROM downloads")
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan download row: %w", err)
		}
		counts[id] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating downloads: %w", err)
	}

	return counts, nil
}
