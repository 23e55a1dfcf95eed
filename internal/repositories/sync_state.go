package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kellenGary/MF/internal/models"
	"github.com/kellenGary/MF/internal/shared"
)

// SyncStateRepository tracks the last completed reconciliation per
// (user, resource kind). Only a completed or aborted sync attempt mutates a
// row; the engine's cooldown gate reads it.
type SyncStateRepository struct {
	db *sql.DB
}

// NewSyncStateRepository creates a new SyncStateRepository with the given database connection
func NewSyncStateRepository(db *sql.DB) *SyncStateRepository {
	return &SyncStateRepository{db: db}
}

// Get retrieves the sync state for a (user, kind). Returns
// [shared.ErrStateNotFound] when the pair has never synced.
func (r *SyncStateRepository) Get(ctx context.Context, userID string, kind models.ResourceKind) (*models.SyncState, error) {
	query := `
		SELECT user_id, kind, last_synced_at
		FROM sync_states
		WHERE user_id = ? AND kind = ?
	`

	var state models.SyncState
	err := r.db.QueryRowContext(ctx, query, userID, kind).Scan(&state.UserID, &state.Kind, &state.LastSyncedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync state: %w", err)
	}

	return &state, nil
}

// Touch upserts the last-synced timestamp for a (user, kind).
func (r *SyncStateRepository) Touch(ctx context.Context, userID string, kind models.ResourceKind, at time.Time) error {
	query := `
		INSERT INTO sync_states (user_id, kind, last_synced_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, kind) DO UPDATE SET last_synced_at = excluded.last_synced_at
	`

	if _, err := r.db.ExecContext(ctx, query, userID, kind, at); err != nil {
		return fmt.Errorf("failed to touch sync state: %w", err)
	}

	return nil
}

// List returns all sync states for a user, one per previously synced kind.
func (r *SyncStateRepository) List(ctx context.Context, userID string) ([]models.SyncState, error) {
	query := `
		SELECT user_id, kind, last_synced_at
		FROM sync_states
		WHERE user_id = ?
		ORDER BY kind ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	defer rows.Close()

	var states []models.SyncState
	for rows.Next() {
		var state models.SyncState
		if err := rows.Scan(&state.UserID, &state.Kind, &state.LastSyncedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		states = append(states, state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return states, nil
}
