package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kellenGary/MF/internal/models"
	"github.com/kellenGary/MF/internal/shared"
)

// ListenRepository persists the append-only listening history mirror.
//
// History rows are never reconciled away; the remote API only exposes a
// sliding window of recent plays, so ingestion is insert-only with
// duplicate tolerance on (user, track, played_at).
type ListenRepository struct {
	db *sql.DB
}

// NewListenRepository creates a new ListenRepository with the given database connection
func NewListenRepository(db *sql.DB) *ListenRepository {
	return &ListenRepository{db: db}
}

// Create inserts one listen row. Returns [models.OutcomeAlreadyExists] when
// the same play was already ingested by an earlier pull.
func (r *ListenRepository) Create(ctx context.Context, listen models.Listen) (models.CreateOutcome, error) {
	if listen.UserID == "" || listen.TrackExternalID == "" {
		return 0, fmt.Errorf("user id and track external id are required")
	}

	query := `
		INSERT INTO listens (id, user_id, track_external_id, track_name, artist_name, played_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, track_external_id, played_at) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		shared.GenerateID(),
		listen.UserID,
		listen.TrackExternalID,
		listen.TrackName,
		listen.ArtistName,
		listen.PlayedAt,
		time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert listen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return models.OutcomeAlreadyExists, nil
	}

	return models.OutcomeCreated, nil
}

// ListByUser returns up to limit listens for a user, newest first.
func (r *ListenRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Listen, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, track_external_id, track_name, artist_name, played_at, created_at
		FROM listens
		WHERE user_id = ?
		ORDER BY played_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query listens: %w", err)
	}
	defer rows.Close()

	var listens []models.Listen
	for rows.Next() {
		var listen models.Listen
		err := rows.Scan(
			&listen.ID,
			&listen.UserID,
			&listen.TrackExternalID,
			&listen.TrackName,
			&listen.ArtistName,
			&listen.PlayedAt,
			&listen.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listen: %w", err)
		}
		listens = append(listens, listen)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return listens, nil
}
