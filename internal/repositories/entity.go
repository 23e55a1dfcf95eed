package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kellenGary/MF/internal/models"
	"github.com/kellenGary/MF/internal/shared"
)

// EntityRepository persists canonical catalog entities shared across users.
//
// The entities table carries UNIQUE(kind, external_id); Create resolves
// concurrent first-observation races through that constraint rather than an
// explicit lock.
type EntityRepository struct {
	db *sql.DB
}

// NewEntityRepository creates a new EntityRepository with the given database connection
func NewEntityRepository(db *sql.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

// Create inserts a canonical entity for the draft's (kind, external id).
//
// Returns [models.OutcomeCreated] with the stored entity, or
// [models.OutcomeAlreadyExists] with a nil entity when a concurrent writer
// inserted the same external id first. Any other failure is a storage error.
func (r *EntityRepository) Create(ctx context.Context, draft models.EntityDraft) (*models.CanonicalEntity, models.CreateOutcome, error) {
	if err := draft.Validate(); err != nil {
		return nil, 0, fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "entities")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now()
	entity := &models.CanonicalEntity{
		ID:          shared.GenerateID(),
		Sequence:    sequence,
		Kind:        draft.Kind,
		ExternalID:  draft.ExternalID,
		Name:        draft.Name,
		ImageURL:    draft.ImageURL,
		ItemCount:   draft.ItemCount,
		ChangeToken: draft.ChangeToken,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `
		INSERT INTO entities (id, sequence, kind, external_id, name, image_url, item_count, change_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (kind, external_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		entity.ID,
		entity.Sequence,
		entity.Kind,
		entity.ExternalID,
		entity.Name,
		entity.ImageURL,
		entity.ItemCount,
		entity.ChangeToken,
		entity.CreatedAt,
		entity.UpdatedAt,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to insert entity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return nil, models.OutcomeAlreadyExists, nil
	}

	return entity, models.OutcomeCreated, nil
}

// FindByExternalID retrieves a canonical entity by its (kind, external id).
// Returns [shared.ErrEntityNotFound] when absent.
func (r *EntityRepository) FindByExternalID(ctx context.Context, kind models.ResourceKind, externalID string) (*models.CanonicalEntity, error) {
	query := `
		SELECT id, sequence, kind, external_id, name, image_url, item_count, change_token, created_at, updated_at
		FROM entities
		WHERE kind = ? AND external_id = ?
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, kind, externalID))
}

// Get retrieves a canonical entity by its row id.
func (r *EntityRepository) Get(ctx context.Context, id string) (*models.CanonicalEntity, error) {
	query := `
		SELECT id, sequence, kind, external_id, name, image_url, item_count, change_token, created_at, updated_at
		FROM entities
		WHERE id = ?
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// Update overwrites the entity's mutable fields. Last writer wins; there is
// no optimistic-lock rejection.
func (r *EntityRepository) Update(ctx context.Context, id string, draft models.EntityDraft) error {
	query := `
		UPDATE entities
		SET name = ?, image_url = ?, item_count = ?, change_token = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		draft.Name,
		draft.ImageURL,
		draft.ItemCount,
		draft.ChangeToken,
		time.Now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update entity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrEntityNotFound, id)
	}

	return nil
}

// scanOne scans a single row into a [models.CanonicalEntity]
func (r *EntityRepository) scanOne(row *sql.Row) (*models.CanonicalEntity, error) {
	var entity models.CanonicalEntity

	err := row.Scan(
		&entity.ID,
		&entity.Sequence,
		&entity.Kind,
		&entity.ExternalID,
		&entity.Name,
		&entity.ImageURL,
		&entity.ItemCount,
		&entity.ChangeToken,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, shared.ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entity: %w", err)
	}

	return &entity, nil
}
