package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kellenGary/MF/internal/models"
	"github.com/kellenGary/MF/internal/shared"
)

// RelationshipRepository persists per-user associations to canonical
// entities. Rows are logically owned by one user but stored in a table
// shared by all users; UNIQUE(user_id, entity_id) provides the row-level
// isolation concurrent same-user syncs rely on.
type RelationshipRepository struct {
	db *sql.DB
}

// NewRelationshipRepository creates a new RelationshipRepository with the given database connection
func NewRelationshipRepository(db *sql.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// Create inserts a relationship for the draft's (user, entity) pair.
//
// Returns [models.OutcomeAlreadyExists] when the pairing is already present,
// which callers treat as a no-op success.
func (r *RelationshipRepository) Create(ctx context.Context, draft models.RelationshipDraft) (*models.Relationship, models.CreateOutcome, error) {
	if err := draft.Validate(); err != nil {
		return nil, 0, fmt.Errorf("validation failed: %w", err)
	}

	addedAt := draft.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now()
	}

	rel := &models.Relationship{
		ID:        shared.GenerateID(),
		UserID:    draft.UserID,
		EntityID:  draft.EntityID,
		Kind:      draft.Kind,
		Relation:  draft.Relation,
		AddedAt:   addedAt,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO relationships (id, user_id, entity_id, kind, relation, added_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, entity_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		rel.ID,
		rel.UserID,
		rel.EntityID,
		rel.Kind,
		rel.Relation,
		rel.AddedAt,
		rel.CreatedAt,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to insert relationship: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return nil, models.OutcomeAlreadyExists, nil
	}

	return rel, models.OutcomeCreated, nil
}

// Find retrieves the relationship for a (user, entity) pair.
func (r *RelationshipRepository) Find(ctx context.Context, userID, entityID string) (*models.Relationship, error) {
	query := `
		SELECT id, user_id, entity_id, kind, relation, added_at, created_at
		FROM relationships
		WHERE user_id = ? AND entity_id = ?
	`

	var rel models.Relationship
	err := r.db.QueryRowContext(ctx, query, userID, entityID).Scan(
		&rel.ID,
		&rel.UserID,
		&rel.EntityID,
		&rel.Kind,
		&rel.Relation,
		&rel.AddedAt,
		&rel.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("relationship not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan relationship: %w", err)
	}

	return &rel, nil
}

// Delete hard-deletes the relationship for a (user, entity) pair.
//
// Reports whether a row was deleted; deleting an already-removed pairing is
// a no-op so concurrent prunes of the same row stay idempotent.
func (r *RelationshipRepository) Delete(ctx context.Context, userID, entityID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM relationships WHERE user_id = ? AND entity_id = ?",
		userID, entityID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete relationship: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// ListByUser returns the user's pairing snapshot for one resource kind, each
// row joined with its entity's external id and change token. The engine
// diffs this snapshot against the fetched remote set.
func (r *RelationshipRepository) ListByUser(ctx context.Context, userID string, kind models.ResourceKind) ([]models.LinkedEntity, error) {
	query := `
		SELECT r.entity_id, e.external_id, e.change_token, r.relation
		FROM relationships r
		JOIN entities e ON e.id = r.entity_id
		WHERE r.user_id = ? AND r.kind = ?
		ORDER BY e.sequence ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()

	var linked []models.LinkedEntity
	for rows.Next() {
		var le models.LinkedEntity
		if err := rows.Scan(&le.EntityID, &le.ExternalID, &le.ChangeToken, &le.Relation); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		linked = append(linked, le)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return linked, nil
}

// ListEntities returns the full canonical entities a user is linked to for
// one resource kind, for CLI library listings.
func (r *RelationshipRepository) ListEntities(ctx context.Context, userID string, kind models.ResourceKind) ([]*models.CanonicalEntity, error) {
	query := `
		SELECT e.id, e.sequence, e.kind, e.external_id, e.name, e.image_url, e.item_count, e.change_token, e.created_at, e.updated_at
		FROM relationships r
		JOIN entities e ON e.id = r.entity_id
		WHERE r.user_id = ? AND r.kind = ?
		ORDER BY e.sequence ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []*models.CanonicalEntity
	for rows.Next() {
		var entity models.CanonicalEntity
		err := rows.Scan(
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
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, &entity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entities, nil
}
