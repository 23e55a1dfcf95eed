package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/kellenGary/MF/internal/models"
	"github.com/kellenGary/MF/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// createTestUser inserts a user and returns it
func createTestUser(t *testing.T, db *sql.DB, username string) *models.User {
	t.Helper()

	user := models.NewUser(0, username, "Test User")
	if err := NewUserRepository(db).Create(user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// createTestEntity inserts a canonical entity and returns it
func createTestEntity(t *testing.T, db *sql.DB, kind models.ResourceKind, externalID, token string) *models.CanonicalEntity {
	t.Helper()

	entity, outcome, err := NewEntityRepository(db).Create(context.Background(), models.EntityDraft{
		Kind:        kind,
		ExternalID:  externalID,
		Name:        "Entity " + externalID,
		ChangeToken: token,
	})
	if err != nil {
		t.Fatalf("failed to create test entity: %v", err)
	}
	if outcome != models.OutcomeCreated {
		t.Fatalf("expected entity to be created, got %s", outcome)
	}
	return entity
}

func TestUserRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "anna", "Anna")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if user.ID() == "" {
			t.Error("user ID should be set after creation")
		}
	})

	t.Run("CreateRejectsInvalidUsername", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		if err := repo.Create(models.NewUser(0, "bad name", "Bad")); err == nil {
			t.Error("expected error for username with whitespace")
		}
	})

	t.Run("GetByUsername", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createTestUser(t, db, "anna")

		retrieved, err := repo.GetByUsername("anna")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if retrieved.ID() != user.ID() {
			t.Errorf("expected ID %s, got %s", user.ID(), retrieved.ID())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createTestUser(t, db, "anna")

		if err := repo.Delete(user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		if _, err := repo.Get(user.ID()); err == nil {
			t.Error("expected error when getting deleted user")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		createTestUser(t, db, "anna")
		createTestUser(t, db, "ben")

		users, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("expected 2 users, got %d", len(users))
		}
	})
}

func TestEntityRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateReportsCreated", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEntityRepository(db)
		entity, outcome, err := repo.Create(ctx, models.EntityDraft{
			Kind:        models.KindPlaylist,
			ExternalID:  "pl1",
			Name:        "Morning Mix",
			ChangeToken: "snap1",
		})
		if err != nil {
			t.Fatalf("failed to create entity: %v", err)
		}
		if outcome != models.OutcomeCreated {
			t.Errorf("expected created outcome, got %s", outcome)
		}
		if entity == nil || entity.ID == "" {
			t.Fatal("expected stored entity with id")
		}
	})

	t.Run("DuplicateExternalIDReportsAlreadyExists", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEntityRepository(db)
		first := createTestEntity(t, db, models.KindTrack, "t1", "v1")

		entity, outcome, err := repo.Create(ctx, models.EntityDraft{
			Kind:       models.KindTrack,
			ExternalID: "t1",
			Name:       "Same Track, Other User",
		})
		if err != nil {
			t.Fatalf("duplicate insert should not error: %v", err)
		}
		if outcome != models.OutcomeAlreadyExists {
			t.Errorf("expected already_exists outcome, got %s", outcome)
		}
		if entity != nil {
			t.Error("expected nil entity for already_exists outcome")
		}

		// fallback read resolves the canonical row
		existing, err := repo.FindByExternalID(ctx, models.KindTrack, "t1")
		if err != nil {
			t.Fatalf("fallback read failed: %v", err)
		}
		if existing.ID != first.ID {
			t.Errorf("expected canonical id %s, got %s", first.ID, existing.ID)
		}
	})

	t.Run("SameExternalIDDifferentKindIsDistinct", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEntityRepository(db)
		createTestEntity(t, db, models.KindTrack, "x1", "v1")

		_, outcome, err := repo.Create(ctx, models.EntityDraft{
			Kind:       models.KindAlbum,
			ExternalID: "x1",
			Name:       "Album X",
		})
		if err != nil {
			t.Fatalf("failed to create entity: %v", err)
		}
		if outcome != models.OutcomeCreated {
			t.Errorf("expected created outcome across kinds, got %s", outcome)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEntityRepository(db)
		entity := createTestEntity(t, db, models.KindPlaylist, "pl1", "snap1")

		err := repo.Update(ctx, entity.ID, models.EntityDraft{
			Kind:        models.KindPlaylist,
			ExternalID:  "pl1",
			Name:        "Renamed",
			ChangeToken: "snap2",
		})
		if err != nil {
			t.Fatalf("failed to update entity: %v", err)
		}

		updated, err := repo.Get(ctx, entity.ID)
		if err != nil {
			t.Fatalf("failed to get entity: %v", err)
		}
		if updated.Name != "Renamed" || updated.ChangeToken != "snap2" {
			t.Errorf("update not applied: %+v", updated)
		}
	})

	t.Run("UpdateMissingEntity", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEntityRepository(db)
		err := repo.Update(ctx, "missing", models.EntityDraft{
			Kind:       models.KindPlaylist,
			ExternalID: "pl1",
		})
		if !errors.Is(err, shared.ErrEntityNotFound) {
			t.Errorf("expected ErrEntityNotFound, got %v", err)
		}
	})

	t.Run("FindByExternalIDMissing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEntityRepository(db)
		_, err := repo.FindByExternalID(ctx, models.KindArtist, "nobody")
		if !errors.Is(err, shared.ErrEntityNotFound) {
			t.Errorf("expected ErrEntityNotFound, got %v", err)
		}
	})
}

func TestRelationshipRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateAndDuplicate", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRelationshipRepository(db)
		user := createTestUser(t, db, "anna")
		entity := createTestEntity(t, db, models.KindPlaylist, "pl1", "snap1")

		draft := models.RelationshipDraft{
			UserID:   user.ID(),
			EntityID: entity.ID,
			Kind:     models.KindPlaylist,
			Relation: models.RelationOwner,
		}

		rel, outcome, err := repo.Create(ctx, draft)
		if err != nil {
			t.Fatalf("failed to create relationship: %v", err)
		}
		if outcome != models.OutcomeCreated || rel == nil {
			t.Fatalf("expected created outcome with row, got %s", outcome)
		}

		_, outcome, err = repo.Create(ctx, draft)
		if err != nil {
			t.Fatalf("duplicate insert should not error: %v", err)
		}
		if outcome != models.OutcomeAlreadyExists {
			t.Errorf("expected already_exists outcome, got %s", outcome)
		}
	})

	t.Run("DeleteReportsWhetherRowExisted", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRelationshipRepository(db)
		user := createTestUser(t, db, "anna")
		entity := createTestEntity(t, db, models.KindTrack, "t1", "v1")

		_, _, err := repo.Create(ctx, models.RelationshipDraft{
			UserID:   user.ID(),
			EntityID: entity.ID,
			Kind:     models.KindTrack,
			Relation: models.RelationSaved,
		})
		if err != nil {
			t.Fatalf("failed to create relationship: %v", err)
		}

		deleted, err := repo.Delete(ctx, user.ID(), entity.ID)
		if err != nil {
			t.Fatalf("failed to delete relationship: %v", err)
		}
		if !deleted {
			t.Error("expected delete to report a removed row")
		}

		deleted, err = repo.Delete(ctx, user.ID(), entity.ID)
		if err != nil {
			t.Fatalf("second delete should not error: %v", err)
		}
		if deleted {
			t.Error("expected second delete to report no removed row")
		}
	})

	t.Run("ListByUserReturnsLinkedSnapshot", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRelationshipRepository(db)
		user := createTestUser(t, db, "anna")
		other := createTestUser(t, db, "ben")
		entity := createTestEntity(t, db, models.KindAlbum, "al1", "fp1")

		for _, u := range []*models.User{user, other} {
			if _, _, err := repo.Create(ctx, models.RelationshipDraft{
				UserID:   u.ID(),
				EntityID: entity.ID,
				Kind:     models.KindAlbum,
				Relation: models.RelationSaved,
			}); err != nil {
				t.Fatalf("failed to create relationship: %v", err)
			}
		}

		linked, err := repo.ListByUser(ctx, user.ID(), models.KindAlbum)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(linked) != 1 {
			t.Fatalf("expected 1 linked entity, got %d", len(linked))
		}
		if linked[0].ExternalID != "al1" || linked[0].ChangeToken != "fp1" {
			t.Errorf("unexpected snapshot row: %+v", linked[0])
		}
		if linked[0].EntityID != entity.ID {
			t.Errorf("expected entity id %s, got %s", entity.ID, linked[0].EntityID)
		}
	})

	t.Run("ListEntities", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRelationshipRepository(db)
		user := createTestUser(t, db, "anna")
		first := createTestEntity(t, db, models.KindArtist, "ar1", "")
		second := createTestEntity(t, db, models.KindArtist, "ar2", "")

		for _, e := range []*models.CanonicalEntity{first, second} {
			if _, _, err := repo.Create(ctx, models.RelationshipDraft{
				UserID:   user.ID(),
				EntityID: e.ID,
				Kind:     models.KindArtist,
				Relation: models.RelationFollowed,
			}); err != nil {
				t.Fatalf("failed to create relationship: %v", err)
			}
		}

		entities, err := repo.ListEntities(ctx, user.ID(), models.KindArtist)
		if err != nil {
			t.Fatalf("failed to list entities: %v", err)
		}
		if len(entities) != 2 {
			t.Fatalf("expected 2 entities, got %d", len(entities))
		}
		if entities[0].ExternalID != "ar1" {
			t.Errorf("expected sequence ordering, got %s first", entities[0].ExternalID)
		}
	})
}

func TestSyncStateRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("GetMissingState", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncStateRepository(db)
		user := createTestUser(t, db, "anna")

		_, err := repo.Get(ctx, user.ID(), models.KindPlaylist)
		if !errors.Is(err, shared.ErrStateNotFound) {
			t.Errorf("expected ErrStateNotFound, got %v", err)
		}
	})

	t.Run("TouchUpserts", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncStateRepository(db)
		user := createTestUser(t, db, "anna")

		first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
		if err := repo.Touch(ctx, user.ID(), models.KindTrack, first); err != nil {
			t.Fatalf("failed to touch state: %v", err)
		}

		second := first.Add(time.Hour)
		if err := repo.Touch(ctx, user.ID(), models.KindTrack, second); err != nil {
			t.Fatalf("failed to touch state again: %v", err)
		}

		state, err := repo.Get(ctx, user.ID(), models.KindTrack)
		if err != nil {
			t.Fatalf("failed to get state: %v", err)
		}
		if !state.LastSyncedAt.Equal(second) {
			t.Errorf("expected last synced %v, got %v", second, state.LastSyncedAt)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncStateRepository(db)
		user := createTestUser(t, db, "anna")

		now := time.Now()
		for _, kind := range []models.ResourceKind{models.KindPlaylist, models.KindArtist} {
			if err := repo.Touch(ctx, user.ID(), kind, now); err != nil {
				t.Fatalf("failed to touch state: %v", err)
			}
		}

		states, err := repo.List(ctx, user.ID())
		if err != nil {
			t.Fatalf("failed to list states: %v", err)
		}
		if len(states) != 2 {
			t.Errorf("expected 2 states, got %d", len(states))
		}
	})
}

func TestListenRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateToleratesDuplicates", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewListenRepository(db)
		user := createTestUser(t, db, "anna")

		listen := models.Listen{
			UserID:          user.ID(),
			TrackExternalID: "t1",
			TrackName:       "Song",
			ArtistName:      "Band",
			PlayedAt:        time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC),
		}

		outcome, err := repo.Create(ctx, listen)
		if err != nil {
			t.Fatalf("failed to create listen: %v", err)
		}
		if outcome != models.OutcomeCreated {
			t.Errorf("expected created outcome, got %s", outcome)
		}

		outcome, err = repo.Create(ctx, listen)
		if err != nil {
			t.Fatalf("duplicate listen should not error: %v", err)
		}
		if outcome != models.OutcomeAlreadyExists {
			t.Errorf("expected already_exists outcome, got %s", outcome)
		}
	})

	t.Run("ListByUserNewestFirst", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewListenRepository(db)
		user := createTestUser(t, db, "anna")

		base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			_, err := repo.Create(ctx, models.Listen{
				UserID:          user.ID(),
				TrackExternalID: "t1",
				TrackName:       "Song",
				ArtistName:      "Band",
				PlayedAt:        base.Add(time.Duration(i) * time.Minute),
			})
			if err != nil {
				t.Fatalf("failed to create listen: %v", err)
			}
		}

		listens, err := repo.ListByUser(ctx, user.ID(), 10)
		if err != nil {
			t.Fatalf("failed to list listens: %v", err)
		}
		if len(listens) != 3 {
			t.Fatalf("expected 3 listens, got %d", len(listens))
		}
		if !listens[0].PlayedAt.After(listens[2].PlayedAt) {
			t.Error("expected newest listen first")
		}
	})
}
