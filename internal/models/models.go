// package models defines the data model for the catalog mirror service
package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for all persistent models in the service.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// User is the minimal account record relationship rows hang off of.
//
// Profile content lives with the mobile client's API; the sync service only
// needs a stable user id.
type User struct {
	id          string
	sequence    int
	username    string
	displayName string
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewUser creates a User with the given sequence, username and display name.
func NewUser(sequence int, username, displayName string) *User {
	now := time.Now()
	return &User{
		sequence:    sequence,
		username:    username,
		displayName: displayName,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (u *User) ID() string            { return u.id }
func (u *User) Sequence() int         { return u.sequence }
func (u *User) Username() string      { return u.username }
func (u *User) DisplayName() string   { return u.displayName }
func (u *User) CreatedAt() time.Time  { return u.createdAt }
func (u *User) UpdatedAt() time.Time  { return u.updatedAt }
func (u *User) DeletedAt() *time.Time { return u.deletedAt }

func (u *User) SetID(id string)            { u.id = id }
func (u *User) SetDisplayName(name string) { u.displayName = name }
func (u *User) SetUpdatedAt(t time.Time)   { u.updatedAt = t }
func (u *User) SetDeletedAt(t *time.Time)  { u.deletedAt = t }
func (u *User) SetCreatedAt(t time.Time)   { u.createdAt = t }

// Validate checks that the user has a non-empty username without whitespace.
func (u *User) Validate() error {
	if u.username == "" {
		return fmt.Errorf("username is required")
	}
	if strings.ContainsAny(u.username, " \t\n") {
		return fmt.Errorf("username may not contain whitespace")
	}
	return nil
}
