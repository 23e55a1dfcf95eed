package models

import (
	"fmt"
	"time"
)

// ResourceKind identifies one mirrored slice of a user's streaming library.
type ResourceKind string

const (
	KindPlaylist ResourceKind = "playlist"
	KindTrack    ResourceKind = "track"
	KindAlbum    ResourceKind = "album"
	KindArtist   ResourceKind = "artist"
)

// ResourceKinds lists every syncable resource kind.
func ResourceKinds() []ResourceKind {
	return []ResourceKind{KindPlaylist, KindTrack, KindAlbum, KindArtist}
}

// Valid reports whether the kind is a known resource kind.
func (k ResourceKind) Valid() bool {
	switch k {
	case KindPlaylist, KindTrack, KindAlbum, KindArtist:
		return true
	}
	return false
}

// ParseResourceKind converts a string (e.g. a CLI flag value) to a ResourceKind.
func ParseResourceKind(s string) (ResourceKind, error) {
	k := ResourceKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown resource kind %q", s)
	}
	return k, nil
}

// RelationKind describes how a user is associated with a canonical entity.
type RelationKind string

const (
	RelationOwner      RelationKind = "owner"      // user owns the playlist
	RelationSubscriber RelationKind = "subscriber" // user follows someone else's playlist
	RelationSaved      RelationKind = "saved"      // user saved the track/album to their library
	RelationFollowed   RelationKind = "followed"   // user follows the artist
)

// CanonicalEntity is one shared, deduplicated record for a remote catalog
// object (playlist, track, album or artist), independent of any one user.
// Exactly one row per (kind, external id) ever exists.
type CanonicalEntity struct {
	ID          string       `json:"id"`
	Sequence    int          `json:"-"`
	Kind        ResourceKind `json:"kind"`
	ExternalID  string       `json:"external_id"`
	Name        string       `json:"name"`
	ImageURL    string       `json:"image_url,omitempty"`
	ItemCount   int          `json:"item_count"`
	ChangeToken string       `json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// EntityDraft carries the fields needed to create a canonical entity.
type EntityDraft struct {
	Kind        ResourceKind
	ExternalID  string
	Name        string
	ImageURL    string
	ItemCount   int
	ChangeToken string
}

// Validate checks the draft identifies a real remote object.
func (d EntityDraft) Validate() error {
	if !d.Kind.Valid() {
		return fmt.Errorf("invalid resource kind %q", d.Kind)
	}
	if d.ExternalID == "" {
		return fmt.Errorf("external id is required")
	}
	return nil
}

// Relationship associates one user with one canonical entity. The pair
// (UserID, EntityID) is unique; rows are hard-deleted when the pairing
// disappears from a fully fetched remote set.
type Relationship struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	EntityID  string       `json:"entity_id"`
	Kind      ResourceKind `json:"kind"`
	Relation  RelationKind `json:"relation"`
	AddedAt   time.Time    `json:"added_at"`
	CreatedAt time.Time    `json:"created_at"`
}

// RelationshipDraft carries the fields needed to create a relationship.
type RelationshipDraft struct {
	UserID   string
	EntityID string
	Kind     ResourceKind
	Relation RelationKind
	AddedAt  time.Time
}

// Validate checks the draft references a user and an entity.
func (d RelationshipDraft) Validate() error {
	if d.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if d.EntityID == "" {
		return fmt.Errorf("entity id is required")
	}
	if !d.Kind.Valid() {
		return fmt.Errorf("invalid resource kind %q", d.Kind)
	}
	return nil
}

// LinkedEntity is one row of the local pairing snapshot the engine diffs
// against: a relationship joined with its entity's identity and change token.
type LinkedEntity struct {
	EntityID    string
	ExternalID  string
	ChangeToken string
	Relation    RelationKind
}

// SyncState records the last completed reconciliation per (user, kind).
type SyncState struct {
	UserID       string       `json:"user_id"`
	Kind         ResourceKind `json:"kind"`
	LastSyncedAt time.Time    `json:"last_synced_at"`
}

// SyncResult summarizes one reconciliation pass. It is returned to the
// caller, never persisted.
type SyncResult struct {
	Added    int          `json:"added"`
	Updated  int          `json:"updated"`
	Removed  int          `json:"removed"`
	Kind     ResourceKind `json:"kind"`
	SyncedAt time.Time    `json:"synced_at"`
}

// RemoteItem is the validated, normalized form of one raw remote catalog
// item. The reconciliation engine only ever sees RemoteItems, never untyped
// payload trees.
type RemoteItem struct {
	ExternalID  string
	Name        string
	ImageURL    string
	ItemCount   int
	ChangeToken string
	Relation    RelationKind
	AddedAt     time.Time
}

// Draft converts the item to an entity draft for the given kind.
func (r RemoteItem) Draft(kind ResourceKind) EntityDraft {
	return EntityDraft{
		Kind:        kind,
		ExternalID:  r.ExternalID,
		Name:        r.Name,
		ImageURL:    r.ImageURL,
		ItemCount:   r.ItemCount,
		ChangeToken: r.ChangeToken,
	}
}

// Listen is one append-only listening history row.
type Listen struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	TrackExternalID string    `json:"track_external_id"`
	TrackName       string    `json:"track_name"`
	ArtistName      string    `json:"artist_name"`
	PlayedAt        time.Time `json:"played_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateOutcome is the tagged result of a conflict-safe insert. Stores
// return AlreadyExists for uniqueness races instead of an error so callers
// only reach conflict handling for genuine duplicate rows.
type CreateOutcome int

const (
	OutcomeCreated CreateOutcome = iota
	OutcomeAlreadyExists
)

func (o CreateOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeAlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}
