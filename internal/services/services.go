// package services defines the Catalog contract for streaming-service APIs
//
// Spotify is the only implementation; the reconciliation engine consumes the
// interface so tests can substitute fakes.
package services

import (
	"context"

	"github.com/kellenGary/MF/internal/models"
)

// Catalog fetches one page of a user's remote library at a time.
//
// Implementations do not retry: a transient failure surfaces as
// [shared.ErrNetwork] and a rejected token as [shared.ErrAuthExpired], and
// the caller decides whether to re-run. A page sequence that errors before
// exhaustion must never be treated as the complete remote set.
type Catalog interface {
	// FetchPage returns one page of the user's library for the given
	// resource kind. An empty cursor requests the first page; the returned
	// page's Next cursor is empty once the remote API reports no further
	// pages.
	FetchPage(ctx context.Context, token string, kind models.ResourceKind, cursor string) (*CatalogPage, error)

	// RecentlyPlayed returns the user's most recent listens, newest first.
	RecentlyPlayed(ctx context.Context, token string, limit int) ([]models.Listen, error)

	// Name returns the name of the remote service (e.g. "Spotify").
	Name() string
}

// CatalogPage is one page of normalized remote items plus the cursor for the
// next page. Next == "" signals exhaustion.
type CatalogPage struct {
	Items []models.RemoteItem
	Next  string
}

// Authenticator initiates and completes the OAuth flow that produces the
// bearer tokens Catalog calls consume. The engine never touches this; it is
// the auth collaborator's boundary.
type Authenticator interface {
	// AuthURL returns the authorization URL for user login.
	AuthURL(state string) string

	// Exchange trades an authorization code for a bearer token.
	Exchange(ctx context.Context, code string) (string, error)
}
