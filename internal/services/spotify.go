// Spotify API implementation of [Catalog]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"github.com/kellenGary/MF/internal/models"
	"github.com/kellenGary/MF/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type spotifyOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type spotifyFollowers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyPlaylist represents a playlist object in a paginated listing.
type SpotifyPlaylist struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Owner      spotifyOwner `json:"owner"`
	SnapshotID string       `json:"snapshot_id"`
	Tracks     struct {
		Total int `json:"total"`
	} `json:"tracks"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Followers spotifyFollowers `json:"followers"`
	Images    []SpotifyImage   `json:"images"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifySavedAlbum represents an album saved in the user's library.
type SpotifySavedAlbum struct {
	AddedAt string       `json:"added_at"`
	Album   SpotifyAlbum `json:"album"`
}

// SpotifyPlayHistory represents one recently-played entry.
type SpotifyPlayHistory struct {
	PlayedAt string       `json:"played_at"`
	Track    SpotifyTrack `json:"track"`
}

type spotifyPlaylistPage struct {
	Items []SpotifyPlaylist `json:"items"`
	Next  *string           `json:"next"`
}

type spotifySavedTrackPage struct {
	Items []SpotifySavedTrack `json:"items"`
	Next  *string             `json:"next"`
}

type spotifySavedAlbumPage struct {
	Items []SpotifySavedAlbum `json:"items"`
	Next  *string             `json:"next"`
}

type spotifyFollowedArtistPage struct {
	Artists struct {
		Items []SpotifyArtist `json:"items"`
		Next  *string         `json:"next"`
	} `json:"artists"`
}

type spotifyRecentlyPlayedPage struct {
	Items []SpotifyPlayHistory `json:"items"`
}

// SpotifyService implements [Catalog] and [Authenticator] for the Spotify
// Web API. Tokens are passed per call; the service itself holds no user
// state beyond a profile-id cache used to classify playlist ownership.
type SpotifyService struct {
	config     *oauth2.Config
	httpClient *http.Client
	baseURL    string
	pageLimit  int

	mu       sync.Mutex
	profiles map[string]string // token -> spotify user id
}

// SpotifyOpts contains construction options for [SpotifyService].
type SpotifyOpts struct {
	Credentials shared.SpotifyConfig
	HTTPClient  *http.Client
	BaseURL     string // overridden in tests
	PageLimit   int    // items per page; clamped to the API maximum of 50
}

// NewSpotifyService creates a Spotify service with the given OAuth2 credentials.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.Credentials.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}
	if opts.Credentials.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := opts.Credentials.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.PageLimit <= 0 || opts.PageLimit > 50 {
		opts.PageLimit = 50
	}

	config := &oauth2.Config{
		ClientID:     opts.Credentials.ClientID,
		ClientSecret: opts.Credentials.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-read-collaborative",
			"user-library-read",
			"user-follow-read",
			"user-read-recently-played",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: opts.HTTPClient,
		baseURL:    opts.BaseURL,
		pageLimit:  opts.PageLimit,
		profiles:   make(map[string]string),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Config returns the service's OAuth2 configuration for callback handling.
func (s *SpotifyService) Config() *oauth2.Config {
	return s.config
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a bearer token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (string, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return token.AccessToken, nil
}

// doRequest performs an authenticated GET against the given absolute URL and
// decodes the JSON response, mapping HTTP status codes to the sync failure
// taxonomy.
func (s *SpotifyService) doRequest(ctx context.Context, token, fullURL string, result any) error {
	if token == "" {
		return shared.ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", shared.ErrAuthExpired, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", shared.ErrNetwork, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrNetwork, err)
		}
	}

	return nil
}

// currentUserID returns the Spotify profile id for the token, cached so that
// playlist ownership classification costs one /me call per token.
func (s *SpotifyService) currentUserID(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	if id, ok := s.profiles[token]; ok {
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	var user SpotifyUser
	if err := s.doRequest(ctx, token, s.baseURL+"/me", &user); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.profiles[token] = user.ID
	s.mu.Unlock()

	return user.ID, nil
}

// firstPageURL returns the absolute URL of the first page for a resource kind.
func (s *SpotifyService) firstPageURL(kind models.ResourceKind) (string, error) {
	switch kind {
	case models.KindPlaylist:
		return fmt.Sprintf("%s/me/playlists?limit=%d", s.baseURL, s.pageLimit), nil
	case models.KindTrack:
		return fmt.Sprintf("%s/me/tracks?limit=%d", s.baseURL, s.pageLimit), nil
	case models.KindAlbum:
		return fmt.Sprintf("%s/me/albums?limit=%d", s.baseURL, s.pageLimit), nil
	case models.KindArtist:
		return fmt.Sprintf("%s/me/following?type=artist&limit=%d", s.baseURL, s.pageLimit), nil
	default:
		return "", fmt.Errorf("unknown resource kind %q", kind)
	}
}

// FetchPage returns one page of the user's library for the given kind.
//
// The cursor is the absolute next-page URL reported by the previous page; an
// empty cursor requests the first page.
func (s *SpotifyService) FetchPage(ctx context.Context, token string, kind models.ResourceKind, cursor string) (*CatalogPage, error) {
	pageURL := cursor
	if pageURL == "" {
		first, err := s.firstPageURL(kind)
		if err != nil {
			return nil, err
		}
		pageURL = first
	}

	switch kind {
	case models.KindPlaylist:
		return s.fetchPlaylistPage(ctx, token, pageURL)
	case models.KindTrack:
		return s.fetchSavedTrackPage(ctx, token, pageURL)
	case models.KindAlbum:
		return s.fetchSavedAlbumPage(ctx, token, pageURL)
	case models.KindArtist:
		return s.fetchFollowedArtistPage(ctx, token, pageURL)
	default:
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
}

func (s *SpotifyService) fetchPlaylistPage(ctx context.Context, token, pageURL string) (*CatalogPage, error) {
	profileID, err := s.currentUserID(ctx, token)
	if err != nil {
		return nil, err
	}

	var resp spotifyPlaylistPage
	if err := s.doRequest(ctx, token, pageURL, &resp); err != nil {
		return nil, err
	}

	page := &CatalogPage{Next: nextCursor(resp.Next)}
	for _, pl := range resp.Items {
		relation := models.RelationSubscriber
		if pl.Owner.ID == profileID {
			relation = models.RelationOwner
		}
		page.Items = append(page.Items, models.RemoteItem{
			ExternalID:  pl.ID,
			Name:        pl.Name,
			ImageURL:    firstImage(pl.Images),
			ItemCount:   pl.Tracks.Total,
			ChangeToken: pl.SnapshotID,
			Relation:    relation,
		})
	}
	return page, nil
}

func (s *SpotifyService) fetchSavedTrackPage(ctx context.Context, token, pageURL string) (*CatalogPage, error) {
	var resp spotifySavedTrackPage
	if err := s.doRequest(ctx, token, pageURL, &resp); err != nil {
		return nil, err
	}

	page := &CatalogPage{Next: nextCursor(resp.Next)}
	for _, st := range resp.Items {
		image := firstImage(st.Track.Album.Images)
		page.Items = append(page.Items, models.RemoteItem{
			ExternalID:  st.Track.ID,
			Name:        st.Track.Name,
			ImageURL:    image,
			ItemCount:   st.Track.DurationMS / 1000,
			ChangeToken: Fingerprint(st.Track.Name, image, st.Track.DurationMS/1000),
			Relation:    models.RelationSaved,
			AddedAt:     parseTimestamp(st.AddedAt),
		})
	}
	return page, nil
}

func (s *SpotifyService) fetchSavedAlbumPage(ctx context.Context, token, pageURL string) (*CatalogPage, error) {
	var resp spotifySavedAlbumPage
	if err := s.doRequest(ctx, token, pageURL, &resp); err != nil {
		return nil, err
	}

	page := &CatalogPage{Next: nextCursor(resp.Next)}
	for _, sa := range resp.Items {
		image := firstImage(sa.Album.Images)
		page.Items = append(page.Items, models.RemoteItem{
			ExternalID:  sa.Album.ID,
			Name:        sa.Album.Name,
			ImageURL:    image,
			ItemCount:   sa.Album.TotalTracks,
			ChangeToken: Fingerprint(sa.Album.Name, image, sa.Album.TotalTracks),
			Relation:    models.RelationSaved,
			AddedAt:     parseTimestamp(sa.AddedAt),
		})
	}
	return page, nil
}

func (s *SpotifyService) fetchFollowedArtistPage(ctx context.Context, token, pageURL string) (*CatalogPage, error) {
	var resp spotifyFollowedArtistPage
	if err := s.doRequest(ctx, token, pageURL, &resp); err != nil {
		return nil, err
	}

	page := &CatalogPage{Next: nextCursor(resp.Artists.Next)}
	for _, artist := range resp.Artists.Items {
		image := firstImage(artist.Images)
		page.Items = append(page.Items, models.RemoteItem{
			ExternalID:  artist.ID,
			Name:        artist.Name,
			ImageURL:    image,
			// Follower counts churn constantly, so they stay out of the
			// fingerprint and the item count.
			ChangeToken: Fingerprint(artist.Name, image, 0),
			Relation:    models.RelationFollowed,
		})
	}
	return page, nil
}

// RecentlyPlayed returns the user's most recent listens, newest first.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, token string, limit int) ([]models.Listen, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	var resp spotifyRecentlyPlayedPage
	pageURL := fmt.Sprintf("%s/me/player/recently-played?limit=%d", s.baseURL, limit)
	if err := s.doRequest(ctx, token, pageURL, &resp); err != nil {
		return nil, err
	}

	var listens []models.Listen
	for _, entry := range resp.Items {
		listen := models.Listen{
			TrackExternalID: entry.Track.ID,
			TrackName:       entry.Track.Name,
			PlayedAt:        parseTimestamp(entry.PlayedAt),
		}
		if len(entry.Track.Artists) > 0 {
			listen.ArtistName = entry.Track.Artists[0].Name
		}
		listens = append(listens, listen)
	}
	return listens, nil
}

// Fingerprint derives a change token from an item's mutable fields for
// resource kinds where the API provides no server-side version marker.
func Fingerprint(name, imageURL string, count int) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d", name, imageURL, count)
	return fmt.Sprintf("%016x", h.Sum64())
}

func nextCursor(next *string) string {
	if next == nil {
		return ""
	}
	return *next
}

func firstImage(images []SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
