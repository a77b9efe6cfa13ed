// Spotify Web API implementation of [MusicService]
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/desertthunder/hansdj/internal/models"
	"github.com/desertthunder/hansdj/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Scopes requested during authorization: playlist management plus playback control.
var Scopes = []string{
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadPlaybackState,
}

const (
	playlistPageSize = 50
	itemsPageSize    = 100
)

// SpotifyService implements [MusicService] over [spotify.Client].
// Uses [oauth2] for authentication and throttles outgoing calls with a [rate.Limiter].
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	client         *spotify.Client
	httpClient     *http.Client
	baseURL        string
	limiter        *rate.Limiter
	onTokenRefresh func(*oauth2.Token)

	mu   sync.Mutex
	user *models.User
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithBaseURL points the client at a different Web API root. The URL must end in a slash.
func WithBaseURL(u string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = u }
}

// WithRateLimit caps outgoing requests per second. Zero or less disables throttling.
func WithRateLimit(rps float64) SpotifyOption {
	return func(s *SpotifyService) { s.limiter = newLimiter(rps) }
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
		limiter: newLimiter(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Authenticate sets up the API client. Expects either an "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.SetToken(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
			TokenType:    "Bearer",
		})
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.Exchange(ctx, authCode)
		if err != nil {
			return err
		}
		s.SetToken(ctx, token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code in credentials", shared.ErrMissingCredentials)
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// SetToken installs token and rebuilds the API client around a refreshing token source.
func (s *SpotifyService) SetToken(ctx context.Context, token *oauth2.Token) {
	s.token = token

	source := oauth2.ReuseTokenSource(token, &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.tokenRefreshed,
	})
	s.httpClient = oauth2.NewClient(ctx, source)

	var opts []spotify.ClientOption
	if s.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.baseURL))
	}
	s.client = spotify.New(s.httpClient, opts...)
}

// SetTokenRefreshCallback registers fn to receive every token obtained through a refresh.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

func (s *SpotifyService) tokenRefreshed(token *oauth2.Token) {
	s.token = token
	if s.onTokenRefresh != nil {
		s.onTokenRefresh(token)
	}
}

// Token returns the token currently in use, possibly refreshed.
func (s *SpotifyService) Token() *oauth2.Token {
	return s.token
}

// HTTPClient returns the authenticated client, or nil before [SpotifyService.SetToken].
func (s *SpotifyService) HTTPClient() *http.Client {
	return s.httpClient
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// refreshableTokenSource reports tokens that differ from the last one it handed out.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}

// ready waits for the limiter and checks the client exists.
func (s *SpotifyService) ready(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

func apiError(op string, err error) error {
	var spErr spotify.Error
	if errors.As(err, &spErr) {
		switch spErr.Status {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s: %s", shared.ErrTokenExpired, op, spErr.Message)
		case http.StatusNotFound:
			if strings.Contains(strings.ToLower(spErr.Message), "device") {
				return fmt.Errorf("%w: %s: %s", shared.ErrNoActiveDevice, op, spErr.Message)
			}
		}
		return fmt.Errorf("%w: %s: status %d: %s", shared.ErrAPIRequest, op, spErr.Status, spErr.Message)
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	u, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, apiError("current user", err)
	}

	user := &models.User{ID: u.ID, DisplayName: u.DisplayName}
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return user, nil
}

func (s *SpotifyService) userID(ctx context.Context) (string, error) {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	if user != nil {
		return user.ID, nil
	}

	user, err := s.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// Playback retrieves the player state. A user with no active device gets an empty [models.Playback].
func (s *SpotifyService) Playback(ctx context.Context) (*models.Playback, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	state, err := s.client.PlayerState(ctx)
	if err != nil {
		return nil, apiError("player state", err)
	}

	playback := &models.Playback{}
	if state == nil {
		return playback, nil
	}

	playback.IsPlaying = state.Playing
	playback.ProgressMS = int(state.Progress)
	playback.Device = state.Device.Name
	if state.Item != nil {
		track := toTrack(state.Item)
		playback.Track = &track
	}
	return playback, nil
}

// Playlists retrieves all playlists for the authenticated user.
func (s *SpotifyService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	page, err := s.client.CurrentUsersPlaylists(ctx, spotify.Limit(playlistPageSize))
	if err != nil {
		return nil, apiError("list playlists", err)
	}

	var playlists []models.Playlist
	for {
		for _, p := range page.Playlists {
			playlists = append(playlists, toPlaylist(p))
		}

		if err := s.ready(ctx); err != nil {
			return nil, err
		}
		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, apiError("list playlists", err)
		}
	}

	return playlists, nil
}

// PlaylistTracks retrieves every track of a playlist.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	page, err := s.client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(itemsPageSize))
	if err != nil {
		return nil, apiError("playlist items", err)
	}

	var tracks []models.Track
	for {
		for _, item := range page.Items {
			if item.Track.Track == nil {
				continue
			}
			tracks = append(tracks, toTrack(item.Track.Track))
		}

		if err := s.ready(ctx); err != nil {
			return nil, err
		}
		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, apiError("playlist items", err)
		}
	}

	return tracks, nil
}

// SearchTracks searches the catalogue for tracks matching query.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1
	}

	result, err := s.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, apiError("search", err)
	}
	if result == nil || result.Tracks == nil {
		return nil, nil
	}

	tracks := make([]models.Track, 0, len(result.Tracks.Tracks))
	for i := range result.Tracks.Tracks {
		tracks = append(tracks, toTrack(&result.Tracks.Tracks[i]))
	}
	return tracks, nil
}

// AddToPlaylist appends tracks to a playlist.
func (s *SpotifyService) AddToPlaylist(ctx context.Context, playlistID string, trackIDs ...string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), toIDs(trackIDs)...); err != nil {
		return apiError("add to playlist", err)
	}
	return nil
}

// RemoveFromPlaylist removes all occurrences of tracks from a playlist.
func (s *SpotifyService) RemoveFromPlaylist(ctx context.Context, playlistID string, trackIDs ...string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.client.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), toIDs(trackIDs)...); err != nil {
		return apiError("remove from playlist", err)
	}
	return nil
}

// CreatePlaylist creates a non-collaborative playlist for the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	created, err := s.client.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, apiError("create playlist", err)
	}

	playlist := toPlaylist(created.SimplePlaylist)
	return &playlist, nil
}

// Play resumes playback, or starts the given context.
func (s *SpotifyService) Play(ctx context.Context, contextURI string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	var err error
	if contextURI == "" {
		err = s.client.Play(ctx)
	} else {
		uri := spotify.URI(contextURI)
		err = s.client.PlayOpt(ctx, &spotify.PlayOptions{PlaybackContext: &uri})
	}
	if err != nil {
		return apiError("play", err)
	}
	return nil
}

func (s *SpotifyService) Pause(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := s.client.Pause(ctx); err != nil {
		return apiError("pause", err)
	}
	return nil
}

func (s *SpotifyService) Next(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := s.client.Next(ctx); err != nil {
		return apiError("next", err)
	}
	return nil
}

func (s *SpotifyService) Previous(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := s.client.Previous(ctx); err != nil {
		return apiError("previous", err)
	}
	return nil
}

func toIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}

func toPlaylist(p spotify.SimplePlaylist) models.Playlist {
	return models.Playlist{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		TrackCount:  int(p.Tracks.Total),
		Public:      p.IsPublic,
		URI:         string(p.URI),
	}
}

func toTrack(t *spotify.FullTrack) models.Track {
	track := models.Track{
		ID:       string(t.ID),
		Title:    t.Name,
		Album:    t.Album.Name,
		Duration: int(t.Duration) / 1000,
		URI:      string(t.URI),
	}
	for _, a := range t.Artists {
		track.Artists = append(track.Artists, a.Name)
	}
	if len(track.Artists) > 0 {
		track.Artist = track.Artists[0]
	}
	return track
}
