// package services defines interface MusicService for the music provider the DJ talks to
package services

import (
	"context"

	"github.com/desertthunder/hansdj/internal/models"
)

// MusicService is the set of provider operations the CLI, dashboard and drain engine rely on.
type MusicService interface {
	// CurrentUser returns the authenticated account.
	CurrentUser(ctx context.Context) (*models.User, error)

	// Playback returns what is playing on the user's active device.
	Playback(ctx context.Context) (*models.Playback, error)

	// Playlists retrieves every playlist in the current user's listing, in listing order.
	Playlists(ctx context.Context) ([]models.Playlist, error)

	// PlaylistTracks retrieves the tracks of a playlist, skipping episodes and local files.
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)

	// SearchTracks runs a free-text track search. An empty result is not an error.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)

	// AddToPlaylist appends tracks to the end of a playlist.
	AddToPlaylist(ctx context.Context, playlistID string, trackIDs ...string) error

	// RemoveFromPlaylist removes every occurrence of the given tracks.
	RemoveFromPlaylist(ctx context.Context, playlistID string, trackIDs ...string) error

	// CreatePlaylist creates a playlist owned by the current user.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error)

	// Play resumes playback, or starts contextURI (e.g. "spotify:playlist:<id>") when set.
	Play(ctx context.Context, contextURI string) error

	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
}

// TogglePlayback pauses when something is playing and resumes otherwise. It reports whether
// playback is running afterwards.
func TogglePlayback(ctx context.Context, svc MusicService) (bool, error) {
	state, err := svc.Playback(ctx)
	if err != nil {
		return false, err
	}

	if state != nil && state.IsPlaying {
		return false, svc.Pause(ctx)
	}
	return true, svc.Play(ctx, "")
}

// PlaylistURI returns the context URI used to start a playlist.
func PlaylistURI(id string) string {
	return "spotify:playlist:" + id
}
