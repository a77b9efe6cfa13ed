package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/hansdj/internal/formatter"
	"github.com/desertthunder/hansdj/internal/models"
	"github.com/desertthunder/hansdj/internal/services"
	"github.com/desertthunder/hansdj/internal/shared"
	"github.com/urfave/cli/v3"
)

// WhoAmI prints the display name of the authenticated user.
func (r *Runner) WhoAmI(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() > 0 {
		return fmt.Errorf("%w: unknown command %q", shared.ErrInvalidArgument, cmd.Args().First())
	}

	svc, err := r.musicService(ctx)
	if err != nil {
		return err
	}

	user, err := svc.CurrentUser(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("Logged in as: %s\n", user.DisplayName)
}

// List prints the user's playlists with the index accepted by tracks and remove.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.musicService(ctx)
	if err != nil {
		return err
	}

	user, err := svc.CurrentUser(ctx)
	if err != nil {
		return err
	}
	playlists, err := svc.Playlists(ctx)
	if err != nil {
		return err
	}

	r.writePlainln("--- %s's Playlists ---", user.DisplayName)
	for i, p := range playlists {
		r.writePlain("[%d] %-30s | ID: %s\n", i, p.Name, p.ID)
	}
	return nil
}

// Tracks prints a playlist's tracks, or exports them with --format.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.Args().First()
	if ref == "" {
		return fmt.Errorf("%w: usage: hans tracks <index|id>", shared.ErrMissingArgument)
	}

	format := cmd.String("format")
	if format != "" {
		var err error
		if format, err = formatter.NormalizeFormat(format); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
	}

	svc, err := r.musicService(ctx)
	if err != nil {
		return err
	}

	playlistID, err := services.ResolvePlaylistRef(ctx, svc, ref)
	if errors.Is(err, shared.ErrPlaylistNotFound) {
		return r.writePlain("Playlist not found.\n")
	}
	if err != nil {
		return err
	}

	tracks, err := svc.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return err
	}

	if format == "" {
		r.writePlainln("--- Tracks in %s ---", playlistID)
		for _, t := range tracks {
			r.writePlain("- %s by %s (ID: %s)\n", t.Title, t.Artist, t.ID)
		}
		return nil
	}

	export := &models.PlaylistExport{Playlist: r.playlistInfo(ctx, svc, playlistID), Tracks: tracks}
	data, err := formatter.Render(export, format)
	if err != nil {
		return err
	}

	if out := cmd.String("output"); out != "" {
		if err := os.WriteFile(out, data, 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		return r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), out)
	}
	_, err = r.output.Write(data)
	return err
}

// playlistInfo looks up playlist metadata for exports, falling back to the bare ID.
func (r *Runner) playlistInfo(ctx context.Context, svc services.MusicService, id string) models.Playlist {
	playlists, err := svc.Playlists(ctx)
	if err != nil {
		r.logger.Debug("playlist metadata unavailable", "error", err)
	}
	for _, p := range playlists {
		if p.ID == id {
			return p
		}
	}
	return models.Playlist{ID: id, Name: id}
}

// Search prints the top matches for a query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: usage: hans search <query...>", shared.ErrMissingArgument)
	}

	svc, err := r.musicService(ctx)
	if err != nil {
		return err
	}

	tracks, err := svc.SearchTracks(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	r.writePlainln("--- Search Results for: %s ---", query)
	for _, t := range tracks {
		r.writePlain("- %s by %s (ID: %s)\n", t.Title, strings.Join(artists(t), ", "), t.ID)
	}
	return nil
}

// DJ adds the top match for a query to the target playlist.
func (r *Runner) DJ(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: usage: hans dj <query...>", shared.ErrMissingArgument)
	}

	svc, err := r.musicService(ctx)
	if err != nil {
		return err
	}

	tracks, err := svc.SearchTracks(ctx, query, 1)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return r.writePlain("❌ No match found.\n")
	}

	playlist, err := r.targetResolver(svc).Resolve(ctx)
	if err != nil {
		return err
	}
	if err := svc.AddToPlaylist(ctx, playlist.ID, tracks[0].ID); err != nil {
		return err
	}

	r.logger.Info("added track", "track", tracks[0].Title, "playlist", playlist.Name)
	return r.writePlain("✅ Added '%s' to targeting playlist!\n", tracks[0].Title)
}

// Remove deletes every occurrence of a track from a playlist.
func (r *Runner) Remove(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 2 {
		return fmt.Errorf("%w: usage: hans remove <index|id> <track id>", shared.ErrMissingArgument)
	}
	ref, trackID := cmd.Args().Get(0), cmd.Args().Get(1)

	svc, err := r.musicService(ctx)
	if err != nil {
		return err
	}

	playlistID, err := services.ResolvePlaylistRef(ctx, svc, ref)
	if err != nil {
		return err
	}
	if err := svc.RemoveFromPlaylist(ctx, playlistID, trackID); err != nil {
		return err
	}
	return r.writePlain("✅ Executed: Removed %s from %s\n", trackID, playlistID)
}

func artists(t models.Track) []string {
	if len(t.Artists) > 0 {
		return t.Artists
	}
	return []string{t.Artist}
}
