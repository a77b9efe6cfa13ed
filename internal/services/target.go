package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/hansdj/internal/models"
	"github.com/desertthunder/hansdj/internal/shared"
)

// TargetResolver picks the playlist that matched requests are added to.
type TargetResolver struct {
	service MusicService
	policy  string
	name    string
}

// NewTargetResolver builds a resolver for policy ([shared.TargetByName] or [shared.TargetFirst]).
// An empty policy selects [shared.TargetByName].
func NewTargetResolver(service MusicService, policy, name string) *TargetResolver {
	if policy == "" {
		policy = shared.TargetByName
	}
	return &TargetResolver{service: service, policy: policy, name: name}
}

// Name returns the configured target playlist name.
func (r *TargetResolver) Name() string {
	return r.name
}

// Resolve returns the target playlist, creating it when the by-name policy finds no match.
func (r *TargetResolver) Resolve(ctx context.Context) (*models.Playlist, error) {
	playlists, err := r.service.Playlists(ctx)
	if err != nil {
		return nil, err
	}

	switch r.policy {
	case shared.TargetFirst:
		if len(playlists) == 0 {
			return nil, fmt.Errorf("%w: user has no playlists", shared.ErrPlaylistNotFound)
		}
		return &playlists[0], nil
	case shared.TargetByName:
		for i := range playlists {
			if strings.EqualFold(playlists[i].Name, r.name) {
				return &playlists[i], nil
			}
		}
		return r.service.CreatePlaylist(ctx, r.name, TargetDescription(r.name), true)
	default:
		return nil, fmt.Errorf("%w: unknown target policy %q", shared.ErrInvalidConfig, r.policy)
	}
}

// TargetDescription is the description given to a target playlist created on demand.
func TargetDescription(name string) string {
	return fmt.Sprintf("The official %s DJ core.", name)
}

// ResolvePlaylistRef turns ref into a playlist ID. An all-digit ref is an index into the
// current user's listing; anything else is taken as an ID and returned unchanged.
func ResolvePlaylistRef(ctx context.Context, service MusicService, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: playlist", shared.ErrMissingArgument)
	}
	if strings.TrimLeft(ref, "0123456789") != "" {
		return ref, nil
	}

	i, err := strconv.Atoi(ref)
	if err != nil {
		return "", fmt.Errorf("%w: playlist index %s", shared.ErrInvalidArgument, ref)
	}

	playlists, err := service.Playlists(ctx)
	if err != nil {
		return "", err
	}
	if i >= len(playlists) {
		return "", fmt.Errorf("%w: index %d of %d", shared.ErrPlaylistNotFound, i, len(playlists))
	}
	return playlists[i].ID, nil
}
