package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/hansdj/internal/services"
	"github.com/desertthunder/hansdj/internal/shared"
	"github.com/urfave/cli/v3"
)

// Play starts a playlist on the active device.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("%w: usage: hans play <playlist id>", shared.ErrMissingArgument)
	}

	svc, err := r.musicService(ctx)
	if err != nil {
		return err
	}
	if err := svc.Play(ctx, services.PlaylistURI(id)); err != nil {
		return err
	}
	return r.writePlain("Playing %s...\n", id)
}

func (r *Runner) Pause(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, func(svc services.MusicService) (string, error) {
		return "⏸ Paused", svc.Pause(ctx)
	})
}

func (r *Runner) Next(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, func(svc services.MusicService) (string, error) {
		return "⏭ Next track", svc.Next(ctx)
	})
}

func (r *Runner) Previous(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, func(svc services.MusicService) (string, error) {
		return "⏮ Previous track", svc.Previous(ctx)
	})
}

// Toggle pauses when something is playing and resumes otherwise.
func (r *Runner) Toggle(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, func(svc services.MusicService) (string, error) {
		playing, err := services.TogglePlayback(ctx, svc)
		if playing {
			return "▶ Playing", err
		}
		return "⏸ Paused", err
	})
}

func (r *Runner) control(ctx context.Context, fn func(services.MusicService) (string, error)) error {
	svc, err := r.musicService(ctx)
	if err != nil {
		return err
	}

	msg, err := fn(svc)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", msg)
}
