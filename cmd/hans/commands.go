package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/hansdj/internal/formatter"
	"github.com/desertthunder/hansdj/internal/queue"
	"github.com/desertthunder/hansdj/internal/shared"
	"github.com/urfave/cli/v3"
)

// app builds the root command. With no subcommand it reports the logged-in user.
func (r *Runner) app() *cli.Command {
	app := &cli.Command{
		Name:    "hans",
		Usage:   "Spotify DJ: queue requests, drain them into a playlist and drive playback",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "Path to a .env file with secrets",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before:   r.before,
		Action:   r.WhoAmI,
		Commands: r.register(),
	}
	markUsageErrors(app)
	return app
}

// markUsageErrors wraps flag parsing failures in [shared.ErrInvalidArgument] on every command
// so they exit with a usage status.
func markUsageErrors(cmd *cli.Command) {
	cmd.OnUsageError = func(ctx context.Context, cmd *cli.Command, err error, isSubcommand bool) error {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	for _, sub := range cmd.Commands {
		markUsageErrors(sub)
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) []*cli.Command){
		accountCommands, playlistCommands, playbackCommands, queueCommands, toolCommands,
	} {
		commands = append(commands, fn(r)...)
	}
	return commands
}

func formatFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   usage,
	}
}

func accountCommands(r *Runner) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "whoami",
			Usage:  "Show the logged-in Spotify user",
			Action: r.WhoAmI,
		},
		{
			Name:   "auth",
			Usage:  "Authenticate with Spotify using OAuth2 and cache the token",
			Action: r.Auth,
		},
	}
}

func playlistCommands(r *Runner) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "list",
			Usage:  "List your playlists with their index",
			Action: r.List,
		},
		{
			Name:      "tracks",
			Usage:     "List the tracks of a playlist by index or ID",
			ArgsUsage: "<index|id>",
			Flags: []cli.Flag{
				formatFlag("Export format (" + formatter.FormatCSV + ", md, txt, json)"),
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "Write the export to this file instead of stdout",
				},
			},
			Action: r.Tracks,
		},
		{
			Name:      "search",
			Usage:     "Search tracks",
			ArgsUsage: "<query...>",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "limit", Usage: "Maximum number of results", Value: 5},
			},
			Action: r.Search,
		},
		{
			Name:      "dj",
			Usage:     "Add the top search match to the target playlist",
			ArgsUsage: "<query...>",
			Action:    r.DJ,
		},
		{
			Name:      "remove",
			Usage:     "Remove every occurrence of a track from a playlist",
			ArgsUsage: "<index|id> <track id>",
			Action:    r.Remove,
		},
		{
			Name:  "export",
			Usage: "Export every playlist to disk",
			Flags: []cli.Flag{
				formatFlag("Export format (json, csv, md, txt)"),
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "Output directory (default hansdj_export_<epoch>)",
				},
				&cli.IntFlag{Name: "workers", Usage: "Concurrent writers", Value: 5},
			},
			Action: r.Export,
		},
	}
}

func playbackCommands(r *Runner) []*cli.Command {
	return []*cli.Command{
		{
			Name:      "play",
			Usage:     "Start playing a playlist",
			ArgsUsage: "<playlist id>",
			Action:    r.Play,
		},
		{Name: "pause", Usage: "Pause playback", Action: r.Pause},
		{Name: "next", Usage: "Skip to the next track", Action: r.Next},
		{Name: "previous", Aliases: []string{"prev"}, Usage: "Go back to the previous track", Action: r.Previous},
		{Name: "toggle", Usage: "Pause when playing, resume otherwise", Action: r.Toggle},
	}
}

func queueCommands(r *Runner) []*cli.Command {
	return []*cli.Command{
		{
			Name:      "enqueue",
			Usage:     "Queue a song request for the dashboard",
			ArgsUsage: "<query>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "bot", Usage: "Who is asking", Value: queue.AnonymousBot},
			},
			Action: r.Enqueue,
		},
		{
			Name:  "queue",
			Usage: "Show queued requests",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				&cli.BoolFlag{Name: "pending", Usage: "Only show pending requests"},
			},
			Action: r.Queue,
		},
		{
			Name:   "drain",
			Usage:  "Run one drain cycle now",
			Action: r.Drain,
		},
		{
			Name:  "history",
			Usage: "Show drained requests",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "limit", Usage: "Number of entries, 0 for all", Value: 20},
				formatFlag("Output format (csv)"),
			},
			Action: r.History,
		},
	}
}

func toolCommands(r *Runner) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "setup",
			Usage:  "Create config.toml from the template and initialize the database",
			Action: r.Setup,
		},
		{
			Name:    "dashboard",
			Aliases: []string{"ui", "tui"},
			Usage:   "Launch the terminal DJ dashboard",
			Action:  r.Dashboard,
		},
		{
			Name:  "api",
			Usage: "Direct authenticated calls to the Spotify Web API",
			Commands: []*cli.Command{
				{
					Name:      "get",
					Usage:     "GET a path and print the response",
					ArgsUsage: "<path>",
					Flags: []cli.Flag{
						&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON", Value: true},
					},
					Action: r.APIGet,
				},
				{
					Name:      "post",
					Usage:     "POST JSON to a path and print the response",
					ArgsUsage: "<path>",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON body"},
					},
					Action: r.APIPost,
				},
			},
		},
	}
}
