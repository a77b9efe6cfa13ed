// Command djrequest queues a song request for the hans dashboard.
//
//	djrequest "song name" [--bot "BotName"]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/hansdj/internal/queue"
	"github.com/desertthunder/hansdj/internal/shared"
	"github.com/urfave/cli/v3"
)

const usage = `Usage: djrequest "song name" [--bot "BotName"]`

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	logger := shared.NewLogger(stderr)
	cmd := &cli.Command{
		Name:      "djrequest",
		Usage:     "Queue a song request for the DJ dashboard",
		ArgsUsage: `"song name"`,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bot", Usage: "Who is asking", Value: queue.AnonymousBot},
			&cli.StringFlag{
				Name:    "queue",
				Usage:   "Path to the shared queue file",
				Value:   queue.DefaultPath,
				Sources: cli.EnvVars(shared.EnvQueuePath),
			},
		},
		OnUsageError: func(ctx context.Context, cmd *cli.Command, err error, isSubcommand bool) error {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			song, err := queue.SongQuery(cmd.Args().Slice())
			if err != nil {
				return err
			}

			rec, err := queue.Enqueue(ctx, cmd.String("queue"), song, cmd.String("bot"))
			if err != nil {
				return err
			}
			logger.Debug("queued request", "song", rec.Song, "bot", rec.Bot, "queue", cmd.String("queue"))
			fmt.Fprintf(stdout, "✅ Queued: '%s' from %s\n", rec.Song, rec.Bot)
			return nil
		},
	}

	err := cmd.Run(ctx, args)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument):
		fmt.Fprintln(stderr, usage)
		return 1
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}
