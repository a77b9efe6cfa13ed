package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/desertthunder/hansdj/internal/formatter"
	"github.com/desertthunder/hansdj/internal/queue"
	"github.com/desertthunder/hansdj/internal/shared"
	"github.com/urfave/cli/v3"
)

// Enqueue appends a request to the shared queue, like djrequest.
func (r *Runner) Enqueue(ctx context.Context, cmd *cli.Command) error {
	song, err := queue.SongQuery(cmd.Args().Slice())
	if err != nil {
		return fmt.Errorf("%w; usage: hans enqueue \"song name\" [--bot \"BotName\"]", err)
	}

	rec, err := r.queueStore().Enqueue(ctx, song, cmd.String("bot"))
	if err != nil {
		return err
	}
	return r.writePlain("✅ Queued: '%s' from %s\n", rec.Song, rec.Bot)
}

// Queue prints the queued requests with their status.
func (r *Runner) Queue(ctx context.Context, cmd *cli.Command) error {
	records, err := r.queueStore().Snapshot(ctx)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		records = nil
	case err != nil:
		return err
	}

	if cmd.Bool("pending") {
		pending := records[:0:0]
		for _, rec := range records {
			if rec.Pending() {
				pending = append(pending, rec)
			}
		}
		records = pending
	}

	if cmd.Bool("json") {
		data, err := queue.Encode(records)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	if len(records) == 0 {
		return r.writePlain("Queue is empty.\n")
	}
	for i, rec := range records {
		r.writePlain("[%d] %-9s %s (from %s, %s)\n", i, rec.Status, rec.Song, rec.Bot, rec.Time().Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

// Drain runs one drain cycle and prints what happened to each request.
func (r *Runner) Drain(ctx context.Context, cmd *cli.Command) error {
	engine, target, err := r.drainEngine(ctx)
	if err != nil {
		return err
	}

	report, err := engine.Run(ctx, nil)
	if err != nil {
		return err
	}
	if report.Pending == 0 {
		return r.writePlain("No pending requests.\n")
	}

	for _, res := range report.Results {
		if res.Track == nil {
			r.writePlain("❌ %s: no match for '%s'\n", res.Record.Bot, res.Record.Song)
			continue
		}
		r.writePlain("🎧 %s: Added '%s' to %s\n", res.Record.Bot, res.Track.Title, res.Playlist.Name)
	}
	return r.writePlain("Processed %d requests (%d added) into %s.\n", len(report.Results), len(report.Added()), target.Name())
}

// History prints the drain log.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	history, err := r.historyStore()
	if err != nil {
		return err
	}

	entries, err := history.List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	switch format := cmd.String("format"); format {
	case "":
	case formatter.FormatCSV:
		data, err := formatter.HistoryToCSV(entries)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	default:
		return fmt.Errorf("%w: history supports only csv, got %q", shared.ErrInvalidArgument, format)
	}

	if len(entries) == 0 {
		return r.writePlain("No drain history yet.\n")
	}
	for _, e := range entries {
		r.writePlain("%s  %s\n", e.CreatedAt().Local().Format("2006-01-02 15:04:05"), e.String())
	}
	return nil
}
