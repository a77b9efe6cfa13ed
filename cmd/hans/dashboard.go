package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/hansdj/internal/shared"
	"github.com/desertthunder/hansdj/internal/ui"
	"github.com/urfave/cli/v3"
)

// Dashboard launches the terminal DJ dashboard.
func (r *Runner) Dashboard(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Dashboard.LogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	engine, target, err := r.drainEngine(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := ui.Options{
		Service:          r.service,
		Engine:           engine,
		Target:           target,
		Logger:           fileLogger,
		DrainInterval:    r.config.Queue.PollInterval.Duration,
		PlaybackInterval: r.config.Dashboard.PlaybackInterval.Duration,
		LogLines:         r.config.Dashboard.LogLines,
	}
	if history, err := r.historyStore(); err == nil {
		opts.History = history
	}

	changes, err := r.queueStore().Watch(ctx, fileLogger)
	if err != nil {
		fileLogger.Warn("queue watcher unavailable, relying on the poll timer", "error", err)
	} else {
		opts.Changes = changes
	}

	fileLogger.Info("dashboard starting", "queue", r.config.Queue.Path, "target", target.Name())
	if err := ui.Run(ctx, opts); err != nil {
		return fmt.Errorf("error running dashboard: %w", err)
	}
	return nil
}
