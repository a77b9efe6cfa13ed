package main

import (
	"context"
	"sync"

	"github.com/desertthunder/hansdj/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes every playlist to disk with a manifest.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.musicService(ctx)
	if err != nil {
		return err
	}

	playlists, err := svc.Playlists(ctx)
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		return r.writePlain("No playlists to export.\n")
	}

	progress := make(chan tasks.ProgressUpdate, len(playlists)*2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range progress {
			r.writePlain("%s\n", u.Message)
		}
	}()

	result, err := tasks.NewExporter(svc).BulkExport(ctx, progress, playlists, tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  r.config.API.RateLimit,
	})
	close(progress)
	wg.Wait()
	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %d/%d playlists to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	if result.FailedExports > 0 {
		r.writePlain("⚠ %d playlists failed, see %s\n", result.FailedExports, result.ManifestPath)
	}
	return nil
}
