package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/hansdj/internal/formatter"
	"github.com/desertthunder/hansdj/internal/models"
	"github.com/desertthunder/hansdj/internal/services"
	"github.com/desertthunder/hansdj/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: hansdj_export_{epoch})
	NumWorkers int     // Concurrent writers (default: 5, max 10)
	RateLimit  float64 // Playlist fetches per second (default: 5)
}

// PlaylistExportJob is one fetched playlist waiting to be written.
type PlaylistExportJob struct {
	Index  int
	Export *models.PlaylistExport
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	Index        int      `json:"-"`
	PlaylistID   string   `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name"`
	Success      bool     `json:"success"`
	Files        []string `json:"files,omitempty"`
	Error        error    `json:"-"`
	Message      string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export. Results are in request order.
type BulkExportResult struct {
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	OutputDirectory   string                 `json:"output_directory"`
	Format            string                 `json:"format"`
	Results           []PlaylistExportResult `json:"results"`
	ManifestPath      string                 `json:"-"`
}

// Exporter writes playlists from a [services.MusicService] to disk.
type Exporter struct {
	service services.MusicService
}

// NewExporter creates an Exporter over service.
func NewExporter(service services.MusicService) *Exporter {
	return &Exporter{service: service}
}

// BulkExport exports playlists concurrently with rate limiting and progress tracking.
//
// Fetches are serialized behind the limiter; a pool of workers renders and writes files.
// Per-playlist failures are reported in the result, and a manifest summarizing every
// playlist is written to the output directory.
func (e *Exporter) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	playlists []models.Playlist,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	format, err := formatter.NormalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	opts.Format = format

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("hansdj_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(playlists),
		OutputDirectory: opts.OutputDir,
		Format:          opts.Format,
		Results:         make([]PlaylistExportResult, 0, len(playlists)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan PlaylistExportJob, len(playlists))
	results := make(chan PlaylistExportResult, len(playlists))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, playlist := range playlists {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			sendProgress(prog, fetchPlaylistUpdate(i+1, len(playlists), playlist.Name))

			tracks, err := e.service.PlaylistTracks(ctx, playlist.ID)
			if err != nil {
				results <- PlaylistExportResult{
					Index:        i,
					PlaylistID:   playlist.ID,
					PlaylistName: playlist.Name,
					Error:        fmt.Errorf("failed to fetch playlist: %w", err),
				}
				continue
			}

			jobs <- PlaylistExportJob{
				Index:  i,
				Export: &models.PlaylistExport{Playlist: playlist, Tracks: tracks},
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.Message = res.Error.Error()
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, len(playlists), res.PlaylistName, res.Error))
		} else {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(playlists), res.PlaylistName, len(res.Files)))
		}
		result.Results = append(result.Results, res)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].Index < result.Results[j].Index
	})

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that writes playlists from the jobs channel.
func exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan PlaylistExportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			results <- PlaylistExportResult{
				Index:        job.Index,
				PlaylistID:   job.Export.Playlist.ID,
				PlaylistName: job.Export.Playlist.Name,
				Error:        ctx.Err(),
			}
			continue
		}
		results <- exportSinglePlaylist(job, opts)
	}
}

// exportSinglePlaylist writes a single playlist in the requested format.
func exportSinglePlaylist(j PlaylistExportJob, opts BulkExportOpts) PlaylistExportResult {
	result := PlaylistExportResult{
		Index:        j.Index,
		PlaylistID:   j.Export.Playlist.ID,
		PlaylistName: j.Export.Playlist.Name,
		Files:        []string{},
	}

	var err error
	switch opts.Format {
	case formatter.FormatCSV:
		var csvRes *formatter.CSVExportResult
		csvRes, err = formatter.WriteCSVExport(j.Export, filepath.Join(opts.OutputDir, j.Export.Playlist.ID))
		if err == nil {
			result.Files = []string{csvRes.TracksFile, csvRes.MetadataFile}
		}
	case formatter.FormatMarkdown:
		var path string
		path, err = formatter.WriteMarkdownExport(j.Export, filepath.Join(opts.OutputDir, j.Export.Playlist.ID))
		if err == nil {
			result.Files = []string{path}
		}
	case formatter.FormatText:
		var path string
		path, err = formatter.WriteTextExport(j.Export, filepath.Join(opts.OutputDir, j.Export.Playlist.ID+"_tracks.txt"))
		if err == nil {
			result.Files = []string{path}
		}
	default:
		var path string
		path, err = formatter.WriteJSONExport(j.Export, filepath.Join(opts.OutputDir, j.Export.Playlist.ID+".json"))
		if err == nil {
			result.Files = []string{path}
		}
	}

	if err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return result
	}
	result.Success = true
	return result
}
