package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hansdj/internal/models"
	"github.com/desertthunder/hansdj/internal/queue"
	"github.com/desertthunder/hansdj/internal/services"
)

// RequestStore is the queue a [DrainEngine] consumes. [queue.Store] implements it.
type RequestStore interface {
	Snapshot(ctx context.Context) ([]queue.Record, error)
	MarkProcessed(ctx context.Context, snapshot []queue.Record, indices []int) error
}

// HistoryRecorder persists the outcome of each processed request.
// repositories.DrainLogRepository implements it.
type HistoryRecorder interface {
	Create(entry *models.DrainEntry) error
}

// DrainResult is what happened to one pending request. Track is nil when the search found nothing.
type DrainResult struct {
	Record   queue.Record
	Track    *models.Track
	Playlist *models.Playlist
}

// Entry converts the result to a history entry.
func (r DrainResult) Entry() *models.DrainEntry {
	if r.Track == nil {
		return models.NewDrainEntry(r.Record.Song, r.Record.Bot, r.Record.Timestamp, models.OutcomeNoMatch)
	}

	entry := models.NewDrainEntry(r.Record.Song, r.Record.Bot, r.Record.Timestamp, models.OutcomeAdded)
	entry.TrackID = r.Track.ID
	entry.TrackName = r.Track.Title
	if r.Playlist != nil {
		entry.PlaylistID = r.Playlist.ID
	}
	return entry
}

// DrainReport summarizes one drain cycle.
//
// When a cycle aborts, Results still lists the requests handled before the failure; their
// tracks were added but the queue was left untouched.
type DrainReport struct {
	Pending   int
	Results   []DrainResult
	Persisted bool
	Skipped   bool
}

// Added returns the results that added a track.
func (r *DrainReport) Added() []DrainResult {
	var added []DrainResult
	for _, res := range r.Results {
		if res.Track != nil {
			added = append(added, res)
		}
	}
	return added
}

// DrainEngine moves pending requests from the queue into the target playlist.
//
// At most one cycle runs at a time per engine; a call that arrives while another is in
// flight returns a skipped report immediately.
type DrainEngine struct {
	store   RequestStore
	service services.MusicService
	target  *services.TargetResolver
	history HistoryRecorder
	logger  *log.Logger
	running atomic.Bool
}

// DrainOption configures a [DrainEngine].
type DrainOption func(*DrainEngine)

// WithHistory records every processed request through h.
func WithHistory(h HistoryRecorder) DrainOption {
	return func(e *DrainEngine) { e.history = h }
}

// WithLogger sets the engine's logger.
func WithLogger(l *log.Logger) DrainOption {
	return func(e *DrainEngine) { e.logger = l }
}

// NewDrainEngine creates an engine draining store into the playlist chosen by target.
func NewDrainEngine(store RequestStore, service services.MusicService, target *services.TargetResolver, opts ...DrainOption) *DrainEngine {
	e := &DrainEngine{
		store:   store,
		service: service,
		target:  target,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Busy reports whether a cycle is in flight.
func (e *DrainEngine) Busy() bool {
	return e.running.Load()
}

// Drain runs one cycle and logs any failure instead of returning it.
func (e *DrainEngine) Drain(ctx context.Context, progress chan<- ProgressUpdate) *DrainReport {
	report, err := e.Run(ctx, progress)
	switch {
	case err == nil:
	case errors.Is(err, queue.ErrStoreCorrupt):
		e.logger.Debug("queue unreadable, skipping cycle", "error", err)
	default:
		e.logger.Warn("drain cycle aborted", "error", err, "handled", len(report.Results))
	}
	return report
}

// Run performs one drain cycle.
//
// A missing queue is a no-op. Each pending request, in insertion order, is searched with a
// single-result query; a match is added to the target playlist and every request is marked
// processed, matched or not. The queue is written once at the end. The first service error
// aborts the cycle with nothing written, so a later cycle retries every request and may add
// tracks that were already added.
func (e *DrainEngine) Run(ctx context.Context, progress chan<- ProgressUpdate) (*DrainReport, error) {
	if !e.running.CompareAndSwap(false, true) {
		e.logger.Debug("drain already in flight, skipping")
		return &DrainReport{Skipped: true}, nil
	}
	defer e.running.Store(false)

	report := &DrainReport{}

	snapshot, err := e.store.Snapshot(ctx)
	if errors.Is(err, fs.ErrNotExist) {
		e.logger.Debug("no queue yet")
		return report, nil
	}
	if err != nil {
		return report, err
	}

	pending := queue.PendingIndices(snapshot)
	report.Pending = len(pending)
	sendProgress(progress, readQueueUpdate(len(pending), len(snapshot)))
	if len(pending) == 0 {
		return report, nil
	}

	for step, i := range pending {
		if err := ctx.Err(); err != nil {
			return e.abort(report, err)
		}

		res, err := e.process(ctx, snapshot[i], step+1, len(pending), progress)
		if err != nil {
			return e.abort(report, err)
		}
		report.Results = append(report.Results, res)
		sendProgress(progress, addTrackUpdate(step+1, len(pending), res))
	}

	if err := e.store.MarkProcessed(ctx, snapshot, pending); err != nil {
		return e.abort(report, fmt.Errorf("mark processed: %w", err))
	}
	report.Persisted = true
	sendProgress(progress, markProcessedUpdate(len(pending)))

	e.record(report.Results)
	return report, nil
}

func (e *DrainEngine) process(ctx context.Context, rec queue.Record, step, total int, progress chan<- ProgressUpdate) (DrainResult, error) {
	res := DrainResult{Record: rec}
	sendProgress(progress, searchRequestUpdate(step, total, rec))

	tracks, err := e.service.SearchTracks(ctx, rec.Song, 1)
	if err != nil {
		return res, fmt.Errorf("search %q: %w", rec.Song, err)
	}
	if len(tracks) == 0 {
		e.logger.Debug("no match", "song", rec.Song, "bot", rec.Bot)
		return res, nil
	}
	track := tracks[0]

	playlist, err := e.target.Resolve(ctx)
	if err != nil {
		return res, fmt.Errorf("resolve target playlist: %w", err)
	}

	if err := e.service.AddToPlaylist(ctx, playlist.ID, track.ID); err != nil {
		return res, fmt.Errorf("add %s to %s: %w", track.ID, playlist.ID, err)
	}

	e.logger.Info("added request", "bot", rec.Bot, "song", rec.Song, "track", track.Title, "playlist", playlist.Name)
	res.Track = &track
	res.Playlist = playlist
	return res, nil
}

// abort ends a cycle that will not be persisted. Tracks it already added stay in the
// playlist, so they are still logged; its no-match results are not, since those requests
// stay pending and are searched again.
func (e *DrainEngine) abort(report *DrainReport, err error) (*DrainReport, error) {
	e.record(report.Added())
	return report, err
}

// record stores history entries. Failures are logged and otherwise ignored.
func (e *DrainEngine) record(results []DrainResult) {
	if e.history == nil {
		return
	}
	for _, res := range results {
		if err := e.history.Create(res.Entry()); err != nil {
			e.logger.Warn("failed to record drain history", "song", res.Record.Song, "error", err)
		}
	}
}
