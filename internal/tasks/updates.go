package tasks

import (
	"fmt"

	"github.com/desertthunder/hansdj/internal/queue"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ReadQueue Phase = iota
	SearchRequest
	AddTrack
	MarkProcessed
	FetchPlaylist
	ExportPlaylist
)

func (p Phase) String() string {
	switch p {
	case ReadQueue:
		return "read_queue"
	case SearchRequest:
		return "search_request"
	case AddTrack:
		return "add_track"
	case MarkProcessed:
		return "mark_processed"
	case FetchPlaylist:
		return "fetch_playlist"
	case ExportPlaylist:
		return "export_playlist"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func readQueueUpdate(pending, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadQueue,
		Step:    pending,
		Total:   total,
		Message: fmt.Sprintf("%d pending of %d queued requests", pending, total),
	}
}

func searchRequestUpdate(step, total int, rec queue.Record) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchRequest,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: searching '%s'", step, total, rec.Bot, rec.Song),
		Data:    rec,
	}
}

func addTrackUpdate(step, total int, res DrainResult) ProgressUpdate {
	if res.Track == nil {
		return ProgressUpdate{
			Phase:   AddTrack,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] no match for '%s'", step, total, res.Record.Song),
			Data:    res,
		}
	}
	return ProgressUpdate{
		Phase:   AddTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: 🎧 Added '%s'", step, total, res.Record.Bot, res.Track.Title),
		Data:    res,
	}
}

func markProcessedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MarkProcessed,
		Step:    count,
		Total:   count,
		Message: fmt.Sprintf("Marked %d requests processed", count),
	}
}

func fetchPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
