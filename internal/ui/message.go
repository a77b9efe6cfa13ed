package ui

import (
	"time"

	"github.com/desertthunder/hansdj/internal/models"
	"github.com/desertthunder/hansdj/internal/tasks"
)

type playlistsMsg struct {
	playlists []models.Playlist
	err       error
}

type historyMsg struct {
	entries []*models.DrainEntry
	err     error
}

type playbackMsg struct {
	playback *models.Playback
	err      error
}

type playbackTickMsg time.Time

type drainTickMsg time.Time

// queueChangedMsg is sent when the queue watcher fires. ok is false once the watcher has stopped.
type queueChangedMsg struct {
	ok bool
}

type drainDoneMsg struct {
	report *tasks.DrainReport
}

type controlDoneMsg struct {
	action string
	err    error
}

type searchDoneMsg struct {
	query    string
	track    *models.Track
	playlist *models.Playlist
	err      error
}
