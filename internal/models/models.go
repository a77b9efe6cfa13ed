package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for append-oriented data access.
type Repository[T Model] interface {
	Create(model T) error        // Create inserts a new model into the database
	Get(id string) (T, error)    // Get retrieves a model by its ID
	List(limit int) ([]T, error) // List retrieves the most recent models, oldest first
	Count() (int, error)         // Count returns the number of stored models
}

// Playlist represents a music playlist from the service
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
	URI         string `json:"uri,omitempty"`
}

// PlaylistExport represents a playlist with all its tracks
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}

// Track represents a music track from the service. Artist is the primary artist and
// Duration is in seconds.
type Track struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Artist   string   `json:"artist"`
	Artists  []string `json:"artists,omitempty"`
	Album    string   `json:"album,omitempty"`
	Duration int      `json:"duration"`
	URI      string   `json:"uri,omitempty"`
}

// Playback is a snapshot of what the user is currently listening to.
//
// Track is nil when nothing is loaded on the active device.
type Playback struct {
	Track      *Track `json:"track,omitempty"`
	IsPlaying  bool   `json:"is_playing"`
	ProgressMS int    `json:"progress_ms"`
	Device     string `json:"device,omitempty"`
}

// User is the authenticated account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Outcome describes what happened to a drained request.
type Outcome string

const (
	OutcomeAdded   Outcome = "added"
	OutcomeNoMatch Outcome = "no_match"
)

// DrainEntry records one request the consumer resolved against the music service.
//
// RequestedAt is the queue record's timestamp in seconds since epoch.
type DrainEntry struct {
	id          string
	sequence    int
	Song        string
	Bot         string
	RequestedAt float64
	Outcome     Outcome
	TrackID     string
	TrackName   string
	PlaylistID  string
	createdAt   time.Time
}

// NewDrainEntry creates an unsaved entry stamped with the current time.
func NewDrainEntry(song, bot string, requestedAt float64, outcome Outcome) *DrainEntry {
	return &DrainEntry{
		Song:        song,
		Bot:         bot,
		RequestedAt: requestedAt,
		Outcome:     outcome,
		createdAt:   time.Now().UTC(),
	}
}

// RestoreDrainEntry rebuilds an entry read from storage.
func RestoreDrainEntry(id string, sequence int, createdAt time.Time, e DrainEntry) *DrainEntry {
	e.id = id
	e.sequence = sequence
	e.createdAt = createdAt
	return &e
}

func (e *DrainEntry) ID() string           { return e.id }
func (e *DrainEntry) Sequence() int        { return e.sequence }
func (e *DrainEntry) CreatedAt() time.Time { return e.createdAt }

// SetID assigns the storage identifier and sequence.
func (e *DrainEntry) SetID(id string, sequence int) {
	e.id = id
	e.sequence = sequence
}

// Validate checks the entry has an outcome and, when added, the track that was added.
func (e *DrainEntry) Validate() error {
	switch e.Outcome {
	case OutcomeAdded:
		if e.TrackID == "" {
			return fmt.Errorf("added entry requires a track id")
		}
	case OutcomeNoMatch:
	default:
		return fmt.Errorf("invalid outcome %q", e.Outcome)
	}
	return nil
}

// String renders the entry the way the dashboard feed shows it.
func (e *DrainEntry) String() string {
	if e.Outcome == OutcomeAdded {
		return fmt.Sprintf("%s: 🎧 Added '%s'", e.Bot, e.TrackName)
	}
	return fmt.Sprintf("%s: no match for '%s'", e.Bot, e.Song)
}
