package queue

import (
	"math"
	"time"
)

// Status is the lifecycle state of a [Record]. The only transition is pending -> processed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
)

// DefaultBot attributes requests enqueued without a bot name.
const DefaultBot = "External Bot"

// AnonymousBot is the attribution the command-line producers use when --bot is omitted.
const AnonymousBot = "Anonymous Bot"

// Record is one queued song request.
type Record struct {
	Song      string  `json:"song"`
	Bot       string  `json:"bot"`
	Timestamp float64 `json:"timestamp"`
	Status    Status  `json:"status"`
}

// NewRecord creates a pending record stamped with t.
func NewRecord(song, bot string, t time.Time) Record {
	if bot == "" {
		bot = DefaultBot
	}
	return Record{
		Song:      song,
		Bot:       bot,
		Timestamp: EpochSeconds(t),
		Status:    StatusPending,
	}
}

// Pending reports whether the record still awaits processing.
func (r Record) Pending() bool {
	return r.Status == StatusPending
}

// Time converts the record's timestamp back to a [time.Time].
func (r Record) Time() time.Time {
	sec, frac := math.Modf(r.Timestamp)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// same reports whether two records describe the same request, ignoring status.
func (r Record) same(other Record) bool {
	return r.Song == other.Song && r.Bot == other.Bot && r.Timestamp == other.Timestamp
}

// EpochSeconds returns t as fractional seconds since the Unix epoch.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// PendingIndices returns the positions of pending records in insertion order.
func PendingIndices(records []Record) []int {
	var idx []int
	for i, r := range records {
		if r.Pending() {
			idx = append(idx, i)
		}
	}
	return idx
}
