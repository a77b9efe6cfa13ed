package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/hansdj/internal/models"
	"github.com/desertthunder/hansdj/internal/shared"
)

// ErrEntryNotFound is returned by [DrainLogRepository.Get] for an unknown ID.
var ErrEntryNotFound = errors.New("drain log entry not found")

const drainLogColumns = `id, sequence, song, bot, requested_at, outcome, track_id, track_name, playlist_id, created_at`

var _ models.Repository[*models.DrainEntry] = (*DrainLogRepository)(nil)

// DrainLogRepository implements models.Repository[*models.DrainEntry] for the drain history.
//
// Entries are append-only; the sequence column gives drain order.
type DrainLogRepository struct {
	db *sql.DB
}

// NewDrainLogRepository creates a new DrainLogRepository with the given database connection
func NewDrainLogRepository(db *sql.DB) *DrainLogRepository {
	return &DrainLogRepository{db: db}
}

// Create inserts a new [models.DrainEntry] with generated ID and sequence
func (r *DrainLogRepository) Create(entry *models.DrainEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO drain_log (` + drainLogColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return inTx(r.db, func(tx *sql.Tx) error {
		sequence, err := NextSequence(tx, "drain_log")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}

		id := shared.GenerateID()
		_, err = tx.Exec(query,
			id,
			sequence,
			entry.Song,
			entry.Bot,
			entry.RequestedAt,
			string(entry.Outcome),
			nullString(entry.TrackID),
			nullString(entry.TrackName),
			nullString(entry.PlaylistID),
			entry.CreatedAt(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert drain log entry: %w", err)
		}

		entry.SetID(id, sequence)
		return nil
	})
}

// Get retrieves an entry by ID
func (r *DrainLogRepository) Get(id string) (*models.DrainEntry, error) {
	row := r.db.QueryRow(`SELECT `+drainLogColumns+` FROM drain_log WHERE id = ?`, id)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return entry, err
}

// List returns the most recent limit entries, oldest first. A non-positive limit returns all.
func (r *DrainLogRepository) List(limit int) ([]*models.DrainEntry, error) {
	return r.recent(limit, "")
}

// ListAdded is [DrainLogRepository.List] restricted to entries that added a track.
func (r *DrainLogRepository) ListAdded(limit int) ([]*models.DrainEntry, error) {
	return r.recent(limit, models.OutcomeAdded)
}

// Count returns the number of stored entries
func (r *DrainLogRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM drain_log`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count drain log entries: %w", err)
	}
	return count, nil
}

func (r *DrainLogRepository) recent(limit int, outcome models.Outcome) ([]*models.DrainEntry, error) {
	if limit <= 0 {
		limit = -1
	}

	query := `
		SELECT ` + drainLogColumns + ` FROM (
			SELECT ` + drainLogColumns + ` FROM drain_log
			WHERE (? = '' OR outcome = ?)
			ORDER BY sequence DESC
			LIMIT ?
		) ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query, string(outcome), string(outcome), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query drain log: %w", err)
	}
	defer rows.Close()

	var entries []*models.DrainEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate drain log: %w", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEntry scans a single row into a [models.DrainEntry]
func scanEntry(row scanner) (*models.DrainEntry, error) {
	var (
		id         string
		sequence   int
		outcome    string
		trackID    sql.NullString
		trackName  sql.NullString
		playlistID sql.NullString
		createdAt  time.Time
		entry      models.DrainEntry
	)

	err := row.Scan(&id, &sequence, &entry.Song, &entry.Bot, &entry.RequestedAt, &outcome,
		&trackID, &trackName, &playlistID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan drain log entry: %w", err)
	}

	entry.Outcome = models.Outcome(outcome)
	entry.TrackID = trackID.String
	entry.TrackName = trackName.String
	entry.PlaylistID = playlistID.String

	return models.RestoreDrainEntry(id, sequence, createdAt, entry), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
