package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// DefaultPath is the queue file name shared by producers and the dashboard.
const DefaultPath = "shared_queue.json"

// DefaultLockTimeout bounds how long a caller waits for another process holding the store.
const DefaultLockTimeout = 5 * time.Second

// ErrStoreCorrupt is returned when the store exists but is not a JSON array of records.
var ErrStoreCorrupt = errors.New("queue store is corrupt")

// Store reads and writes the shared queue file.
type Store struct {
	path        string
	lock        *FileLock
	lockTimeout time.Duration
	now         func() time.Time
}

// Option configures a [Store].
type Option func(*Store)

// WithLockTimeout overrides [DefaultLockTimeout].
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// WithClock replaces the clock used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a Store for the file at path; an empty path selects [DefaultPath].
func NewStore(path string, opts ...Option) *Store {
	if path == "" {
		path = DefaultPath
	}

	s := &Store{
		path:        path,
		lock:        NewFileLock(path + ".lock"),
		lockTimeout: DefaultLockTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the location of the queue file.
func (s *Store) Path() string {
	return s.path
}

// Enqueue appends a pending request for song and returns the stored record.
//
// A missing or corrupt store is replaced by a store holding only the new record. An empty
// bot is recorded as [DefaultBot]. The song is not validated.
func (s *Store) Enqueue(ctx context.Context, song, bot string) (Record, error) {
	record := NewRecord(song, bot, s.now())

	err := s.withLock(ctx, func() error {
		records, err := s.read()
		if err != nil {
			if !recoverable(err) {
				return err
			}
			records = nil
		}

		return s.write(append(records, record))
	})
	if err != nil {
		return Record{}, err
	}

	return record, nil
}

// Snapshot returns every record currently in the store.
//
// The error wraps [fs.ErrNotExist] when there is no store and [ErrStoreCorrupt] when it
// cannot be parsed.
func (s *Store) Snapshot(ctx context.Context) ([]Record, error) {
	var records []Record
	err := s.withLock(ctx, func() error {
		var err error
		records, err = s.read()
		return err
	})
	return records, err
}

// MarkProcessed flips the records at indices of snapshot to processed and rewrites the store.
//
// The store is re-read under the lock. A record whose position still holds the same request
// is updated in place; otherwise it is located by content among pending records. Records
// appended since the snapshot are kept untouched. If the store became unreadable the
// snapshot itself is written back with the updates applied.
func (s *Store) MarkProcessed(ctx context.Context, snapshot []Record, indices []int) error {
	if len(indices) == 0 {
		return nil
	}

	return s.withLock(ctx, func() error {
		current, err := s.read()
		if err != nil {
			if !recoverable(err) {
				return err
			}
			current = append([]Record(nil), snapshot...)
		}

		for _, i := range indices {
			if i < 0 || i >= len(snapshot) {
				return fmt.Errorf("record index %d out of range for snapshot of %d", i, len(snapshot))
			}
			want := snapshot[i]

			if i < len(current) && current[i].same(want) {
				current[i].Status = StatusProcessed
				continue
			}
			for j := range current {
				if current[j].Pending() && current[j].same(want) {
					current[j].Status = StatusProcessed
					break
				}
			}
		}

		return s.write(current)
	})
}

func (s *Store) withLock(ctx context.Context, fn func() error) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create queue directory: %w", err)
		}
	}

	if err := s.lock.Lock(ctx, s.lockTimeout); err != nil {
		return err
	}
	defer s.lock.Unlock()

	return fn()
}

// read loads the store without taking the lock.
func (s *Store) read() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read queue store: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreCorrupt, s.path, err)
	}
	return records, nil
}

// write replaces the store atomically with records.
func (s *Store) write(records []Record) error {
	content, err := Encode(records)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".queue-tmp-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// Encode renders records in the store's on-disk format: a 4-space indented JSON array
// with non-ASCII text written as-is.
func Encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode queue store: %w", err)
	}
	return buf.Bytes(), nil
}

func recoverable(err error) bool {
	return errors.Is(err, ErrStoreCorrupt) || errors.Is(err, fs.ErrNotExist)
}
