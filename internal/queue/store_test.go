package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "shared_queue.json"), WithLockTimeout(500*time.Millisecond))
}

func readRaw(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read store: %v", err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("store is not a JSON array: %v", err)
	}
	return raw
}

func TestStoreEnqueue(t *testing.T) {
	ctx := context.Background()

	t.Run("sequential enqueues on missing store", func(t *testing.T) {
		store := newTestStore(t)
		songs := []string{"Song A", "Song B", "Song C", "Song D"}

		for _, song := range songs {
			if _, err := store.Enqueue(ctx, song, "bot"); err != nil {
				t.Fatalf("Enqueue(%q) failed: %v", song, err)
			}
		}

		records, err := store.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if len(records) != len(songs) {
			t.Fatalf("expected %d records, got %d", len(songs), len(records))
		}
		for i, r := range records {
			if r.Song != songs[i] {
				t.Errorf("record %d: expected song %q, got %q", i, songs[i], r.Song)
			}
			if r.Status != StatusPending {
				t.Errorf("record %d: expected pending, got %q", i, r.Status)
			}
		}
	})

	t.Run("empty bot uses default", func(t *testing.T) {
		store := newTestStore(t)
		record, err := store.Enqueue(ctx, "Song", "")
		if err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		if record.Bot != DefaultBot {
			t.Errorf("expected bot %q, got %q", DefaultBot, record.Bot)
		}
	})

	t.Run("timestamp comes from clock", func(t *testing.T) {
		at := time.Date(2024, 3, 1, 12, 0, 0, 500_000_000, time.UTC)
		store := NewStore(filepath.Join(t.TempDir(), "q.json"), WithClock(func() time.Time { return at }))

		record, err := store.Enqueue(ctx, "Song", "bot")
		if err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		if diff := record.Timestamp - 1709294400.5; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("expected timestamp 1709294400.5, got %v", record.Timestamp)
		}
	})

	for name, content := range map[string]string{
		"invalid json": "{not json",
		"wrong shape":  `{"song": "x"}`,
		"empty file":   "",
	} {
		t.Run(name+" is replaced", func(t *testing.T) {
			store := newTestStore(t)
			if err := os.WriteFile(store.Path(), []byte(content), 0644); err != nil {
				t.Fatalf("failed to seed store: %v", err)
			}

			if _, err := store.Enqueue(ctx, "Fresh", "bot"); err != nil {
				t.Fatalf("Enqueue failed: %v", err)
			}

			raw := readRaw(t, store.Path())
			if len(raw) != 1 {
				t.Fatalf("expected exactly 1 record, got %d", len(raw))
			}
			if raw[0]["song"] != "Fresh" {
				t.Errorf("expected song Fresh, got %v", raw[0]["song"])
			}
		})
	}

	t.Run("creates parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "q.json")
		if _, err := Enqueue(ctx, path, "Song", "bot"); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected store to exist: %v", err)
		}
	})
}

func TestStoreFormat(t *testing.T) {
	ctx := context.Background()

	t.Run("exact field set", func(t *testing.T) {
		store := newTestStore(t)
		if _, err := store.Enqueue(ctx, "Song", "bot"); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}

		raw := readRaw(t, store.Path())
		want := []string{"bot", "song", "status", "timestamp"}
		if len(raw[0]) != len(want) {
			t.Fatalf("expected %d fields, got %v", len(want), raw[0])
		}
		for _, key := range want {
			if _, ok := raw[0][key]; !ok {
				t.Errorf("missing field %q", key)
			}
		}
		if raw[0]["status"] != "pending" {
			t.Errorf("expected status pending, got %v", raw[0]["status"])
		}
	})

	t.Run("indented with four spaces", func(t *testing.T) {
		store := newTestStore(t)
		if _, err := store.Enqueue(ctx, "Song", "bot"); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}

		data, _ := os.ReadFile(store.Path())
		if !strings.Contains(string(data), "\n        \"song\": \"Song\"") {
			t.Errorf("expected 4-space indentation, got:\n%s", data)
		}
	})

	t.Run("unicode round trip", func(t *testing.T) {
		store := newTestStore(t)
		song := "Sigur Rós – Hoppípolla 🎵 <&>"
		bot := "ボット \"quoted\" \\ bot"

		if _, err := store.Enqueue(ctx, song, bot); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}

		data, _ := os.ReadFile(store.Path())
		if !strings.Contains(string(data), "Hoppípolla 🎵 <&>") {
			t.Errorf("expected text written as-is, got:\n%s", data)
		}

		records, err := store.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if records[0].Song != song || records[0].Bot != bot {
			t.Errorf("round trip mismatch: got %+v", records[0])
		}
	})

	t.Run("nil encodes as empty array", func(t *testing.T) {
		data, err := Encode(nil)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if strings.TrimSpace(string(data)) != "[]" {
			t.Errorf("expected [], got %q", data)
		}
	})
}

func TestStoreSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("missing store", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.Snapshot(ctx)
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("expected fs.ErrNotExist, got %v", err)
		}
	})

	t.Run("corrupt store", func(t *testing.T) {
		store := newTestStore(t)
		os.WriteFile(store.Path(), []byte("[{"), 0644)

		_, err := store.Snapshot(ctx)
		if !errors.Is(err, ErrStoreCorrupt) {
			t.Errorf("expected ErrStoreCorrupt, got %v", err)
		}
	})

	t.Run("reads legacy records", func(t *testing.T) {
		store := newTestStore(t)
		legacy := `[
    {"song": "Old", "bot": "Legacy", "timestamp": 1700000000.123, "status": "processed"},
    {"song": "New", "bot": "Legacy", "timestamp": 1700000001.5, "status": "pending"}
]`
		os.WriteFile(store.Path(), []byte(legacy), 0644)

		records, err := store.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if got := PendingIndices(records); len(got) != 1 || got[0] != 1 {
			t.Errorf("expected pending indices [1], got %v", got)
		}
	})
}

func TestStoreMarkProcessed(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, store *Store, songs ...string) []Record {
		t.Helper()
		for _, song := range songs {
			if _, err := store.Enqueue(ctx, song, "bot"); err != nil {
				t.Fatalf("Enqueue failed: %v", err)
			}
		}
		records, err := store.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		return records
	}

	t.Run("flips selected records", func(t *testing.T) {
		store := newTestStore(t)
		snapshot := seed(t, store, "A", "B", "C")

		if err := store.MarkProcessed(ctx, snapshot, []int{0, 2}); err != nil {
			t.Fatalf("MarkProcessed failed: %v", err)
		}

		records, _ := store.Snapshot(ctx)
		want := []Status{StatusProcessed, StatusPending, StatusProcessed}
		for i, r := range records {
			if r.Status != want[i] {
				t.Errorf("record %d: expected %q, got %q", i, want[i], r.Status)
			}
		}
	})

	t.Run("keeps appends made after snapshot", func(t *testing.T) {
		store := newTestStore(t)
		snapshot := seed(t, store, "A", "B")

		if _, err := store.Enqueue(ctx, "Late", "bot"); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		if err := store.MarkProcessed(ctx, snapshot, PendingIndices(snapshot)); err != nil {
			t.Fatalf("MarkProcessed failed: %v", err)
		}

		records, _ := store.Snapshot(ctx)
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		if records[2].Song != "Late" || records[2].Status != StatusPending {
			t.Errorf("expected late record to stay pending, got %+v", records[2])
		}
		if records[0].Pending() || records[1].Pending() {
			t.Errorf("expected snapshot records processed, got %+v", records[:2])
		}
	})

	t.Run("locates shifted record by content", func(t *testing.T) {
		store := newTestStore(t)
		snapshot := seed(t, store, "A", "B")

		shifted := append([]Record{NewRecord("Inserted", "legacy", time.Unix(1, 0))}, snapshot...)
		data, _ := Encode(shifted)
		os.WriteFile(store.Path(), data, 0644)

		if err := store.MarkProcessed(ctx, snapshot, []int{1}); err != nil {
			t.Fatalf("MarkProcessed failed: %v", err)
		}

		records, _ := store.Snapshot(ctx)
		if !records[0].Pending() || !records[1].Pending() {
			t.Errorf("expected records 0 and 1 pending, got %+v", records)
		}
		if records[2].Pending() {
			t.Errorf("expected B processed, got %+v", records[2])
		}
	})

	t.Run("corrupt store falls back to snapshot", func(t *testing.T) {
		store := newTestStore(t)
		snapshot := seed(t, store, "A", "B")
		os.WriteFile(store.Path(), []byte("garbage"), 0644)

		if err := store.MarkProcessed(ctx, snapshot, []int{0}); err != nil {
			t.Fatalf("MarkProcessed failed: %v", err)
		}

		records, _ := store.Snapshot(ctx)
		if len(records) != 2 || records[0].Pending() || !records[1].Pending() {
			t.Errorf("unexpected records: %+v", records)
		}
	})

	t.Run("out of range index", func(t *testing.T) {
		store := newTestStore(t)
		snapshot := seed(t, store, "A")
		if err := store.MarkProcessed(ctx, snapshot, []int{3}); err == nil {
			t.Error("expected error for out of range index")
		}
	})

	t.Run("no indices leaves file alone", func(t *testing.T) {
		store := newTestStore(t)
		if err := store.MarkProcessed(ctx, nil, nil); err != nil {
			t.Fatalf("MarkProcessed failed: %v", err)
		}
		if _, err := os.Stat(store.Path()); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("expected no store to be created, got %v", err)
		}
	})
}

func TestStoreLocking(t *testing.T) {
	ctx := context.Background()

	t.Run("times out while another holder has the lock", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "q.json"), WithLockTimeout(100*time.Millisecond))

		holder := NewFileLock(store.Path() + ".lock")
		if err := holder.TryLock(); err != nil {
			t.Fatalf("TryLock failed: %v", err)
		}
		defer holder.Unlock()

		_, err := store.Enqueue(ctx, "Song", "bot")
		if !errors.Is(err, ErrLockTimeout) {
			t.Errorf("expected ErrLockTimeout, got %v", err)
		}
	})

	t.Run("proceeds once released", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "q.json"), WithLockTimeout(2*time.Second))

		holder := NewFileLock(store.Path() + ".lock")
		if err := holder.TryLock(); err != nil {
			t.Fatalf("TryLock failed: %v", err)
		}
		go func() {
			time.Sleep(100 * time.Millisecond)
			holder.Unlock()
		}()

		if _, err := store.Enqueue(ctx, "Song", "bot"); err != nil {
			t.Errorf("expected Enqueue to succeed after release, got %v", err)
		}
	})

	t.Run("concurrent enqueues keep every record", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "q.json")
		const n = 20

		errs := make(chan error, n)
		for i := range n {
			go func() {
				store := NewStore(path, WithLockTimeout(5*time.Second))
				_, err := store.Enqueue(ctx, "Song", string(rune('a'+i)))
				errs <- err
			}()
		}
		for range n {
			if err := <-errs; err != nil {
				t.Fatalf("Enqueue failed: %v", err)
			}
		}

		records, err := NewStore(path).Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if len(records) != n {
			t.Errorf("expected %d records, got %d", n, len(records))
		}
	})

	t.Run("unlock is idempotent", func(t *testing.T) {
		lock := NewFileLock(filepath.Join(t.TempDir(), "x.lock"))
		if err := lock.Unlock(); err != nil {
			t.Errorf("Unlock on unlocked lock failed: %v", err)
		}
		if err := lock.TryLock(); err != nil {
			t.Fatalf("TryLock failed: %v", err)
		}
		if err := lock.TryLock(); err == nil {
			t.Error("expected second TryLock on held lock to fail")
		}
		if err := lock.Unlock(); err != nil {
			t.Errorf("Unlock failed: %v", err)
		}
	})
}

func TestRecord(t *testing.T) {
	t.Run("time round trip", func(t *testing.T) {
		at := time.Unix(1700000000, 250_000_000)
		r := NewRecord("s", "b", at)
		if got := r.Time(); got.Sub(at).Abs() > time.Millisecond {
			t.Errorf("expected %v, got %v", at, got)
		}
	})

	t.Run("same ignores status", func(t *testing.T) {
		a := NewRecord("s", "b", time.Unix(10, 0))
		b := a
		b.Status = StatusProcessed
		if !a.same(b) {
			t.Error("expected records to match")
		}
		b.Bot = "other"
		if a.same(b) {
			t.Error("expected records with different bots to differ")
		}
	})
}
