package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/hansdj/internal/queue"
)

func readQueue(t *testing.T, path string) []queue.Record {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read queue: %v", err)
	}
	var records []queue.Record
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("queue is not valid JSON: %v", err)
	}
	return records
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("queues with default bot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shared_queue.json")
		var stdout, stderr bytes.Buffer

		code := run(ctx, []string{"djrequest", "--queue", path, "Bohemian Rhapsody"}, &stdout, &stderr)
		if code != 0 {
			t.Fatalf("expected exit 0, got %d (%s)", code, stderr.String())
		}
		if got := stdout.String(); got != "✅ Queued: 'Bohemian Rhapsody' from Anonymous Bot\n" {
			t.Errorf("unexpected output %q", got)
		}

		records := readQueue(t, path)
		if len(records) != 1 || records[0].Bot != "Anonymous Bot" || !records[0].Pending() {
			t.Errorf("unexpected records %+v", records)
		}
	})

	t.Run("trims the query", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shared_queue.json")
		if code := run(ctx, []string{"djrequest", "--queue", path, "  Heroes "}, &bytes.Buffer{}, &bytes.Buffer{}); code != 0 {
			t.Fatal("expected exit 0")
		}
		if records := readQueue(t, path); records[0].Song != "Heroes" {
			t.Errorf("expected trimmed song, got %q", records[0].Song)
		}
	})

	t.Run("bot flag", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shared_queue.json")
		var stdout, stderr bytes.Buffer

		code := run(ctx, []string{"djrequest", "--queue", path, "--bot", "Clawd", "Heroes"}, &stdout, &stderr)
		if code != 0 {
			t.Fatalf("expected exit 0, got %d (%s)", code, stderr.String())
		}
		if !strings.Contains(stdout.String(), "from Clawd") {
			t.Errorf("unexpected output %q", stdout.String())
		}
	})

	t.Run("appends in order", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shared_queue.json")
		for _, song := range []string{"one", "two", "three"} {
			if code := run(ctx, []string{"djrequest", "--queue", path, song}, &bytes.Buffer{}, &bytes.Buffer{}); code != 0 {
				t.Fatalf("expected exit 0 for %s", song)
			}
		}

		records := readQueue(t, path)
		if len(records) != 3 || records[0].Song != "one" || records[2].Song != "three" {
			t.Errorf("unexpected records %+v", records)
		}
	})

	t.Run("environment queue path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "env_queue.json")
		t.Setenv("HANSDJ_QUEUE", path)

		if code := run(ctx, []string{"djrequest", "song"}, &bytes.Buffer{}, &bytes.Buffer{}); code != 0 {
			t.Fatal("expected exit 0")
		}
		if len(readQueue(t, path)) != 1 {
			t.Error("expected request in env queue")
		}
	})

	t.Run("missing query", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shared_queue.json")
		var stdout, stderr bytes.Buffer

		code := run(ctx, []string{"djrequest", "--queue", path}, &stdout, &stderr)
		if code != 1 {
			t.Errorf("expected exit 1, got %d", code)
		}
		if !strings.Contains(stderr.String(), "Usage: djrequest") {
			t.Errorf("expected usage, got %q", stderr.String())
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("expected no queue to be written")
		}
	})

	t.Run("blank query", func(t *testing.T) {
		if code := run(ctx, []string{"djrequest", "--queue", filepath.Join(t.TempDir(), "q.json"), "   "}, &bytes.Buffer{}, &bytes.Buffer{}); code != 1 {
			t.Errorf("expected exit 1, got %d", code)
		}
	})

	t.Run("unknown flag", func(t *testing.T) {
		if code := run(ctx, []string{"djrequest", "--nope", "song"}, &bytes.Buffer{}, &bytes.Buffer{}); code != 1 {
			t.Errorf("expected exit 1, got %d", code)
		}
	})
}
