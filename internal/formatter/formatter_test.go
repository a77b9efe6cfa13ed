package formatter

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/hansdj/internal/models"
	"github.com/desertthunder/hansdj/internal/shared"
	th "github.com/desertthunder/hansdj/internal/testing"
)

func sampleExport() *models.PlaylistExport {
	return &models.PlaylistExport{
		Playlist: models.Playlist{
			ID:          "test123",
			Name:        "Hans mix",
			Description: "The official Hans mix DJ core.",
			TrackCount:  2,
			Public:      true,
		},
		Tracks: []models.Track{
			{
				ID:       "track1",
				Title:    "Song One",
				Artist:   "Artist One",
				Artists:  []string{"Artist One", "Guest"},
				Album:    "Album One",
				Duration: 180,
				URI:      "spotify:track:track1",
			},
			{
				ID:       "track2",
				Title:    "Song Two",
				Artist:   "Artist Two",
				Duration: 3725,
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "ID,Title,Artists,Album,Duration,URI\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `track1,Song One,"Artist One, Guest",Album One,180,spotify:track:track1`) {
			t.Errorf("CSV missing track1 row, got: %s", output)
		}
		if !strings.Contains(output, "track2,Song Two,Artist Two,,3725,") {
			t.Errorf("CSV should fall back to primary artist, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Hans mix",
			"**Description**: The official Hans mix DJ core.",
			"**Tracks**: 2",
			"**Visibility**: Public",
			"## Tracks",
			"1. Artist One, Guest - Song One (Album One) [3:00]",
			"2. Artist Two - Song Two [1:02:05]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Playlist: Hans mix\n") {
			t.Errorf("text missing playlist name, got: %s", output)
		}
		if !strings.Contains(output, "- Song One by Artist One (ID: track1)\n") {
			t.Errorf("text missing track line, got: %s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded models.PlaylistExport
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Playlist.Name != "Hans mix" || len(decoded.Tracks) != 2 {
			t.Errorf("unexpected decoded export: %+v", decoded)
		}
	})

	t.Run("ToMetadataJSON omits tracks", func(t *testing.T) {
		data, err := ToMetadataJSON(sampleExport().Playlist)
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}
		if strings.Contains(string(data), "track1") {
			t.Errorf("metadata should not contain tracks: %s", data)
		}
	})
}

func TestHistoryToCSV(t *testing.T) {
	added := models.NewDrainEntry("hoppipolla", "Twitch Bot", 1700000000, models.OutcomeAdded)
	added.TrackID = "t1"
	added.TrackName = "Hoppípolla"
	added.PlaylistID = "p1"
	added.SetID("id1", 1)

	missed := models.NewDrainEntry("asdfgh", "Anonymous Bot", 1700000001, models.OutcomeNoMatch)
	missed.SetID("id2", 2)

	data, err := HistoryToCSV([]*models.DrainEntry{added, missed})
	if err != nil {
		t.Fatalf("HistoryToCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "Sequence,DrainedAt,Bot,Song,Outcome,TrackID,TrackName,PlaylistID" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,") || !strings.HasSuffix(lines[1], ",Twitch Bot,hoppipolla,added,t1,Hoppípolla,p1") {
		t.Errorf("unexpected added row: %s", lines[1])
	}
	if !strings.HasSuffix(lines[2], ",asdfgh,no_match,,,") {
		t.Errorf("unexpected no-match row: %s", lines[2])
	}
}

func TestFormats(t *testing.T) {
	t.Run("NormalizeFormat", func(t *testing.T) {
		tests := map[string]string{"": FormatJSON, "CSV": FormatCSV, "md": FormatMarkdown, "text": FormatText, "txt": FormatText}
		for in, want := range tests {
			got, err := NormalizeFormat(in)
			if err != nil || got != want {
				t.Errorf("NormalizeFormat(%q) = %q, %v; want %q", in, got, err, want)
			}
		}

		if _, err := NormalizeFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Render", func(t *testing.T) {
		data, err := Render(sampleExport(), "md")
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if !strings.HasPrefix(string(data), "# Hans mix") {
			t.Errorf("expected markdown, got %s", data)
		}
	})

	t.Run("FormatDuration", func(t *testing.T) {
		tests := map[int]string{0: "0:00", 59: "0:59", 61: "1:01", 3600: "1:00:00", -5: "0:00"}
		for in, want := range tests {
			if got := FormatDuration(in); got != want {
				t.Errorf("FormatDuration(%d) = %q, want %q", in, got, want)
			}
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			wd := th.MustGetwd(t)
			th.MustChdir(t, t.TempDir())
			defer th.MustChdir(t, wd)

			result, err := WriteCSVExport(sampleExport(), "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if result.TracksFile != "test123_tracks.csv" || result.MetadataFile != "test123_metadata.json" {
				t.Errorf("unexpected paths: %+v", result)
			}
			th.AssertFileExists(t, result.TracksFile)
			th.AssertFileExists(t, result.MetadataFile)
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "custom")
			result, err := WriteCSVExport(sampleExport(), base)
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if !strings.Contains(th.MustReadFile(t, result.TracksFile), "Song One") {
				t.Error("CSV file missing track data")
			}
		})

		t.Run("UnwritablePath", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "missing", "dir", "x")
			if _, err := WriteCSVExport(sampleExport(), base); err == nil {
				t.Error("expected error for missing directory")
			}
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "md")
		path, err := WriteMarkdownExport(sampleExport(), dir)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		th.AssertDirExists(t, dir)
		if path != filepath.Join(dir, "README.md") {
			t.Errorf("unexpected path %s", path)
		}
		if !strings.Contains(th.MustReadFile(t, path), "## Tracks") {
			t.Error("README missing tracks section")
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tracks.txt")
		got, err := WriteTextExport(sampleExport(), path)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("WriteJSONExport", func(t *testing.T) {
		wd := th.MustGetwd(t)
		th.MustChdir(t, t.TempDir())
		defer th.MustChdir(t, wd)

		path, err := WriteJSONExport(sampleExport(), "")
		if err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}
		if path != "test123.json" {
			t.Errorf("expected default path test123.json, got %s", path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected file to exist: %v", err)
		}
	})
}
