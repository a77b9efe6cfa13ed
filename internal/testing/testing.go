// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/hansdj/internal/models"
)

// PlaylistEdit is one add or remove recorded by [MockService].
type PlaylistEdit struct {
	PlaylistID string
	TrackID    string
}

// MockService is an in-memory test double for [services.MusicService].
//
// SearchResults is keyed by query; unknown queries return no match. Errors is keyed by
// method name and SearchErrors by query, letting tests fail one specific call.
type MockService struct {
	mu sync.Mutex

	User          models.User
	PlaylistList  []models.Playlist
	Tracks        map[string][]models.Track
	SearchResults map[string][]models.Track
	State         models.Playback

	Errors       map[string]error
	SearchErrors map[string]error

	Searches []string
	Added    []PlaylistEdit
	Removed  []PlaylistEdit
	Created  []models.Playlist
	Played   []string
	Calls    []string
}

// NewMockService returns a MockService with a user and empty catalogue.
func NewMockService() *MockService {
	return &MockService{
		User:          models.User{ID: "hans", DisplayName: "Hans"},
		Tracks:        map[string][]models.Track{},
		SearchResults: map[string][]models.Track{},
		Errors:        map[string]error{},
		SearchErrors:  map[string]error{},
	}
}

// Track builds a catalogue entry.
func Track(id, title, artist string) models.Track {
	return models.Track{ID: id, Title: title, Artist: artist, Artists: []string{artist}, URI: "spotify:track:" + id}
}

// call records the method and returns its configured error. Callers hold m.mu.
func (m *MockService) call(name string) error {
	m.Calls = append(m.Calls, name)
	if m.Errors == nil {
		return nil
	}
	return m.Errors[name]
}

// AddedIDs returns the track IDs added so far, in order.
func (m *MockService) AddedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.Added))
	for i, a := range m.Added {
		ids[i] = a.TrackID
	}
	return ids
}

func (m *MockService) CurrentUser(ctx context.Context) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CurrentUser"); err != nil {
		return nil, err
	}
	user := m.User
	return &user, nil
}

func (m *MockService) Playback(ctx context.Context) (*models.Playback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Playback"); err != nil {
		return nil, err
	}
	state := m.State
	return &state, nil
}

func (m *MockService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Playlists"); err != nil {
		return nil, err
	}
	return append([]models.Playlist(nil), m.PlaylistList...), nil
}

func (m *MockService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("PlaylistTracks"); err != nil {
		return nil, err
	}
	return append([]models.Track(nil), m.Tracks[playlistID]...), nil
}

func (m *MockService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Searches = append(m.Searches, query)
	if err := m.call("SearchTracks"); err != nil {
		return nil, err
	}
	if err := m.SearchErrors[query]; err != nil {
		return nil, err
	}

	results := m.SearchResults[query]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return append([]models.Track(nil), results...), nil
}

func (m *MockService) AddToPlaylist(ctx context.Context, playlistID string, trackIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("AddToPlaylist"); err != nil {
		return err
	}
	for _, id := range trackIDs {
		m.Added = append(m.Added, PlaylistEdit{PlaylistID: playlistID, TrackID: id})
	}
	return nil
}

func (m *MockService) RemoveFromPlaylist(ctx context.Context, playlistID string, trackIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("RemoveFromPlaylist"); err != nil {
		return err
	}
	for _, id := range trackIDs {
		m.Removed = append(m.Removed, PlaylistEdit{PlaylistID: playlistID, TrackID: id})
	}
	return nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreatePlaylist"); err != nil {
		return nil, err
	}

	playlist := models.Playlist{
		ID:          fmt.Sprintf("created-%d", len(m.Created)+1),
		Name:        name,
		Description: description,
		Public:      public,
	}
	m.Created = append(m.Created, playlist)
	m.PlaylistList = append(m.PlaylistList, playlist)
	return &playlist, nil
}

func (m *MockService) Play(ctx context.Context, contextURI string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Play"); err != nil {
		return err
	}
	m.Played = append(m.Played, contextURI)
	m.State.IsPlaying = true
	return nil
}

func (m *MockService) Pause(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Pause"); err != nil {
		return err
	}
	m.State.IsPlaying = false
	return nil
}

func (m *MockService) Next(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.call("Next")
}

func (m *MockService) Previous(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.call("Previous")
}

// Called reports whether name appears in the recorded calls.
func (m *MockService) Called(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.Calls, name)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
