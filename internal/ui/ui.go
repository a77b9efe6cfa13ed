package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/hansdj/internal/models"
	"github.com/desertthunder/hansdj/internal/services"
	"github.com/desertthunder/hansdj/internal/shared"
	"github.com/desertthunder/hansdj/internal/tasks"
)

const (
	defaultDrainInterval    = 3 * time.Second
	defaultPlaybackInterval = 5 * time.Second
)

// HistoryReader loads past feed activity. repositories.DrainLogRepository implements it.
type HistoryReader interface {
	ListAdded(limit int) ([]*models.DrainEntry, error)
}

// Options configures the dashboard.
type Options struct {
	Service services.MusicService
	Engine  *tasks.DrainEngine
	Target  *services.TargetResolver
	History HistoryReader
	// Changes triggers an extra drain whenever it fires (see queue.Store.Watch).
	Changes          <-chan struct{}
	Logger           *log.Logger
	DrainInterval    time.Duration
	PlaybackInterval time.Duration
	LogLines         int
}

// Model is the dashboard state.
type Model struct {
	ctx     context.Context
	service services.MusicService
	engine  *tasks.DrainEngine
	target  *services.TargetResolver
	history HistoryReader
	changes <-chan struct{}
	logger  *log.Logger

	drainEvery    time.Duration
	playbackEvery time.Duration

	width     int
	height    int
	playlists list.Model
	loaded    bool
	playback  *models.Playback
	feed      *Feed
	search    textinput.Model
	notice    string
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a dashboard model. Zero intervals fall back to three seconds for draining
// and five for playback.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.DrainInterval <= 0 {
		opts.DrainInterval = defaultDrainInterval
	}
	if opts.PlaybackInterval <= 0 {
		opts.PlaybackInterval = defaultPlaybackInterval
	}

	ti := textinput.New()
	ti.Placeholder = "Search song to add to " + targetLabel(opts.Target) + "..."
	ti.CharLimit = 200

	playlists := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	playlists.Title = "Playlists"
	playlists.SetShowHelp(false)
	playlists.SetFilteringEnabled(false)

	return &Model{
		ctx:           ctx,
		service:       opts.Service,
		engine:        opts.Engine,
		target:        opts.Target,
		history:       opts.History,
		changes:       opts.Changes,
		logger:        opts.Logger,
		drainEvery:    opts.DrainInterval,
		playbackEvery: opts.PlaybackInterval,
		playlists:     playlists,
		feed:          NewFeed(opts.LogLines),
		search:        ti,
		help:          help.New(),
		keys:          newKeyMap(),
	}
}

// Run starts the dashboard program on the alternate screen.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(NewModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init loads playlists, seeds the feed from history before the first drain, takes the first
// playback snapshot and arms both timers.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchPlaylists(),
		tea.Sequence(m.fetchHistory(), m.drainNow()),
		m.refreshPlayback(),
		drainTick(m.drainEvery),
		playbackTick(m.playbackEvery),
		m.waitForChange(),
	)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlists.SetSize(m.sidebarWidth(), max(msg.Height-6, 5))
		m.search.Width = max(m.mainWidth()-6, 10)
		return m, nil

	case tea.KeyMsg:
		if m.search.Focused() {
			return m.handleSearchKeys(msg)
		}
		return m.handleKeys(msg)

	case playlistsMsg:
		if msg.err != nil {
			m.err = msg.err
			m.logger.Error("failed to load playlists", "error", msg.err)
			return m, nil
		}
		m.loaded = true
		return m, m.playlists.SetItems(playlistItems(msg.playlists))

	case historyMsg:
		if msg.err != nil {
			m.logger.Warn("failed to load drain history", "error", msg.err)
			return m, nil
		}
		for _, entry := range msg.entries {
			m.feed.Add(entry.String())
		}
		return m, nil

	case playbackMsg:
		if msg.err != nil {
			m.logger.Debug("playback refresh failed", "error", msg.err)
			return m, nil
		}
		m.playback = msg.playback
		return m, nil

	case playbackTickMsg:
		return m, tea.Batch(m.refreshPlayback(), playbackTick(m.playbackEvery))

	case drainTickMsg:
		return m, tea.Batch(m.drainNow(), drainTick(m.drainEvery))

	case queueChangedMsg:
		if !msg.ok {
			m.logger.Debug("queue watcher stopped")
			return m, nil
		}
		return m, tea.Batch(m.drainNow(), m.waitForChange())

	case drainDoneMsg:
		if msg.report == nil {
			return m, nil
		}
		for _, res := range msg.report.Added() {
			m.feed.Add(res.Entry().String())
		}
		return m, nil

	case controlDoneMsg:
		if msg.err != nil {
			m.notice = styles.err.Render(fmt.Sprintf("%s failed: %v", msg.action, msg.err))
			m.logger.Warn("playback control failed", "action", msg.action, "error", msg.err)
			return m, nil
		}
		m.notice = ""
		return m, m.refreshPlayback()

	case searchDoneMsg:
		switch {
		case msg.err != nil:
			m.notice = styles.err.Render(fmt.Sprintf("Search failed: %v", msg.err))
			m.logger.Warn("dashboard search failed", "query", msg.query, "error", msg.err)
		case msg.track == nil:
			m.notice = styles.warn.Render(fmt.Sprintf("No match for '%s'", msg.query))
		default:
			m.notice = styles.ok.Render(fmt.Sprintf("Added %s to %s!", msg.track.Title, msg.playlist.Name))
			m.logger.Info("added from search", "query", msg.query, "track", msg.track.Title, "playlist", msg.playlist.Name)
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.search.Focused() {
		m.search, cmd = m.search.Update(msg)
	} else {
		m.playlists, cmd = m.playlists.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		m.notice = ""
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.prev):
		return m, m.control("Previous", m.service.Previous)
	case key.Matches(msg, m.keys.next):
		return m, m.control("Next", m.service.Next)
	case key.Matches(msg, m.keys.toggle):
		return m, m.control("Play/Pause", func(ctx context.Context) error {
			_, err := services.TogglePlayback(ctx, m.service)
			return err
		})
	case key.Matches(msg, m.keys.drain):
		return m, m.drainNow()
	case key.Matches(msg, m.keys.play):
		if item, ok := m.playlists.SelectedItem().(playlistItem); ok {
			uri := services.PlaylistURI(item.playlist.ID)
			return m, m.control("Play", func(ctx context.Context) error {
				return m.service.Play(ctx, uri)
			})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.playlists, cmd = m.playlists.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.search.Blur()
		m.search.Reset()
		return m, nil
	case key.Matches(msg, m.keys.submit):
		query := strings.TrimSpace(m.search.Value())
		if query == "" {
			return m, nil
		}
		m.search.Reset()
		m.search.Blur()
		return m, m.addTopMatch(query)
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.service.Playlists(m.ctx)
		return playlistsMsg{playlists: playlists, err: err}
	}
}

func (m *Model) fetchHistory() tea.Cmd {
	if m.history == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := m.history.ListAdded(m.feed.size)
		return historyMsg{entries: entries, err: err}
	}
}

func (m *Model) refreshPlayback() tea.Cmd {
	return func() tea.Msg {
		playback, err := m.service.Playback(m.ctx)
		return playbackMsg{playback: playback, err: err}
	}
}

func (m *Model) drainNow() tea.Cmd {
	if m.engine == nil {
		return nil
	}
	return func() tea.Msg {
		return drainDoneMsg{report: m.engine.Drain(m.ctx, nil)}
	}
}

func (m *Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	return func() tea.Msg {
		_, ok := <-m.changes
		return queueChangedMsg{ok: ok}
	}
}

func (m *Model) control(action string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return controlDoneMsg{action: action, err: fn(m.ctx)}
	}
}

// addTopMatch searches for query and adds the first result to the target playlist.
func (m *Model) addTopMatch(query string) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.service.SearchTracks(m.ctx, query, 1)
		if err != nil {
			return searchDoneMsg{query: query, err: err}
		}
		if len(tracks) == 0 {
			return searchDoneMsg{query: query}
		}
		if m.target == nil {
			return searchDoneMsg{query: query, err: fmt.Errorf("%w: no target playlist", shared.ErrInvalidConfig)}
		}

		playlist, err := m.target.Resolve(m.ctx)
		if err != nil {
			return searchDoneMsg{query: query, err: err}
		}
		if err := m.service.AddToPlaylist(m.ctx, playlist.ID, tracks[0].ID); err != nil {
			return searchDoneMsg{query: query, err: err}
		}
		return searchDoneMsg{query: query, track: &tracks[0], playlist: playlist}
	}
}

func drainTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return drainTickMsg(t) })
}

func playbackTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return playbackTickMsg(t) })
}

// View renders the sidebar next to the player, feed and search box.
func (m *Model) View() string {
	if m.err != nil && !m.loaded {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	sidebar := styles.panel.Width(m.sidebarWidth()).Render(m.playlists.View())
	main := lipgloss.JoinVertical(lipgloss.Left,
		styles.panel.Width(m.mainWidth()).Render(m.renderNowPlaying()),
		m.renderControls(),
		"",
		styles.title.Render("Live DJ Feed"),
		styles.feed.Width(m.mainWidth()).Render(m.renderFeed()),
		m.search.View(),
		m.notice,
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", main)
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.title.Render("Hans Spotify OS"),
		body,
		m.help.ShortHelpView(m.keys.ShortHelp()),
	)
}

func (m *Model) renderNowPlaying() string {
	name, artist, icon := "Unknown Track", "Unknown Artist", "⏸"
	if m.playback != nil {
		if m.playback.IsPlaying {
			icon = "▶"
		}
		if t := m.playback.Track; t != nil {
			name, artist = t.Title, t.Artist
		}
	}
	return fmt.Sprintf("%s\nby %s", styles.track.Render(icon+" "+name), artist)
}

func (m *Model) renderControls() string {
	return styles.help.Render("[p] PREV   [space] PLAY/PAUSE   [n] NEXT")
}

func (m *Model) renderFeed() string {
	if m.feed.Len() == 0 {
		return styles.help.Render("No active DJ activity...")
	}

	lines := make([]string, 0, m.feed.Len())
	for _, line := range m.feed.Lines() {
		if bot, rest, ok := strings.Cut(line, ": "); ok {
			line = styles.bot.Render(bot+":") + " " + rest
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) sidebarWidth() int {
	return max(m.width/3-2, 20)
}

func (m *Model) mainWidth() int {
	return max(m.width-m.sidebarWidth()-6, 30)
}

func targetLabel(t *services.TargetResolver) string {
	if t == nil || t.Name() == "" {
		return "the DJ playlist"
	}
	return t.Name()
}
