package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/spotx/internal/catalog"
	"github.com/desertthunder/spotx/internal/spotify"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	ConfirmView
	ResultView
)

// playlistLimit is the page size requested for the playlist listing.
const playlistLimit = 50

// Model is the playlist browser: pick a playlist, inspect its tracks, and save one to the library.
type Model struct {
	ctx              context.Context
	view             ViewState
	user             *catalog.User
	playlists        *catalog.Playlists
	width            int
	height           int
	playlistList     list.Model
	trackList        list.Model
	playlistsLoaded  bool
	tracksLoaded     bool
	selectedPlaylist *catalog.Playlist
	selectedTrack    *catalog.Track
	saved            *catalog.Track
	err              error
	help             help.Model
	keys             keyMap
}

// NewModel creates a new TUI model that reads and writes through api.
func NewModel(ctx context.Context, api catalog.API) *Model {
	return &Model{
		ctx:       ctx,
		view:      PlaylistListView,
		user:      catalog.NewUser(api),
		playlists: catalog.NewPlaylists(api),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Err returns the error that ended the session, if any.
func (m *Model) Err() error {
	return m.err
}

// Init initializes the TUI by fetching the current user's playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistsLoaded {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.tracksLoaded {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		if data.err != nil {
			m.err = data.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(data.playlists))
		for i, pl := range data.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Your Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		m.playlistsLoaded = true
		m.view = PlaylistListView
		return m, nil

	case MsgTracksFetched:
		data := msg.data.(tracksFetched)
		if data.err != nil {
			m.err = data.err
			m.view = ResultView
			return m, nil
		}
		m.selectedPlaylist = data.playlist
		items := make([]list.Item, 0, len(data.playlist.Tracks.Items))
		for _, pt := range data.playlist.Tracks.Items {
			if pt.Track.ID == "" {
				continue
			}
			items = append(items, trackItem{track: pt.Track})
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", data.playlist.Name)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.tracksLoaded = true
		m.view = TrackListView
		return m, nil

	case MsgTrackSaved:
		data := msg.data.(trackSaved)
		m.err = data.err
		if data.err == nil {
			m.saved = &data.track
		}
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.Err(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.open):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, m.fetchTracks(pl.playlist.ID)
		}
	}

	return m.updateLists(msg)
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		return m, nil
	case key.Matches(msg, m.keys.save):
		if t, ok := m.trackList.SelectedItem().(trackItem); ok {
			track := t.track
			m.selectedTrack = &track
			m.view = ConfirmView
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no):
		m.view = TrackListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		return m, m.saveTrack(*m.selectedTrack)
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.err = nil
		m.saved = nil
		if m.selectedPlaylist != nil {
			m.view = TrackListView
		} else {
			m.view = PlaylistListView
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.err = nil
		m.saved = nil
		m.selectedPlaylist = nil
		m.selectedTrack = nil
		return m, m.fetchPlaylists()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.view == PlaylistListView && m.playlistsLoaded:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case m.view == TrackListView && m.tracksLoaded:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		page, err := m.user.Playlists(m.ctx, playlistLimit, 0)
		if err != nil {
			return playlistsFetchedMsg(nil, err)
		}
		return playlistsFetchedMsg(page.Items, nil)
	}
}

func (m *Model) fetchTracks(playlistID string) tea.Cmd {
	return func() tea.Msg {
		return tracksFetchedMsg(m.playlists.Playlist(m.ctx, playlistID))
	}
}

func (m *Model) saveTrack(track catalog.Track) tea.Cmd {
	return func() tea.Msg {
		return trackSavedMsg(track, m.user.SaveTracks(m.ctx, []string{track.ID}))
	}
}

func (m *Model) helpView() string {
	return m.help.ShortHelpView(m.keys.forView(m.view))
}

func (m *Model) renderPlaylistList() string {
	if !m.playlistsLoaded {
		return styles.Help("Loading playlists...")
	}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), m.helpView())
}

func (m *Model) renderTrackList() string {
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), m.helpView())
}

func (m *Model) renderConfirm() string {
	t := m.selectedTrack
	title := styles.Title(fmt.Sprintf("Save '%s' to your library?", t.Name))
	info := fmt.Sprintf("\nArtists: %s\n", artistNames(t.Artists))
	if t.Album != nil {
		info += fmt.Sprintf("Album: %s\n", t.Album.Name)
	}

	return fmt.Sprintf("%s\n%s\n%s", title, info, m.helpView())
}

func (m *Model) renderResult() string {
	helpView := m.helpView()

	if m.err != nil {
		return fmt.Sprintf("%s\n%s\n\n%s", styles.Err("Request failed"), describe(m.err), helpView)
	}
	if m.saved == nil {
		return styles.Err("No result available") + "\n\n" + helpView
	}

	title := styles.OK(fmt.Sprintf("✓ Saved '%s'", m.saved.Name))
	return fmt.Sprintf("%s\n\n%s", title, helpView)
}

// describe renders err with a hint for the error kinds a user can act on.
func describe(err error) string {
	kind, ok := spotify.KindOf(err)
	if !ok {
		return err.Error()
	}
	switch kind {
	case spotify.KindReAuthNeeded:
		return styles.Warn("Your session has expired. Run `spotx auth login` and try again.")
	case spotify.KindForbidden:
		return styles.Warn("Spotify refused the request; the login may be missing a scope such as user-library-modify.")
	case spotify.KindRateLimited:
		return styles.Warn("Spotify is rate limiting requests. Wait a moment and press r.")
	}
	return err.Error()
}
