package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/spotx/internal/catalog"
	"github.com/desertthunder/spotx/internal/spotify"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgTracksFetched
	MsgTrackSaved
	MsgAuthorized
)

type playlistsFetched struct {
	playlists []catalog.SimplePlaylist
	err       error
}

type tracksFetched struct {
	playlist *catalog.Playlist
	err      error
}

type trackSaved struct {
	track catalog.Track
	err   error
}

type authorized struct {
	credential spotify.Credential
	err        error
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []catalog.SimplePlaylist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsFetched{playlists, err}}
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(playlist *catalog.Playlist, err error) Msg {
	return Msg{kind: MsgTracksFetched, data: tracksFetched{playlist, err}}
}

// trackSavedMsg is the constructor for [MsgTrackSaved]
func trackSavedMsg(track catalog.Track, err error) Msg {
	return Msg{kind: MsgTrackSaved, data: trackSaved{track, err}}
}

// authorizedMsg is the constructor for [MsgAuthorized]
func authorizedMsg(cred spotify.Credential, err error) Msg {
	return Msg{kind: MsgAuthorized, data: authorized{cred, err}}
}
