package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/spotx/internal/catalog"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [catalog.SimplePlaylist] to implement [list.Item].
type playlistItem struct {
	playlist catalog.SimplePlaylist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.Tracks.Total)
	if i.playlist.Owner.DisplayName != "" {
		desc = fmt.Sprintf("%s • by %s", desc, i.playlist.Owner.DisplayName)
	}
	return desc
}

// trackItem wraps [catalog.Track] to implement [list.Item].
type trackItem struct {
	track catalog.Track
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	desc := artistNames(i.track.Artists)
	if i.track.Album != nil && i.track.Album.Name != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album.Name)
	}
	return desc
}

func artistNames(artists []catalog.Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}
