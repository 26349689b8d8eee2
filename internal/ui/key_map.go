package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the browser's bindings. List navigation (arrows, j/k, filtering) is left to the list models.
type keyMap struct {
	open    key.Binding
	save    key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	refresh key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		save:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save to library")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "save")),
		no:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload playlists")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// forView returns the bindings shown in the help line of view.
func (k keyMap) forView(view ViewState) []key.Binding {
	switch view {
	case PlaylistListView:
		return []key.Binding{k.open, k.quit}
	case TrackListView:
		return []key.Binding{k.save, k.back, k.quit}
	case ConfirmView:
		return []key.Binding{k.yes, k.no}
	default:
		return []key.Binding{k.back, k.refresh, k.quit}
	}
}
