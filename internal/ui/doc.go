// Package ui implements the interactive terminal views using bubbletea's Elm architecture.
//
// [Model] is a playlist browser:
//  1. [PlaylistListView] : Browse the current user's playlists
//  2. [TrackListView] : Inspect the tracks of the selected playlist
//  3. [ConfirmView] : Confirm saving a track to the library
//  4. [ResultView] : Show the outcome, with hints for expired sessions, missing scopes and rate limits
//
// [LoginModel] renders a spinner and the authorization URL while a redirect login waits for its callback.
//
// Both models receive asynchronous results through the Msg union type. Keyboard navigation uses vim-style
// bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
