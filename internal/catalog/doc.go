// Package catalog provides thin wrappers over the Web API's album, artist, playlist and
// user-library endpoints.
//
// Each wrapper holds only an [API], the three dispatch operations, and never sees
// credentials. Errors from the dispatcher are returned unchanged, so callers match them
// against the spotify package's error kinds. Argument validation failures wrap
// [shared.ErrMissingArgument] or [shared.ErrInvalidArgument].
//
// Page sizes are clamped to 1..50 with a default of 20.
package catalog
