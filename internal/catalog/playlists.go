package catalog

import (
	"context"
	"net/url"
)

// Playlists wraps the playlist endpoints.
type Playlists struct {
	api API
}

func NewPlaylists(api API) *Playlists {
	return &Playlists{api: api}
}

// Playlist retrieves a playlist by ID, including its first page of tracks.
func (p *Playlists) Playlist(ctx context.Context, id string) (*Playlist, error) {
	if err := requireID("playlist", id); err != nil {
		return nil, err
	}

	var playlist Playlist
	if err := p.api.AuthGet(ctx, pathFor("/playlists/%s", id), nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// Tracks retrieves one page of a playlist's tracks.
func (p *Playlists) Tracks(ctx context.Context, id string, limit, offset int) (*PlaylistTrackPage, error) {
	if err := requireID("playlist", id); err != nil {
		return nil, err
	}

	var page PlaylistTrackPage
	if err := p.api.AuthGet(ctx, pathFor("/playlists/%s/tracks", id), pageQuery(limit, offset), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Export retrieves a playlist and every one of its tracks, paging past the first page as needed.
// Entries without a track ID (local files, removed tracks) are dropped.
func (p *Playlists) Export(ctx context.Context, id string) (*PlaylistExport, error) {
	playlist, err := p.Playlist(ctx, id)
	if err != nil {
		return nil, err
	}

	first := playlist.Tracks
	items := first.Items
	for offset := first.Offset + len(first.Items); offset < first.Total && len(first.Items) > 0; {
		page, err := p.Tracks(ctx, id, maxLimit, offset)
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}
		items = append(items, page.Items...)
		offset += len(page.Items)
	}

	export := &PlaylistExport{Playlist: *playlist, Tracks: make([]Track, 0, len(items))}
	export.Playlist.Tracks.Items = nil
	for _, item := range items {
		if item.Track.ID == "" {
			continue
		}
		export.Tracks = append(export.Tracks, item.Track)
	}
	return export, nil
}

// FollowersContain reports, for each of up to 5 user IDs, whether that user follows the playlist.
func (p *Playlists) FollowersContain(ctx context.Context, id string, userIDs []string) ([]bool, error) {
	if err := requireID("playlist", id); err != nil {
		return nil, err
	}
	joined, err := joinIDs(userIDs, 5)
	if err != nil {
		return nil, err
	}

	var result []bool
	if err := p.api.AuthGet(ctx, pathFor("/playlists/%s/followers/contains", id), url.Values{"ids": {joined}}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Follow adds the playlist to the current user's library.
func (p *Playlists) Follow(ctx context.Context, id string, public bool) error {
	if err := requireID("playlist", id); err != nil {
		return err
	}
	return p.api.AuthPut(ctx, pathFor("/playlists/%s/followers", id), map[string]bool{"public": public})
}

// Unfollow removes the playlist from the current user's library.
func (p *Playlists) Unfollow(ctx context.Context, id string) error {
	if err := requireID("playlist", id); err != nil {
		return err
	}
	return p.api.AuthDelete(ctx, pathFor("/playlists/%s/followers", id), nil)
}
