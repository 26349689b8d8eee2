package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/desertthunder/spotx/internal/shared"
)

// Follow targets accepted by [User.Follow], [User.Unfollow] and [User.FollowingContain].
const (
	FollowArtist = "artist"
	FollowUser   = "user"
)

var (
	topTypes    = map[string]bool{"artists": true, "tracks": true}
	timeRanges  = map[string]bool{"short_term": true, "medium_term": true, "long_term": true}
	followTypes = map[string]bool{FollowArtist: true, FollowUser: true}
)

// User wraps the current-user profile and library endpoints.
type User struct {
	api API
}

func NewUser(api API) *User {
	return &User{api: api}
}

// CurrentProfile retrieves the authenticated user's profile.
func (u *User) CurrentProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := u.api.AuthGet(ctx, "/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Profile retrieves any user's public profile.
func (u *User) Profile(ctx context.Context, id string) (*Profile, error) {
	if err := requireID("user", id); err != nil {
		return nil, err
	}

	var profile Profile
	if err := u.api.AuthGet(ctx, pathFor("/users/%s", id), nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Top returns the user's top artists or tracks as raw items; see [User.TopArtists] and
// [User.TopTracks] for typed variants. timeRange may be empty.
func (u *User) Top(ctx context.Context, kind, timeRange string, limit, offset int) (*Page[json.RawMessage], error) {
	var page Page[json.RawMessage]
	if err := u.top(ctx, kind, timeRange, limit, offset, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// TopArtists returns the user's top artists.
func (u *User) TopArtists(ctx context.Context, timeRange string, limit, offset int) (*ArtistPage, error) {
	var page ArtistPage
	if err := u.top(ctx, "artists", timeRange, limit, offset, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// TopTracks returns the user's top tracks.
func (u *User) TopTracks(ctx context.Context, timeRange string, limit, offset int) (*TrackPage, error) {
	var page TrackPage
	if err := u.top(ctx, "tracks", timeRange, limit, offset, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (u *User) top(ctx context.Context, kind, timeRange string, limit, offset int, out any) error {
	if !topTypes[kind] {
		return fmt.Errorf("%w: top type %q (want artists or tracks)", shared.ErrInvalidArgument, kind)
	}
	q := pageQuery(limit, offset)
	if timeRange != "" {
		if !timeRanges[timeRange] {
			return fmt.Errorf("%w: time range %q", shared.ErrInvalidArgument, timeRange)
		}
		q.Set("time_range", timeRange)
	}
	return u.api.AuthGet(ctx, "/me/top/"+kind, q, out)
}

// SavedTracks lists the tracks in the user's library. market may be empty.
func (u *User) SavedTracks(ctx context.Context, market string, limit, offset int) (*SavedTrackPage, error) {
	var page SavedTrackPage
	if err := u.api.AuthGet(ctx, "/me/tracks", withMarket(pageQuery(limit, offset), market), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SaveTracks adds up to 50 tracks to the user's library.
func (u *User) SaveTracks(ctx context.Context, ids []string) error {
	return u.save(ctx, "/me/tracks", ids, 50)
}

// RemoveTracks removes up to 50 tracks from the user's library.
func (u *User) RemoveTracks(ctx context.Context, ids []string) error {
	return u.remove(ctx, "/me/tracks", ids, 50)
}

// TracksContain reports whether each track is saved.
func (u *User) TracksContain(ctx context.Context, ids []string) ([]bool, error) {
	return u.contains(ctx, "/me/tracks/contains", ids, 50)
}

// SavedAlbums lists the albums in the user's library.
func (u *User) SavedAlbums(ctx context.Context, limit, offset int) (*SavedAlbumPage, error) {
	var page SavedAlbumPage
	if err := u.api.AuthGet(ctx, "/me/albums", pageQuery(limit, offset), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SaveAlbums adds up to 20 albums to the user's library.
func (u *User) SaveAlbums(ctx context.Context, ids []string) error {
	return u.save(ctx, "/me/albums", ids, 20)
}

// RemoveAlbums removes up to 20 albums from the user's library.
func (u *User) RemoveAlbums(ctx context.Context, ids []string) error {
	return u.remove(ctx, "/me/albums", ids, 20)
}

// AlbumsContain reports whether each album is saved.
func (u *User) AlbumsContain(ctx context.Context, ids []string) ([]bool, error) {
	return u.contains(ctx, "/me/albums/contains", ids, 20)
}

// SavedShows lists the shows the user follows.
func (u *User) SavedShows(ctx context.Context, limit, offset int) (*SavedShowPage, error) {
	var page SavedShowPage
	if err := u.api.AuthGet(ctx, "/me/shows", pageQuery(limit, offset), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SaveShows follows up to 50 shows.
func (u *User) SaveShows(ctx context.Context, ids []string) error {
	return u.saveByQuery(ctx, "/me/shows", ids, 50)
}

// RemoveShows unfollows up to 50 shows.
func (u *User) RemoveShows(ctx context.Context, ids []string) error {
	return u.remove(ctx, "/me/shows", ids, 50)
}

// SavedAudiobooks lists the audiobooks in the user's library.
func (u *User) SavedAudiobooks(ctx context.Context, limit, offset int) (*AudiobookPage, error) {
	var page AudiobookPage
	if err := u.api.AuthGet(ctx, "/me/audiobooks", pageQuery(limit, offset), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SaveAudiobooks adds up to 50 audiobooks to the user's library.
func (u *User) SaveAudiobooks(ctx context.Context, ids []string) error {
	return u.saveByQuery(ctx, "/me/audiobooks", ids, 50)
}

// RemoveAudiobooks removes up to 50 audiobooks from the user's library.
func (u *User) RemoveAudiobooks(ctx context.Context, ids []string) error {
	return u.remove(ctx, "/me/audiobooks", ids, 50)
}

// AudiobooksContain reports whether each audiobook is saved.
func (u *User) AudiobooksContain(ctx context.Context, ids []string) ([]bool, error) {
	return u.contains(ctx, "/me/audiobooks/contains", ids, 50)
}

// SavedEpisodes lists the episodes in the user's library. market may be empty.
func (u *User) SavedEpisodes(ctx context.Context, market string, limit, offset int) (*SavedEpisodePage, error) {
	var page SavedEpisodePage
	if err := u.api.AuthGet(ctx, "/me/episodes", withMarket(pageQuery(limit, offset), market), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SaveEpisodes adds up to 50 episodes to the user's library.
func (u *User) SaveEpisodes(ctx context.Context, ids []string) error {
	return u.save(ctx, "/me/episodes", ids, 50)
}

// RemoveEpisodes removes up to 50 episodes from the user's library.
func (u *User) RemoveEpisodes(ctx context.Context, ids []string) error {
	return u.remove(ctx, "/me/episodes", ids, 50)
}

// FollowedArtists lists the artists the user follows. Pass the previous page's
// Cursors.After to continue; an empty after starts from the beginning.
func (u *User) FollowedArtists(ctx context.Context, after string, limit int) (*ArtistCursorPage, error) {
	q := url.Values{"type": {FollowArtist}}
	q.Set("limit", strconv.Itoa(clampLimit(limit)))
	if after != "" {
		q.Set("after", after)
	}

	var resp struct {
		Artists ArtistCursorPage `json:"artists"`
	}
	if err := u.api.AuthGet(ctx, "/me/following", q, &resp); err != nil {
		return nil, err
	}
	return &resp.Artists, nil
}

// Follow follows up to 50 artists or users; kind is [FollowArtist] or [FollowUser].
func (u *User) Follow(ctx context.Context, kind string, ids []string) error {
	if err := checkFollowType(kind); err != nil {
		return err
	}
	if _, err := joinIDs(ids, 50); err != nil {
		return err
	}
	return u.api.AuthPut(ctx, "/me/following?type="+kind, map[string][]string{"ids": ids})
}

// Unfollow unfollows up to 50 artists or users.
func (u *User) Unfollow(ctx context.Context, kind string, ids []string) error {
	if err := checkFollowType(kind); err != nil {
		return err
	}
	joined, err := joinIDs(ids, 50)
	if err != nil {
		return err
	}
	return u.api.AuthDelete(ctx, "/me/following", url.Values{"type": {kind}, "ids": {joined}})
}

// FollowingContain reports whether the user follows each artist or user.
func (u *User) FollowingContain(ctx context.Context, kind string, ids []string) ([]bool, error) {
	if err := checkFollowType(kind); err != nil {
		return nil, err
	}
	joined, err := joinIDs(ids, 50)
	if err != nil {
		return nil, err
	}

	var result []bool
	if err := u.api.AuthGet(ctx, "/me/following/contains", url.Values{"type": {kind}, "ids": {joined}}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func checkFollowType(kind string) error {
	if !followTypes[kind] {
		return fmt.Errorf("%w: follow type %q (want artist or user)", shared.ErrInvalidArgument, kind)
	}
	return nil
}

// Playlists lists the current user's playlists.
func (u *User) Playlists(ctx context.Context, limit, offset int) (*PlaylistPage, error) {
	var page PlaylistPage
	if err := u.api.AuthGet(ctx, "/me/playlists", pageQuery(limit, offset), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UserPlaylists lists another user's public playlists.
func (u *User) UserPlaylists(ctx context.Context, id string, limit, offset int) (*PlaylistPage, error) {
	if err := requireID("user", id); err != nil {
		return nil, err
	}

	var page PlaylistPage
	if err := u.api.AuthGet(ctx, pathFor("/users/%s/playlists", id), pageQuery(limit, offset), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (u *User) save(ctx context.Context, path string, ids []string, max int) error {
	if _, err := joinIDs(ids, max); err != nil {
		return err
	}
	return u.api.AuthPut(ctx, path, map[string][]string{"ids": ids})
}

// saveByQuery is save for endpoints that only read ids from the query string.
func (u *User) saveByQuery(ctx context.Context, path string, ids []string, max int) error {
	joined, err := joinIDs(ids, max)
	if err != nil {
		return err
	}
	return u.api.AuthPut(ctx, path+"?ids="+url.QueryEscape(joined), nil)
}

func (u *User) remove(ctx context.Context, path string, ids []string, max int) error {
	joined, err := joinIDs(ids, max)
	if err != nil {
		return err
	}
	return u.api.AuthDelete(ctx, path, url.Values{"ids": {joined}})
}

func (u *User) contains(ctx context.Context, path string, ids []string, max int) ([]bool, error) {
	joined, err := joinIDs(ids, max)
	if err != nil {
		return nil, err
	}

	var result []bool
	if err := u.api.AuthGet(ctx, path, url.Values{"ids": {joined}}, &result); err != nil {
		return nil, err
	}
	return result, nil
}
