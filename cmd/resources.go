package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotx/internal/catalog"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/ui"
)

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: <%s>", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// parseQuery turns repeated key=value flags into query parameters.
func parseQuery(pairs []string) (url.Values, error) {
	q := url.Values{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: query %q is not key=value", shared.ErrInvalidArgument, pair)
		}
		q.Add(k, v)
	}
	return q, nil
}

func artistNames(artists []catalog.Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// Me shows the current user's profile.
func (r *Runner) Me(ctx context.Context, cmd *cli.Command) error {
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	profile, err := catalog.NewUser(client).CurrentProfile(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, cmd.Bool("pretty"))
	}

	r.writePlainHeader(profile.DisplayName)
	r.writePlain("ID: %s\n", profile.ID)
	if profile.Email != "" {
		r.writePlain("Email: %s\n", profile.Email)
	}
	if profile.Country != "" {
		r.writePlain("Country: %s\n", profile.Country)
	}
	if profile.Product != "" {
		r.writePlain("Product: %s\n", profile.Product)
	}
	r.writePlain("Followers: %d\n", profile.Followers.Total)
	return nil
}

// AlbumsGet shows an album and its tracks.
func (r *Runner) AlbumsGet(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	album, err := catalog.NewAlbums(client).Album(ctx, id, cmd.String("market"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(album, cmd.Bool("pretty"))
	}

	r.writePlainHeader(album.Name)
	r.writePlain("Artists: %s\n", artistNames(album.Artists))
	r.writePlain("Released: %s (%s)\n", album.ReleaseDate, album.AlbumType)
	if album.Label != "" {
		r.writePlain("Label: %s\n", album.Label)
	}
	r.writePlain("Tracks: %d\n\n", album.TotalTracks)
	if album.Tracks != nil {
		for _, t := range album.Tracks.Items {
			r.writePlain("%2d. %s (%s)\n", t.TrackNumber, t.Name, shared.FormatDuration(t.DurationMS))
		}
	}
	return nil
}

// ArtistsGet shows an artist.
func (r *Runner) ArtistsGet(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	artist, err := catalog.NewArtists(client).Artist(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(artist, cmd.Bool("pretty"))
	}

	r.writePlainHeader(artist.Name)
	r.writePlain("ID: %s\n", artist.ID)
	if len(artist.Genres) > 0 {
		r.writePlain("Genres: %s\n", strings.Join(artist.Genres, ", "))
	}
	r.writePlain("Popularity: %d\n", artist.Popularity)
	r.writePlain("Followers: %d\n", artist.Followers.Total)
	return nil
}

// ArtistsTopTracks shows an artist's most popular tracks.
func (r *Runner) ArtistsTopTracks(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	tracks, err := catalog.NewArtists(client).TopTracks(ctx, id, cmd.String("market"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	for i, t := range tracks {
		r.writePlain("%2d. %s - %s\n", i+1, artistNames(t.Artists), t.Name)
		if t.Album != nil {
			r.writePlain("    Album: %s\n", t.Album.Name)
		}
	}
	return nil
}

// PlaylistsList lists the current user's playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	page, err := catalog.NewUser(client).Playlists(ctx, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	for i, pl := range page.Items {
		r.writePlain("%d. %s (%d tracks)\n", page.Offset+i+1, pl.Name, pl.Tracks.Total)
		r.writePlain("   ID: %s\n", pl.ID)
	}
	r.writePlain("\nShowing %d of %d\n", len(page.Items), page.Total)
	return nil
}

// PlaylistsGet shows a playlist and its first page of tracks.
func (r *Runner) PlaylistsGet(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	playlist, err := catalog.NewPlaylists(client).Playlist(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlist, cmd.Bool("pretty"))
	}

	r.writePlain("Playlist: %s\n", playlist.Name)
	if playlist.Description != "" {
		r.writePlain("Description: %s\n", playlist.Description)
	}
	r.writePlain("Owner: %s\n", playlist.Owner.DisplayName)
	r.writePlain("Tracks: %d\n\n", playlist.Tracks.Total)

	for i, item := range playlist.Tracks.Items {
		t := item.Track
		r.writePlain("%d. %s - %s\n", i+1, artistNames(t.Artists), t.Name)
		if t.Album != nil && t.Album.Name != "" {
			r.writePlain("   Album: %s\n", t.Album.Name)
		}
		if t.ExternalIDs.ISRC != "" {
			r.writePlain("   ISRC: %s\n", t.ExternalIDs.ISRC)
		}
	}
	return nil
}

// LibraryTracks lists saved tracks.
func (r *Runner) LibraryTracks(ctx context.Context, cmd *cli.Command) error {
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	page, err := catalog.NewUser(client).SavedTracks(ctx, cmd.String("market"), cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	for i, saved := range page.Items {
		r.writePlain("%d. %s - %s\n", page.Offset+i+1, artistNames(saved.Track.Artists), saved.Track.Name)
	}
	r.writePlain("\nShowing %d of %d\n", len(page.Items), page.Total)
	return nil
}

// LibrarySave saves tracks by ID.
func (r *Runner) LibrarySave(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one track id", shared.ErrMissingArgument)
	}
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	if err := catalog.NewUser(client).SaveTracks(ctx, ids); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles().OK(fmt.Sprintf("✓ Saved %d track(s)", len(ids))))
}

// LibraryRemove removes tracks by ID.
func (r *Runner) LibraryRemove(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one track id", shared.ErrMissingArgument)
	}
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	if err := catalog.NewUser(client).RemoveTracks(ctx, ids); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles().OK(fmt.Sprintf("✓ Removed %d track(s)", len(ids))))
}

// APIGet sends an authenticated GET and prints the response body.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}
	query, err := parseQuery(cmd.StringSlice("query"))
	if err != nil {
		return err
	}
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	var body json.RawMessage
	if err := client.AuthGet(ctx, path, query, &body); err != nil {
		return err
	}
	return r.writeRaw(body, cmd.Bool("pretty"))
}

// APIPut sends an authenticated PUT with the --data body.
func (r *Runner) APIPut(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}

	var body any
	if data := cmd.String("data"); data != "" {
		if !json.Valid([]byte(data)) {
			return fmt.Errorf("%w: --data is not valid JSON", shared.ErrInvalidArgument)
		}
		body = json.RawMessage(data)
	}

	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}
	if err := client.AuthPut(ctx, path, body); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles().OK("✓ PUT "+path))
}

// APIDelete sends an authenticated DELETE.
func (r *Runner) APIDelete(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}
	query, err := parseQuery(cmd.StringSlice("query"))
	if err != nil {
		return err
	}
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	if err := client.AuthDelete(ctx, path, query); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles().OK("✓ DELETE "+path))
}
