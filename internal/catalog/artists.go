package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/spotx/internal/shared"
)

// Album groups accepted by [Artists.Albums].
var albumGroups = map[string]bool{
	"album":       true,
	"single":      true,
	"appears_on":  true,
	"compilation": true,
}

// Artists wraps the artist endpoints.
type Artists struct {
	api API
}

func NewArtists(api API) *Artists {
	return &Artists{api: api}
}

// Artist retrieves an artist by ID.
func (a *Artists) Artist(ctx context.Context, id string) (*Artist, error) {
	if err := requireID("artist", id); err != nil {
		return nil, err
	}

	var artist Artist
	if err := a.api.AuthGet(ctx, pathFor("/artists/%s", id), nil, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// Artists retrieves up to 50 artists.
func (a *Artists) Artists(ctx context.Context, ids []string) ([]Artist, error) {
	joined, err := joinIDs(ids, 50)
	if err != nil {
		return nil, err
	}

	var response struct {
		Artists []Artist `json:"artists"`
	}
	if err := a.api.AuthGet(ctx, "/artists", url.Values{"ids": {joined}}, &response); err != nil {
		return nil, err
	}
	return response.Artists, nil
}

// Albums lists an artist's albums, optionally filtered by include groups.
func (a *Artists) Albums(ctx context.Context, id string, groups []string, market string, limit, offset int) (*AlbumPage, error) {
	if err := requireID("artist", id); err != nil {
		return nil, err
	}
	for _, g := range groups {
		if !albumGroups[g] {
			return nil, fmt.Errorf("%w: album group %q", shared.ErrInvalidArgument, g)
		}
	}

	q := withMarket(pageQuery(limit, offset), market)
	if len(groups) > 0 {
		q.Set("include_groups", strings.Join(groups, ","))
	}

	var page AlbumPage
	if err := a.api.AuthGet(ctx, pathFor("/artists/%s/albums", id), q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// TopTracks returns an artist's most popular tracks in market.
func (a *Artists) TopTracks(ctx context.Context, id, market string) ([]Track, error) {
	if err := requireID("artist", id); err != nil {
		return nil, err
	}
	if market == "" {
		market = "US"
	}

	var response struct {
		Tracks []Track `json:"tracks"`
	}
	if err := a.api.AuthGet(ctx, pathFor("/artists/%s/top-tracks", id), withMarket(nil, market), &response); err != nil {
		return nil, err
	}
	return response.Tracks, nil
}

// RelatedArtists returns artists similar to id.
func (a *Artists) RelatedArtists(ctx context.Context, id string) ([]Artist, error) {
	if err := requireID("artist", id); err != nil {
		return nil, err
	}

	var response struct {
		Artists []Artist `json:"artists"`
	}
	if err := a.api.AuthGet(ctx, pathFor("/artists/%s/related-artists", id), nil, &response); err != nil {
		return nil, err
	}
	return response.Artists, nil
}
