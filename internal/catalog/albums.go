package catalog

import (
	"context"
	"net/url"
)

// Albums wraps the album endpoints.
type Albums struct {
	api API
}

func NewAlbums(api API) *Albums {
	return &Albums{api: api}
}

// Album retrieves an album by ID. market is optional.
func (a *Albums) Album(ctx context.Context, id, market string) (*Album, error) {
	if err := requireID("album", id); err != nil {
		return nil, err
	}

	var album Album
	if err := a.api.AuthGet(ctx, pathFor("/albums/%s", id), withMarket(nil, market), &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// Albums retrieves up to 20 albums.
func (a *Albums) Albums(ctx context.Context, ids []string, market string) ([]Album, error) {
	joined, err := joinIDs(ids, 20)
	if err != nil {
		return nil, err
	}

	var response struct {
		Albums []Album `json:"albums"`
	}
	if err := a.api.AuthGet(ctx, "/albums", withMarket(url.Values{"ids": {joined}}, market), &response); err != nil {
		return nil, err
	}
	return response.Albums, nil
}

// Tracks lists an album's tracks.
func (a *Albums) Tracks(ctx context.Context, id, market string, limit, offset int) (*TrackPage, error) {
	if err := requireID("album", id); err != nil {
		return nil, err
	}

	var page TrackPage
	if err := a.api.AuthGet(ctx, pathFor("/albums/%s/tracks", id), withMarket(pageQuery(limit, offset), market), &page); err != nil {
		return nil, err
	}
	return &page, nil
}
