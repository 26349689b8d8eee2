package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/spotx/internal/shared"
)

const (
	defaultLimit = 20
	maxLimit     = 50
)

// API is the dispatch capability the wrappers need. *spotify.Client and
// *spotify.Dispatcher both satisfy it.
type API interface {
	AuthGet(ctx context.Context, path string, query url.Values, out any) error
	AuthPut(ctx context.Context, path string, body any) error
	AuthDelete(ctx context.Context, path string, query url.Values) error
}

// clampLimit keeps a page size within 1..50, defaulting to 20.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	}
	return limit
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(clampLimit(limit)))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	return q
}

// joinIDs validates an id list against an endpoint's maximum and comma-joins it.
func joinIDs(ids []string, max int) (string, error) {
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: no ids provided", shared.ErrMissingArgument)
	}
	if len(ids) > max {
		return "", fmt.Errorf("%w: at most %d ids allowed, got %d", shared.ErrInvalidArgument, max, len(ids))
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return "", fmt.Errorf("%w: empty id", shared.ErrInvalidArgument)
		}
	}
	return strings.Join(ids, ","), nil
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s id", shared.ErrMissingArgument, kind)
	}
	return nil
}

func withMarket(q url.Values, market string) url.Values {
	if q == nil {
		q = url.Values{}
	}
	if market != "" {
		q.Set("market", market)
	}
	return q
}

func pathFor(format string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}
