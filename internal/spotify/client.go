package spotify

import (
	"context"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotx/internal/shared"
)

// ClientOptions configures [NewClient].
type ClientOptions struct {
	Kind      GrantFlowKind
	Identity  ClientIdentity
	Endpoints Endpoints
	// Persister is optional; without one the credential lives only in memory.
	Persister  Persister
	HTTPClient *http.Client
	Logger     *log.Logger
	// RateLimit throttles API requests per second; zero disables it.
	RateLimit float64
	Metrics   *Metrics
}

// Client bundles a [Store], the [Flow] that fills it and the [Dispatcher] that reads it.
type Client struct {
	Store      *Store
	Flow       *Flow
	Dispatcher *Dispatcher
}

// NewClient wires a Client and restores any persisted credential.
func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	endpoints := opts.Endpoints.withDefaults()

	store := NewStore(opts.Persister)
	if err := store.Restore(ctx); err != nil {
		return nil, err
	}

	flow, err := NewFlow(opts.Kind, opts.Identity, store,
		WithEndpoints(endpoints),
		WithHTTPClient(httpClient),
		WithLogger(shared.WithLogger(logger, "component", "flow")),
	)
	if err != nil {
		return nil, err
	}

	dispatcher := NewDispatcher(store,
		WithBaseURL(endpoints.APIBaseURL),
		WithDispatchClient(httpClient),
		WithRateLimit(opts.RateLimit, 1),
		WithMetrics(opts.Metrics),
		WithDispatchLogger(shared.WithLogger(logger, "component", "dispatch")),
	)

	return &Client{Store: store, Flow: flow, Dispatcher: dispatcher}, nil
}

// AuthGet delegates to the Dispatcher.
func (c *Client) AuthGet(ctx context.Context, path string, query url.Values, out any) error {
	return c.Dispatcher.AuthGet(ctx, path, query, out)
}

// AuthPut delegates to the Dispatcher.
func (c *Client) AuthPut(ctx context.Context, path string, body any) error {
	return c.Dispatcher.AuthPut(ctx, path, body)
}

// AuthDelete delegates to the Dispatcher.
func (c *Client) AuthDelete(ctx context.Context, path string, query url.Values) error {
	return c.Dispatcher.AuthDelete(ctx, path, query)
}
