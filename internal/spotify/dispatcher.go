package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/spotx/internal/shared"
)

// Dispatcher issues authenticated Web API requests with the credential held in a [Store].
//
// It never refreshes or retries: a 401 surfaces as ReAuthNeeded and the caller decides.
type Dispatcher struct {
	store      *Store
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *Metrics
	logger     *log.Logger
}

// DispatcherOption configures a [Dispatcher].
type DispatcherOption func(*Dispatcher)

// WithBaseURL overrides the Web API base URL.
func WithBaseURL(u string) DispatcherOption {
	return func(d *Dispatcher) {
		if u != "" {
			d.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithDispatchClient sets the HTTP client used for API requests.
func WithDispatchClient(c *http.Client) DispatcherOption {
	return func(d *Dispatcher) {
		if c != nil {
			d.httpClient = c
		}
	}
}

// WithRateLimit throttles outgoing requests to perSecond with the given burst.
// A non-positive rate disables throttling.
func WithRateLimit(perSecond float64, burst int) DispatcherOption {
	return func(d *Dispatcher) {
		if perSecond <= 0 {
			d.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithMetrics records dispatch outcomes.
func WithMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithDispatchLogger sets the dispatcher's logger.
func WithDispatchLogger(l *log.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a Dispatcher reading credentials from store.
func NewDispatcher(store *Store, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:      store,
		baseURL:    DefaultAPIBaseURL,
		httpClient: http.DefaultClient,
		logger:     shared.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AuthGet fetches path and decodes a JSON body into out. out may be nil.
func (d *Dispatcher) AuthGet(ctx context.Context, path string, query url.Values, out any) error {
	return d.do(ctx, http.MethodGet, path, query, nil, out)
}

// AuthPut sends body as JSON. A nil body sends no payload.
func (d *Dispatcher) AuthPut(ctx context.Context, path string, body any) error {
	return d.do(ctx, http.MethodPut, path, nil, body, nil)
}

// AuthDelete issues a DELETE with query parameters.
func (d *Dispatcher) AuthDelete(ctx context.Context, path string, query url.Values) error {
	return d.do(ctx, http.MethodDelete, path, query, nil, nil)
}

func (d *Dispatcher) endpoint(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := d.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (d *Dispatcher) do(ctx context.Context, method, path string, query url.Values, body, out any) (err error) {
	start := time.Now()
	defer func() { d.metrics.observe(method, err, time.Since(start)) }()

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return &Error{Kind: KindHTTP, Detail: "rate limiter", Err: err}
		}
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindHTTP, Detail: "failed to encode request body", Err: err}
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.endpoint(path, query), payload)
	if err != nil {
		return &Error{Kind: KindHTTP, Detail: "failed to create request", Err: err}
	}

	// No presence check: an absent credential sends an empty bearer and the API answers 401.
	cred, _ := d.store.Get()
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPut {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return &Error{Kind: KindHTTP, Detail: "request failed", Err: err}
	}
	defer resp.Body.Close()

	d.logger.Debug("api response", "method", method, "path", path, "status", resp.StatusCode)

	if e := classifyResponse(resp); e != nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return e
	}

	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindHTTP, Status: resp.StatusCode, Detail: "failed to read response", Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindHTTP, Status: resp.StatusCode, Detail: fmt.Sprintf("failed to decode %s response", path), Err: err}
	}
	return nil
}
