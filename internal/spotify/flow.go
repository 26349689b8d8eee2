package spotify

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/desertthunder/spotx/internal/shared"
)

const (
	DefaultAuthURL    = "https://accounts.spotify.com/authorize"
	DefaultTokenURL   = "https://accounts.spotify.com/api/token"
	DefaultAPIBaseURL = "https://api.spotify.com/v1"
)

// GrantFlowKind selects how the client obtains a credential.
type GrantFlowKind int

const (
	// AuthorizationCodePKCE is the public-client redirect flow; no client secret is sent.
	AuthorizationCodePKCE GrantFlowKind = iota
	// AuthorizationCodeConfidential is the redirect flow authenticated with the client secret.
	AuthorizationCodeConfidential
	// ClientCredentials is the application-only flow: one token request, no user, no refresh token.
	ClientCredentials
)

func (k GrantFlowKind) String() string {
	switch k {
	case AuthorizationCodePKCE:
		return "pkce"
	case AuthorizationCodeConfidential:
		return "code"
	case ClientCredentials:
		return "client_credentials"
	}
	return fmt.Sprintf("GrantFlowKind(%d)", int(k))
}

// ParseGrantFlowKind accepts the names produced by [GrantFlowKind.String].
func ParseGrantFlowKind(s string) (GrantFlowKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pkce", "":
		return AuthorizationCodePKCE, nil
	case "code", "authorization_code":
		return AuthorizationCodeConfidential, nil
	case "client_credentials", "app":
		return ClientCredentials, nil
	}
	return 0, fmt.Errorf("%w: unknown grant flow %q (want pkce, code or client_credentials)", shared.ErrInvalidConfig, s)
}

func (k GrantFlowKind) redirect() bool {
	return k == AuthorizationCodePKCE || k == AuthorizationCodeConfidential
}

// ClientIdentity is the registered application's identity.
type ClientIdentity struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

func (id ClientIdentity) validate(kind GrantFlowKind) error {
	var missing []string
	if id.ClientID == "" {
		missing = append(missing, "client id")
	}
	if kind != AuthorizationCodePKCE && id.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if kind.redirect() && id.RedirectURI == "" {
		missing = append(missing, "redirect uri")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s flow requires %s", shared.ErrMissingCredentials, kind, strings.Join(missing, ", "))
	}
	return nil
}

// Endpoints locates the identity provider and the Web API.
type Endpoints struct {
	AuthURL    string
	TokenURL   string
	APIBaseURL string
}

// DefaultEndpoints returns Spotify's production endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{AuthURL: DefaultAuthURL, TokenURL: DefaultTokenURL, APIBaseURL: DefaultAPIBaseURL}
}

func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	if e.AuthURL == "" {
		e.AuthURL = d.AuthURL
	}
	if e.TokenURL == "" {
		e.TokenURL = d.TokenURL
	}
	if e.APIBaseURL == "" {
		e.APIBaseURL = d.APIBaseURL
	}
	return e
}

// FlowState is derived from the [Store]: a pending authorization wins over a held credential.
type FlowState int

const (
	Idle FlowState = iota
	Pending
	Complete
)

func (s FlowState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Complete:
		return "complete"
	default:
		return "idle"
	}
}

// Flow drives one grant flow kind against a [Store].
type Flow struct {
	kind       GrantFlowKind
	identity   ClientIdentity
	store      *Store
	endpoints  Endpoints
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time
}

// FlowOption configures a [Flow].
type FlowOption func(*Flow)

// WithEndpoints overrides the identity provider endpoints. Empty fields keep their defaults.
func WithEndpoints(e Endpoints) FlowOption {
	return func(f *Flow) { f.endpoints = e.withDefaults() }
}

// WithHTTPClient sets the client used for token requests.
func WithHTTPClient(c *http.Client) FlowOption {
	return func(f *Flow) {
		if c != nil {
			f.httpClient = c
		}
	}
}

// WithLogger sets the flow's logger.
func WithLogger(l *log.Logger) FlowOption {
	return func(f *Flow) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithClock replaces time.Now, which stamps expiry times and pending authorizations.
func WithClock(now func() time.Time) FlowOption {
	return func(f *Flow) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFlow validates identity for kind and returns a Flow writing into store.
func NewFlow(kind GrantFlowKind, identity ClientIdentity, store *Store, opts ...FlowOption) (*Flow, error) {
	if kind < AuthorizationCodePKCE || kind > ClientCredentials {
		return nil, fmt.Errorf("%w: %s", shared.ErrInvalidConfig, kind)
	}
	if err := identity.validate(kind); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: nil credential store", shared.ErrInvalidConfig)
	}

	f := &Flow{
		kind:       kind,
		identity:   identity,
		store:      store,
		endpoints:  DefaultEndpoints(),
		httpClient: http.DefaultClient,
		logger:     shared.DiscardLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Kind returns the flow's grant kind.
func (f *Flow) Kind() GrantFlowKind { return f.kind }

// State reports where the flow stands.
func (f *Flow) State() FlowState {
	if _, ok := f.store.Pending(); ok {
		return Pending
	}
	if _, ok := f.store.Get(); ok {
		return Complete
	}
	return Idle
}

func (f *Flow) oauthConfig() *oauth2.Config {
	cfg := &oauth2.Config{
		ClientID:    f.identity.ClientID,
		RedirectURL: f.identity.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   f.endpoints.AuthURL,
			TokenURL:  f.endpoints.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	// A public client identifies itself with client_id in the body and never sends a secret.
	if f.kind == AuthorizationCodePKCE {
		cfg.Endpoint.AuthStyle = oauth2.AuthStyleInParams
	} else {
		cfg.ClientSecret = f.identity.ClientSecret
	}
	return cfg
}

func (f *Flow) tokenContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
}

// Initiate starts a redirect flow and returns the URL the user must visit. Any earlier
// pending authorization is discarded.
func (f *Flow) Initiate(ctx context.Context, scope string) (string, error) {
	if !f.kind.redirect() {
		return "", newError(KindAuth, fmt.Sprintf("%s flow has no authorization redirect; use Authorize", f.kind), nil)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return "", newError(KindAuth, "could not generate state", err)
	}

	pending := PendingAuthorization{State: state, CreatedAt: f.now()}
	opts := []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("scope", scope)}
	if f.kind == AuthorizationCodePKCE {
		pending.CodeVerifier = NewVerifier()
		opts = append(opts, oauth2.S256ChallengeOption(pending.CodeVerifier))
	}

	if err := f.store.SetPending(ctx, pending); err != nil {
		return "", newError(KindAuth, "could not save pending authorization", err)
	}

	f.logger.Debug("authorization initiated", "flow", f.kind, "scope", scope)
	return f.oauthConfig().AuthCodeURL(state, opts...), nil
}

// Complete finishes a redirect flow from the callback's query parameters.
//
// The state parameter is checked before anything else; a missing or mismatched value
// fails with CSRFInvalid, makes no token request and leaves the pending authorization
// in place. A verified callback always consumes the pending authorization.
func (f *Flow) Complete(ctx context.Context, params url.Values) (Credential, error) {
	if !f.kind.redirect() {
		return Credential{}, newError(KindAuth, fmt.Sprintf("%s flow has no authorization callback", f.kind), nil)
	}

	pending, ok := f.store.Pending()
	if !ok {
		return Credential{}, newError(KindCSRFInvalid, "no authorization in progress", nil)
	}

	state := params.Get("state")
	if state == "" {
		return Credential{}, newError(KindCSRFInvalid, "callback is missing the state parameter", nil)
	}
	if subtle.ConstantTimeCompare([]byte(state), []byte(pending.State)) != 1 {
		f.logger.Warn("callback state mismatch", "flow", f.kind)
		return Credential{}, newError(KindCSRFInvalid, "callback state does not match", nil)
	}

	if err := f.store.ClearPending(ctx); err != nil {
		f.logger.Warn("failed to clear pending authorization", "error", err)
	}

	code := params.Get("code")
	if code == "" {
		detail := params.Get("error")
		if detail == "" {
			detail = "callback is missing the authorization code"
		}
		return Credential{}, newError(KindAuth, detail, nil)
	}

	var opts []oauth2.AuthCodeOption
	if f.kind == AuthorizationCodePKCE {
		opts = append(opts, oauth2.VerifierOption(pending.CodeVerifier))
	}

	start := f.now()
	tok, err := f.oauthConfig().Exchange(f.tokenContext(ctx), code, opts...)
	if err != nil {
		return Credential{}, tokenError(err)
	}

	cred, err := credentialFromToken(tok, start)
	if err != nil {
		return Credential{}, err
	}
	if err := f.store.Set(ctx, cred); err != nil {
		return Credential{}, newError(KindAuth, "could not save credential", err)
	}

	f.logger.Info("authorization complete", "flow", f.kind, "expires_at", cred.ExpiresAt.Format(time.RFC3339))
	return cred, nil
}

// Authorize runs the client credentials grant.
func (f *Flow) Authorize(ctx context.Context, scope string) (Credential, error) {
	if f.kind != ClientCredentials {
		return Credential{}, newError(KindAuth, fmt.Sprintf("%s flow requires a user redirect; use Initiate", f.kind), nil)
	}

	cfg := &clientcredentials.Config{
		ClientID:     f.identity.ClientID,
		ClientSecret: f.identity.ClientSecret,
		TokenURL:     f.endpoints.TokenURL,
		Scopes:       strings.Fields(scope),
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	start := f.now()
	tok, err := cfg.Token(f.tokenContext(ctx))
	if err != nil {
		return Credential{}, tokenError(err)
	}

	cred, err := credentialFromToken(tok, start)
	if err != nil {
		return Credential{}, err
	}
	if cred.Scope == "" {
		cred.Scope = scope
	}
	if err := f.store.Set(ctx, cred); err != nil {
		return Credential{}, newError(KindAuth, "could not save credential", err)
	}

	f.logger.Info("client credentials granted", "expires_at", cred.ExpiresAt.Format(time.RFC3339))
	return cred, nil
}

// Refresh exchanges the stored refresh token for a new credential. Client credentials
// flows have no refresh token and re-run [Flow.Authorize] with the stored scope.
func (f *Flow) Refresh(ctx context.Context) (Credential, error) {
	current, ok := f.store.Get()

	if f.kind == ClientCredentials {
		return f.Authorize(ctx, current.Scope)
	}

	if !ok || current.RefreshToken == "" {
		return Credential{}, newError(KindAuth, "no refresh token available", shared.ErrNoRefreshToken)
	}

	start := f.now()
	src := f.oauthConfig().TokenSource(f.tokenContext(ctx), &oauth2.Token{RefreshToken: current.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return Credential{}, tokenError(err)
	}

	cred, err := credentialFromToken(tok, start)
	if err != nil {
		return Credential{}, err
	}
	if cred.RefreshToken == "" {
		cred.RefreshToken = current.RefreshToken
	}
	if cred.Scope == "" {
		cred.Scope = current.Scope
	}
	if err := f.store.Set(ctx, cred); err != nil {
		return Credential{}, newError(KindAuth, "could not save credential", err)
	}

	f.logger.Info("credential refreshed", "flow", f.kind, "expires_at", cred.ExpiresAt.Format(time.RFC3339))
	return cred, nil
}

// Logout forgets the credential and any pending authorization.
func (f *Flow) Logout(ctx context.Context) error {
	if err := f.store.Clear(ctx); err != nil {
		return err
	}
	f.logger.Info("logged out", "flow", f.kind)
	return nil
}

// tokenError maps a token endpoint failure onto AuthError.
//
// 4xx responses report the provider's error_description (or error); 5xx responses and
// bodies without either field report the HTTP status text.
func tokenError(err error) *Error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) || re.Response == nil {
		return newError(KindAuth, "token request failed", err)
	}

	status := re.Response.StatusCode
	detail := statusText(re.Response)
	if status < http.StatusInternalServerError {
		switch {
		case re.ErrorDescription != "":
			detail = re.ErrorDescription
		case re.ErrorCode != "":
			detail = re.ErrorCode
		}
	}

	return &Error{Kind: KindAuth, Detail: detail, Status: status}
}
