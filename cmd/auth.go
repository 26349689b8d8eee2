package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotx/internal/server"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/spotify"
	"github.com/desertthunder/spotx/internal/ui"
)

// AuthLogin runs a redirect flow: it starts the local callback server, sends the user to
// the authorization page and waits for the callback to complete the flow.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	flowName := r.config.Credentials.Spotify.Flow
	if cmd.IsSet("flow") {
		flowName = cmd.String("flow")
	}
	kind, err := spotify.ParseGrantFlowKind(flowName)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	if kind == spotify.ClientCredentials {
		return fmt.Errorf("%w: client_credentials has no browser login; use `spotx auth app`", shared.ErrInvalidFlag)
	}

	client, err := r.newClient(ctx, kind)
	if err != nil {
		return err
	}

	scope := r.scope(cmd)
	authURL, err := client.Flow.Initiate(ctx, scope)
	if err != nil {
		return err
	}

	handler := server.NewOAuthHandler(client.Flow, callbackPath(r.config.Credentials.Spotify.RedirectURI))
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(handler)

	addr := net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
	srv, err := server.Listen(addr, router)
	if err != nil {
		return err
	}
	r.logger.Info("callback server started", "addr", srv.Addr(), "flow", kind)
	r.logger.Debug("callback routes", "patterns", router.Patterns())
	defer func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	timeout := cmd.Duration("timeout")
	wait := func(ctx context.Context) (spotify.Credential, error) {
		return awaitCallback(ctx, handler, srv, timeout)
	}

	if !cmd.Bool("no-browser") {
		if err := shared.OpenBrowser(ctx, authURL); err != nil {
			r.logger.Warn("failed to open browser automatically", "error", err)
		}
	}

	var cred spotify.Credential
	if cmd.Bool("spinner") {
		model := ui.NewLoginModel(ctx, authURL, wait)
		if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("error running spinner: %w", err)
		}
		cred, err = model.Result()
	} else {
		r.writePlain("→ Open this URL to authorize spotx:\n%s\n\n", authURL)
		r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)
		cred, err = wait(ctx)
	}
	if err != nil {
		return err
	}

	r.writePlain("%s\n", ui.Styles().OK("✓ Logged in with the "+kind.String()+" flow"))
	return r.describeCredential(cred)
}

// awaitCallback blocks until the handler delivers a result, the server fails, ctx ends or timeout elapses.
func awaitCallback(ctx context.Context, handler *server.OAuthHandler, srv *server.CallbackServer, timeout time.Duration) (spotify.Credential, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return spotify.Credential{}, err
		}
		return result.Credential, nil
	case err := <-srv.Errors():
		return spotify.Credential{}, fmt.Errorf("callback server error: %w", err)
	case <-ctx.Done():
		return spotify.Credential{}, ctx.Err()
	case <-timer.C:
		return spotify.Credential{}, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	}
}

// callbackPath extracts the path the redirect URI points at.
func callbackPath(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" {
		return "/callback"
	}
	return u.Path
}

func (r *Runner) scope(cmd *cli.Command) string {
	if cmd.IsSet("scope") {
		return cmd.String("scope")
	}
	return r.config.Credentials.Spotify.Scope
}

// AuthApp runs the client credentials flow.
func (r *Runner) AuthApp(ctx context.Context, cmd *cli.Command) error {
	client, err := r.newClient(ctx, spotify.ClientCredentials)
	if err != nil {
		return err
	}

	scope := ""
	if cmd.IsSet("scope") {
		scope = cmd.String("scope")
	}

	cred, err := client.Flow.Authorize(ctx, scope)
	if err != nil {
		return err
	}

	r.writePlain("%s\n", ui.Styles().OK("✓ Application token granted"))
	return r.describeCredential(cred)
}

// AuthRefresh exchanges the stored refresh token.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	cred, err := client.Flow.Refresh(ctx)
	if err != nil {
		return err
	}

	r.writePlain("%s\n", ui.Styles().OK("✓ Credential refreshed"))
	return r.describeCredential(cred)
}

// AuthLogout clears the stored credential and any pending authorization.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	if err := client.Flow.Logout(ctx); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles().OK("✓ Logged out"))
}

// authStatus is the JSON shape of `auth status`. Token values are masked.
type authStatus struct {
	Authenticated bool       `json:"authenticated"`
	Flow          string     `json:"flow"`
	Storage       string     `json:"storage"`
	AccessToken   string     `json:"access_token,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Expired       bool       `json:"expired"`
	HasRefresh    bool       `json:"has_refresh_token"`
	Scope         string     `json:"scope,omitempty"`
	Pending       bool       `json:"authorization_pending"`
}

// AuthStatus reports what the credential store holds.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	status := authStatus{
		Flow:    client.Flow.Kind().String(),
		Storage: r.storageBackend(),
	}
	_, status.Pending = client.Store.Pending()
	if cred, ok := client.Store.Get(); ok {
		status.Authenticated = true
		status.AccessToken = shared.Mask(cred.AccessToken)
		status.Expired = cred.Expired(time.Now())
		status.HasRefresh = cred.RefreshToken != ""
		status.Scope = cred.Scope
		if !cred.ExpiresAt.IsZero() {
			expires := cred.ExpiresAt
			status.ExpiresAt = &expires
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Spotify authorization")
	r.writePlain("Flow: %s\n", status.Flow)
	r.writePlain("Storage: %s\n", status.Storage)
	if !status.Authenticated {
		r.writePlain("Credential: %s\n", ui.Styles().Warn("✗ none (run `spotx auth login`)"))
		if status.Pending {
			r.writePlain("Authorization: pending callback\n")
		}
		return nil
	}

	r.writePlain("Credential: %s\n", ui.Styles().OK("✓ present"))
	if status.Pending {
		r.writePlain("Authorization: pending callback\n")
	}
	cred, _ := client.Store.Get()
	return r.describeCredential(cred)
}

func (r *Runner) describeCredential(cred spotify.Credential) error {
	r.writePlain("Access token: %s\n", shared.Mask(cred.AccessToken))
	if !cred.ExpiresAt.IsZero() {
		state := "valid"
		if cred.Expired(time.Now()) {
			state = ui.Styles().Warn("expired")
		}
		r.writePlain("Expires: %s (%s)\n", cred.ExpiresAt.Local().Format(time.RFC1123), state)
	}
	if cred.RefreshToken != "" {
		r.writePlain("Refresh token: stored\n")
	}
	if cred.Scope != "" {
		r.writePlain("Scope: %s\n", cred.Scope)
	}
	return nil
}
