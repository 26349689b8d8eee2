package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"github.com/zalando/go-keyring"

	"github.com/desertthunder/spotx/internal/keychain"
	"github.com/desertthunder/spotx/internal/repositories"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/spotify"
	tu "github.com/desertthunder/spotx/internal/testing"
)

// fakeSpotify serves the token endpoint and a slice of the Web API.
type fakeSpotify struct {
	*httptest.Server
	tokenHits atomic.Int32
	puts      atomic.Int32
}

func newFakeSpotify(t *testing.T) *fakeSpotify {
	t.Helper()

	f := &fakeSpotify{}
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer T1" {
			w.WriteHeader(http.StatusUnauthorized)
			return false
		}
		w.Header().Set("Content-Type", "application/json")
		return true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenHits.Add(1)
		r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("grant_type") == "authorization_code" && r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Invalid authorization code"}`)
			return
		}
		fmt.Fprint(w, `{"access_token":"T1","token_type":"Bearer","expires_in":3600,"refresh_token":"R1","scope":"user-library-read"}`)
	})
	mux.HandleFunc("GET /v1/me", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			fmt.Fprint(w, `{"id":"listener","display_name":"A Listener","followers":{"total":3}}`)
		}
	})
	mux.HandleFunc("GET /v1/me/tracks", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			fmt.Fprint(w, `{"items":[{"track":{"id":"t1","name":"Song One","artists":[{"name":"A"}]}}],"total":1,"offset":0}`)
		}
	})
	mux.HandleFunc("PUT /v1/me/tracks", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			f.puts.Add(1)
		}
	})
	mux.HandleFunc("GET /v1/me/playlists", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			fmt.Fprint(w, `{"items":[{"id":"p1","name":"Mix","tracks":{"total":1}}],"total":1,"offset":0}`)
		}
	})
	mux.HandleFunc("GET /v1/playlists/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "gone" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if authorized(w, r) {
			fmt.Fprintf(w, `{"id":%q,"name":"Mix","tracks":{"total":1,"offset":0,"items":[{"track":{"id":"t1","name":"Song One","artists":[{"name":"A"}],"duration_ms":200000}}]}}`, r.PathValue("id"))
		}
	})
	mux.HandleFunc("GET /v1/albums/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("GET /v1/artists/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

// writeConfig writes a config.toml pointing at f and returns its path.
func writeConfig(t *testing.T, f *fakeSpotify, mutate func(*shared.Config)) string {
	t.Helper()

	config := shared.DefaultConfig()
	config.Credentials.Spotify.ClientID = "cid"
	config.Credentials.Spotify.ClientSecret = "secret"
	config.Endpoints.AuthURL = f.URL + "/authorize"
	config.Endpoints.TokenURL = f.URL + "/api/token"
	config.Endpoints.APIURL = f.URL + "/v1"
	config.Storage.Backend = BackendMemory
	config.Database.Path = filepath.Join(t.TempDir(), "spotx.db")
	if mutate != nil {
		mutate(config)
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := shared.SaveConfig(path, config); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// run executes one spotx invocation the way main does, sharing persister across invocations.
func run(t *testing.T, configPath string, persister spotify.Persister, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	runner := NewRunner(RunnerOpts{
		Logger:    shared.DiscardLogger(),
		Output:    &out,
		Persister: persister,
	})
	argv := append([]string{"spotx", "--config", configPath}, args...)
	err := newApp(runner).Run(context.Background(), argv)
	return out.String(), err
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			persister := spotify.NewMemoryPersister()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Persister:  persister,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.persister != persister {
				t.Error("expected persister to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.metrics == nil {
				t.Error("expected dispatch metrics to be registered")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writeRaw", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writeRaw(json.RawMessage(`{"a":1}`), true); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `"a": 1`) {
			t.Errorf("expected indented JSON, got %q", output.String())
		}

		output.Reset()
		runner.writeRaw(nil, true)
		if !strings.Contains(output.String(), "empty response") {
			t.Errorf("expected empty marker, got %q", output.String())
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "me", "albums", "artists", "playlists", "library", "api", "browse"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})
}

func TestBefore(t *testing.T) {
	f := newFakeSpotify(t)

	t.Run("loads config and sets log level", func(t *testing.T) {
		path := writeConfig(t, f, func(c *shared.Config) {
			c.Log.Level = "debug"
			c.HTTP.TimeoutSeconds = 5
		})

		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})
		app := newApp(runner)
		app.Commands = nil
		app.Action = func(context.Context, *cli.Command) error { return nil }

		if err := app.Run(context.Background(), []string{"spotx", "--config", path}); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if runner.config.Credentials.Spotify.ClientID != "cid" {
			t.Errorf("config not loaded: %+v", runner.config.Credentials.Spotify)
		}
		if runner.logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", runner.logger.GetLevel())
		}
		if runner.httpClient.Timeout != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", runner.httpClient.Timeout)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv(shared.EnvClientID, "from-env")
		path := writeConfig(t, f, nil)

		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()})
		app := newApp(runner)
		app.Commands = nil
		app.Action = func(context.Context, *cli.Command) error { return nil }
		app.Run(context.Background(), []string{"spotx", "--config", path})

		if runner.config.Credentials.Spotify.ClientID != "from-env" {
			t.Errorf("expected env override, got %s", runner.config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("invalid log level", func(t *testing.T) {
		path := writeConfig(t, f, nil)
		_, err := run(t, path, spotify.NewMemoryPersister(), "--log-level", "loud", "auth", "status")
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestOpenPersister(t *testing.T) {
	ctx := context.Background()

	newRunner := func(mutate func(*shared.Config)) *Runner {
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientID = "cid"
		config.Database.Path = filepath.Join(t.TempDir(), "spotx.db")
		mutate(config)
		return NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger()})
	}

	t.Run("memory", func(t *testing.T) {
		r := newRunner(func(c *shared.Config) { c.Storage.Backend = "Memory" })
		p, err := r.openPersister(ctx)
		if err != nil {
			t.Fatalf("openPersister() error = %v", err)
		}
		if _, ok := p.(*spotify.MemoryPersister); !ok {
			t.Errorf("expected MemoryPersister, got %T", p)
		}
	})

	t.Run("sqlite is the default", func(t *testing.T) {
		r := newRunner(func(c *shared.Config) { c.Storage.Backend = "" })
		p, err := r.openPersister(ctx)
		if err != nil {
			t.Fatalf("openPersister() error = %v", err)
		}
		defer r.Close()

		if _, ok := p.(*repositories.CredentialRepository); !ok {
			t.Errorf("expected CredentialRepository, got %T", p)
		}
		if len(r.closers) != 1 {
			t.Errorf("expected the database to be closed with the runner")
		}

		again, _ := r.openPersister(ctx)
		if again != p {
			t.Error("expected the persister to be reused")
		}
	})

	t.Run("keyring", func(t *testing.T) {
		keyring.MockInit()
		r := newRunner(func(c *shared.Config) { c.Storage.Backend = BackendKeyring })
		p, err := r.openPersister(ctx)
		if err != nil {
			t.Fatalf("openPersister() error = %v", err)
		}
		if kp, ok := p.(*keychain.Persister); !ok || kp.Service() != "spotx:cid" {
			t.Errorf("unexpected persister %T", p)
		}
	})

	t.Run("redis unreachable", func(t *testing.T) {
		r := newRunner(func(c *shared.Config) {
			c.Storage.Backend = BackendRedis
			c.Redis.Address = "127.0.0.1:1"
		})
		_, err := r.openPersister(ctx)
		if !errors.Is(err, shared.ErrStorage) {
			t.Errorf("expected ErrStorage, got %v", err)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		r := newRunner(func(c *shared.Config) { c.Storage.Backend = "floppy" })
		if _, err := r.openPersister(ctx); !errors.Is(err, shared.ErrUnsupportedBackend) {
			t.Errorf("expected ErrUnsupportedBackend, got %v", err)
		}
	})
}

func TestCommands(t *testing.T) {
	f := newFakeSpotify(t)

	t.Run("app token then API calls", func(t *testing.T) {
		path := writeConfig(t, f, nil)
		persister := spotify.NewMemoryPersister()

		out, err := run(t, path, persister, "auth", "app")
		if err != nil {
			t.Fatalf("auth app error = %v", err)
		}
		if !strings.Contains(out, "Application token granted") {
			t.Errorf("unexpected output %q", out)
		}

		out, err = run(t, path, persister, "me")
		if err != nil {
			t.Fatalf("me error = %v", err)
		}
		if !strings.Contains(out, "A Listener") || !strings.Contains(out, "Followers: 3") {
			t.Errorf("unexpected profile output %q", out)
		}

		out, err = run(t, path, persister, "library", "tracks", "--json", "--pretty=false")
		if err != nil {
			t.Fatalf("library tracks error = %v", err)
		}
		if !strings.Contains(out, `"name":"Song One"`) {
			t.Errorf("unexpected JSON %q", out)
		}

		if _, err := run(t, path, persister, "library", "save", "t1", "t2"); err != nil {
			t.Fatalf("library save error = %v", err)
		}
		if f.puts.Load() != 1 {
			t.Errorf("expected one PUT, got %d", f.puts.Load())
		}

		out, err = run(t, path, persister, "api", "get", "/me")
		if err != nil {
			t.Fatalf("api get error = %v", err)
		}
		if !strings.Contains(out, `"display_name": "A Listener"`) {
			t.Errorf("unexpected raw output %q", out)
		}
	})

	t.Run("status and logout", func(t *testing.T) {
		path := writeConfig(t, f, nil)
		persister := spotify.NewMemoryPersister()
		run(t, path, persister, "auth", "app")

		out, err := run(t, path, persister, "auth", "status", "--json")
		if err != nil {
			t.Fatalf("auth status error = %v", err)
		}
		var status authStatus
		if err := json.Unmarshal([]byte(out), &status); err != nil {
			t.Fatalf("status is not JSON: %v\n%s", err, out)
		}
		if !status.Authenticated || status.Storage != BackendMemory || status.AccessToken == "T1" {
			t.Errorf("unexpected status %+v", status)
		}

		if _, err := run(t, path, persister, "auth", "logout"); err != nil {
			t.Fatalf("auth logout error = %v", err)
		}
		if persister.Len() != 0 {
			t.Errorf("expected persisted values to be cleared, %d remain", persister.Len())
		}

		_, err = run(t, path, persister, "me")
		if !errors.Is(err, spotify.ErrReAuthNeeded) {
			t.Fatalf("expected ReAuthNeeded after logout, got %v", err)
		}
		if !strings.Contains(explain(err), "spotx auth login") {
			t.Errorf("unexpected explanation %q", explain(err))
		}
	})

	t.Run("taxonomy errors surface", func(t *testing.T) {
		path := writeConfig(t, f, nil)
		persister := spotify.NewMemoryPersister()
		run(t, path, persister, "auth", "app")

		_, err := run(t, path, persister, "albums", "get", "a1")
		if !errors.Is(err, spotify.ErrForbidden) {
			t.Errorf("expected Forbidden, got %v", err)
		}
		if !strings.Contains(explain(err), "scope") {
			t.Errorf("unexpected explanation %q", explain(err))
		}

		_, err = run(t, path, persister, "artists", "get", "x")
		var se *spotify.Error
		if !errors.As(err, &se) || se.Kind != spotify.KindRateLimited || se.RetryAfter != 7*time.Second {
			t.Errorf("expected RateLimited with Retry-After, got %v", err)
		}
		if !strings.Contains(explain(err), "7s") {
			t.Errorf("unexpected explanation %q", explain(err))
		}
	})

	t.Run("playlist export", func(t *testing.T) {
		path := writeConfig(t, f, nil)
		persister := spotify.NewMemoryPersister()
		run(t, path, persister, "auth", "app")

		dir := filepath.Join(t.TempDir(), "export")
		out, err := run(t, path, persister, "playlists", "export", "--all", "--format", "csv", "--output", dir, "--quiet")
		if err != nil {
			t.Fatalf("playlists export error = %v", err)
		}
		if !strings.Contains(out, "Exported 1 of 1 playlists") {
			t.Errorf("unexpected output %q", out)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "p1_tracks.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))

		dir = filepath.Join(t.TempDir(), "partial")
		_, err = run(t, path, persister, "playlists", "export", "--output", dir, "p1", "gone")
		if !errors.Is(err, spotify.ErrHTTP) {
			t.Errorf("expected the failed playlist's HTTPErr, got %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "p1.json"))

		_, err = run(t, path, persister, "playlists", "export", "--format", "xml", "p1")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("missing arguments", func(t *testing.T) {
		path := writeConfig(t, f, nil)
		persister := spotify.NewMemoryPersister()

		if _, err := run(t, path, persister, "albums", "get"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := run(t, path, persister, "library", "save"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := run(t, path, persister, "api", "get", "--query", "novalue", "/me"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("missing client id", func(t *testing.T) {
		path := writeConfig(t, f, func(c *shared.Config) { c.Credentials.Spotify.ClientID = "" })
		_, err := run(t, path, spotify.NewMemoryPersister(), "me")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
		if !strings.Contains(explain(err), shared.EnvClientID) {
			t.Errorf("unexpected explanation %q", explain(err))
		}
	})

	t.Run("metrics file", func(t *testing.T) {
		path := writeConfig(t, f, nil)
		persister := spotify.NewMemoryPersister()
		run(t, path, persister, "auth", "app")

		metricsPath := filepath.Join(t.TempDir(), "spotx.prom")
		if _, err := run(t, path, persister, "--metrics-file", metricsPath, "me"); err != nil {
			t.Fatalf("me error = %v", err)
		}

		content := tu.MustReadFile(t, metricsPath)
		if !strings.Contains(content, `spotx_dispatch_requests_total{method="GET",outcome="ok"} 1`) {
			t.Errorf("unexpected metrics:\n%s", content)
		}
	})
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestAuthLogin(t *testing.T) {
	f := newFakeSpotify(t)

	login := func(t *testing.T, code string) (spotify.Persister, error) {
		t.Helper()

		port := freePort(t)
		path := writeConfig(t, f, func(c *shared.Config) {
			c.Server.Host = "127.0.0.1"
			c.Server.Port = port
			c.Credentials.Spotify.RedirectURI = fmt.Sprintf("http://127.0.0.1:%d/callback", port)
			c.Credentials.Spotify.ClientSecret = ""
		})
		persister := spotify.NewMemoryPersister()

		done := make(chan error, 1)
		go func() {
			_, err := run(t, path, persister, "auth", "login", "--no-browser", "--timeout", "5s")
			done <- err
		}()

		var state string
		deadline := time.Now().Add(3 * time.Second)
		for state == "" && time.Now().Before(deadline) {
			state, _, _ = persister.Load(context.Background(), spotify.KeyCSRFToken)
			time.Sleep(10 * time.Millisecond)
		}
		if state == "" {
			t.Fatal("login never stored a pending authorization")
		}

		callback := fmt.Sprintf("http://127.0.0.1:%d/callback", port)
		var forged *http.Response
		var err error
		for i := 0; i < 50; i++ {
			if forged, err = http.Get(callback + "?code=" + code + "&state=forged"); err == nil {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if err != nil {
			t.Fatalf("callback server unreachable: %v", err)
		}
		forged.Body.Close()
		if forged.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 for forged state, got %d", forged.StatusCode)
		}

		resp, err := http.Get(callback + "?code=" + code + "&state=" + state)
		if err != nil {
			t.Fatalf("callback failed: %v", err)
		}
		resp.Body.Close()

		select {
		case err := <-done:
			return persister, err
		case <-time.After(5 * time.Second):
			t.Fatal("login did not finish")
		}
		return nil, nil
	}

	t.Run("PKCE success", func(t *testing.T) {
		hits := f.tokenHits.Load()
		persister, err := login(t, "good-code")
		if err != nil {
			t.Fatalf("auth login error = %v", err)
		}
		if got := f.tokenHits.Load() - hits; got != 1 {
			t.Errorf("expected exactly one token request, got %d", got)
		}
		if v, ok, _ := persister.Load(context.Background(), spotify.KeyAccessToken); !ok || v != "T1" {
			t.Errorf("expected stored access token, got %q", v)
		}
		if _, ok, _ := persister.Load(context.Background(), spotify.KeyCSRFToken); ok {
			t.Error("pending authorization should be consumed")
		}
	})

	t.Run("exchange failure", func(t *testing.T) {
		_, err := login(t, "bad-code")
		var se *spotify.Error
		if !errors.As(err, &se) || se.Kind != spotify.KindAuth {
			t.Fatalf("expected AuthError, got %v", err)
		}
		if se.Detail != "Invalid authorization code" {
			t.Errorf("unexpected detail %q", se.Detail)
		}
	})

	t.Run("client credentials rejected", func(t *testing.T) {
		path := writeConfig(t, f, nil)
		_, err := run(t, path, spotify.NewMemoryPersister(), "auth", "login", "--flow", "client_credentials")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestCallbackPath(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"http://127.0.0.1:3000/callback", "/callback"},
		{"http://localhost:8888/auth/spotify", "/auth/spotify"},
		{"http://localhost:8888", "/callback"},
		{"::not a url", "/callback"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			if got := callbackPath(tt.uri); got != tt.want {
				t.Errorf("callbackPath(%q) = %q, want %q", tt.uri, got, tt.want)
			}
		})
	}
}

func TestParseQuery(t *testing.T) {
	q, err := parseQuery([]string{"market=US", "limit=5", "market=GB"})
	if err != nil {
		t.Fatalf("parseQuery() error = %v", err)
	}
	if got := q["market"]; len(got) != 2 || q.Get("limit") != "5" {
		t.Errorf("unexpected query %v", q)
	}
	if _, err := parseQuery([]string{"=x"}); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
