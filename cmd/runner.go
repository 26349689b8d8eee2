package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/spotify"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	registry   *prometheus.Registry
	metrics    *spotify.Metrics
	persister  spotify.Persister
	client     *spotify.Client
	closers    []func() error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	// Persister overrides the configured storage backend.
	Persister spotify.Persister
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	registry := prometheus.NewRegistry()
	metrics, err := spotify.NewMetrics(registry)
	if err != nil {
		opts.Logger.Warn("dispatch metrics disabled", "error", err)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		registry:   registry,
		metrics:    metrics,
		persister:  opts.Persister,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, meCommand, albumsCommand, artistsCommand, playlistsCommand,
		libraryCommand, apiCommand, browseCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config, applies .env and environment overrides,
// and configures logging and the HTTP client.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := shared.LoadEnv(); err != nil {
		r.logger.Warn("failed to load .env", "error", err)
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		}
	}
	r.config.ApplyEnv()

	level := r.config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	ll, err := shared.ParseLogLevel(level)
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, ll)

	if timeout := r.config.HTTP.Timeout(); timeout > 0 && r.httpClient == http.DefaultClient {
		r.httpClient = &http.Client{Timeout: timeout}
	}

	return ctx, nil
}

// After writes dispatch metrics when --metrics-file is set and releases storage connections.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	var errs []error
	if path := cmd.String("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		} else {
			r.logger.Debug("metrics written", "path", path)
		}
	}
	if err := r.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close releases any storage connections opened by the runner.
func (r *Runner) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// spotifyClient returns the client for the configured grant flow, creating it on first use.
func (r *Runner) spotifyClient(ctx context.Context) (*spotify.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	kind, err := spotify.ParseGrantFlowKind(r.config.Credentials.Spotify.Flow)
	if err != nil {
		return nil, err
	}

	client, err := r.newClient(ctx, kind)
	if err != nil {
		return nil, err
	}
	r.client = client
	return client, nil
}

// newClient builds a client for kind over the runner's persister.
func (r *Runner) newClient(ctx context.Context, kind spotify.GrantFlowKind) (*spotify.Client, error) {
	creds := r.config.Credentials.Spotify
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	persister, err := r.openPersister(ctx)
	if err != nil {
		return nil, err
	}

	endpoints := r.config.Endpoints
	return spotify.NewClient(ctx, spotify.ClientOptions{
		Kind: kind,
		Identity: spotify.ClientIdentity{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURI:  creds.RedirectURI,
		},
		Endpoints: spotify.Endpoints{
			AuthURL:    endpoints.AuthURL,
			TokenURL:   endpoints.TokenURL,
			APIBaseURL: endpoints.APIURL,
		},
		Persister:  persister,
		HTTPClient: r.httpClient,
		Logger:     r.logger,
		RateLimit:  r.config.HTTP.RateLimit,
		Metrics:    r.metrics,
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

// writeRaw writes an API response body as-is, re-indenting it when pretty is set.
func (r *Runner) writeRaw(body json.RawMessage, pretty bool) error {
	if len(body) == 0 {
		return r.writePlain("(empty response)\n")
	}
	if !pretty {
		return r.writePlain("%s\n", body)
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return r.writeJSON(v, true)
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
