package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/spotify"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger, ConfigPath: "config.toml"})

	app := newApp(runner)

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Error(explain(err))
		os.Exit(1)
	}
}

// newApp builds the root command around runner.
func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotx",
		Usage:   "Authorize against Spotify and call the Web API",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write dispatch metrics in Prometheus text format to this file on exit",
			},
		},
		Before:   runner.Before,
		After:    runner.After,
		Commands: runner.register(),
	}
}

// explain turns an error into a message that tells the user what to do next.
func explain(err error) string {
	var se *spotify.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case spotify.KindReAuthNeeded:
			return "session expired or revoked: run `spotx auth login` (or `spotx auth refresh`)"
		case spotify.KindForbidden:
			return "request forbidden: " + se.Detail + "; log in again with the needed --scope"
		case spotify.KindRateLimited:
			if se.RetryAfter > 0 {
				return fmt.Sprintf("rate limited by Spotify: retry in %s", se.RetryAfter)
			}
			return "rate limited by Spotify: retry later"
		case spotify.KindCSRFInvalid:
			return "authorization callback rejected: " + se.Detail
		case spotify.KindAuth:
			return "authorization failed: " + se.Error()
		}
		return se.Error()
	}

	switch {
	case errors.Is(err, shared.ErrMissingCredentials):
		return fmt.Sprintf("%v: set it in config.toml or export %s (see `spotx setup config`)", err, shared.EnvClientID)
	case errors.Is(err, shared.ErrUnsupportedBackend), errors.Is(err, shared.ErrStorage):
		return fmt.Sprintf("%v: check the [storage] section of config.toml", err)
	case errors.Is(err, shared.ErrTimeout):
		return fmt.Sprintf("%v: run `spotx auth login` again", err)
	}
	return fmt.Sprintf("application error: %v", err)
}
