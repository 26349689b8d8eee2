// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of items to return (1-50)",
			Value: 20,
		},
		&cli.IntFlag{
			Name:  "offset",
			Usage: "Index of the first item to return",
		},
	}
}

func marketFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "market",
		Usage: "ISO 3166-1 alpha-2 country code used for track relinking",
	}
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}

// setupCommand prepares the configuration file and the credential database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the configuration file and initialize storage",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write config.toml from the bundled template",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the SQLite credential database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles the grant flows and the stored credential
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize as a user through the browser (authorization code flow)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "flow",
						Usage: "Redirect flow to use: pkce or code (defaults to credentials.spotify.flow)",
					},
					&cli.StringFlag{
						Name:  "scope",
						Usage: "Space-separated scopes to request (defaults to credentials.spotify.scope)",
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
					&cli.BoolFlag{
						Name:  "spinner",
						Usage: "Show an interactive spinner while waiting for the callback",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the callback",
						Value: 2 * time.Minute,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "app",
				Usage: "Authorize as the application only (client credentials flow)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "scope",
						Usage: "Space-separated scopes to request",
					},
				},
				Action: r.AuthApp,
			},
			{
				Name:   "refresh",
				Usage:  "Exchange the stored refresh token for a new access token",
				Action: r.AuthRefresh,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored credential",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the stored credential",
				Flags:  outputFlags(),
				Action: r.AuthStatus,
			},
		},
	}
}

// meCommand shows the current user's profile
func meCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "me",
		Usage:  "Show the current user's profile",
		Flags:  outputFlags(),
		Action: r.Me,
	}
}

func albumsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "albums",
		Usage: "Album lookups",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show an album and its tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     withFlags(outputFlags(), []cli.Flag{marketFlag()}),
				Action:    r.AlbumsGet,
			},
		},
	}
}

func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artists",
		Usage: "Artist lookups",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show an artist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     outputFlags(),
				Action:    r.ArtistsGet,
			},
			{
				Name:      "top-tracks",
				Usage:     "Show an artist's most popular tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     withFlags(outputFlags(), []cli.Flag{marketFlag()}),
				Action:    r.ArtistsTopTracks,
			},
		},
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the current user's playlists",
				Flags:  withFlags(outputFlags(), pageFlags()),
				Action: r.PlaylistsList,
			},
			{
				Name:      "get",
				Usage:     "Show a playlist and its first page of tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     outputFlags(),
				Action:    r.PlaylistsGet,
			},
			{
				Name:      "export",
				Usage:     "Export playlists with all their tracks to files",
				ArgsUsage: "<id>...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "Export format: json, csv, markdown or txt"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory (default: spotify_export_{epoch})"},
					&cli.BoolFlag{Name: "all", Usage: "Export every playlist in the current user's library"},
					&cli.IntFlag{Name: "workers", Value: 5, Usage: "Concurrent writers (max 10)"},
					&cli.FloatFlag{Name: "rate", Value: 5, Usage: "Playlist fetches per second"},
					&cli.BoolFlag{Name: "covers", Usage: "Download cover images for markdown exports"},
					&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Only print the summary"},
				},
				Action: r.PlaylistsExport,
			},
		},
	}
}

// libraryCommand manages saved tracks
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Saved tracks in the current user's library",
		Commands: []*cli.Command{
			{
				Name:   "tracks",
				Usage:  "List saved tracks",
				Flags:  withFlags(outputFlags(), pageFlags(), []cli.Flag{marketFlag()}),
				Action: r.LibraryTracks,
			},
			{
				Name:      "save",
				Usage:     "Save tracks by ID",
				ArgsUsage: "<id>...",
				Action:    r.LibrarySave,
			},
			{
				Name:      "remove",
				Usage:     "Remove tracks by ID",
				ArgsUsage: "<id>...",
				Action:    r.LibraryRemove,
			},
		},
	}
}

// apiCommand issues raw authenticated requests
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Send authenticated requests to any Web API path",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET a path relative to the API base URL",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Query parameter as key=value (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:      "put",
				Usage:     "PUT a JSON body to a path",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "data",
						Usage: "JSON request body",
					},
				},
				Action: r.APIPut,
			},
			{
				Name:      "delete",
				Usage:     "DELETE a path",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Query parameter as key=value (repeatable)",
					},
				},
				Action: r.APIDelete,
			},
		},
	}
}

// browseCommand returns the top-level TUI command for interactive playlist browsing.
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui", "ui"},
		Usage:   "Browse your playlists interactively and save tracks to your library",
		Action:  r.Browse,
	}
}
