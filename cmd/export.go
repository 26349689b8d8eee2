package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotx/internal/catalog"
	"github.com/desertthunder/spotx/internal/formatter"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/tasks"
	"github.com/desertthunder/spotx/internal/ui"
)

// PlaylistsExport writes the named playlists (or, with --all, every library playlist) to disk.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	if len(ids) == 0 && !cmd.Bool("all") {
		return fmt.Errorf("%w: at least one playlist id (or --all)", shared.ErrMissingArgument)
	}

	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("all") {
		ids, err = libraryPlaylistIDs(ctx, catalog.NewUser(client))
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return r.writePlain("No playlists to export\n")
		}
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if !cmd.Bool("quiet") {
				r.writePlain("%s\n", update.Message())
			}
		}
	}()

	exporter := tasks.NewExporter(catalog.NewPlaylists(client), r.httpClient, r.logger)
	result, err := exporter.BulkExport(ctx, progress, ids, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Covers:     cmd.Bool("covers"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("Exported %d of %d playlists to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	if result.FailedExports == 0 {
		r.writePlain("%s\n", ui.Styles().OK("✓ Export complete"))
		return nil
	}
	return result.Err()
}

// libraryPlaylistIDs pages through the current user's playlists.
func libraryPlaylistIDs(ctx context.Context, user *catalog.User) ([]string, error) {
	var ids []string
	for offset := 0; ; {
		page, err := user.Playlists(ctx, 50, offset)
		if err != nil {
			return nil, err
		}
		for _, pl := range page.Items {
			ids = append(ids, pl.ID)
		}
		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.Total {
			return ids, nil
		}
	}
}
