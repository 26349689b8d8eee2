// Package tasks runs long playlist operations with real-time progress reporting.
//
// # Bulk Export
//
// [Exporter.BulkExport] writes any number of playlists to disk:
//
//   - A single producer fetches each playlist (with every track page) through a [PlaylistSource],
//     paced by a token-bucket limiter so a large export does not trip the Web API's rate limiting
//   - A fixed pool of workers renders each playlist with the formatter package (json, csv, markdown, txt)
//   - Markdown exports can fetch the playlist cover beside the README
//   - An export_manifest.json summarizing every outcome is written at the end
//
// A failed playlist does not stop the others; its error (a *spotify.Error for API failures)
// is kept on its [PlaylistExportResult] and surfaced by [BulkExportResult.Err].
//
// # Progress Reporting
//
// Progress updates are sent on an optional channel with select/default, so a slow or absent
// reader never blocks the export. [ProgressUpdate] carries the phase, step counters and a
// human-readable message.
package tasks
