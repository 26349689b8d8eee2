package tasks

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotx/internal/catalog"
	"github.com/desertthunder/spotx/internal/shared"
)

// PlaylistSource fetches a playlist with all of its tracks. *catalog.Playlists satisfies it.
type PlaylistSource interface {
	Export(ctx context.Context, id string) (*catalog.PlaylistExport, error)
}

// Exporter writes playlists from a [PlaylistSource] to disk.
type Exporter struct {
	source     PlaylistSource
	httpClient *http.Client
	logger     *log.Logger
}

// NewExporter creates an Exporter. httpClient is used for cover image downloads; nil uses the formatter default.
func NewExporter(source PlaylistSource, httpClient *http.Client, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Exporter{source: source, httpClient: httpClient, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Exporter) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}
