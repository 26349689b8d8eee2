package tasks

import "fmt"

// Phase identifies the stage of a bulk export an update belongs to.
type Phase int

const (
	FetchPlaylist Phase = iota
	ExportPlaylist
	WriteManifest
)

var phaseNames = map[Phase]string{
	FetchPlaylist:  "fetch_playlist",
	ExportPlaylist: "export_playlist",
	WriteManifest:  "write_manifest",
}

func (p Phase) String() string { return phaseNames[p] }

// ProgressUpdate is one event emitted by [Exporter.BulkExport].
// Step counts from 1; for WriteManifest, Playlist holds the manifest path.
type ProgressUpdate struct {
	Phase    Phase
	Step     int
	Total    int
	Playlist string
	Files    int
	Err      error
}

// Message renders the update as a single status line.
func (u ProgressUpdate) Message() string {
	counter := fmt.Sprintf("[%d/%d]", u.Step, u.Total)
	switch {
	case u.Phase == FetchPlaylist:
		return fmt.Sprintf("%s Fetching playlist %s...", counter, u.Playlist)
	case u.Phase == WriteManifest:
		return "Writing manifest " + u.Playlist
	case u.Err != nil:
		return fmt.Sprintf("%s ✗ %s: %v", counter, u.Playlist, u.Err)
	default:
		return fmt.Sprintf("%s ✓ %s (%d files)", counter, u.Playlist, u.Files)
	}
}

func fetchingPlaylistUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{Phase: FetchPlaylist, Step: step, Total: total, Playlist: id}
}

func exportedUpdate(step, total int, res PlaylistExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:    ExportPlaylist,
		Step:     step,
		Total:    total,
		Playlist: res.PlaylistName,
		Files:    len(res.Files),
		Err:      res.Error,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{Phase: WriteManifest, Step: 1, Total: 1, Playlist: path}
}
