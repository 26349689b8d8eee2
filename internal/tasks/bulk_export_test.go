package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/spotx/internal/catalog"
	"github.com/desertthunder/spotx/internal/formatter"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/spotify"
	th "github.com/desertthunder/spotx/internal/testing"
)

// fakeSource serves canned playlists; ids listed in fail return failErr.
type fakeSource struct {
	mu      sync.Mutex
	fetched []string
	fail    map[string]bool
	failErr error
	images  []catalog.Image
}

func (f *fakeSource) Export(_ context.Context, id string) (*catalog.PlaylistExport, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, id)
	f.mu.Unlock()

	if f.fail[id] {
		return nil, f.failErr
	}
	return &catalog.PlaylistExport{
		Playlist: catalog.Playlist{ID: id, Name: "Playlist " + id, Images: f.images},
		Tracks: []catalog.Track{
			{ID: id + "-t1", Name: "First", Artists: []catalog.Artist{{Name: "A"}}, DurationMS: 61_000},
			{ID: id + "-t2", Name: "Second", Artists: []catalog.Artist{{Name: "B"}}, DurationMS: 122_000},
		},
	}, nil
}

func playlistIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("playlist%d", i+1)
	}
	return ids
}

func TestBulkExport_SuccessfulExport(t *testing.T) {
	tests := []struct {
		name           string
		format         formatter.Format
		playlistCount  int
		validateResult func(t *testing.T, result *BulkExportResult, dir string)
	}{
		{
			name:          "single playlist json export",
			format:        formatter.FormatJSON,
			playlistCount: 1,
			validateResult: func(t *testing.T, result *BulkExportResult, dir string) {
				if len(result.Results[0].Files) != 1 {
					t.Errorf("expected 1 file, got %d", len(result.Results[0].Files))
				}
				th.AssertFileExists(t, filepath.Join(dir, "playlist1.json"))
			},
		},
		{
			name:          "multiple playlists csv export",
			format:        formatter.FormatCSV,
			playlistCount: 3,
			validateResult: func(t *testing.T, result *BulkExportResult, dir string) {
				for _, res := range result.Results {
					if len(res.Files) != 2 {
						t.Errorf("CSV export should create 2 files, got %d", len(res.Files))
					}
				}
				th.AssertFileExists(t, filepath.Join(dir, "playlist3_tracks.csv"))
			},
		},
		{
			name:          "text export",
			format:        formatter.FormatText,
			playlistCount: 2,
			validateResult: func(t *testing.T, result *BulkExportResult, dir string) {
				content := th.MustReadFile(t, filepath.Join(dir, "playlist2_tracks.txt"))
				if !strings.Contains(content, "2. B - Second") {
					t.Errorf("unexpected text export:\n%s", content)
				}
			},
		},
		{
			name:          "markdown export",
			format:        formatter.FormatMarkdown,
			playlistCount: 2,
			validateResult: func(t *testing.T, result *BulkExportResult, dir string) {
				th.AssertFileExists(t, filepath.Join(dir, "playlist1", "README.md"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			exporter := NewExporter(&fakeSource{}, nil, nil)

			result, err := exporter.BulkExport(context.Background(), nil, playlistIDs(tt.playlistCount), BulkExportOpts{
				Format:    tt.format,
				OutputDir: dir,
				RateLimit: 1000,
			})
			if err != nil {
				t.Fatalf("BulkExport failed: %v", err)
			}

			if result.SuccessfulExports != tt.playlistCount || result.FailedExports != 0 {
				t.Errorf("expected %d successes, got %d (failed %d)", tt.playlistCount, result.SuccessfulExports, result.FailedExports)
			}
			if len(result.Results) != tt.playlistCount {
				t.Fatalf("expected %d results, got %d", tt.playlistCount, len(result.Results))
			}
			for i, res := range result.Results {
				if res.PlaylistID != fmt.Sprintf("playlist%d", i+1) {
					t.Errorf("results should be in input order, got %s at %d", res.PlaylistID, i)
				}
			}
			if result.ManifestPath != filepath.Join(dir, "export_manifest.json") {
				t.Errorf("unexpected manifest path %s", result.ManifestPath)
			}
			if result.Err() != nil {
				t.Errorf("Err() = %v, want nil", result.Err())
			}

			tt.validateResult(t, result, dir)
		})
	}
}

func TestBulkExport_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	source := &fakeSource{
		fail:    map[string]bool{"playlist2": true},
		failErr: spotify.Classify(http.StatusForbidden),
	}
	exporter := NewExporter(source, nil, shared.DiscardLogger())

	progress := make(chan ProgressUpdate, 32)
	result, err := exporter.BulkExport(context.Background(), progress, playlistIDs(3), BulkExportOpts{
		Format:     formatter.FormatCSV,
		OutputDir:  dir,
		NumWorkers: 2,
		RateLimit:  1000,
	})
	if err != nil {
		t.Fatalf("BulkExport failed: %v", err)
	}
	close(progress)

	if result.SuccessfulExports != 2 || result.FailedExports != 1 {
		t.Errorf("expected 2 successes and 1 failure, got %d/%d", result.SuccessfulExports, result.FailedExports)
	}

	failed := result.Results[1]
	if failed.Success || failed.PlaylistName != "Unknown (playlist2)" {
		t.Errorf("unexpected failed result %+v", failed)
	}
	if !errors.Is(failed.Error, spotify.ErrForbidden) {
		t.Errorf("fetch error should keep its kind, got %v", failed.Error)
	}

	if err := result.Err(); !errors.Is(err, spotify.ErrForbidden) || !strings.Contains(err.Error(), "1 of 3") {
		t.Errorf("Err() = %v", err)
	}

	var manifest formatter.Manifest
	if err := json.Unmarshal([]byte(th.MustReadFile(t, result.ManifestPath)), &manifest); err != nil {
		t.Fatalf("manifest is not JSON: %v", err)
	}
	if manifest.Format != formatter.FormatCSV || manifest.FailedExports != 1 || manifest.Playlists[1].Status != "failed" {
		t.Errorf("unexpected manifest %+v", manifest)
	}

	var phases []Phase
	for update := range progress {
		phases = append(phases, update.Phase)
	}
	if len(phases) == 0 || phases[len(phases)-1] != WriteManifest {
		t.Errorf("expected progress to finish with the manifest phase, got %v", phases)
	}
}

func TestBulkExport_Covers(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/broken.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("jpeg"))
	}))
	defer srv.Close()

	t.Run("downloads the first image", func(t *testing.T) {
		dir := t.TempDir()
		source := &fakeSource{images: []catalog.Image{{URL: srv.URL + "/cover.jpg"}}}

		result, err := NewExporter(source, srv.Client(), nil).BulkExport(context.Background(), nil, []string{"p1"}, BulkExportOpts{
			Format:    formatter.FormatMarkdown,
			OutputDir: dir,
			Covers:    true,
		})
		if err != nil {
			t.Fatalf("BulkExport failed: %v", err)
		}
		if len(result.Results[0].Files) != 2 {
			t.Errorf("expected cover and README, got %v", result.Results[0].Files)
		}
		th.AssertFileExists(t, filepath.Join(dir, "p1", "cover.jpg"))
	})

	t.Run("missing cover does not fail the export", func(t *testing.T) {
		dir := t.TempDir()
		source := &fakeSource{images: []catalog.Image{{URL: srv.URL + "/broken.jpg"}}}

		result, err := NewExporter(source, srv.Client(), nil).BulkExport(context.Background(), nil, []string{"p1"}, BulkExportOpts{
			Format:    formatter.FormatMarkdown,
			OutputDir: dir,
			Covers:    true,
		})
		if err != nil {
			t.Fatalf("BulkExport failed: %v", err)
		}
		if !result.Results[0].Success || len(result.Results[0].Files) != 1 {
			t.Errorf("unexpected result %+v", result.Results[0])
		}
	})

	t.Run("covers disabled", func(t *testing.T) {
		before := hits.Load()
		source := &fakeSource{images: []catalog.Image{{URL: srv.URL + "/cover.jpg"}}}

		_, err := NewExporter(source, srv.Client(), nil).BulkExport(context.Background(), nil, []string{"p1"}, BulkExportOpts{
			Format:    formatter.FormatMarkdown,
			OutputDir: t.TempDir(),
		})
		if err != nil {
			t.Fatalf("BulkExport failed: %v", err)
		}
		if hits.Load() != before {
			t.Error("no image should be downloaded when covers are disabled")
		}
	})
}

func TestBulkExport_Errors(t *testing.T) {
	t.Run("nil source", func(t *testing.T) {
		_, err := NewExporter(nil, nil, nil).BulkExport(context.Background(), nil, []string{"p1"}, BulkExportOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("no ids", func(t *testing.T) {
		_, err := NewExporter(&fakeSource{}, nil, nil).BulkExport(context.Background(), nil, nil, BulkExportOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("output directory is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, nil, 0644); err != nil {
			t.Fatal(err)
		}
		_, err := NewExporter(&fakeSource{}, nil, nil).BulkExport(context.Background(), nil, []string{"p1"}, BulkExportOpts{OutputDir: file})
		if err == nil || !strings.Contains(err.Error(), "failed to create output directory") {
			t.Errorf("expected directory error, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		dir := t.TempDir()
		result, err := NewExporter(&fakeSource{}, nil, nil).BulkExport(ctx, nil, playlistIDs(3), BulkExportOpts{OutputDir: dir})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if result == nil || result.ManifestPath != "" {
			t.Errorf("no manifest should be written for a cancelled export, got %+v", result)
		}
	})
}

func TestSendProgress(t *testing.T) {
	e := NewExporter(&fakeSource{}, nil, nil)

	t.Run("nil channel", func(t *testing.T) {
		e.sendProgress(nil, manifestUpdate("m.json"))
	})

	t.Run("full channel does not block", func(t *testing.T) {
		ch := make(chan ProgressUpdate, 1)
		e.sendProgress(ch, fetchingPlaylistUpdate(1, 2, "a"))
		e.sendProgress(ch, fetchingPlaylistUpdate(2, 2, "b"))

		got := <-ch
		if got.Step != 1 || got.Phase != FetchPlaylist || !strings.Contains(got.Message(), "[1/2]") {
			t.Errorf("unexpected update %+v", got)
		}
	})
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{FetchPlaylist, "fetch_playlist"},
		{ExportPlaylist, "export_playlist"},
		{WriteManifest, "write_manifest"},
		{Phase(99), ""},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}

func TestProgressMessage(t *testing.T) {
	tests := []struct {
		name   string
		update ProgressUpdate
		want   string
	}{
		{"fetch", fetchingPlaylistUpdate(1, 3, "p1"), "[1/3] Fetching playlist p1..."},
		{"exported", exportedUpdate(2, 3, PlaylistExportResult{PlaylistName: "Mix", Success: true, Files: []string{"a", "b"}}), "[2/3] ✓ Mix (2 files)"},
		{"failed", exportedUpdate(3, 3, PlaylistExportResult{PlaylistName: "Unknown (p3)", Error: errors.New("forbidden")}), "[3/3] ✗ Unknown (p3): forbidden"},
		{"manifest", manifestUpdate("out/export_manifest.json"), "Writing manifest out/export_manifest.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.update.Message(); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}
