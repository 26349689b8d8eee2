package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotx/internal/ui"
)

// Browse launches the interactive playlist browser.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	// Logs would interfere with TUI rendering
	r.logger.SetOutput(io.Discard)

	client, err := r.spotifyClient(ctx)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, client)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return model.Err()
}
