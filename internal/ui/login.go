package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/spotify"
)

// WaitFunc blocks until the authorization callback has been handled.
type WaitFunc func(ctx context.Context) (spotify.Credential, error)

// LoginModel shows a spinner and the authorization URL while a redirect flow waits for its callback.
type LoginModel struct {
	ctx        context.Context
	cancel     context.CancelFunc
	authURL    string
	wait       WaitFunc
	spinner    spinner.Model
	help       help.Model
	quit       key.Binding
	started    time.Time
	credential spotify.Credential
	err        error
	done       bool
}

// NewLoginModel creates a model that displays authURL and calls wait in the background.
func NewLoginModel(ctx context.Context, authURL string, wait WaitFunc) *LoginModel {
	ctx, cancel := context.WithCancel(ctx)
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = NewStyle("#1DB954")

	return &LoginModel{
		ctx:     ctx,
		cancel:  cancel,
		authURL: authURL,
		wait:    wait,
		spinner: s,
		help:    help.New(),
		quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "cancel")),
		started: time.Now(),
	}
}

// Result returns the credential obtained, or the reason the login ended without one.
func (m *LoginModel) Result() (spotify.Credential, error) {
	if !m.done {
		return spotify.Credential{}, fmt.Errorf("%w: login cancelled", spotify.ErrAuth)
	}
	return m.credential, m.err
}

func (m *LoginModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForCallback())
}

func (m *LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.quit) {
			m.cancel()
			return m, tea.Quit
		}
		return m, nil

	case Msg:
		if msg.kind == MsgAuthorized {
			data := msg.data.(authorized)
			m.credential, m.err, m.done = data.credential, data.err, true
			m.cancel()
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *LoginModel) View() string {
	if m.done {
		if m.err != nil {
			return styles.Err(fmt.Sprintf("✗ Authorization failed: %v", m.err)) + "\n"
		}
		return styles.OK("✓ Authorized") + "\n"
	}

	elapsed := time.Since(m.started).Truncate(time.Second)
	return fmt.Sprintf("%s\n\n%s\n\n%s Waiting for authorization (%s)\n\n%s\n",
		styles.Title("Log in to Spotify"),
		"If your browser did not open, visit:\n"+styles.Help(m.authURL),
		m.spinner.View(),
		elapsed,
		m.help.ShortHelpView([]key.Binding{m.quit}),
	)
}

func (m *LoginModel) waitForCallback() tea.Cmd {
	return func() tea.Msg {
		cred, err := m.wait(m.ctx)
		if err == nil && cred.AccessToken == "" {
			err = fmt.Errorf("%w: no credential received", shared.ErrAuthFailed)
		}
		return authorizedMsg(cred, err)
	}
}
