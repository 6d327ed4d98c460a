package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/carewatch/internal/client"
	"github.com/raphaelgruber/carewatch/internal/models"
)

// maxWatchedAlerts bounds the alerts kept on screen.
const maxWatchedAlerts = 10

// alertMsg carries an alert pushed by the server.
type alertMsg models.AlertEvent

// watchDoneMsg reports that the alert stream ended.
type watchDoneMsg struct {
	err error
}

// watchModel is the bubbletea model for the live alert view.
type watchModel struct {
	spinner  spinner.Model
	theme    Theme
	alerts   []models.AlertEvent // newest first
	quitting bool
	err      error
}

func newWatchModel() watchModel {
	return watchModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:   defaultTheme,
	}
}

// Init starts the spinner.
func (m watchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and returns the updated model.
func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case alertMsg:
		m.alerts = append([]models.AlertEvent{models.AlertEvent(msg)}, m.alerts...)
		if len(m.alerts) > maxWatchedAlerts {
			m.alerts = m.alerts[:maxWatchedAlerts]
		}
		return m, nil

	case watchDoneMsg:
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the live view.
func (m watchModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m watchModel) renderContent() string {
	if m.err != nil {
		return m.theme.alertStyle().Render(fmt.Sprintf("\n✗ Alert stream closed: %s\n", m.err))
	}

	var b strings.Builder
	if !m.quitting {
		fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), m.theme.statusStyle().Render("Watching for alerts..."))
		b.WriteString(m.theme.hintStyle().Render("Press q to quit") + "\n\n")
	}
	if len(m.alerts) == 0 {
		b.WriteString(m.theme.safeStyle().Render("No alerts so far.") + "\n")
		return b.String()
	}
	for _, ev := range m.alerts {
		b.WriteString(renderAlert(m.theme, ev))
	}
	return b.String()
}

// RunWatch shows alerts live until the user quits or the stream ends.
func RunWatch(c *client.Client) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(newWatchModel())
	go func() {
		err := c.WatchAlerts(ctx, func(ev models.AlertEvent) error {
			p.Send(alertMsg(ev))
			return nil
		})
		if ctx.Err() == nil {
			p.Send(watchDoneMsg{err: err})
		}
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("watch UI error: %w", err)
	}

	if m, ok := finalModel.(watchModel); ok && m.err != nil {
		if errors.Is(m.err, client.ErrUnauthorized) {
			return fmt.Errorf("%w; run 'carewatch login <email>'", m.err)
		}
		return m.err
	}
	return nil
}
