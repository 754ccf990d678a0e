package tui

import (
	"context"
	"errors"
	"time"

	"rplantdash/pkg/prefs"
	"rplantdash/pkg/watcher"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const statusTimeout = 2 * time.Second

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case watcher.Event:
		m.applyEvent(msg)
		cmds = append(cmds, listenForWatcher(m.sub))

	case subscriptionClosedMsg:
		m.sub = nil

	case refreshResultMsg:
		switch {
		case errors.Is(msg.err, watcher.ErrRefreshThrottled):
			m.statusMessage = "Refresh throttled, try again shortly"
		case errors.Is(msg.err, watcher.ErrCycleInFlight):
			m.statusMessage = "Refresh already in progress"
		case errors.Is(msg.err, watcher.ErrStopped):
			m.statusMessage = "Watcher stopped"
		case msg.err != nil:
			// Surfaced through the snapshot.
			m.statusMessage = ""
		default:
			m.statusMessage = "Refreshed"
		}
		if m.statusMessage != "" {
			cmds = append(cmds, clearStatusAfter(statusTimeout))
		}

	case clearStatusMsg:
		m.statusMessage = ""

	case uiTickMsg:
		cmds = append(cmds, tea.Tick(time.Second, func(t time.Time) tea.Msg { return uiTickMsg(t) }))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showHelp {
		switch key {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.showGraph {
		switch key {
		case "g", "esc", "q":
			m.showGraph = false
		case "r":
			return m, m.refresh()
		}
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit

	case "?":
		m.showHelp = true

	case "g":
		m.showGraph = true

	case "t":
		m.toggleTheme()
		if m.statusMessage != "" {
			return m, clearStatusAfter(statusTimeout)
		}

	case "r":
		return m, m.refresh()

	case "tab":
		m.nextFocus()

	case "esc":
		m.focus = FocusNone

	case "up", "k":
		m.moveCursor(-1)

	case "down", "j":
		m.moveCursor(1)

	case "c":
		value, ok := m.selectedValue()
		if !ok {
			m.statusMessage = "Nothing selected (tab to select)"
		} else if err := writeClipboard(value); err != nil {
			m.logger.WithError(err).Warn("Clipboard write failed")
			m.statusMessage = "Failed to copy to clipboard"
		} else {
			m.statusMessage = "Copied to clipboard!"
		}
		return m, clearStatusAfter(statusTimeout)

	case "o":
		url, err := m.selectedTxURL()
		if err == nil {
			err = openURL(url)
		}
		if err != nil {
			m.statusMessage = err.Error()
		} else {
			m.statusMessage = "Opened in browser"
		}
		return m, clearStatusAfter(statusTimeout)
	}

	return m, nil
}

func (m *model) toggleTheme() {
	m.darkMode = !m.darkMode
	if m.prefs == nil {
		return
	}
	if err := m.prefs.Save(prefs.ThemeFor(m.darkMode)); err != nil {
		m.logger.WithError(err).Warn("Failed to persist theme preference")
		m.statusMessage = "Failed to save theme preference"
	}
}

func (m model) refresh() tea.Cmd {
	w := m.watcher
	return func() tea.Msg {
		return refreshResultMsg{err: w.Refresh(context.Background())}
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
