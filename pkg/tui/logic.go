package tui

import (
	"fmt"
	"strings"

	"rplantdash/pkg/models"
	"rplantdash/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

// RecentPaymentsLimit caps the payments table.
const RecentPaymentsLimit = 5

const maxHashrateHistory = 1440

// ViewPhase is the top-level state of the dashboard.
type ViewPhase int

const (
	PhaseLoading ViewPhase = iota
	PhaseError
	PhaseLoaded
	PhaseEmpty
)

func (p ViewPhase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseError:
		return "error"
	case PhaseLoaded:
		return "loaded"
	case PhaseEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Phase picks what to render. An error always wins, even over stale stats.
func Phase(s models.Snapshot) ViewPhase {
	switch {
	case s.Err != "":
		return PhaseError
	case s.Loading:
		return PhaseLoading
	case s.HasStats():
		return PhaseLoaded
	default:
		return PhaseEmpty
	}
}

func recentPayments(payments []models.Payment) []models.Payment {
	if len(payments) > RecentPaymentsLimit {
		return payments[:RecentPaymentsLimit]
	}
	return payments
}

// Focus is the table that owns the row cursor.
type Focus int

const (
	FocusNone Focus = iota
	FocusMiners
	FocusPayments
)

func (m model) miners() []models.Miner {
	if Phase(m.state) != PhaseLoaded {
		return nil
	}
	return m.state.Extended.Miners
}

func (m model) payments() []models.Payment {
	if Phase(m.state) != PhaseLoaded {
		return nil
	}
	return recentPayments(m.state.Extended.Payments)
}

// nextFocus cycles none -> miners -> payments -> none, skipping empty tables.
func (m *model) nextFocus() {
	order := []Focus{FocusNone, FocusMiners, FocusPayments}
	idx := 0
	for i, f := range order {
		if f == m.focus {
			idx = i
		}
	}
	for step := 1; step <= len(order); step++ {
		candidate := order[(idx+step)%len(order)]
		if candidate == FocusNone ||
			(candidate == FocusMiners && len(m.miners()) > 0) ||
			(candidate == FocusPayments && len(m.payments()) > 0) {
			m.focus = candidate
			return
		}
	}
}

func (m *model) moveCursor(delta int) {
	switch m.focus {
	case FocusMiners:
		m.minerIdx = clamp(m.minerIdx+delta, len(m.miners()))
	case FocusPayments:
		m.paymentIdx = clamp(m.paymentIdx+delta, len(m.payments()))
	}
}

// clampSelection keeps cursors valid after the tables change.
func (m *model) clampSelection() {
	m.minerIdx = clamp(m.minerIdx, len(m.miners()))
	m.paymentIdx = clamp(m.paymentIdx, len(m.payments()))
	if (m.focus == FocusMiners && len(m.miners()) == 0) ||
		(m.focus == FocusPayments && len(m.payments()) == 0) {
		m.focus = FocusNone
	}
}

func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// selectedValue is what "c" copies: a miner ID or a transaction hash.
func (m model) selectedValue() (string, bool) {
	switch m.focus {
	case FocusMiners:
		if miners := m.miners(); m.minerIdx < len(miners) {
			return miners[m.minerIdx].ID, true
		}
	case FocusPayments:
		if payments := m.payments(); m.paymentIdx < len(payments) {
			return payments[m.paymentIdx].Tx, true
		}
	}
	return "", false
}

func (m model) selectedTxURL() (string, error) {
	if m.focus != FocusPayments {
		return "", fmt.Errorf("select a payment first (tab)")
	}
	if m.explorerURL == "" {
		return "", fmt.Errorf("explorer URL not configured")
	}
	payments := m.payments()
	if m.paymentIdx >= len(payments) {
		return "", fmt.Errorf("no payment selected")
	}
	return fmt.Sprintf("%s/tx/%s", strings.TrimRight(m.explorerURL, "/"), payments[m.paymentIdx].Tx), nil
}

// applyEvent copies a watcher snapshot into the model.
func (m *model) applyEvent(evt watcher.Event) {
	snap, ok := evt.Data.(models.Snapshot)
	if !ok {
		return
	}
	m.state = snap
	if evt.Type == watcher.EventStatsUpdated && snap.Extended != nil {
		m.hashrateHistory = append(m.hashrateHistory, snap.Extended.Hashrate)
		if len(m.hashrateHistory) > maxHashrateHistory {
			m.hashrateHistory = m.hashrateHistory[len(m.hashrateHistory)-maxHashrateHistory:]
		}
	}
	m.clampSelection()
}

type subscriptionClosedMsg struct{}

func listenForWatcher(sub watcher.Subscriber) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-sub
		if !ok {
			return subscriptionClosedMsg{}
		}
		return evt
	}
}
