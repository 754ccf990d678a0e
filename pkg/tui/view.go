package tui

import (
	"fmt"
	"strings"
	"time"

	"rplantdash/pkg/models"
	"rplantdash/pkg/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"
)

// RenderOptions controls everything Render needs beyond the snapshot.
type RenderOptions struct {
	DarkMode      bool
	Width         int
	Spinner       string
	Subtitle      string
	Focus         Focus
	MinerCursor   int
	PaymentCursor int
}

// Render draws the dashboard body for a snapshot. It has no side effects.
func Render(snap models.Snapshot, opts RenderOptions) string {
	th := newTheme(opts.DarkMode)

	phase := Phase(snap)
	if phase == PhaseError {
		return renderError(th, snap.Err)
	}

	var body string
	switch phase {
	case PhaseLoading:
		spin := opts.Spinner
		if spin == "" {
			spin = "…"
		}
		body = th.muted.Render(spin + " Loading mining stats...")
	case PhaseLoaded:
		body = renderStats(th, snap.Extended, opts)
	default:
		body = th.muted.Render("No mining data available")
	}

	return lipgloss.JoinVertical(lipgloss.Center, renderHeader(th, opts), "", body)
}

func renderHeader(th theme, opts RenderOptions) string {
	label := "Toggle Light Theme"
	if !opts.DarkMode {
		label = "Toggle Dark Theme"
	}
	title := th.title.Render("Rplant Mining Dashboard")
	button := th.button.Render(label + " (t)")
	header := lipgloss.JoinVertical(lipgloss.Center, title, "", button)
	if opts.Subtitle != "" {
		header = lipgloss.JoinVertical(lipgloss.Center, header, th.subtle.Render(opts.Subtitle))
	}
	return header
}

func renderError(th theme, msg string) string {
	return th.errorCard.Render(lipgloss.JoinVertical(lipgloss.Center,
		th.err.Bold(true).Render("Connection Error"),
		"",
		th.err.Render("Unable to fetch mining stats: "+msg),
	))
}

func renderStats(th theme, ext *models.ExtendedStats, opts RenderOptions) string {
	unpaid := card(th, "Unpaid Balance", th.primary.Render(utils.FormatCurrency(string(ext.Unpaid))))
	hashrate := card(th, "Current Hashrate", th.secondary.Render(utils.FormatHashrate(ext.Hashrate)))
	total := card(th, "Total Paid", th.primary.Render(utils.FormatCurrency(string(ext.Total))))

	cards := lipgloss.JoinHorizontal(lipgloss.Top, unpaid, " ", hashrate, " ", total)
	if opts.Width > 0 && opts.Width < lipgloss.Width(cards) {
		cards = lipgloss.JoinVertical(lipgloss.Center, unpaid, hashrate, total)
	}

	miners := renderMiners(th, ext.Miners, opts)
	payments := renderPayments(th, recentPayments(ext.Payments), opts)

	return lipgloss.JoinVertical(lipgloss.Center, cards, "", miners, "", payments)
}

func card(th theme, title, value string) string {
	return th.card.Render(lipgloss.JoinVertical(lipgloss.Left, th.cardTitle.Render(title), value))
}

func renderMiners(th theme, miners []models.Miner, opts RenderOptions) string {
	selected := -1
	if opts.Focus == FocusMiners {
		selected = opts.MinerCursor
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(th.border).
		Headers("Miner ID", "Hashrate", "Difficulty", "Status").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return th.tableHeader
			}
			style := th.cell
			if col == 3 && row < len(miners) {
				style = th.badgeErr
				if miners[row].Version != "" {
					style = th.badgeOK
				}
			}
			if row == selected {
				style = style.Reverse(true)
			}
			return style
		})
	for _, miner := range miners {
		t.Row(miner.ID, utils.FormatHashrate(miner.Hashrate), utils.FormatDifficulty(miner.Difficulty), minerStatus(miner))
	}

	out := lipgloss.JoinVertical(lipgloss.Left, th.title.Render("Active Miners"), t.Render())
	if selected >= 0 && selected < len(miners) {
		out = lipgloss.JoinVertical(lipgloss.Left, out,
			th.subtle.Render("Precise Hashrate: "+utils.FormatPrecise(miners[selected].Hashrate)))
	}
	return out
}

func minerStatus(m models.Miner) string {
	if m.Version == "" {
		return "Unknown"
	}
	return m.Version
}

func renderPayments(th theme, payments []models.Payment, opts RenderOptions) string {
	selected := -1
	if opts.Focus == FocusPayments {
		selected = opts.PaymentCursor
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(th.border).
		Headers("Amount", "Timestamp", "Transaction").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return th.tableHeader
			}
			if row == selected {
				return th.cell.Reverse(true)
			}
			return th.cell
		})
	for _, p := range payments {
		t.Row(utils.FormatCurrency(string(p.Amount)), utils.FormatDate(p.Time), utils.TruncateString(p.Tx, 20))
	}

	out := lipgloss.JoinVertical(lipgloss.Left, th.title.Render("Recent Payments"), t.Render())
	if selected >= 0 && selected < len(payments) {
		out = lipgloss.JoinVertical(lipgloss.Left, out,
			th.subtle.Render("Full Transaction Hash: "+payments[selected].Tx))
	}
	return out
}

func subtitle(coin, wallet string) string {
	if coin == "" && wallet == "" {
		return ""
	}
	return fmt.Sprintf("%s • %s", strings.ToUpper(coin), utils.TruncateString(wallet, 24))
}

func (m model) View() string {
	if m.showHelp {
		return m.viewHelp()
	}
	if m.showGraph {
		return m.viewHashrateGraph()
	}

	th := newTheme(m.darkMode)
	content := Render(m.state, m.renderOptions())

	footerText := fmt.Sprintf("t:theme • r:refresh • tab:select • c:copy • o:open • g:graph • ?:help • q:quit • v%s", Version)
	var footer string
	if m.width > 0 {
		footer = th.subtle.Width(m.width).Align(lipgloss.Center).Render(footerText)
	} else {
		footer = th.subtle.Render(footerText)
	}
	if m.statusMessage != "" {
		footer = lipgloss.JoinVertical(lipgloss.Center, th.info.Render(m.statusMessage), footer)
	}

	topBar := th.subtle.Render(m.lastUpdated())

	h := m.height - 1
	if h < 0 {
		h = 0
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		topBar,
		lipgloss.Place(
			m.width,
			h,
			lipgloss.Center,
			lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center, content, "", footer),
			lipgloss.WithWhitespaceBackground(th.background),
		),
	)
}

func (m model) lastUpdated() string {
	if m.state.LastUpdate.IsZero() {
		return " Last updated: never"
	}
	ago := time.Since(m.state.LastUpdate).Round(time.Second)
	return fmt.Sprintf(" Last updated: %s (%s ago)", m.state.LastUpdate.Format("15:04:05"), ago)
}

func (m model) viewHelp() string {
	th := newTheme(m.darkMode)
	shortcuts := []string{
		"t: Toggle Theme",
		"r: Refresh Now",
		"tab: Select Miners / Payments",
		"↑/k ↓/j: Move Selection",
		"esc: Clear Selection",
		"c: Copy Miner ID / Transaction",
		"o: Open Transaction in Explorer",
		"g: Hashrate Graph",
		"?: Toggle Help",
		"q/ctrl+c: Quit",
	}

	header := th.title.Render("Help")
	content := th.card.Width(0).Render(lipgloss.JoinVertical(lipgloss.Left, header, "", strings.Join(shortcuts, "\n")))
	footer := th.subtle.Render("Press '?' or 'esc' to close")

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, content, "", footer),
	)
}

func (m model) viewHashrateGraph() string {
	th := newTheme(m.darkMode)
	header := th.title.Render("Wallet Hashrate History")

	var graph string
	if len(m.hashrateHistory) > 1 {
		width := m.width - 14
		if width < 10 {
			width = 10
		}
		height := m.height - 10
		if height < 1 {
			height = 1
		}
		graph = asciigraph.Plot(m.hashrateHistory,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption("Hashrate (H/s)"),
		)
	} else {
		graph = "Not enough data to draw graph."
	}

	content := lipgloss.JoinVertical(lipgloss.Center, header, "", graph)
	footer := th.subtle.Render("g/q/esc: back • r: refresh")

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Center, content, "", footer))
}
