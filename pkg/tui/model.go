package tui

import (
	"time"

	"rplantdash/pkg/config"
	"rplantdash/pkg/models"
	"rplantdash/pkg/prefs"
	"rplantdash/pkg/watcher"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

// Version is set by Start()
var Version = "dev"

// --- Messages ---

type clearStatusMsg struct{}
type uiTickMsg time.Time
type refreshResultMsg struct{ err error }

// --- Model ---

type model struct {
	watcher     *watcher.Watcher
	sub         watcher.Subscriber
	prefs       prefs.Store
	logger      *logrus.Logger
	coin        string
	wallet      string
	explorerURL string

	state           models.Snapshot
	darkMode        bool
	spinner         spinner.Model
	width           int
	height          int
	focus           Focus
	minerIdx        int
	paymentIdx      int
	hashrateHistory []float64
	showGraph       bool
	showHelp        bool
	statusMessage   string
}

// initialModel subscribes before the watcher starts so the first cycle is
// never missed.
func initialModel(w *watcher.Watcher, store prefs.Store, pool config.PoolConfig, logger *logrus.Logger) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		watcher:     w,
		sub:         w.Subscribe(),
		prefs:       store,
		logger:      logger,
		coin:        pool.Coin,
		wallet:      pool.Wallet,
		explorerURL: pool.ExplorerURL,
		state:       w.Snapshot(),
		darkMode:    prefs.DarkMode(store),
		spinner:     s,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		listenForWatcher(m.sub),
		m.spinner.Tick,
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return uiTickMsg(t) }),
	)
}

func (m model) renderOptions() RenderOptions {
	return RenderOptions{
		DarkMode:      m.darkMode,
		Width:         m.width,
		Spinner:       m.spinner.View(),
		Subtitle:      subtitle(m.coin, m.wallet),
		Focus:         m.focus,
		MinerCursor:   m.minerIdx,
		PaymentCursor: m.paymentIdx,
	}
}
