package tui

import (
	"context"

	"rplantdash/pkg/config"
	"rplantdash/pkg/prefs"
	"rplantdash/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// Start runs the dashboard until the user quits. The watcher is started here
// and stopped on return, discarding any cycle still in flight.
func Start(ctx context.Context, w *watcher.Watcher, store prefs.Store, pool config.PoolConfig, logger *logrus.Logger, version string) error {
	Version = version
	m := initialModel(w, store, pool, logger)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	w.Start(ctx)
	defer w.Stop()

	_, err := p.Run()
	return err
}
