package tui

import (
	"fmt"
	"testing"
	"time"

	"rplantdash/pkg/models"
	"rplantdash/pkg/watcher"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedSnapshot(miners, payments int) models.Snapshot {
	ext := &models.ExtendedStats{
		Unpaid:   "0.5",
		Total:    "12.345678912",
		Hashrate: 1500,
	}
	for i := 1; i <= miners; i++ {
		ext.Miners = append(ext.Miners, models.Miner{ID: fmt.Sprintf("rig%d", i), Hashrate: float64(i) * 1000.5, Difficulty: 0.25})
	}
	for i := 1; i <= payments; i++ {
		ext.Payments = append(ext.Payments, models.Payment{Amount: "1.5", Time: 1700000000 + int64(i), Tx: fmt.Sprintf("tx%d", i)})
	}
	return models.Snapshot{
		Basic:      models.BasicStats{"balance": 1.0},
		Extended:   ext,
		LastUpdate: time.Now(),
	}
}

func newTestModel(snap models.Snapshot) model {
	logger, _ := test.NewNullLogger()
	return model{state: snap, darkMode: true, logger: logger}
}

func TestPhase(t *testing.T) {
	loaded := loadedSnapshot(1, 1)
	stale := loaded
	stale.Err = "timeout"

	tests := []struct {
		name string
		snap models.Snapshot
		want ViewPhase
	}{
		{"initial", models.Snapshot{Loading: true}, PhaseLoading},
		{"error before data", models.Snapshot{Err: "boom"}, PhaseError},
		{"error wins over stale stats", stale, PhaseError},
		{"error wins over loading", models.Snapshot{Loading: true, Err: "boom"}, PhaseError},
		{"loaded", loaded, PhaseLoaded},
		{"missing extended", models.Snapshot{Basic: models.BasicStats{}}, PhaseEmpty},
		{"missing basic", models.Snapshot{Extended: &models.ExtendedStats{}}, PhaseEmpty},
		{"empty", models.Snapshot{}, PhaseEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Phase(tt.snap))
		})
	}
}

func TestRecentPayments(t *testing.T) {
	snap := loadedSnapshot(0, 7)
	got := recentPayments(snap.Extended.Payments)
	require.Len(t, got, RecentPaymentsLimit)
	for i, p := range got {
		assert.Equal(t, fmt.Sprintf("tx%d", i+1), p.Tx)
	}

	assert.Len(t, recentPayments(snap.Extended.Payments[:3]), 3)
	assert.Empty(t, recentPayments(nil))
}

func TestNextFocusCycle(t *testing.T) {
	m := newTestModel(loadedSnapshot(2, 2))
	assert.Equal(t, FocusNone, m.focus)
	m.nextFocus()
	assert.Equal(t, FocusMiners, m.focus)
	m.nextFocus()
	assert.Equal(t, FocusPayments, m.focus)
	m.nextFocus()
	assert.Equal(t, FocusNone, m.focus)
}

func TestNextFocusSkipsEmptyTables(t *testing.T) {
	m := newTestModel(loadedSnapshot(0, 2))
	m.nextFocus()
	assert.Equal(t, FocusPayments, m.focus)

	m = newTestModel(loadedSnapshot(0, 0))
	m.nextFocus()
	assert.Equal(t, FocusNone, m.focus)

	m = newTestModel(models.Snapshot{Loading: true})
	m.nextFocus()
	assert.Equal(t, FocusNone, m.focus)
}

func TestMoveCursorClamps(t *testing.T) {
	m := newTestModel(loadedSnapshot(3, 7))
	m.focus = FocusMiners
	m.moveCursor(-1)
	assert.Equal(t, 0, m.minerIdx)
	m.moveCursor(5)
	assert.Equal(t, 2, m.minerIdx)

	m.focus = FocusPayments
	m.moveCursor(10)
	assert.Equal(t, RecentPaymentsLimit-1, m.paymentIdx, "cursor stays within the visible payments")
}

func TestSelectedValue(t *testing.T) {
	m := newTestModel(loadedSnapshot(2, 2))
	_, ok := m.selectedValue()
	assert.False(t, ok)

	m.focus = FocusMiners
	m.minerIdx = 1
	v, ok := m.selectedValue()
	require.True(t, ok)
	assert.Equal(t, "rig2", v)

	m.focus = FocusPayments
	v, ok = m.selectedValue()
	require.True(t, ok)
	assert.Equal(t, "tx1", v)
}

func TestSelectedTxURL(t *testing.T) {
	m := newTestModel(loadedSnapshot(1, 2))
	_, err := m.selectedTxURL()
	assert.Error(t, err)

	m.focus = FocusPayments
	_, err = m.selectedTxURL()
	assert.ErrorContains(t, err, "explorer URL")

	m.explorerURL = "https://explorer.example/"
	m.paymentIdx = 1
	url, err := m.selectedTxURL()
	require.NoError(t, err)
	assert.Equal(t, "https://explorer.example/tx/tx2", url)
}

func TestApplyEvent(t *testing.T) {
	m := newTestModel(models.Snapshot{Loading: true})

	m.applyEvent(watcher.Event{Type: watcher.EventStatsUpdated, Data: loadedSnapshot(3, 1)})
	assert.Equal(t, PhaseLoaded, Phase(m.state))
	assert.Equal(t, []float64{1500}, m.hashrateHistory)

	m.focus = FocusMiners
	m.minerIdx = 2

	failed := loadedSnapshot(1, 0)
	failed.Err = "timeout"
	m.applyEvent(watcher.Event{Type: watcher.EventFetchFailed, Data: failed})
	assert.Equal(t, PhaseError, Phase(m.state))
	assert.Len(t, m.hashrateHistory, 1, "failed cycles add no samples")
	assert.Equal(t, FocusNone, m.focus)
	assert.Equal(t, 0, m.minerIdx)

	m.applyEvent(watcher.Event{Type: watcher.EventStatsUpdated, Data: "not a snapshot"})
	assert.Equal(t, "timeout", m.state.Err)
}

func TestApplyEventCapsHistory(t *testing.T) {
	m := newTestModel(models.Snapshot{})
	for i := 0; i < maxHashrateHistory+10; i++ {
		m.applyEvent(watcher.Event{Type: watcher.EventStatsUpdated, Data: loadedSnapshot(0, 0)})
	}
	assert.Len(t, m.hashrateHistory, maxHashrateHistory)
}

func TestListenForWatcherClosed(t *testing.T) {
	sub := make(watcher.Subscriber, 1)
	sub <- watcher.Event{Type: watcher.EventStatsUpdated}
	close(sub)

	cmd := listenForWatcher(sub)
	assert.IsType(t, watcher.Event{}, cmd())
	assert.IsType(t, subscriptionClosedMsg{}, cmd())
}
