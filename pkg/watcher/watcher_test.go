package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rplantdash/pkg/config"
	"rplantdash/pkg/models"
	"rplantdash/pkg/pool"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDataSource struct {
	mock.Mock
}

func (m *MockDataSource) FetchAllStats(ctx context.Context) (models.PoolStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.PoolStats), args.Error(1)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.PollIntervalSeconds = 60
	cfg.RefreshCooldownSeconds = 0
	return cfg
}

func newTestWatcher(ds DataSource, cfg config.Config) (*Watcher, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewWatcher(ds, cfg, logger), hook
}

func sampleStats(hashrate float64) models.PoolStats {
	return models.PoolStats{
		Basic: models.BasicStats{"balance": 1.0},
		Extended: &models.ExtendedStats{
			Unpaid:   "0.5",
			Total:    "10",
			Hashrate: hashrate,
			Miners:   []models.Miner{{ID: "rig1", Hashrate: hashrate}},
		},
	}
}

func waitEvent(t *testing.T, sub Subscriber) Event {
	t.Helper()
	select {
	case evt, ok := <-sub:
		require.True(t, ok, "subscriber closed")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestNewWatcherInitialSnapshot(t *testing.T) {
	w, _ := newTestWatcher(new(MockDataSource), testConfig())
	snap := w.Snapshot()
	assert.True(t, snap.Loading)
	assert.Empty(t, snap.Err)
	assert.False(t, snap.HasStats())
}

func TestNewWatcherDefaultInterval(t *testing.T) {
	cfg := testConfig()
	cfg.PollIntervalSeconds = 0
	w, _ := newTestWatcher(new(MockDataSource), cfg)
	assert.Equal(t, DefaultPollInterval, w.interval)
}

func TestSubscribeUnsubscribe(t *testing.T) {
	w, _ := newTestWatcher(new(MockDataSource), testConfig())
	sub := w.Subscribe()
	assert.NotNil(t, sub)

	w.mu.RLock()
	assert.Equal(t, 1, len(w.subscribers))
	w.mu.RUnlock()

	w.Unsubscribe(sub)
	w.mu.RLock()
	assert.Equal(t, 0, len(w.subscribers))
	w.mu.RUnlock()

	_, ok := <-sub
	assert.False(t, ok)
}

func TestRunCycleSuccess(t *testing.T) {
	mockDS := new(MockDataSource)
	mockDS.On("FetchAllStats", mock.Anything).Return(sampleStats(1500), nil).Once()

	w, _ := newTestWatcher(mockDS, testConfig())
	sub := w.Subscribe()

	require.NoError(t, w.runCycle(context.Background()))
	mockDS.AssertExpectations(t)

	snap := w.Snapshot()
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Err)
	require.True(t, snap.HasStats())
	assert.Equal(t, 1500.0, snap.Extended.Hashrate)
	assert.False(t, snap.LastUpdate.IsZero())

	evt := waitEvent(t, sub)
	assert.Equal(t, EventStatsUpdated, evt.Type)
	data, ok := evt.Data.(models.Snapshot)
	require.True(t, ok)
	assert.Equal(t, snap.Extended, data.Extended)
}

func TestRunCycleFailureKeepsPreviousStats(t *testing.T) {
	mockDS := new(MockDataSource)
	first := sampleStats(1500)
	fetchErr := &pool.FetchError{Kind: pool.ApplicationFailure, Endpoint: "wallet", Err: errors.New("x")}
	mockDS.On("FetchAllStats", mock.Anything).Return(first, nil).Once()
	mockDS.On("FetchAllStats", mock.Anything).Return(models.PoolStats{}, fetchErr).Once()

	w, hook := newTestWatcher(mockDS, testConfig())
	sub := w.Subscribe()

	require.NoError(t, w.runCycle(context.Background()))
	waitEvent(t, sub)

	err := w.runCycle(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, pool.ErrApplication))

	snap := w.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, fetchErr.Error(), snap.Err)
	assert.Equal(t, first.Basic, snap.Basic)
	assert.Same(t, first.Extended, snap.Extended)

	evt := waitEvent(t, sub)
	assert.Equal(t, EventFetchFailed, evt.Type)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "application", entry.Data["kind"])
}

func TestRunCycleSuccessClearsError(t *testing.T) {
	mockDS := new(MockDataSource)
	mockDS.On("FetchAllStats", mock.Anything).Return(models.PoolStats{}, errors.New("boom")).Once()
	mockDS.On("FetchAllStats", mock.Anything).Return(sampleStats(42), nil).Once()

	w, _ := newTestWatcher(mockDS, testConfig())

	require.Error(t, w.runCycle(context.Background()))
	snap := w.Snapshot()
	assert.False(t, snap.Loading, "loading ends after the first cycle even on failure")
	assert.Equal(t, "boom", snap.Err)
	assert.False(t, snap.HasStats())

	require.NoError(t, w.runCycle(context.Background()))
	snap = w.Snapshot()
	assert.Empty(t, snap.Err)
	assert.True(t, snap.HasStats())
}

func TestSetDataSource(t *testing.T) {
	first := new(MockDataSource)
	second := new(MockDataSource)
	second.On("FetchAllStats", mock.Anything).Return(sampleStats(77), nil).Once()

	w, _ := newTestWatcher(first, testConfig())
	w.SetDataSource(second)

	require.NoError(t, w.runCycle(context.Background()))
	first.AssertNotCalled(t, "FetchAllStats", mock.Anything)
	second.AssertExpectations(t)
	assert.Equal(t, 77.0, w.Snapshot().Extended.Hashrate)
}

func TestRunCycleSkipsWhenInFlight(t *testing.T) {
	mockDS := new(MockDataSource)
	release := make(chan struct{})
	started := make(chan struct{})
	mockDS.On("FetchAllStats", mock.Anything).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(sampleStats(1), nil).Once()

	w, _ := newTestWatcher(mockDS, testConfig())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, w.runCycle(context.Background()))
	}()
	<-started

	assert.ErrorIs(t, w.runCycle(context.Background()), ErrCycleInFlight)

	close(release)
	wg.Wait()
	mockDS.AssertNumberOfCalls(t, "FetchAllStats", 1)
}

func TestPollingLoop(t *testing.T) {
	mockDS := new(MockDataSource)
	mockDS.On("FetchAllStats", mock.Anything).Return(sampleStats(10), nil)

	cfg := testConfig()
	w, _ := newTestWatcher(mockDS, cfg)
	w.interval = 20 * time.Millisecond
	sub := w.Subscribe()

	w.Start(context.Background())
	waitEvent(t, sub)
	waitEvent(t, sub)
	w.Stop()

	calls := len(mockDS.Calls)
	assert.GreaterOrEqual(t, calls, 2)
	snapAtStop := w.Snapshot()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, calls, len(mockDS.Calls), "no cycles after stop")
	assert.Equal(t, snapAtStop.LastUpdate, w.Snapshot().LastUpdate)
}

func TestStopDiscardsInFlightResult(t *testing.T) {
	mockDS := new(MockDataSource)
	started := make(chan struct{})
	mockDS.On("FetchAllStats", mock.Anything).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		close(started)
		<-ctx.Done()
	}).Return(sampleStats(99), nil).Once()

	w, _ := newTestWatcher(mockDS, testConfig())
	sub := w.Subscribe()

	w.Start(context.Background())
	<-started
	w.Stop()

	snap := w.Snapshot()
	assert.True(t, snap.Loading)
	assert.False(t, snap.HasStats())

	_, ok := <-sub
	assert.False(t, ok, "subscriber closed without events")
}

func TestStopIsIdempotent(t *testing.T) {
	w, _ := newTestWatcher(new(MockDataSource), testConfig())
	w.Stop()
	w.Stop()

	w.Start(context.Background())
	assert.ErrorIs(t, w.Refresh(context.Background()), ErrStopped)

	sub := w.Subscribe()
	_, ok := <-sub
	assert.False(t, ok)
}

func TestRefreshThrottled(t *testing.T) {
	mockDS := new(MockDataSource)
	mockDS.On("FetchAllStats", mock.Anything).Return(sampleStats(5), nil).Once()

	cfg := testConfig()
	cfg.RefreshCooldownSeconds = 60
	w, _ := newTestWatcher(mockDS, cfg)

	require.NoError(t, w.Refresh(context.Background()))
	assert.ErrorIs(t, w.Refresh(context.Background()), ErrRefreshThrottled)
	mockDS.AssertNumberOfCalls(t, "FetchAllStats", 1)
}

func TestRefreshUnthrottled(t *testing.T) {
	mockDS := new(MockDataSource)
	mockDS.On("FetchAllStats", mock.Anything).Return(sampleStats(5), nil).Twice()

	w, _ := newTestWatcher(mockDS, testConfig())

	require.NoError(t, w.Refresh(context.Background()))
	require.NoError(t, w.Refresh(context.Background()))
	mockDS.AssertExpectations(t)
}
