package watcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"rplantdash/pkg/config"
	"rplantdash/pkg/models"
	"rplantdash/pkg/pool"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultPollInterval applies when the configured interval is not positive.
const DefaultPollInterval = 60 * time.Second

var (
	ErrStopped          = errors.New("watcher stopped")
	ErrCycleInFlight    = errors.New("poll cycle already in flight")
	ErrRefreshThrottled = errors.New("refresh throttled, try again shortly")
)

// DataSource defines the interface for fetching data.
type DataSource interface {
	FetchAllStats(ctx context.Context) (models.PoolStats, error)
}

// Watcher polls the pool and owns the dashboard snapshot.
type Watcher struct {
	source   DataSource
	interval time.Duration
	limiter  *rate.Limiter
	logger   *logrus.Logger

	snapshot    models.Snapshot
	subscribers []Subscriber
	stopped     bool
	cancel      context.CancelFunc
	done        chan struct{}
	mu          sync.RWMutex

	inFlight atomic.Bool
	stopOnce sync.Once
}

// NewWatcher creates a new Watcher instance.
func NewWatcher(source DataSource, cfg config.Config, logger *logrus.Logger) *Watcher {
	limit := rate.Inf
	if cooldown := cfg.RefreshCooldown(); cooldown > 0 {
		limit = rate.Every(cooldown)
	}
	interval := cfg.PollInterval()
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{
		source:   source,
		interval: interval,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
		snapshot: models.Snapshot{Loading: true},
	}
}

// SetDataSource allows overriding the data source (useful for testing).
func (w *Watcher) SetDataSource(ds DataSource) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.source = ds
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (w *Watcher) Subscribe() Subscriber {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch := make(Subscriber, 100)
	if w.stopped {
		close(ch)
		return ch
	}
	w.subscribers = append(w.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber.
func (w *Watcher) Unsubscribe(ch Subscriber) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, sub := range w.subscribers {
		if sub == ch {
			w.subscribers = append(w.subscribers[:i], w.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (w *Watcher) notify(event Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}
	for _, sub := range w.subscribers {
		select {
		case sub <- event:
		default:
			w.logger.WithField("event", event.Type).Warn("Subscriber is full, dropping event")
		}
	}
}

// Start begins the polling loop. The first cycle runs immediately.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.stopped || w.cancel != nil {
		w.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	go w.pollingLoop(ctx, done)
}

// Stop cancels the polling loop and waits for it to exit. Results of cycles
// still in flight are discarded and all subscribers are closed.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		cancel, done := w.cancel, w.done
		for _, sub := range w.subscribers {
			close(sub)
		}
		w.subscribers = nil
		w.mu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		}
		w.logger.Debug("Watcher stopped")
	})
}

func (w *Watcher) pollingLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	_ = w.runCycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = w.runCycle(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Refresh runs an out-of-band cycle, at most once per refresh cooldown.
func (w *Watcher) Refresh(ctx context.Context) error {
	w.mu.RLock()
	stopped := w.stopped
	w.mu.RUnlock()
	if stopped {
		return ErrStopped
	}
	if !w.limiter.Allow() {
		return ErrRefreshThrottled
	}
	return w.runCycle(ctx)
}

func (w *Watcher) runCycle(ctx context.Context) error {
	if !w.inFlight.CompareAndSwap(false, true) {
		w.logger.Debug("Skipping poll cycle, previous cycle still in flight")
		return ErrCycleInFlight
	}
	defer w.inFlight.Store(false)

	w.mu.RLock()
	source := w.source
	w.mu.RUnlock()

	stats, err := source.FetchAllStats(ctx)
	if !w.apply(stats, err) {
		return ErrStopped
	}
	return err
}

// apply is the only writer of the snapshot. It reports false when the
// watcher has been stopped and the result was dropped.
func (w *Watcher) apply(stats models.PoolStats, err error) bool {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		w.logger.Debug("Discarding poll result after stop")
		return false
	}
	w.snapshot.Loading = false
	w.snapshot.LastUpdate = time.Now()
	eventType := EventStatsUpdated
	if err != nil {
		w.snapshot.Err = err.Error()
		eventType = EventFetchFailed
	} else {
		w.snapshot.Basic = stats.Basic
		w.snapshot.Extended = stats.Extended
		w.snapshot.Err = ""
	}
	snap := w.snapshot
	w.mu.Unlock()

	if err != nil {
		entry := w.logger.WithError(err)
		if kind, ok := pool.KindOf(err); ok {
			entry = entry.WithField("kind", kind.String())
		}
		entry.Error("Failed to fetch mining stats")
	} else if stats.Extended != nil {
		w.logger.WithFields(logrus.Fields{
			"hashrate": stats.Extended.Hashrate,
			"miners":   len(stats.Extended.Miners),
		}).Info("Mining stats updated")
	}

	w.notify(Event{Type: eventType, Data: snap})
	return true
}

// Snapshot returns a copy of the current dashboard state.
func (w *Watcher) Snapshot() models.Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot
}
