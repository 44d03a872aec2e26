package watch

import (
	"context"
	"sync"
	"time"

	"github.com/servostack/paydesk/pkg/logger"
	"github.com/servostack/paydesk/pkg/money"
)

// DefaultPollInterval matches the cadence admin views refresh at
const DefaultPollInterval = 30 * time.Second

// Snapshot is the full state of the pending queue at one poll. Each poll
// produces a complete snapshot; snapshots are never merged.
type Snapshot struct {
	Count          int         `json:"count"`
	TransactionIDs []string    `json:"transactionIds"`
	Total          money.Paise `json:"total"`
	TakenAt        time.Time   `json:"takenAt"`
}

// Config holds watcher settings
type Config struct {
	Enabled      bool
	PollInterval time.Duration
}

// DefaultConfig returns the default watcher configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		PollInterval: DefaultPollInterval,
	}
}

// Validate normalizes the configuration
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return nil
}

// Watcher polls the pending verification queue on a fixed interval and
// publishes a full-replace snapshot after every poll.
type Watcher struct {
	config  *Config
	pending PendingLister
	store   SnapshotStore
	log     *logger.Logger

	stopCh  chan struct{}
	mu      sync.RWMutex
	running bool
}

// NewWatcher creates a new pending queue watcher
func NewWatcher(config *Config, pending PendingLister, store SnapshotStore, log *logger.Logger) *Watcher {
	if config == nil {
		config = DefaultConfig()
	}
	_ = config.Validate()

	return &Watcher{
		config:  config,
		pending: pending,
		store:   store,
		log:     log.WithField("service", "watch"),
		stopCh:  make(chan struct{}),
	}
}

// Run starts the polling loop. It polls once immediately, then on every
// tick until the context is cancelled or Stop is called.
func (w *Watcher) Run(ctx context.Context) {
	if !w.config.Enabled {
		w.log.Info("pending watcher is disabled")
		return
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("starting pending watcher", "poll_interval", w.config.PollInterval)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("pending watcher stopping (context done)")
			w.Stop()
			return
		case <-w.stopCh:
			w.log.Info("pending watcher stopping (stop signal)")
			return
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Stop stops the watcher. Safe to call more than once and concurrently
// with a context cancellation; only the first call closes the channel.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
}

// Poll fetches the pending queue once and replaces the stored snapshot.
// An empty queue still produces a snapshot so stale entries disappear.
func (w *Watcher) Poll(ctx context.Context) {
	txs, err := w.pending.ListPending(ctx)
	if err != nil {
		w.log.Error("failed to list pending transactions", "error", err)
		return
	}

	snap := &Snapshot{
		Count:          len(txs),
		TransactionIDs: make([]string, 0, len(txs)),
		TakenAt:        time.Now(),
	}
	for _, tx := range txs {
		snap.TransactionIDs = append(snap.TransactionIDs, tx.TransactionID)
		snap.Total += tx.Amount
	}

	if err := w.store.Replace(ctx, snap); err != nil {
		w.log.Error("failed to store pending snapshot", "error", err)
		return
	}

	w.log.Debug("pending snapshot stored", "count", snap.Count, "total", snap.Total.String())
}
