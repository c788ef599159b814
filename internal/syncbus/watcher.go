package syncbus

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RevisionSource exposes per-record revisions of a shared store.
type RevisionSource interface {
	Revisions(ctx context.Context) (map[string]int64, error)
}

// Watcher polls a shared store's record revisions and republishes external
// changes on the bus. It is the Go analog of the browser's cross-tab
// "storage" event: another process writing the same database file bumps a
// record's revision, and subscribers here are told to re-read.
//
// The watcher only notifies. It never merges concurrent writes; the store
// protocol stays last-writer-wins. Writes made by this process also bump
// revisions, so subscribers may occasionally be told to re-read state they
// already have. Re-reads are idempotent, so no origin tracking is done.
type Watcher struct {
	src      RevisionSource
	bus      *Bus
	interval time.Duration
	lg       *zap.Logger
	ready    chan struct{}
}

// NewWatcher creates a Watcher polling src every interval. Run must be called
// exactly once.
func NewWatcher(src RevisionSource, bus *Bus, interval time.Duration, lg *zap.Logger) *Watcher {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Watcher{
		src:      src,
		bus:      bus,
		interval: interval,
		lg:       lg,
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the baseline is established. Writes made after Ready
// closes are guaranteed to be detected rather than absorbed into the baseline.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run polls until ctx is cancelled. The first read establishes a baseline
// without publishing, so changes made by this process before the watcher
// started are not replayed.
func (w *Watcher) Run(ctx context.Context) error {
	last, err := w.src.Revisions(ctx)
	if err != nil {
		w.lg.Warn("baseline revision read failed", zap.Error(err))
		last = map[string]int64{}
	}
	close(w.ready)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			last = w.poll(ctx, last)
		}
	}
}

func (w *Watcher) poll(ctx context.Context, last map[string]int64) map[string]int64 {
	current, err := w.src.Revisions(ctx)
	if err != nil {
		w.lg.Warn("revision read failed", zap.Error(err))
		return last
	}

	for key, rev := range current {
		if rev != last[key] {
			w.lg.Debug("record changed externally",
				zap.String("key", key), zap.Int64("rev", rev))
			w.bus.Publish(ctx, TopicStorageChanged, key)
		}
	}
	return current
}
