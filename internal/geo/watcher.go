package geo

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/roadassist/client/internal/model"
)

// movementThresholdDeg is the minimum change on either axis before the
// watcher emits a new fix. Roughly eleven meters at the equator; jitter
// below it is noise, not movement.
const movementThresholdDeg = 0.0001

// PositionProvider yields the device's current position.
type PositionProvider interface {
	Current(ctx context.Context) (model.Position, error)
}

// Watcher samples a PositionProvider on an interval and emits a fix
// whenever the device has actually moved. The first successful fix is
// always emitted.
type Watcher struct {
	provider PositionProvider
	interval time.Duration
	logger   *slog.Logger

	fixes chan model.Position
}

// NewWatcher creates a watcher sampling provider every interval.
func NewWatcher(provider PositionProvider, interval time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		provider: provider,
		interval: interval,
		logger:   logger,
		fixes:    make(chan model.Position, 4),
	}
}

// Fixes is the stream of emitted positions. It is closed when Run
// returns, so receivers unblock on shutdown.
func (w *Watcher) Fixes() <-chan model.Position {
	return w.fixes
}

// Run samples until ctx is cancelled. Provider errors are logged and
// skipped; the next tick tries again.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.fixes)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var last model.Position
	haveFix := false

	sample := func() {
		pos, err := w.provider.Current(ctx)
		if err != nil {
			w.logger.Debug("position sample failed", "error", err)
			return
		}
		if haveFix && !moved(last, pos) {
			return
		}
		last = pos
		haveFix = true
		select {
		case w.fixes <- pos:
		default:
		}
	}

	sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample()
		}
	}
}

// moved reports whether the change between two fixes exceeds the
// movement threshold on either axis.
func moved(from, to model.Position) bool {
	return math.Abs(to.Latitude-from.Latitude) > movementThresholdDeg ||
		math.Abs(to.Longitude-from.Longitude) > movementThresholdDeg
}
