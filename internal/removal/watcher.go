package removal

import (
	"context"
	"log/slog"
	"time"

	"github.com/Akshay-i95/quick-order-app/internal/model"
	"github.com/Akshay-i95/quick-order-app/internal/reconcile"
)

// DefaultSweepInterval is how often the fallback sweep diffs the cart
// against the form.
const DefaultSweepInterval = 1500 * time.Millisecond

// Watcher is the fallback for lost removal signals: on a fixed interval
// it diffs the cart's last known lines against the form, and any line
// the cart still holds but the form no longer does goes through the
// detector like an ordinary signal.
type Watcher struct {
	detector  *Detector
	cartLines func() model.QuantityMap
	form      func() model.QuantityMap
	interval  time.Duration
	logger    *slog.Logger
}

// NewWatcher creates a sweep watcher. cartLines and form supply the two
// sides of the diff; an interval of zero uses DefaultSweepInterval.
func NewWatcher(d *Detector, cartLines, form func() model.QuantityMap, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		detector:  d,
		cartLines: cartLines,
		form:      form,
		interval:  interval,
		logger:    logger,
	}
}

// Run sweeps until the context ends.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep performs one diff pass.
func (w *Watcher) Sweep(ctx context.Context) {
	diff := reconcile.DiffQuantities(w.cartLines(), w.form())
	for _, id := range diff.ToRemove {
		if w.detector.OnVariantRemoved(ctx, id) {
			w.logger.Info("sweep caught unreported removal",
				slog.String("variant_id", string(id)),
			)
		}
	}
}
