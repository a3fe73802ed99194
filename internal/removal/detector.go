// Package removal catches line removals however they surface. Clients
// report removals through several signals (remove control, form submit,
// rendered line set changes) and any of them may be lost; a periodic
// sweep against the cart's last known lines is the fallback. Every
// signal funnels into one idempotent handler so a removal costs at most
// one cart mutation no matter how many signals report it.
package removal

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

// Remover performs the actual cart removal. Implemented by the mutation
// pipeline.
type Remover interface {
	RemoveVariant(ctx context.Context, id model.VariantID)
}

// Detector deduplicates removal signals per variant.
type Detector struct {
	remover Remover
	logger  *slog.Logger

	mu           sync.Mutex
	handled      map[model.VariantID]bool
	lastRendered map[model.VariantID]struct{}
}

// New creates a detector delegating removals to r.
func New(r Remover, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		remover:      r,
		logger:       logger,
		handled:      make(map[model.VariantID]bool),
		lastRendered: make(map[model.VariantID]struct{}),
	}
}

// OnVariantRemoved handles one removal signal. The first signal for a
// variant triggers the cart removal; every later one is a no-op until
// the variant re-enters the form. Reports whether this call performed
// the removal.
func (d *Detector) OnVariantRemoved(ctx context.Context, id model.VariantID) bool {
	d.mu.Lock()
	if d.handled[id] {
		d.mu.Unlock()
		return false
	}
	d.handled[id] = true
	d.mu.Unlock()

	d.logger.Info("line removal detected", slog.String("variant_id", string(id)))
	d.remover.RemoveVariant(ctx, id)
	return true
}

// MarkHandled records a removal the pipeline already flushed itself, so
// trailing signals for the same variant cost nothing.
func (d *Detector) MarkHandled(id model.VariantID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handled[id] = true
}

// VariantRestored clears the variant's handled flag after it re-enters
// the form, so a future removal is detected again.
func (d *Detector) VariantRestored(id model.VariantID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handled, id)
}

// ObserveLineSet ingests the client's currently rendered line set.
// Variants missing since the previous report are removal signals;
// variants that re-appeared have their handled flag cleared.
func (d *Detector) ObserveLineSet(ctx context.Context, ids []model.VariantID) {
	current := make(map[model.VariantID]struct{}, len(ids))
	for _, id := range ids {
		current[id] = struct{}{}
	}

	var gone []model.VariantID
	d.mu.Lock()
	for id := range d.lastRendered {
		if _, ok := current[id]; !ok {
			gone = append(gone, id)
		}
	}
	for id := range current {
		if _, was := d.lastRendered[id]; !was {
			delete(d.handled, id)
		}
	}
	d.lastRendered = current
	d.mu.Unlock()

	for _, id := range gone {
		d.OnVariantRemoved(ctx, id)
	}
}
