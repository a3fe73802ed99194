// Package pipeline turns quantity edits into cart mutations. Edits are
// clamped against stock, rendered optimistically, debounced per variant,
// and flushed to the platform; every mutation response is adopted as the
// new cart truth. Mutations never start before the load-time
// reconciliation has released the ready gate.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Akshay-i95/quick-order-app/internal/adapter"
	"github.com/Akshay-i95/quick-order-app/internal/model"
	"github.com/Akshay-i95/quick-order-app/internal/quantity"
	"github.com/Akshay-i95/quick-order-app/internal/reconcile"
	"github.com/Akshay-i95/quick-order-app/internal/stock"
	"github.com/Akshay-i95/quick-order-app/internal/view"
)

const (
	// DefaultDebounceWindow is how long an edited quantity may keep
	// changing before it is flushed to the cart.
	DefaultDebounceWindow = 80 * time.Millisecond

	maxRefetchAttempts = 4
)

// Pipeline owns the write path from form edits to the remote cart and the
// persisted snapshot. One instance per session.
type Pipeline struct {
	cart       adapter.CartStore
	snapshots  adapter.SnapshotStore
	form       *view.FormModel
	agg        *view.Aggregator
	session    reconcile.SessionState
	renderer   view.Renderer
	customerID string
	logger     *slog.Logger

	debounce *debouncer

	initDone  chan struct{}
	readyOnce sync.Once

	stockMu sync.Mutex
	stocks  map[model.VariantID]model.StockInfo

	// serializes the mutate-adopt pair so a slow mutation response can
	// never overwrite the lines a later response established
	mutMu sync.Mutex

	cartMu   sync.Mutex
	lastCart model.QuantityMap

	saveMu      sync.Mutex
	saving      bool
	hasPending  bool
	pendingSave model.QuantityMap // latest full map queued behind an in-flight save

	// set while an authoritative reload is rewriting the form; flushes
	// and edits observed during the reload are dropped, the reload's
	// reset supersedes them
	loading atomic.Bool

	// notified after a flush removes a line from the cart, so the
	// removal detector marks the variant as already handled
	onRemoved func(model.VariantID)
}

// Config wires a Pipeline.
type Config struct {
	Cart       adapter.CartStore
	Snapshots  adapter.SnapshotStore
	Form       *view.FormModel
	Aggregator *view.Aggregator
	Session    reconcile.SessionState
	Renderer   view.Renderer
	CustomerID string
	Logger     *slog.Logger

	// DebounceWindow defaults to DefaultDebounceWindow when zero.
	DebounceWindow time.Duration

	OnRemoved func(model.VariantID)
}

// New creates a mutation pipeline. Mutations stay gated until Ready is
// called.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = view.NopRenderer{}
	}
	window := cfg.DebounceWindow
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Pipeline{
		cart:       cfg.Cart,
		snapshots:  cfg.Snapshots,
		form:       cfg.Form,
		agg:        cfg.Aggregator,
		session:    cfg.Session,
		renderer:   renderer,
		customerID: cfg.CustomerID,
		logger:     logger,
		debounce:   newDebouncer(window),
		initDone:   make(chan struct{}),
		stocks:     make(map[model.VariantID]model.StockInfo),
		lastCart:   model.QuantityMap{},
		onRemoved:  cfg.OnRemoved,
	}
}

// Ready releases the mutation gate. Called once by the reconciliation
// engine after it has adopted an authoritative quantity map; calling it
// again is a no-op.
func (p *Pipeline) Ready() {
	p.readyOnce.Do(func() { close(p.initDone) })
}

// SetStock records a variant's stock metadata for clamping. Variants
// without an entry are treated as untracked and purchasable.
func (p *Pipeline) SetStock(id model.VariantID, info model.StockInfo) {
	p.stockMu.Lock()
	defer p.stockMu.Unlock()
	p.stocks[id] = info
}

// SeedCart records which variants the cart currently holds. Called after
// reconciliation so the first flush per variant picks add vs update
// correctly.
func (p *Pipeline) SeedCart(m model.QuantityMap) {
	p.cartMu.Lock()
	defer p.cartMu.Unlock()
	p.lastCart = m.Clone()
}

// CartLines returns the variants in the cart as of the last mutation or
// seed, with their quantities.
func (p *Pipeline) CartLines() model.QuantityMap {
	p.cartMu.Lock()
	defer p.cartMu.Unlock()
	return p.lastCart.Clone()
}

// Close cancels all pending debounce timers. In-flight flushes finish on
// their own.
func (p *Pipeline) Close() {
	p.debounce.stopAll()
}

// QuantityEdited handles one raw edit to a variant's quantity input:
// parse, clamp against stock, render the clamped value and its optimistic
// line total, then arm the debounce timer for the network flush.
func (p *Pipeline) QuantityEdited(id model.VariantID, raw string) {
	if p.loading.Load() {
		return
	}

	requested := quantity.Parse(raw)
	res := stock.Validate(requested, p.stockFor(id))
	if res.Rejected {
		p.renderer.ShowWarning("quantity_adjusted", res.Reason)
	}

	// Clamp lands in the form before any total is recomputed.
	p.form.Set(id, res.Admitted)
	p.agg.PublishLine(id, res.Admitted)

	p.debounce.schedule(id, func() {
		p.flush(context.Background(), id, true)
	})
}

// RemoveVariant zeroes a variant and flushes the removal immediately,
// bypassing the debounce window. Used by the removal detector; the
// removal hook is not re-invoked for this path.
func (p *Pipeline) RemoveVariant(ctx context.Context, id model.VariantID) {
	p.debounce.cancel(id)
	p.form.Set(id, 0)
	p.agg.PublishLine(id, 0)
	p.flush(ctx, id, false)
}

// flush pushes the variant's current form quantity to the cart. It waits
// for the ready gate, picks add vs update from the last known cart lines,
// and on success adopts the response, persists the snapshot, and marks
// the session.
func (p *Pipeline) flush(ctx context.Context, id model.VariantID, notifyRemoval bool) {
	select {
	case <-p.initDone:
	case <-ctx.Done():
		return
	}

	p.mutMu.Lock()
	if p.loading.Load() {
		p.mutMu.Unlock()
		return
	}

	desired := p.form.Get(id)
	inCart := p.cartHas(id)

	var (
		cart *model.CartSnapshot
		err  error
	)
	switch {
	case inCart:
		cart, err = p.cart.UpdateLine(ctx, id, desired)
	case desired > 0:
		cart, err = p.cart.AddLine(ctx, id, desired)
	default:
		// zero quantity for a line the cart never had
		p.mutMu.Unlock()
		return
	}
	if err != nil {
		p.mutMu.Unlock()
		p.mutationFailed(ctx, id, err)
		return
	}

	if notifyRemoval && inCart && desired == 0 && p.onRemoved != nil {
		p.onRemoved(id)
	}

	p.adopt(cart)
	p.mutMu.Unlock()

	p.session.MarkActed()
	p.persist(ctx, p.form.Snapshot())
}

// adopt takes a mutation response as the new cart truth: remembers its
// lines, absorbs its prices, and republishes totals from the form.
func (p *Pipeline) adopt(cart *model.CartSnapshot) {
	m := quantity.FromCart(cart)
	p.cartMu.Lock()
	p.lastCart = m
	p.cartMu.Unlock()

	p.agg.AbsorbCart(cart)
	p.agg.Publish(p.form.Snapshot())
}

// mutationFailed warns the user and falls back to the cart as ground
// truth: refetch with backoff and reset the form to whatever the cart
// actually holds.
func (p *Pipeline) mutationFailed(ctx context.Context, id model.VariantID, err error) {
	p.logger.Warn("cart mutation failed",
		slog.String("variant_id", string(id)),
		slog.String("error", err.Error()),
	)
	p.renderer.ShowWarning("cart_update_failed", "couldn't update your cart, reloading it")

	if !p.loading.CompareAndSwap(false, true) {
		return
	}
	defer p.loading.Store(false)

	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.InitialInterval = 200 * time.Millisecond
	backoffCfg.MaxInterval = 2 * time.Second

	for attempt := 1; attempt <= maxRefetchAttempts; attempt++ {
		cart, fetchErr := p.cart.Fetch(ctx)
		if fetchErr == nil {
			m := quantity.FromCart(cart)
			p.cartMu.Lock()
			p.lastCart = m
			p.cartMu.Unlock()

			p.form.ResetTo(m)
			p.agg.AbsorbCart(cart)
			p.agg.Publish(m)
			return
		}

		p.logger.Warn("authoritative cart refetch failed",
			slog.Int("attempt", attempt),
			slog.String("error", fetchErr.Error()),
		)
		sleep := backoffCfg.NextBackOff()
		if sleep == backoff.Stop {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}

	p.logger.Error("cart state could not be recovered after failed mutation",
		slog.String("variant_id", string(id)),
	)
}

// persist writes the full quantity map to the snapshot store. While a
// save is in flight, at most one newer map waits behind it; intermediate
// maps are dropped since each save overwrites the whole document.
func (p *Pipeline) persist(ctx context.Context, m model.QuantityMap) {
	if p.customerID == "" {
		return
	}

	p.saveMu.Lock()
	if p.saving {
		p.pendingSave = m
		p.hasPending = true
		p.saveMu.Unlock()
		return
	}
	p.saving = true
	p.saveMu.Unlock()

	for {
		snap := &model.PersistedSnapshot{Quantities: m, Timestamp: time.Now()}
		if err := p.snapshots.Save(ctx, p.customerID, snap); err != nil {
			p.logger.Warn("saving quantity snapshot failed",
				slog.String("error", err.Error()),
			)
		}

		p.saveMu.Lock()
		if !p.hasPending {
			p.saving = false
			p.saveMu.Unlock()
			return
		}
		m = p.pendingSave
		p.pendingSave = nil
		p.hasPending = false
		p.saveMu.Unlock()
	}
}

func (p *Pipeline) stockFor(id model.VariantID) model.StockInfo {
	p.stockMu.Lock()
	defer p.stockMu.Unlock()
	if info, ok := p.stocks[id]; ok {
		return info
	}
	return model.StockInfo{IsPurchasable: true}
}

func (p *Pipeline) cartHas(id model.VariantID) bool {
	p.cartMu.Lock()
	defer p.cartMu.Unlock()
	_, ok := p.lastCart[id]
	return ok
}
