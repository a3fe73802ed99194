package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Akshay-i95/quick-order-app/internal/adapter"
	"github.com/Akshay-i95/quick-order-app/internal/model"
	"github.com/Akshay-i95/quick-order-app/internal/quantity"
	"github.com/Akshay-i95/quick-order-app/internal/view"
)

// Outcome is the terminal result of the load-time decision.
type Outcome int

const (
	// OutcomeCartWins adopts the live cart; the snapshot is overwritten if
	// it diverged.
	OutcomeCartWins Outcome = iota

	// OutcomeRestore adopts the persisted snapshot and rebuilds the cart
	// from it. Only taken on a fresh session for an authenticated customer.
	OutcomeRestore

	// OutcomeEmpty adopts the empty map with no remote writes. Covers both
	// the genuinely-empty case and an active session whose user already
	// cleared the cart: the session flag proves the emptiness is deliberate.
	OutcomeEmpty
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCartWins:
		return "cart-wins"
	case OutcomeRestore:
		return "restore"
	default:
		return "empty"
	}
}

// Decide selects the authoritative source for a page load.
//
// The live cart is the instantaneous ground truth for an active session; the
// persisted snapshot exists only to carry state across devices and must
// never override a deletion the user performed in the current session. The
// session flag is the sole signal separating those two cases. It cannot
// tell a same-device session restart from a genuine new device; that is a
// known product-level limitation, not something this code guesses around.
func Decide(cartEmpty, snapshotHasData, freshSession, authenticated bool) Outcome {
	if !cartEmpty {
		return OutcomeCartWins
	}
	if snapshotHasData && freshSession && authenticated {
		return OutcomeRestore
	}
	return OutcomeEmpty
}

// SessionState is the per-tab flag recording whether this session has
// already taken a user-driven cart action.
type SessionState interface {
	Acted() bool
	MarkActed()
}

// Result reports what a reconciliation run did.
type Result struct {
	Outcome          Outcome
	Adopted          model.QuantityMap
	RestoredLines    int
	SnapshotRepaired bool
}

// Engine runs the load-time reconciliation exactly once per session.
type Engine struct {
	cart       adapter.CartStore
	snapshots  adapter.SnapshotStore
	form       *view.FormModel
	agg        *view.Aggregator
	session    SessionState
	customerID string // empty means unauthenticated: persistence skipped
	logger     *slog.Logger

	onReady func() // releases the mutation pipeline's save gate
	ran     atomic.Bool
	now     func() time.Time
}

// Config wires an Engine.
type Config struct {
	Cart       adapter.CartStore
	Snapshots  adapter.SnapshotStore
	Form       *view.FormModel
	Aggregator *view.Aggregator
	Session    SessionState
	CustomerID string
	Logger     *slog.Logger
	OnReady    func()
}

// New creates a reconciliation engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cart:       cfg.Cart,
		snapshots:  cfg.Snapshots,
		form:       cfg.Form,
		agg:        cfg.Aggregator,
		session:    cfg.Session,
		customerID: cfg.CustomerID,
		logger:     logger,
		onReady:    cfg.OnReady,
		now:        time.Now,
	}
}

// ErrAlreadyRan is returned when Run is called twice for the same session.
var ErrAlreadyRan = errors.New("reconciliation already ran for this session")

// Run executes the load-time state machine: fetch both sources, decide the
// authoritative map, repair divergence, write the form (reset then set),
// mark the session, publish the derived view, and release the save gate.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if !e.ran.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRan
	}

	// The flag must be read before this run marks the session.
	fresh := !e.session.Acted()
	authenticated := e.customerID != ""

	cart, err := e.cart.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching cart: %w", err)
	}
	cartMap := quantity.FromCart(cart)

	snapMap := e.loadSnapshot(ctx, authenticated)

	outcome := Decide(len(cartMap) == 0, len(snapMap) > 0, fresh, authenticated)
	e.logger.Info("reconciliation decided",
		slog.String("outcome", outcome.String()),
		slog.Int("cart_lines", len(cartMap)),
		slog.Int("snapshot_lines", len(snapMap)),
		slog.Bool("fresh_session", fresh),
		slog.Bool("authenticated", authenticated),
	)

	result := &Result{Outcome: outcome}
	e.agg.AbsorbCart(cart)

	switch outcome {
	case OutcomeCartWins:
		result.Adopted = cartMap
		if authenticated && !cartMap.Equal(snapMap) {
			e.saveSnapshot(ctx, cartMap)
			result.SnapshotRepaired = true
		}

	case OutcomeRestore:
		result.Adopted, result.RestoredLines = e.restore(ctx, snapMap)

	case OutcomeEmpty:
		result.Adopted = model.QuantityMap{}
	}

	e.form.ResetTo(result.Adopted)
	e.session.MarkActed()
	e.agg.Publish(e.form.Snapshot())
	if e.onReady != nil {
		e.onReady()
	}

	return result, nil
}

// loadSnapshot fetches the persisted quantities, degrading to empty on any
// failure: the snapshot is best-effort cross-device convenience, never a
// reason to fail page load.
func (e *Engine) loadSnapshot(ctx context.Context, authenticated bool) model.QuantityMap {
	if !authenticated {
		return model.QuantityMap{}
	}

	snap, err := e.snapshots.Load(ctx, e.customerID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			e.logger.Warn("loading snapshot failed",
				slog.String("customer_id", e.customerID),
				slog.String("error", err.Error()),
			)
		}
		return model.QuantityMap{}
	}
	return snap.Quantities.Clone()
}

// restore rebuilds the cart from the snapshot, then re-fetches so the
// adopted map reflects what the store actually accepted (sold-out lines
// may have been refused).
func (e *Engine) restore(ctx context.Context, snapMap model.QuantityMap) (model.QuantityMap, int) {
	restored := 0
	for _, id := range snapMap.Variants() {
		if _, err := e.cart.AddLine(ctx, id, snapMap[id]); err != nil {
			e.logger.Warn("restoring cart line failed",
				slog.String("variant_id", string(id)),
				slog.Int("quantity", snapMap[id]),
				slog.String("error", err.Error()),
			)
			continue
		}
		restored++
	}

	refetched, err := e.cart.Fetch(ctx)
	if err != nil {
		e.logger.Warn("re-fetching cart after restore failed", slog.String("error", err.Error()))
		return snapMap.Clone(), restored
	}
	e.agg.AbsorbCart(refetched)
	return quantity.FromCart(refetched), restored
}

// saveSnapshot overwrites the persisted snapshot with the full map.
// Failures are logged only: the cart itself is already correct.
func (e *Engine) saveSnapshot(ctx context.Context, m model.QuantityMap) {
	snap := &model.PersistedSnapshot{Quantities: m.Clone(), Timestamp: e.now()}
	if err := e.snapshots.Save(ctx, e.customerID, snap); err != nil {
		e.logger.Warn("repairing snapshot failed",
			slog.String("customer_id", e.customerID),
			slog.String("error", err.Error()),
		)
	}
}
