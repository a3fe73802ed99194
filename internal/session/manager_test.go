package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Akshay-i95/quick-order-app/internal/adapter"
	"github.com/Akshay-i95/quick-order-app/internal/model"
	"github.com/Akshay-i95/quick-order-app/internal/reconcile"
)

func testManager(t *testing.T, cartLines map[model.VariantID]int, snapshot *model.PersistedSnapshot) (*Manager, *mutationLog) {
	t.Helper()
	log := &mutationLog{lines: cartLines}
	if log.lines == nil {
		log.lines = map[model.VariantID]int{}
	}

	cart := &adapter.MockCartStore{
		FetchFunc:      log.fetch,
		UpdateLineFunc: log.update,
		AddLineFunc:    log.add,
	}
	snapshots := &adapter.MockSnapshotStore{
		LoadFunc: func(ctx context.Context, customerID string) (*model.PersistedSnapshot, error) {
			if snapshot == nil {
				return nil, model.NewNotFoundError("snapshot")
			}
			return snapshot, nil
		},
		SaveFunc: func(ctx context.Context, customerID string, snap *model.PersistedSnapshot) error {
			log.mu.Lock()
			defer log.mu.Unlock()
			log.saved = snap
			return nil
		},
	}

	return NewManager(ManagerConfig{
		Cart:           cart,
		Snapshots:      snapshots,
		DebounceWindow: 10 * time.Millisecond,
		SweepInterval:  time.Hour, // keep the watcher quiet in tests
	}), log
}

type mutationLog struct {
	mu      sync.Mutex
	lines   map[model.VariantID]int
	updates int
	saved   *model.PersistedSnapshot
}

func (l *mutationLog) snapshot() *model.CartSnapshot {
	cart := &model.CartSnapshot{}
	for id, q := range l.lines {
		if q <= 0 {
			continue
		}
		cart.Items = append(cart.Items, model.CartLine{
			VariantID:           id,
			Quantity:            q,
			UnitPriceMinorUnits: 250,
			LinePriceMinorUnits: int64(q) * 250,
		})
		cart.ItemCount += q
	}
	return cart
}

func (l *mutationLog) fetch(ctx context.Context) (*model.CartSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot(), nil
}

func (l *mutationLog) update(ctx context.Context, id model.VariantID, q int) (*model.CartSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates++
	if q <= 0 {
		delete(l.lines, id)
	} else {
		l.lines[id] = q
	}
	return l.snapshot(), nil
}

func (l *mutationLog) add(ctx context.Context, id model.VariantID, q int) (*model.CartSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines[id] += q
	return l.snapshot(), nil
}

func (l *mutationLog) updateCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.updates
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestOpen_CartWinsSeedsView(t *testing.T) {
	m, _ := testManager(t, map[model.VariantID]int{"v1": 2}, nil)

	sess, result, err := m.Open(context.Background(), OpenParams{Fresh: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close(sess.ID)

	if result.Outcome != reconcile.OutcomeCartWins {
		t.Errorf("outcome = %v, want cart-wins", result.Outcome)
	}
	state := sess.View()
	if state.Quantities["v1"] != 2 {
		t.Errorf("view quantity = %d, want 2", state.Quantities["v1"])
	}
	if state.SubtotalMinorUnits != 500 {
		t.Errorf("view subtotal = %d, want 500", state.SubtotalMinorUnits)
	}
	if state.ItemCount != 2 {
		t.Errorf("view item count = %d, want 2", state.ItemCount)
	}
}

func TestOpen_RestoreForFreshAuthenticatedSession(t *testing.T) {
	m, log := testManager(t, nil, &model.PersistedSnapshot{
		Quantities: model.QuantityMap{"v1": 3},
	})

	sess, result, err := m.Open(context.Background(), OpenParams{
		CustomerID: "cust-1",
		Fresh:      true,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close(sess.ID)

	if result.Outcome != reconcile.OutcomeRestore {
		t.Errorf("outcome = %v, want restore", result.Outcome)
	}
	log.mu.Lock()
	restored := log.lines["v1"]
	log.mu.Unlock()
	if restored != 3 {
		t.Errorf("cart line after restore = %d, want 3", restored)
	}
	if got := sess.View().Quantities["v1"]; got != 3 {
		t.Errorf("view quantity = %d, want 3", got)
	}
}

func TestOpen_ActiveSessionDoesNotRestore(t *testing.T) {
	m, log := testManager(t, nil, &model.PersistedSnapshot{
		Quantities: model.QuantityMap{"v1": 3},
	})

	sess, result, err := m.Open(context.Background(), OpenParams{
		CustomerID: "cust-1",
		Fresh:      false,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close(sess.ID)

	if result.Outcome != reconcile.OutcomeEmpty {
		t.Errorf("outcome = %v, want empty", result.Outcome)
	}
	log.mu.Lock()
	lines := len(log.lines)
	log.mu.Unlock()
	if lines != 0 {
		t.Errorf("cart lines = %d, want 0", lines)
	}
}

func TestSession_EditFlowsToCartAndSnapshot(t *testing.T) {
	m, log := testManager(t, map[model.VariantID]int{"v1": 1}, nil)

	sess, _, err := m.Open(context.Background(), OpenParams{
		CustomerID: "cust-1",
		Fresh:      true,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close(sess.ID)

	sess.QuantityEdited("v1", "4")

	waitFor(t, "cart update", func() bool {
		log.mu.Lock()
		defer log.mu.Unlock()
		return log.lines["v1"] == 4
	})
	waitFor(t, "snapshot save", func() bool {
		log.mu.Lock()
		defer log.mu.Unlock()
		return log.saved != nil && log.saved.Quantities.Equal(model.QuantityMap{"v1": 4})
	})
	waitFor(t, "view update", func() bool {
		return sess.View().Quantities["v1"] == 4
	})
}

func TestSession_RemovalSignalIsDeduplicated(t *testing.T) {
	m, log := testManager(t, map[model.VariantID]int{"v1": 2}, nil)

	sess, _, err := m.Open(context.Background(), OpenParams{Fresh: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close(sess.ID)

	ctx := context.Background()
	sess.SignalRemoval(ctx, "v1")
	sess.SignalRemoval(ctx, "v1")
	sess.ReportLines(ctx, nil)

	if got := log.updateCount(); got != 1 {
		t.Errorf("cart updates = %d, want 1 for repeated removal signals", got)
	}
	if got := sess.View().Quantities["v1"]; got != 0 {
		t.Errorf("view quantity = %d, want 0", got)
	}
}

func TestSession_StreamReceivesUpdates(t *testing.T) {
	m, _ := testManager(t, map[model.VariantID]int{"v1": 1}, nil)

	sess, _, err := m.Open(context.Background(), OpenParams{Fresh: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close(sess.ID)

	events, cancel := sess.Subscribe()
	defer cancel()

	sess.QuantityEdited("v1", "3")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Type == "quantity" && e.VariantID == "v1" && e.Quantity == 3 {
				return
			}
		case <-deadline:
			t.Fatal("no quantity event observed on the stream")
		}
	}
}

func TestSweep_ReapsIdleSessions(t *testing.T) {
	m, _ := testManager(t, nil, nil)
	m.idleTTL = 10 * time.Minute

	sess, _, err := m.Open(context.Background(), OpenParams{Fresh: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if n := m.Sweep(); n != 0 {
		t.Fatalf("sweep reaped %d fresh sessions", n)
	}

	m.now = func() time.Time { return time.Now().Add(time.Hour) }
	if n := m.Sweep(); n != 1 {
		t.Fatalf("sweep reaped %d sessions, want 1", n)
	}
	if _, err := m.Get(sess.ID); err == nil {
		t.Error("reaped session still retrievable")
	}
	if m.Len() != 0 {
		t.Errorf("live sessions = %d, want 0", m.Len())
	}
}

func TestClose_UnknownSession(t *testing.T) {
	m, _ := testManager(t, nil, nil)
	if err := m.Close("nope"); err == nil {
		t.Error("closing unknown session should fail")
	}
}
