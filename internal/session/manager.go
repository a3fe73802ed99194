package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Akshay-i95/quick-order-app/internal/adapter"
	"github.com/Akshay-i95/quick-order-app/internal/model"
	"github.com/Akshay-i95/quick-order-app/internal/pipeline"
	"github.com/Akshay-i95/quick-order-app/internal/reconcile"
	"github.com/Akshay-i95/quick-order-app/internal/removal"
	"github.com/Akshay-i95/quick-order-app/internal/view"
)

const (
	// DefaultIdleTTL is how long a session may go untouched before the
	// sweep reaps it.
	DefaultIdleTTL = 30 * time.Minute

	sweepEvery = time.Minute
)

// Manager owns the session registry.
type Manager struct {
	cart      adapter.CartStore
	snapshots adapter.SnapshotStore
	logger    *slog.Logger

	debounceWindow time.Duration
	sweepInterval  time.Duration
	idleTTL        time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// ManagerConfig wires a Manager.
type ManagerConfig struct {
	Cart      adapter.CartStore
	Snapshots adapter.SnapshotStore
	Logger    *slog.Logger

	// DebounceWindow for each session's pipeline; zero uses the
	// pipeline default.
	DebounceWindow time.Duration

	// SweepInterval for each session's removal watcher; zero uses the
	// watcher default.
	SweepInterval time.Duration

	// IdleTTL before an untouched session is reaped; zero uses
	// DefaultIdleTTL.
	IdleTTL time.Duration
}

// NewManager creates an empty session registry.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	idleTTL := cfg.IdleTTL
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Manager{
		cart:           cfg.Cart,
		snapshots:      cfg.Snapshots,
		logger:         logger,
		debounceWindow: cfg.DebounceWindow,
		sweepInterval:  cfg.SweepInterval,
		idleTTL:        idleTTL,
		sessions:       make(map[string]*Session),
		now:            time.Now,
	}
}

// OpenParams describes a new session.
type OpenParams struct {
	// CustomerID is empty for anonymous visitors.
	CustomerID string

	// Fresh is the client-reported session flag: true on the first page
	// load of a browser tab.
	Fresh bool

	// Variants are the variant IDs rendered on the quick-order page.
	Variants []model.VariantID

	// Stock carries per-variant stock metadata read from the page.
	Stock map[model.VariantID]model.StockInfo
}

// Open builds a session's engine, runs the load-time reconciliation, and
// registers the session. The returned view state reflects the adopted
// quantities.
func (m *Manager) Open(ctx context.Context, params OpenParams) (*Session, *reconcile.Result, error) {
	now := m.now()
	sess := &Session{
		ID:          uuid.NewString(),
		CustomerID:  params.CustomerID,
		CreatedAt:   now,
		broadcaster: NewBroadcaster(),
		acted:       !params.Fresh,
		lastSeen:    now,
	}

	sess.form = view.NewFormModel(sess.broadcaster)
	sess.form.Register(params.Variants...)
	agg := view.NewAggregator(sess.broadcaster)

	logger := m.logger.With(slog.String("session_id", sess.ID))

	// The pipeline's removal hook points at the detector, which in turn
	// delegates removals back to the pipeline. The hook only fires after
	// a flush, well past this wiring.
	var detector *removal.Detector
	sess.pipe = pipeline.New(pipeline.Config{
		Cart:           m.cart,
		Snapshots:      m.snapshots,
		Form:           sess.form,
		Aggregator:     agg,
		Session:        sess,
		Renderer:       sess.broadcaster,
		CustomerID:     params.CustomerID,
		Logger:         logger,
		DebounceWindow: m.debounceWindow,
		OnRemoved: func(id model.VariantID) {
			detector.MarkHandled(id)
		},
	})
	detector = removal.New(sess.pipe, logger)
	sess.detector = detector

	for id, info := range params.Stock {
		sess.pipe.SetStock(id, info)
	}

	engine := reconcile.New(reconcile.Config{
		Cart:       m.cart,
		Snapshots:  m.snapshots,
		Form:       sess.form,
		Aggregator: agg,
		Session:    sess,
		CustomerID: params.CustomerID,
		Logger:     logger,
		OnReady:    sess.pipe.Ready,
	})
	result, err := engine.Run(ctx)
	if err != nil {
		sess.pipe.Close()
		return nil, nil, err
	}
	sess.pipe.SeedCart(result.Adopted)

	watchCtx, cancel := context.WithCancel(context.Background())
	sess.cancelWatch = cancel
	watcher := removal.NewWatcher(detector, sess.pipe.CartLines, sess.form.Snapshot, m.sweepInterval, logger)
	go watcher.Run(watchCtx)

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	logger.Info("session opened",
		slog.String("outcome", result.Outcome.String()),
		slog.Bool("fresh", params.Fresh),
		slog.Bool("authenticated", params.CustomerID != ""),
	)
	return sess, result, nil
}

// Get returns a registered session and refreshes its idle clock.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, model.NewNotFoundError("session")
	}
	sess.touch(m.now())
	return sess, nil
}

// Close tears a session down and removes it from the registry.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return model.NewNotFoundError("session")
	}
	sess.close()
	return nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep reaps sessions idle longer than the TTL and reports how many.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	var expired []*Session
	for id, sess := range m.sessions {
		if sess.seen().Before(cutoff) {
			expired = append(expired, sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, sess := range expired {
		sess.close()
		m.logger.Info("idle session reaped", slog.String("session_id", sess.ID))
	}
	return len(expired)
}

// Run sweeps idle sessions until the context ends.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
