// Package session ties one storefront tab to its own sync engine: form
// model, aggregator, reconciler, mutation pipeline, and removal
// detector, all sharing a session-scoped broadcaster. The manager keeps
// the registry and reaps idle sessions.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/Akshay-i95/quick-order-app/internal/model"
	"github.com/Akshay-i95/quick-order-app/internal/pipeline"
	"github.com/Akshay-i95/quick-order-app/internal/removal"
	"github.com/Akshay-i95/quick-order-app/internal/view"
)

// Session is one storefront tab's engine instance.
type Session struct {
	ID         string
	CustomerID string
	CreatedAt  time.Time

	form        *view.FormModel
	broadcaster *Broadcaster
	pipe        *pipeline.Pipeline
	detector    *removal.Detector

	cancelWatch context.CancelFunc

	mu       sync.Mutex
	acted    bool
	lastSeen time.Time
}

// Acted reports whether this session has taken a user-driven cart action.
func (s *Session) Acted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acted
}

// MarkActed flags the session as no longer fresh.
func (s *Session) MarkActed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acted = true
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) seen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// QuantityEdited forwards one raw quantity edit into the pipeline.
func (s *Session) QuantityEdited(id model.VariantID, raw string) {
	s.pipe.QuantityEdited(id, raw)
	s.detector.VariantRestored(id)
}

// SignalRemoval handles an explicit removal signal from the client.
func (s *Session) SignalRemoval(ctx context.Context, id model.VariantID) {
	s.detector.OnVariantRemoved(ctx, id)
}

// ReportLines ingests the client's currently rendered variant set.
func (s *Session) ReportLines(ctx context.Context, ids []model.VariantID) {
	s.detector.ObserveLineSet(ctx, ids)
}

// View returns the current view state for polling clients.
func (s *Session) View() ViewState {
	return s.broadcaster.State()
}

// Subscribe attaches a stream to the session's display updates.
func (s *Session) Subscribe() (<-chan Event, func()) {
	return s.broadcaster.Subscribe()
}

func (s *Session) close() {
	if s.cancelWatch != nil {
		s.cancelWatch()
	}
	s.pipe.Close()
}
