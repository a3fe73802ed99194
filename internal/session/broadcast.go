package session

import (
	"sync"
	"time"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

// Event is one display update pushed to attached clients.
type Event struct {
	Type               string          `json:"type"` // quantity, line_total, summary, warning
	VariantID          model.VariantID `json:"variant_id,omitempty"`
	Quantity           int             `json:"quantity,omitempty"`
	TotalMinorUnits    int64           `json:"total_minor_units,omitempty"`
	SubtotalMinorUnits int64           `json:"subtotal_minor_units,omitempty"`
	ItemCount          int             `json:"item_count,omitempty"`
	Code               string          `json:"code,omitempty"`
	Message            string          `json:"message,omitempty"`
}

// Warning is a transient notice kept for polling clients.
type Warning struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// ViewState is the complete current view for polling clients.
type ViewState struct {
	Quantities         map[model.VariantID]int   `json:"quantities"`
	LineTotals         map[model.VariantID]int64 `json:"line_totals"`
	SubtotalMinorUnits int64                     `json:"subtotal_minor_units"`
	ItemCount          int                       `json:"item_count"`
	Warnings           []Warning                 `json:"warnings,omitempty"`
}

const maxBufferedWarnings = 16

// Broadcaster implements view.Renderer for one session: it keeps the
// latest view state for polling clients and fans every update out to
// subscribed streams. Slow subscribers lose events rather than block
// the engine.
type Broadcaster struct {
	mu         sync.Mutex
	subs       map[chan Event]struct{}
	quantities map[model.VariantID]int
	lineTotals map[model.VariantID]int64
	subtotal   int64
	itemCount  int
	warnings   []Warning
	now        func() time.Time
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs:       make(map[chan Event]struct{}),
		quantities: make(map[model.VariantID]int),
		lineTotals: make(map[model.VariantID]int64),
		now:        time.Now,
	}
}

func (b *Broadcaster) RenderQuantity(id model.VariantID, quantity int) {
	b.mu.Lock()
	b.quantities[id] = quantity
	b.mu.Unlock()
	b.publish(Event{Type: "quantity", VariantID: id, Quantity: quantity})
}

func (b *Broadcaster) RenderLineTotal(id model.VariantID, totalMinorUnits int64) {
	b.mu.Lock()
	b.lineTotals[id] = totalMinorUnits
	b.mu.Unlock()
	b.publish(Event{Type: "line_total", VariantID: id, TotalMinorUnits: totalMinorUnits})
}

func (b *Broadcaster) RenderSummary(subtotalMinorUnits int64, itemCount int) {
	b.mu.Lock()
	b.subtotal = subtotalMinorUnits
	b.itemCount = itemCount
	b.mu.Unlock()
	b.publish(Event{Type: "summary", SubtotalMinorUnits: subtotalMinorUnits, ItemCount: itemCount})
}

func (b *Broadcaster) ShowWarning(code, message string) {
	b.mu.Lock()
	b.warnings = append(b.warnings, Warning{Code: code, Message: message, At: b.now()})
	if len(b.warnings) > maxBufferedWarnings {
		b.warnings = b.warnings[len(b.warnings)-maxBufferedWarnings:]
	}
	b.mu.Unlock()
	b.publish(Event{Type: "warning", Code: code, Message: message})
}

// Subscribe registers a stream. The returned cancel must be called when
// the stream detaches.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// State returns the current view and drains buffered warnings.
func (b *Broadcaster) State() ViewState {
	b.mu.Lock()
	defer b.mu.Unlock()
	state := ViewState{
		Quantities:         make(map[model.VariantID]int, len(b.quantities)),
		LineTotals:         make(map[model.VariantID]int64, len(b.lineTotals)),
		SubtotalMinorUnits: b.subtotal,
		ItemCount:          b.itemCount,
		Warnings:           b.warnings,
	}
	for id, q := range b.quantities {
		state.Quantities[id] = q
	}
	for id, t := range b.lineTotals {
		state.LineTotals[id] = t
	}
	b.warnings = nil
	return state
}

func (b *Broadcaster) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
