package view

import (
	"sync"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

// View is the derived read model: per-line totals, order subtotal, and the
// cart badge count. Always computed over the full quantity map, never a
// paginated subset, so filtering in the surrounding UI cannot undercount.
type View struct {
	LineTotals         map[model.VariantID]int64 `json:"line_totals"`
	SubtotalMinorUnits int64                     `json:"subtotal_minor_units"`
	ItemCount          int                       `json:"item_count"`
}

// Equal reports whether two views are identical.
func (v View) Equal(other View) bool {
	if v.SubtotalMinorUnits != other.SubtotalMinorUnits || v.ItemCount != other.ItemCount {
		return false
	}
	if len(v.LineTotals) != len(other.LineTotals) {
		return false
	}
	for id, total := range v.LineTotals {
		if other.LineTotals[id] != total {
			return false
		}
	}
	return true
}

// Recompute derives the view from a quantity map and per-variant unit prices.
// Pure: same inputs always produce an identical View. Variants without a
// known price contribute to the item count but not to money totals.
func Recompute(quantities model.QuantityMap, prices model.PriceMap) View {
	v := View{LineTotals: make(map[model.VariantID]int64, len(quantities))}
	for id, q := range quantities {
		if q <= 0 {
			continue
		}
		line := prices[id] * int64(q)
		v.LineTotals[id] = line
		v.SubtotalMinorUnits += line
		v.ItemCount += q
	}
	return v
}

// Aggregator keeps the published view in sync with the live quantity map.
// Publishing the same inputs twice is a no-op: unchanged views trigger no
// renderer calls, so repeat publishes cannot retrigger UI side effects.
type Aggregator struct {
	mu       sync.Mutex
	prices   model.PriceMap
	last     View
	started  bool
	renderer Renderer
}

// NewAggregator creates an aggregator rendering through r.
// A nil renderer is replaced with NopRenderer.
func NewAggregator(r Renderer) *Aggregator {
	if r == nil {
		r = NopRenderer{}
	}
	return &Aggregator{
		prices:   model.PriceMap{},
		renderer: r,
	}
}

// SetPrice records one variant's unit price.
func (a *Aggregator) SetPrice(id model.VariantID, unitPriceMinorUnits int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.prices[id] = unitPriceMinorUnits
}

// MergePrices records unit prices for many variants at once.
func (a *Aggregator) MergePrices(prices model.PriceMap) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, p := range prices {
		a.prices[id] = p
	}
}

// AbsorbCart records unit prices carried on cart lines. Cart responses are
// the freshest price source the engine sees.
func (a *Aggregator) AbsorbCart(cart *model.CartSnapshot) {
	if cart == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, line := range cart.Items {
		if line.UnitPriceMinorUnits > 0 {
			a.prices[line.VariantID] = line.UnitPriceMinorUnits
		}
	}
}

// Publish recomputes the view for the given quantities and renders the
// parts that changed. Unchanged output renders nothing.
func (a *Aggregator) Publish(quantities model.QuantityMap) View {
	a.mu.Lock()
	next := Recompute(quantities, a.prices)
	prev := a.last
	started := a.started
	if started && next.Equal(prev) {
		a.mu.Unlock()
		return next
	}
	a.last = next
	a.started = true
	a.mu.Unlock()

	for id, total := range next.LineTotals {
		if !started || prev.LineTotals[id] != total {
			a.renderer.RenderLineTotal(id, total)
		}
	}
	// Lines that dropped out render a zero total
	if started {
		for id := range prev.LineTotals {
			if _, ok := next.LineTotals[id]; !ok {
				a.renderer.RenderLineTotal(id, 0)
			}
		}
	}
	a.renderer.RenderSummary(next.SubtotalMinorUnits, next.ItemCount)
	return next
}

// PublishLine recomputes and renders a single line's total without touching
// the summary. Used for the optimistic per-keystroke update; the full
// Publish follows once the remote cart confirms. An unchanged total
// renders nothing, same as Publish.
func (a *Aggregator) PublishLine(id model.VariantID, quantity int) {
	a.mu.Lock()
	total := a.prices[id] * int64(quantity)
	if a.started {
		if prev, ok := a.last.LineTotals[id]; ok && prev == total {
			a.mu.Unlock()
			return
		}
		a.last.LineTotals[id] = total
	}
	a.mu.Unlock()
	a.renderer.RenderLineTotal(id, total)
}

// Current returns the last published view.
func (a *Aggregator) Current() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last.LineTotals == nil {
		return View{LineTotals: map[model.VariantID]int64{}}
	}
	return a.last
}
