// Package view holds the client-visible state: the quantity form model and
// the derived totals. The form model is the single mutable quantity store;
// every mutation path goes through its setter, which updates the model and
// notifies the renderer. Rendering itself is abstracted behind Renderer so
// the engine never touches a concrete UI.
package view

import (
	"strconv"
	"sync"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

// Renderer receives display updates. Implementations push them to whatever
// surface the session is attached to (websocket stream, buffered view state
// for polling clients, or nothing in tests).
type Renderer interface {
	// RenderQuantity updates the visible quantity input for a variant.
	RenderQuantity(id model.VariantID, quantity int)

	// RenderLineTotal updates one line's total, in minor units.
	RenderLineTotal(id model.VariantID, totalMinorUnits int64)

	// RenderSummary updates the order subtotal and the cart badge count.
	RenderSummary(subtotalMinorUnits int64, itemCount int)

	// ShowWarning surfaces a transient, auto-dismissing notice
	// (stock clamps, failed cart mutations).
	ShowWarning(code, message string)
}

// NopRenderer discards all updates.
type NopRenderer struct{}

func (NopRenderer) RenderQuantity(model.VariantID, int)    {}
func (NopRenderer) RenderLineTotal(model.VariantID, int64) {}
func (NopRenderer) RenderSummary(int64, int)               {}
func (NopRenderer) ShowWarning(string, string)             {}

// FormModel is the explicit in-memory quantity store backing the quick-order
// form. Known variants keep an entry even at quantity 0 (the input exists on
// the page); Snapshot excludes zeros per the QuantityMap invariant.
type FormModel struct {
	mu       sync.Mutex
	values   map[model.VariantID]int
	renderer Renderer
}

// NewFormModel creates a form model rendering through r.
// A nil renderer is replaced with NopRenderer.
func NewFormModel(r Renderer) *FormModel {
	if r == nil {
		r = NopRenderer{}
	}
	return &FormModel{
		values:   make(map[model.VariantID]int),
		renderer: r,
	}
}

// Register makes variants known to the form without changing quantities.
// Used at session start with the variants rendered on the page.
func (f *FormModel) Register(ids ...model.VariantID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if _, ok := f.values[id]; !ok {
			f.values[id] = 0
		}
	}
}

// Set updates one variant's quantity and renders it if it changed.
// This is the only write path into the form.
func (f *FormModel) Set(id model.VariantID, quantity int) {
	if quantity < 0 {
		quantity = 0
	}

	f.mu.Lock()
	prev, known := f.values[id]
	f.values[id] = quantity
	f.mu.Unlock()

	if !known || prev != quantity {
		f.renderer.RenderQuantity(id, quantity)
	}
}

// Get returns the variant's current quantity (0 if unknown).
func (f *FormModel) Get(id model.VariantID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[id]
}

// ResetTo zeroes every known input first, then applies the non-zero entries
// of m, so stale values never linger after reconciliation.
func (f *FormModel) ResetTo(m model.QuantityMap) {
	f.mu.Lock()
	changed := make(map[model.VariantID]int)
	for id := range f.values {
		if f.values[id] != 0 {
			f.values[id] = 0
			changed[id] = 0
		}
	}
	for id, q := range m {
		if q <= 0 {
			continue
		}
		if f.values[id] != q {
			f.values[id] = q
			changed[id] = q
		} else {
			delete(changed, id)
		}
	}
	f.mu.Unlock()

	for id, q := range changed {
		f.renderer.RenderQuantity(id, q)
	}
}

// Snapshot returns the current quantities as a QuantityMap (zeros excluded).
func (f *FormModel) Snapshot() model.QuantityMap {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := model.QuantityMap{}
	for id, q := range f.values {
		if q > 0 {
			out[id] = q
		}
	}
	return out
}

// Values returns the raw input values as the form would present them,
// including zeros for known variants.
func (f *FormModel) Values() map[model.VariantID]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[model.VariantID]string, len(f.values))
	for id, q := range f.values {
		out[id] = strconv.Itoa(q)
	}
	return out
}

// Known returns every variant the form has an input for.
func (f *FormModel) Known() []model.VariantID {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]model.VariantID, 0, len(f.values))
	for id := range f.values {
		ids = append(ids, id)
	}
	return ids
}
