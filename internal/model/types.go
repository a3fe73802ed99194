// Package model defines the core value types shared across the sync engine:
// quantity maps, cart snapshots, persisted snapshots, and the error taxonomy.
package model

import (
	"sort"
	"time"
)

// VariantID identifies a purchasable product variant. Opaque to the engine;
// the storefront platform owns the format (Shopify uses numeric IDs, but
// nothing here depends on that).
type VariantID string

// QuantityMap maps variant IDs to positive quantities.
//
// Invariant: a variant absent from the map is quantity 0. Zero or negative
// entries are never stored; use Set to maintain this.
type QuantityMap map[VariantID]int

// Set stores quantity for the variant, deleting the entry when quantity <= 0.
func (m QuantityMap) Set(id VariantID, quantity int) {
	if quantity <= 0 {
		delete(m, id)
		return
	}
	m[id] = quantity
}

// Clone returns an independent copy of the map.
// Returns an empty (non-nil) map for a nil receiver.
func (m QuantityMap) Clone() QuantityMap {
	out := make(QuantityMap, len(m))
	for id, q := range m {
		out[id] = q
	}
	return out
}

// Equal reports whether both maps contain exactly the same entries.
func (m QuantityMap) Equal(other QuantityMap) bool {
	if len(m) != len(other) {
		return false
	}
	for id, q := range m {
		if other[id] != q {
			return false
		}
	}
	return true
}

// Variants returns the variant IDs in the map, sorted for deterministic
// iteration (restore calls, logging, tests).
func (m QuantityMap) Variants() []VariantID {
	ids := make([]VariantID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CartLine is one line of the remote cart.
type CartLine struct {
	VariantID           VariantID `json:"variant_id"`
	Quantity            int       `json:"quantity"`
	UnitPriceMinorUnits int64     `json:"unit_price_minor_units"`
	LinePriceMinorUnits int64     `json:"line_price_minor_units"`
}

// CartSnapshot is the server-owned cart state as returned by the remote
// cart store. The client never assumes a write succeeded without receiving
// one of these (or re-fetching).
type CartSnapshot struct {
	Items                []CartLine `json:"items"`
	ItemCount            int        `json:"item_count"`
	TotalPriceMinorUnits int64      `json:"total_price_minor_units"`
}

// IsEmpty reports whether the cart has no lines with positive quantity.
func (c *CartSnapshot) IsEmpty() bool {
	if c == nil {
		return true
	}
	for _, line := range c.Items {
		if line.Quantity > 0 {
			return false
		}
	}
	return true
}

// PersistedSnapshot is the per-customer durable quantity record carried
// across devices and sessions. Overwritten wholesale on every save.
type PersistedSnapshot struct {
	Quantities QuantityMap `json:"quantities"`
	Timestamp  time.Time   `json:"timestamp"`
}

// PriceMap maps variant IDs to unit prices in minor currency units.
type PriceMap map[VariantID]int64

// StockInfo describes what the platform knows about a variant's
// availability, as rendered into the storefront page.
type StockInfo struct {
	TrackedByPlatform bool `json:"tracked_by_platform"`
	Available         int  `json:"available"`
	IsPurchasable     bool `json:"is_purchasable"`
}
