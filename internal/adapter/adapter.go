// Package adapter defines the interfaces to the remote stores the sync
// engine depends on. Platform-specific implementations (Shopify's AJAX cart
// API, customer metafields) live in their own packages; the engine only
// sees these contracts.
package adapter

import (
	"context"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

// CartStore is the remote, server-owned, mutable cart.
//
// Every mutation returns the store's resulting snapshot; callers treat that
// response as the new ground truth and never assume a write succeeded
// without it.
type CartStore interface {
	// Fetch returns the current cart state.
	Fetch(ctx context.Context) (*model.CartSnapshot, error)

	// UpdateLine sets the quantity for a variant already in the cart.
	// Quantity 0 removes the line.
	UpdateLine(ctx context.Context, id model.VariantID, quantity int) (*model.CartSnapshot, error)

	// AddLine adds a variant to the cart with the given quantity.
	AddLine(ctx context.Context, id model.VariantID, quantity int) (*model.CartSnapshot, error)
}

// SnapshotStore is the per-customer persisted quantity document.
//
// Eventually consistent, one document per customer, last-writer-wins:
// Save overwrites the whole document, so callers compute the full desired
// map before saving. Exists only for authenticated customers.
type SnapshotStore interface {
	// Load returns the customer's saved snapshot.
	// Returns model.ErrNotFound when the customer has never saved one and
	// model.ErrUnauthorized when the caller cannot act for that customer.
	Load(ctx context.Context, customerID string) (*model.PersistedSnapshot, error)

	// Save overwrites the customer's snapshot wholesale.
	Save(ctx context.Context, customerID string, snap *model.PersistedSnapshot) error
}
