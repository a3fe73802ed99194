// Package stock decides how much of a requested quantity a variant can
// actually admit, given what the platform reports about its inventory.
package stock

import (
	"fmt"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

// Result is the admission decision for a requested quantity.
// Rejection is an ordinary outcome, not an error: the caller clamps the
// visible quantity to Admitted and may surface Reason as a transient warning.
type Result struct {
	Admitted int
	Rejected bool
	Reason   string
}

// Validate clamps a requested quantity against the variant's stock metadata.
//
// Rules:
//   - not purchasable: admit 0
//   - inventory not tracked by the platform: admit the request unchanged
//   - otherwise: admit min(requested, available)
//
// Callers must apply the clamp before any subtotal recomputation so the
// visible quantity and the visible totals never disagree.
func Validate(requested int, info model.StockInfo) Result {
	if requested < 0 {
		requested = 0
	}

	if !info.IsPurchasable {
		return Result{
			Admitted: 0,
			Rejected: true,
			Reason:   "this item is out of stock",
		}
	}

	if !info.TrackedByPlatform {
		return Result{Admitted: requested}
	}

	if requested > info.Available {
		return Result{
			Admitted: info.Available,
			Rejected: true,
			Reason:   fmt.Sprintf("only %d available, quantity reduced to %d", info.Available, info.Available),
		}
	}

	return Result{Admitted: requested}
}
