// Package quantity provides the pure projections from cart snapshots and
// form input values into quantity maps. No side effects, defensive parsing.
package quantity

import (
	"strconv"
	"strings"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

// FromCart projects a cart snapshot into a quantity map.
// One line per variant is assumed; lines with quantity <= 0 are excluded.
func FromCart(cart *model.CartSnapshot) model.QuantityMap {
	out := model.QuantityMap{}
	if cart == nil {
		return out
	}
	for _, line := range cart.Items {
		if line.Quantity > 0 {
			out[line.VariantID] = line.Quantity
		}
	}
	return out
}

// FromForm projects raw form input values into a quantity map.
// Malformed or negative values default to 0; zero entries are excluded.
func FromForm(values map[model.VariantID]string) model.QuantityMap {
	out := model.QuantityMap{}
	for id, raw := range values {
		if q := Parse(raw); q > 0 {
			out[id] = q
		}
	}
	return out
}

// Parse converts a raw input value to a quantity, defaulting to 0 for
// anything malformed or negative. Leading/trailing whitespace is tolerated
// since it comes straight from user input.
func Parse(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	q, err := strconv.Atoi(raw)
	if err != nil || q < 0 {
		return 0
	}
	return q
}
