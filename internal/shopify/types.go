package shopify

import (
	"encoding/json"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

// AJAX cart API wire types. All prices are in minor currency units
// (cents), which is what /cart.js reports natively.

// MinorUnits is a price in minor currency units. Shopify reports these
// as JSON numbers, but apps with currency-conversion scripts installed
// see them echoed back as quoted strings; both decode.
type MinorUnits int64

func (m *MinorUnits) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = MinorUnits(model.ParseMinorUnits(s))
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*m = MinorUnits(n)
	return nil
}

// AjaxCart is the response shape of GET /cart.js and POST /cart/change.js.
type AjaxCart struct {
	Token      string     `json:"token"`
	ItemCount  int        `json:"item_count"`
	TotalPrice MinorUnits `json:"total_price"`
	Items      []AjaxItem `json:"items"`
}

// AjaxItem is one cart line.
type AjaxItem struct {
	ID          int64      `json:"id"`
	VariantID   int64      `json:"variant_id"`
	Quantity    int        `json:"quantity"`
	Price       MinorUnits `json:"price"`
	LinePrice   MinorUnits `json:"line_price"`
	Title       string     `json:"title"`
	ProductID   int64      `json:"product_id,omitempty"`
	Handle      string     `json:"handle,omitempty"`
	SKU         string     `json:"sku,omitempty"`
	VariantName string     `json:"variant_title,omitempty"`
}

// ajaxChangeRequest is the body of POST /cart/change.js.
// ID takes the variant ID as a string.
type ajaxChangeRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// ajaxAddRequest is the body of POST /cart/add.js.
type ajaxAddRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// ajaxErrorResponse is Shopify's storefront error envelope (422 responses).
type ajaxErrorResponse struct {
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

// Admin GraphQL wire types for the customer metafield snapshot.

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type metafieldQueryResponse struct {
	Data struct {
		Customer *struct {
			Metafield *struct {
				Value string `json:"value"`
			} `json:"metafield"`
		} `json:"customer"`
	} `json:"data"`
	Errors []graphqlError `json:"errors,omitempty"`
}

type metafieldSetResponse struct {
	Data struct {
		MetafieldsSet struct {
			UserErrors []struct {
				Field   []string `json:"field"`
				Message string   `json:"message"`
			} `json:"userErrors"`
		} `json:"metafieldsSet"`
	} `json:"data"`
	Errors []graphqlError `json:"errors,omitempty"`
}
