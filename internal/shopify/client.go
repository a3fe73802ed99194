// Package shopify implements the adapter interfaces against a Shopify
// shop: the storefront AJAX cart API for cart state and mutations, and
// the Admin GraphQL API for the customer metafield that persists saved
// quantities.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Akshay-i95/quick-order-app/internal/adapter"
	"github.com/Akshay-i95/quick-order-app/internal/model"
	"github.com/Akshay-i95/quick-order-app/internal/transport"
)

// requestTimeout bounds every storefront and admin call. A cart mutation
// that outlives it surfaces as an ordinary mutation failure.
const requestTimeout = 30 * time.Second

// userAgent identifies this client to upstream servers.
// Storefront endpoints rate-limit requests without a User-Agent.
const userAgent = "QuickOrderSync/1.0"

// Config holds storefront client configuration.
type Config struct {
	// StoreURL is the shop's storefront base, e.g. https://shop.example.com.
	StoreURL string

	// CartToken binds requests to one visitor cart via the cart cookie.
	// Optional; without it Shopify issues a fresh cart on first mutation.
	CartToken string

	// HTTPClient overrides the default storefront client (tests).
	HTTPClient *http.Client
}

// Client implements adapter.CartStore over the storefront AJAX cart API
// (/cart.js, /cart/add.js, /cart/change.js).
type Client struct {
	httpClient *http.Client
	storeURL   string
	cartToken  string
}

var _ adapter.CartStore = (*Client)(nil)

// New creates a storefront cart client.
func New(cfg Config) (*Client, error) {
	if cfg.StoreURL == "" {
		return nil, fmt.Errorf("store URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Chrome TLS fingerprint transport: the storefront edge
		// fingerprints TLS clients. See internal/transport.
		httpClient = &http.Client{
			Timeout:   requestTimeout,
			Transport: transport.NewChromeTransport(requestTimeout),
		}
	}

	return &Client{
		httpClient: httpClient,
		storeURL:   strings.TrimSuffix(cfg.StoreURL, "/"),
		cartToken:  cfg.CartToken,
	}, nil
}

// Fetch returns the current cart state via GET /cart.js.
func (c *Client) Fetch(ctx context.Context) (*model.CartSnapshot, error) {
	cart, err := c.doCartRequest(ctx, http.MethodGet, "/cart.js", nil)
	if err != nil {
		return nil, err
	}
	return CartToSnapshot(cart), nil
}

// UpdateLine sets a line's quantity via POST /cart/change.js. Quantity 0
// removes the line. The response is the full resulting cart.
func (c *Client) UpdateLine(ctx context.Context, id model.VariantID, quantity int) (*model.CartSnapshot, error) {
	if quantity < 0 {
		quantity = 0
	}
	cart, err := c.doCartRequest(ctx, http.MethodPost, "/cart/change.js", ajaxChangeRequest{
		ID:       string(id),
		Quantity: quantity,
	})
	if err != nil {
		return nil, err
	}
	return CartToSnapshot(cart), nil
}

// AddLine adds a variant via POST /cart/add.js. That endpoint returns
// only the added line, so the full cart is re-fetched afterwards.
func (c *Client) AddLine(ctx context.Context, id model.VariantID, quantity int) (*model.CartSnapshot, error) {
	if quantity <= 0 {
		return nil, model.NewValidationError("quantity", "must be positive")
	}
	if _, err := c.doRaw(ctx, http.MethodPost, "/cart/add.js", ajaxAddRequest{
		ID:       string(id),
		Quantity: quantity,
	}); err != nil {
		return nil, err
	}
	return c.Fetch(ctx)
}

// doCartRequest performs a storefront request whose response body is a
// full cart document.
func (c *Client) doCartRequest(ctx context.Context, method, path string, body any) (*AjaxCart, error) {
	respBody, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	var cart AjaxCart
	if err := json.Unmarshal(respBody, &cart); err != nil {
		return nil, fmt.Errorf("parsing cart response: %w", err)
	}
	return &cart, nil
}

func (c *Client) doRaw(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.storeURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.cartToken != "" {
		req.AddCookie(&http.Cookie{Name: "cart", Value: c.cartToken})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewUpstreamError("Shopify storefront", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, parseStorefrontError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// parseStorefrontError converts a storefront error to an APIError.
func parseStorefrontError(statusCode int, body []byte) error {
	var ajaxErr ajaxErrorResponse
	json.Unmarshal(body, &ajaxErr) // Best effort parse

	switch statusCode {
	case 404:
		return model.NewNotFoundError("cart")
	case 401, 403:
		return model.NewUnauthorizedError("Shopify storefront rejected the request")
	case 422:
		msg := ajaxErr.Description
		if msg == "" {
			msg = ajaxErr.Message
		}
		if msg == "" {
			msg = "invalid cart request"
		}
		return model.NewValidationError("cart", msg)
	case 429:
		return model.NewRateLimitError("Shopify storefront")
	default:
		return model.NewUpstreamError("Shopify storefront",
			fmt.Errorf("status %d: %s", statusCode, ajaxErr.Message))
	}
}
