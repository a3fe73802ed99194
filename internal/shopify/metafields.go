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
)

const metafieldQuery = `
query SavedQuantities($id: ID!, $namespace: String!, $key: String!) {
  customer(id: $id) {
    metafield(namespace: $namespace, key: $key) {
      value
    }
  }
}`

const metafieldSetMutation = `
mutation SaveQuantities($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    userErrors {
      field
      message
    }
  }
}`

// MetafieldConfig holds admin client configuration.
type MetafieldConfig struct {
	// StoreURL is the shop's base, e.g. https://shop.example.com.
	StoreURL string

	// AdminToken is the Admin API access token.
	AdminToken string

	// APIVersion selects the Admin API version, e.g. "2025-07".
	APIVersion string

	// Namespace and Key locate the snapshot metafield on the customer.
	Namespace string
	Key       string

	// HTTPClient overrides the default admin client (tests).
	HTTPClient *http.Client
}

// MetafieldClient implements adapter.SnapshotStore on a JSON customer
// metafield via the Admin GraphQL API. One document per customer,
// overwritten wholesale on every save.
//
// The admin edge authenticates by token and does not fingerprint TLS, so
// this client uses the plain default transport.
type MetafieldClient struct {
	httpClient *http.Client
	endpoint   string
	token      string
	namespace  string
	key        string
}

var _ adapter.SnapshotStore = (*MetafieldClient)(nil)

// NewMetafieldClient creates a snapshot store over customer metafields.
func NewMetafieldClient(cfg MetafieldConfig) (*MetafieldClient, error) {
	if cfg.StoreURL == "" {
		return nil, fmt.Errorf("store URL is required")
	}
	if cfg.AdminToken == "" {
		return nil, fmt.Errorf("admin token is required")
	}
	if cfg.Namespace == "" || cfg.Key == "" {
		return nil, fmt.Errorf("metafield namespace and key are required")
	}

	version := cfg.APIVersion
	if version == "" {
		version = "2025-07"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}

	return &MetafieldClient{
		httpClient: httpClient,
		endpoint: fmt.Sprintf("%s/admin/api/%s/graphql.json",
			strings.TrimSuffix(cfg.StoreURL, "/"), version),
		token:     cfg.AdminToken,
		namespace: cfg.Namespace,
		key:       cfg.Key,
	}, nil
}

// Load returns the customer's saved snapshot, or model.ErrNotFound when
// none exists.
func (c *MetafieldClient) Load(ctx context.Context, customerID string) (*model.PersistedSnapshot, error) {
	respBody, err := c.doGraphQL(ctx, graphqlRequest{
		Query: metafieldQuery,
		Variables: map[string]any{
			"id":        customerGID(customerID),
			"namespace": c.namespace,
			"key":       c.key,
		},
	})
	if err != nil {
		return nil, err
	}

	var resp metafieldQueryResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("parsing metafield response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, graphqlToAPIError(resp.Errors)
	}
	if resp.Data.Customer == nil {
		return nil, model.NewUnauthorizedError("customer not accessible")
	}
	if resp.Data.Customer.Metafield == nil {
		return nil, model.NewNotFoundError("quantity snapshot")
	}

	var snap model.PersistedSnapshot
	if err := json.Unmarshal([]byte(resp.Data.Customer.Metafield.Value), &snap); err != nil {
		// A corrupt document is treated as absent; the next save
		// overwrites it.
		return nil, model.NewNotFoundError("quantity snapshot")
	}
	return &snap, nil
}

// Save overwrites the customer's snapshot wholesale.
func (c *MetafieldClient) Save(ctx context.Context, customerID string, snap *model.PersistedSnapshot) error {
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}
	value, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	respBody, err := c.doGraphQL(ctx, graphqlRequest{
		Query: metafieldSetMutation,
		Variables: map[string]any{
			"metafields": []map[string]any{{
				"ownerId":   customerGID(customerID),
				"namespace": c.namespace,
				"key":       c.key,
				"type":      "json",
				"value":     string(value),
			}},
		},
	})
	if err != nil {
		return err
	}

	var resp metafieldSetResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("parsing metafieldsSet response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return graphqlToAPIError(resp.Errors)
	}
	if userErrs := resp.Data.MetafieldsSet.UserErrors; len(userErrs) > 0 {
		field := "metafield"
		if len(userErrs[0].Field) > 0 {
			field = strings.Join(userErrs[0].Field, ".")
		}
		return model.NewValidationError(field, userErrs[0].Message)
	}
	return nil
}

func (c *MetafieldClient) doGraphQL(ctx context.Context, reqBody graphqlRequest) ([]byte, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewUpstreamError("Shopify admin", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return nil, model.NewUnauthorizedError("Shopify admin authentication failed")
	case resp.StatusCode == 429:
		return nil, model.NewRateLimitError("Shopify admin")
	case resp.StatusCode >= 400:
		return nil, model.NewUpstreamError("Shopify admin",
			fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
	}
	return respBody, nil
}

// graphqlToAPIError surfaces top-level GraphQL errors as upstream
// failures.
func graphqlToAPIError(errs []graphqlError) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return model.NewUpstreamError("Shopify admin",
		fmt.Errorf("graphql: %s", strings.Join(msgs, "; ")))
}

// customerGID builds the Admin API global ID for a customer.
func customerGID(customerID string) string {
	if strings.HasPrefix(customerID, "gid://") {
		return customerID
	}
	return "gid://shopify/Customer/" + customerID
}
