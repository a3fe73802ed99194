package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		StoreURL:   server.URL,
		CartToken:  "tok-1",
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return client
}

func TestFetch(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/cart.js" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if cookie, err := r.Cookie("cart"); err != nil || cookie.Value != "tok-1" {
			t.Error("cart cookie not sent")
		}
		json.NewEncoder(w).Encode(AjaxCart{
			ItemCount:  2,
			TotalPrice: 3000,
			Items: []AjaxItem{
				{VariantID: 111, Quantity: 2, Price: 1500, LinePrice: 3000},
			},
		})
	}))

	snap, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(snap.Items) != 1 || snap.Items[0].VariantID != "111" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestUpdateLine(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/cart/change.js" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body ajaxChangeRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if body.ID != "111" || body.Quantity != 4 {
			t.Errorf("change request = %+v", body)
		}
		json.NewEncoder(w).Encode(AjaxCart{
			ItemCount:  4,
			TotalPrice: 6000,
			Items: []AjaxItem{
				{VariantID: 111, Quantity: 4, Price: 1500, LinePrice: 6000},
			},
		})
	}))

	snap, err := client.UpdateLine(context.Background(), "111", 4)
	if err != nil {
		t.Fatalf("UpdateLine() error: %v", err)
	}
	if snap.Items[0].Quantity != 4 {
		t.Errorf("Quantity = %d, want 4", snap.Items[0].Quantity)
	}
}

func TestAddLineRefetchesCart(t *testing.T) {
	var paths []string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/cart/add.js":
			// add.js echoes only the added line
			json.NewEncoder(w).Encode(AjaxItem{VariantID: 222, Quantity: 3})
		case "/cart.js":
			json.NewEncoder(w).Encode(AjaxCart{
				ItemCount: 3,
				Items:     []AjaxItem{{VariantID: 222, Quantity: 3, Price: 100, LinePrice: 300}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	snap, err := client.AddLine(context.Background(), "222", 3)
	if err != nil {
		t.Fatalf("AddLine() error: %v", err)
	}
	if len(paths) != 2 || paths[0] != "/cart/add.js" || paths[1] != "/cart.js" {
		t.Errorf("request order = %v", paths)
	}
	if snap.Items[0].VariantID != "222" || snap.Items[0].Quantity != 3 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestAddLineRejectsNonPositiveQuantity(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, err := client.AddLine(context.Background(), "111", 0)
	if !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
}

func TestStorefrontErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "sold out line",
			status:  422,
			body:    `{"status":422,"message":"Cart Error","description":"All 3 Widget are in your cart."}`,
			wantErr: model.ErrInvalidRequest,
		},
		{
			name:    "rate limited",
			status:  429,
			body:    `{}`,
			wantErr: model.ErrRateLimited,
		},
		{
			name:    "password protected shop",
			status:  401,
			body:    `{}`,
			wantErr: model.ErrUnauthorized,
		},
		{
			name:    "storefront down",
			status:  502,
			body:    `{}`,
			wantErr: model.ErrUpstreamError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			_, err := client.UpdateLine(context.Background(), "111", 1)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
