// MCP transport handler exposing quick-order sessions as MCP tools,
// built on the official MCP Go SDK.
package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Akshay-i95/quick-order-app/internal/model"
	"github.com/Akshay-i95/quick-order-app/internal/session"
)

// === MCP Tool Input Types ===

// OpenSessionInput is the input schema for the open_session tool.
type OpenSessionInput struct {
	CustomerID string            `json:"customer_id,omitempty" jsonschema:"Shopify customer ID for snapshot persistence"`
	Fresh      bool              `json:"fresh,omitempty" jsonschema:"true when this is a fresh page load"`
	Variants   []model.VariantID `json:"variants,omitempty" jsonschema:"variant IDs rendered on the quick-order page"`
}

// GetCartViewInput is the input schema for the get_cart_view tool.
type GetCartViewInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID,required"`
}

// SetQuantityInput is the input schema for the set_quantity tool.
type SetQuantityInput struct {
	SessionID string          `json:"session_id" jsonschema:"session ID,required"`
	VariantID model.VariantID `json:"variant_id" jsonschema:"variant ID,required"`
	Quantity  string          `json:"quantity" jsonschema:"raw quantity input; parsed and clamped server side,required"`
}

// RemoveItemInput is the input schema for the remove_item tool.
type RemoveItemInput struct {
	SessionID string          `json:"session_id" jsonschema:"session ID,required"`
	VariantID model.VariantID `json:"variant_id" jsonschema:"variant ID,required"`
}

// MCPSessionOutput is returned by open_session.
type MCPSessionOutput struct {
	SessionID     string            `json:"session_id"`
	Outcome       string            `json:"outcome"`
	RestoredLines int               `json:"restored_lines,omitempty"`
	View          session.ViewState `json:"view"`
}

// NewMCPServer creates an MCP server with quick-order tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "quickorder-sync",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Quick-order cart sync. Open a session for a storefront page, " +
				"then edit quantities and read the derived cart view through these tools.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "open_session",
		Description: "Open a quick-order session, reconciling the live cart against the saved snapshot.",
	}, h.mcpOpenSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart_view",
		Description: "Get the current derived view of a session: quantities, line totals, subtotal and item count.",
	}, h.mcpGetCartView)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_quantity",
		Description: "Set the quantity of one variant. Input is raw text; it is parsed, clamped to stock, and flushed to the cart after the debounce window.",
	}, h.mcpSetQuantity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_item",
		Description: "Remove one variant from the cart immediately, bypassing the debounce window.",
	}, h.mcpRemoveItem)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpOpenSession(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input OpenSessionInput,
) (*mcp.CallToolResult, *MCPSessionOutput, error) {
	sess, result, err := h.sessions.Open(ctx, session.OpenParams{
		CustomerID: input.CustomerID,
		Fresh:      input.Fresh,
		Variants:   input.Variants,
	})
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	return nil, &MCPSessionOutput{
		SessionID:     sess.ID,
		Outcome:       result.Outcome.String(),
		RestoredLines: result.RestoredLines,
		View:          sess.View(),
	}, nil
}

func (h *Handler) mcpGetCartView(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetCartViewInput,
) (*mcp.CallToolResult, *session.ViewState, error) {
	sess, err := h.mcpSession(input.SessionID)
	if err != nil {
		return nil, nil, err
	}

	view := sess.View()
	return nil, &view, nil
}

func (h *Handler) mcpSetQuantity(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SetQuantityInput,
) (*mcp.CallToolResult, *session.ViewState, error) {
	sess, err := h.mcpSession(input.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if input.VariantID == "" {
		return nil, nil, fmt.Errorf("variant_id is required")
	}

	sess.QuantityEdited(input.VariantID, input.Quantity)
	view := sess.View()
	return nil, &view, nil
}

func (h *Handler) mcpRemoveItem(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RemoveItemInput,
) (*mcp.CallToolResult, *session.ViewState, error) {
	sess, err := h.mcpSession(input.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if input.VariantID == "" {
		return nil, nil, fmt.Errorf("variant_id is required")
	}

	sess.SignalRemoval(ctx, input.VariantID)
	view := sess.View()
	return nil, &view, nil
}

// mcpSession resolves a session ID, returning an MCP-friendly error.
func (h *Handler) mcpSession(id string) (*session.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	sess, err := h.sessions.Get(id)
	if err != nil {
		return nil, h.mcpError(err)
	}
	return sess, nil
}

// mcpError converts engine errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	if apiErr, ok := err.(*model.APIError); ok {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
