// Package handler provides HTTP handlers for the quick-order sync API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Akshay-i95/quick-order-app/internal/model"
	"github.com/Akshay-i95/quick-order-app/internal/session"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	sessions *session.Manager
	logger   *slog.Logger
}

// New creates a new Handler over the session registry.
func New(sessions *session.Manager, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Session lifecycle + sync operations
	mux.HandleFunc("POST /sessions", h.handleOpenSession)
	mux.HandleFunc("GET /sessions/{id}/view", h.handleGetView)
	mux.HandleFunc("POST /sessions/{id}/quantity", h.handleQuantity)
	mux.HandleFunc("POST /sessions/{id}/remove", h.handleRemove)
	mux.HandleFunc("POST /sessions/{id}/lines", h.handleLines)
	mux.HandleFunc("DELETE /sessions/{id}", h.handleCloseSession)

	// Websocket stream for live view pushes and inbound signals
	mux.HandleFunc("GET /sessions/{id}/stream", h.handleStream)

	// MCP transport - agent-driven quick ordering
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if errors.As(err, &apiErr) {
		// Found APIError in error chain - use it
	} else {
		// Wrap unexpected errors
		apiErr = &model.APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
