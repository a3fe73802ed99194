package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Akshay-i95/quick-order-app/internal/compat"
	"github.com/Akshay-i95/quick-order-app/internal/model"
	"github.com/Akshay-i95/quick-order-app/internal/session"
)

// openSessionRequest describes the quick-order page a tab just loaded.
type openSessionRequest struct {
	// Variants are the variant IDs rendered on the page.
	Variants []model.VariantID `json:"variants"`

	// Stock carries per-variant stock metadata read from the page.
	Stock map[model.VariantID]model.StockInfo `json:"stock,omitempty"`
}

type openSessionResponse struct {
	SessionID     string            `json:"session_id"`
	Outcome       string            `json:"outcome"`
	RestoredLines int               `json:"restored_lines,omitempty"`
	View          session.ViewState `json:"view"`
}

type quantityRequest struct {
	VariantID model.VariantID `json:"variant_id"`

	// Quantity is the raw input value exactly as typed; the engine
	// parses and clamps it.
	Quantity string `json:"quantity"`
}

type removeRequest struct {
	VariantID model.VariantID `json:"variant_id"`
}

type linesRequest struct {
	// VariantIDs is the complete currently rendered line set.
	VariantIDs []model.VariantID `json:"variant_ids"`
}

// handleOpenSession runs the load-time reconciliation for a new tab and
// returns the adopted view.
func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, model.NewValidationError("body", "invalid JSON: "+err.Error()))
		return
	}

	params := session.OpenParams{
		Variants: req.Variants,
		Stock:    req.Stock,
		Fresh:    true,
	}
	if client := compat.FromContext(r.Context()); client != nil {
		params.CustomerID = client.CustomerID
		params.Fresh = client.Fresh
	}

	sess, result, err := h.sessions.Open(r.Context(), params)
	if err != nil {
		h.writeError(w, fmt.Errorf("opening session: %w", err))
		return
	}

	h.writeJSON(w, http.StatusCreated, openSessionResponse{
		SessionID:     sess.ID,
		Outcome:       result.Outcome.String(),
		RestoredLines: result.RestoredLines,
		View:          sess.View(),
	})
}

func (h *Handler) handleGetView(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess.View())
}

// handleQuantity forwards one raw edit. The response carries the
// optimistic view; the cart mutation happens after the debounce window.
func (h *Handler) handleQuantity(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, model.NewValidationError("body", "invalid JSON: "+err.Error()))
		return
	}
	if req.VariantID == "" {
		h.writeError(w, model.NewValidationError("variant_id", "required"))
		return
	}

	sess.QuantityEdited(req.VariantID, req.Quantity)
	h.writeJSON(w, http.StatusAccepted, sess.View())
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req removeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, model.NewValidationError("body", "invalid JSON: "+err.Error()))
		return
	}
	if req.VariantID == "" {
		h.writeError(w, model.NewValidationError("variant_id", "required"))
		return
	}

	sess.SignalRemoval(r.Context(), req.VariantID)
	h.writeJSON(w, http.StatusOK, sess.View())
}

// handleLines ingests the client's rendered line set, the structural
// removal signal.
func (h *Handler) handleLines(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req linesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, model.NewValidationError("body", "invalid JSON: "+err.Error()))
		return
	}

	sess.ReportLines(r.Context(), req.VariantIDs)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
