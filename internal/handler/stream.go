package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

const streamWriteTimeout = 5 * time.Second

// streamSignal is an inbound client message on the stream socket. The
// same three signals the REST surface accepts can arrive here instead,
// which keeps a page on a single connection once it has one.
type streamSignal struct {
	Type       string            `json:"type"` // "quantity", "remove", "lines"
	VariantID  model.VariantID   `json:"variant_id,omitempty"`
	Quantity   string            `json:"quantity,omitempty"`
	VariantIDs []model.VariantID `json:"variant_ids,omitempty"`
}

// handleStream upgrades to a websocket and relays view events for one
// session until either side closes.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	// Push the current state first so the client does not render from
	// nothing while waiting for the next edit.
	if err := h.writeStreamJSON(ctx, conn, sess.View()); err != nil {
		return
	}

	go h.streamReadLoop(ctx, cancel, conn, sess)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := h.writeStreamJSON(ctx, conn, ev); err != nil {
				return
			}
		}
	}
}

func (h *Handler) writeStreamJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}

func (h *Handler) streamReadLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sess streamSession) {
	defer cancel()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if status := websocket.CloseStatus(err); status != -1 {
				return
			}
			h.logger.Debug("stream read ended", "error", err)
			return
		}

		var sig streamSignal
		if err := json.Unmarshal(data, &sig); err != nil {
			h.logger.Debug("dropping malformed stream signal", "error", err)
			continue
		}

		switch sig.Type {
		case "quantity":
			if sig.VariantID != "" {
				sess.QuantityEdited(sig.VariantID, sig.Quantity)
			}
		case "remove":
			if sig.VariantID != "" {
				sess.SignalRemoval(ctx, sig.VariantID)
			}
		case "lines":
			sess.ReportLines(ctx, sig.VariantIDs)
		default:
			h.logger.Debug("dropping unknown stream signal", "type", sig.Type)
		}
	}
}

// streamSession is the slice of a session the read loop needs.
type streamSession interface {
	QuantityEdited(id model.VariantID, raw string)
	SignalRemoval(ctx context.Context, id model.VariantID)
	ReportLines(ctx context.Context, ids []model.VariantID)
}
