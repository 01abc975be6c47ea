package transport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/domain/entity"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/metrics"
	"github.com/Matrix-Ledger/smart-contract-generator-api/internal/infrastructure/validator"
)

const (
	eventAccepted  = "accepted"
	eventCompleted = "completed"
	eventFailed    = "failed"
)

type wsEvent struct {
	Type         string `json:"type"`
	GenerationID string `json:"generation_id,omitempty"`
	Code         string `json:"code,omitempty"`
	Error        string `json:"error,omitempty"`
}

// GET /api/v1/generate/ws
//
// Each text frame carries one {description, language} request. Requests on a
// connection are served in order.
func (h *ContractHandler) handleGenerateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	metrics.IncWSConnections()
	defer metrics.DecWSConnections()

	conn.SetReadLimit(maxGenerateBody)

	// r.Context() is not cancelled for hijacked connections; readFrames
	// cancels ctx when the peer goes away.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	frames := make(chan []byte)
	go h.readFrames(ctx, cancel, conn, frames)

	for raw := range frames {
		var req entity.GenerationRequest
		if err := h.schemas.Validate(validator.SchemaGenerateRequest, raw); err != nil {
			if !h.sendEvent(conn, wsEvent{Type: eventFailed, Error: internalServerError}) {
				return
			}
			continue
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			if !h.sendEvent(conn, wsEvent{Type: eventFailed, Error: internalServerError}) {
				return
			}
			continue
		}

		if !h.sendEvent(conn, wsEvent{Type: eventAccepted}) {
			return
		}

		gen, err := h.generator.Generate(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				h.logger.Info("websocket closed during generation", "err", err)
				return
			}
			if !h.sendEvent(conn, wsEvent{Type: eventFailed, Error: publicMessage(err, req.Language)}) {
				return
			}
			continue
		}

		if !h.sendEvent(conn, wsEvent{Type: eventCompleted, GenerationID: gen.ID, Code: gen.Code}) {
			return
		}
	}
}

// readFrames forwards text frames until the peer disconnects, then cancels ctx.
func (h *ContractHandler) readFrames(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, frames chan<- []byte) {
	defer close(frames)
	defer cancel()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read ended", "err", err)
			}
			return
		}
		select {
		case frames <- raw:
		case <-ctx.Done():
			return
		}
	}
}

func (h *ContractHandler) sendEvent(conn *websocket.Conn, ev wsEvent) bool {
	if err := conn.WriteJSON(ev); err != nil {
		h.logger.Warn("websocket write failed", "event", ev.Type, "err", err)
		metrics.IncError("transport", "ws_write")
		return false
	}
	return true
}
