package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/zhouzirui/core-companion/backend/internal/model/chat"
	"github.com/zhouzirui/core-companion/backend/internal/observability"
)

const maxFrameBytes = 1 << 20

// handleWebSocket carries the POST /chat contract over a socket: each text frame is
// a request and each reply frame is the complete response body. Replies are not streamed.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	ctx := r.Context()
	logger := observability.LoggerFromContext(ctx)
	logger.Info("websocket chat opened")

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", "error", err)
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var payload any
		var req chat.Request
		if err := json.Unmarshal(data, &req); err != nil {
			_, payload = h.failure(ctx, fmt.Errorf("%w: %v", chat.ErrInvalidRequest, err))
		} else {
			_, payload = h.dispatch(ctx, req)
		}

		if err := conn.WriteJSON(payload); err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				logger.Warn("websocket write failed", "error", err)
			}
			break
		}
	}

	logger.Info("websocket chat closed")
}
