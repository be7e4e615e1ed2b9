package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/core-companion/backend/internal/model/chat"
	"github.com/zhouzirui/core-companion/backend/internal/observability"
	"github.com/zhouzirui/core-companion/backend/internal/service/ai"
	chatService "github.com/zhouzirui/core-companion/backend/internal/service/chat"
	"github.com/zhouzirui/core-companion/backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Handler serves the chat and session history endpoints.
type Handler struct {
	chatSvc  *chatService.Service
	upgrader websocket.Upgrader
}

// New creates the chat handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers chat routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/sessions", h.handleListSessions)
	r.Get("/ws/chat", h.handleWebSocket)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		status, payload := h.failure(r.Context(), fmt.Errorf("%w: %v", chat.ErrInvalidRequest, err))
		respond(w, status, payload)
		return
	}

	status, payload := h.dispatch(r.Context(), req)
	respond(w, status, payload)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	sessions, err := h.chatSvc.ListSessions(r.Context(), userID)
	if err != nil {
		status, payload := h.failure(r.Context(), err)
		respond(w, status, payload)
		return
	}

	utils.RespondJSON(w, http.StatusOK, sessions)
}

// respond writes a dispatch result. Error bodies go through utils.RespondError.
func respond(w http.ResponseWriter, status int, payload any) {
	if body, ok := payload.(chat.ErrorBody); ok {
		utils.RespondError(w, status, body.Error, body.Details)
		return
	}
	utils.RespondJSON(w, status, payload)
}

// dispatch routes a decoded request by action and returns the status and body to send.
// It is shared by the HTTP and WebSocket transports.
func (h *Handler) dispatch(ctx context.Context, req chat.Request) (int, any) {
	if req.Normalize().Action == chat.ActionEndSession {
		endReq, err := req.EndSessionRequest()
		if err != nil {
			return h.failure(ctx, err)
		}
		summary, err := h.chatSvc.EndSession(ctx, endReq)
		if err != nil {
			return h.failure(ctx, err)
		}
		return http.StatusOK, summary
	}

	turnReq, err := req.TurnRequest()
	if err != nil {
		return h.failure(ctx, err)
	}
	reply, err := h.chatSvc.Chat(ctx, turnReq)
	if err != nil {
		return h.failure(ctx, err)
	}
	return http.StatusOK, reply
}

// failure logs err and converts it into the generic error body. Every failure
// class answers 500; details carry the cause.
func (h *Handler) failure(ctx context.Context, err error) (int, any) {
	kind := failureKind(err)
	h.chatSvc.RecordFailure(ctx, kind)
	observability.LoggerFromContext(ctx).Error("chat request failed", "kind", kind, "error", err)

	return http.StatusInternalServerError, chat.ErrorBody{
		Error:   chat.GenericErrorMessage,
		Details: err.Error(),
	}
}

func failureKind(err error) string {
	if errors.Is(err, chat.ErrInvalidRequest) {
		return "validation"
	}
	if kind := ai.KindOf(err); kind != "" {
		return "gateway_" + string(kind)
	}
	return "store"
}
