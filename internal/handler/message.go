package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qius-alx/social-network/internal/service"
)

// MessageHandler serves chat history. Live traffic goes over the websocket;
// these endpoints are how a client catches up.
type MessageHandler struct {
	messages *service.MessageService
	logger   *slog.Logger
}

func NewMessageHandler(messages *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

// HandleGlobalHistory: GET /api/global-messages/history?page&limit
func (h *MessageHandler) HandleGlobalHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	msgs, err := h.messages.GlobalHistory(r.Context(), pageFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// HandlePrivateHistory returns the conversation with peerId. Fetching it
// marks the caller's unread messages on the page as read.
//
// HTTP: GET /api/messages/history/{peerId}?page&limit
func (h *MessageHandler) HandlePrivateHistory(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	msgs, err := h.messages.PrivateHistory(r.Context(), me.ID, chi.URLParam(r, "peerId"), pageFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
