package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qius-alx/social-network/internal/service"
)

type ContactHandler struct {
	contacts *service.ContactService
	logger   *slog.Logger
}

func NewContactHandler(contacts *service.ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{contacts: contacts, logger: logger}
}

// HandleAdd: POST /api/contacts/add {"contactId": "..."}
func (h *ContactHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var req struct {
		ContactID string `json:"contactId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	c, err := h.contacts.Add(r.Context(), me.ID, req.ContactID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// HandleList: GET /api/contacts
func (h *ContactHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	contacts, err := h.contacts.List(r.Context(), me.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// HandleRemove: DELETE /api/contacts/remove/{contactId}
func (h *ContactHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.contacts.Remove(r.Context(), me.ID, chi.URLParam(r, "contactId")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Contact removed successfully."})
}
