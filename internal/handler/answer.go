package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qius-alx/social-network/internal/service"
)

type AnswerHandler struct {
	answers *service.AnswerService
	logger  *slog.Logger
}

func NewAnswerHandler(answers *service.AnswerService, logger *slog.Logger) *AnswerHandler {
	return &AnswerHandler{answers: answers, logger: logger}
}

// HandleUpdate: PUT /api/answers/{answerId}
func (h *AnswerHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	a, err := h.answers.Update(r.Context(), me.ID, chi.URLParam(r, "answerId"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleDelete: DELETE /api/answers/{answerId}
func (h *AnswerHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.answers.Delete(r.Context(), me.ID, chi.URLParam(r, "answerId")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Answer deleted successfully."})
}

// HandleVote moves the score by one.
//
// HTTP: POST /api/answers/{answerId}/vote {"voteType": "upvote"|"downvote"}
func (h *AnswerHandler) HandleVote(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	var req struct {
		VoteType string `json:"voteType"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	a, err := h.answers.Vote(r.Context(), chi.URLParam(r, "answerId"), service.VoteType(req.VoteType))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleMarkBest: POST /api/answers/{answerId}/mark-best
func (h *AnswerHandler) HandleMarkBest(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	a, err := h.answers.MarkBest(r.Context(), me.ID, chi.URLParam(r, "answerId"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.logger.Debug("best answer selected", slog.String("answerID", a.ID), slog.String("by", me.ID))
	writeJSON(w, http.StatusOK, a)
}
