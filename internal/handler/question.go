package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qius-alx/social-network/internal/service"
)

// QuestionHandler serves questions and the answers nested under them.
type QuestionHandler struct {
	questions *service.QuestionService
	answers   *service.AnswerService
	logger    *slog.Logger
}

func NewQuestionHandler(questions *service.QuestionService, answers *service.AnswerService, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{questions: questions, answers: answers, logger: logger}
}

type questionRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func (req questionRequest) input() service.QuestionInput {
	return service.QuestionInput{Title: req.Title, Content: req.Content, Tags: req.Tags}
}

// HandleAsk: POST /api/questions/ask
func (h *QuestionHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var req questionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	q, err := h.questions.Ask(r.Context(), *me, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// HandleList pages through questions.
//
// HTTP: GET /api/questions?page&limit&tag&sortBy
func (h *QuestionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.questions.List(r.Context(), q.Get("tag"), q.Get("sortBy"), pageFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleGet: GET /api/questions/{questionId}
func (h *QuestionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.questions.Get(r.Context(), chi.URLParam(r, "questionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleUpdate: PUT /api/questions/{questionId}
func (h *QuestionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var req questionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	q, err := h.questions.Update(r.Context(), me.ID, chi.URLParam(r, "questionId"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// HandleDelete removes a question and its answers.
//
// HTTP: DELETE /api/questions/{questionId}
func (h *QuestionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.questions.Delete(r.Context(), me.ID, chi.URLParam(r, "questionId")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Question and associated answers deleted successfully."})
}

// HandlePostAnswer: POST /api/questions/{questionId}/answers
func (h *QuestionHandler) HandlePostAnswer(w http.ResponseWriter, r *http.Request) {
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

	a, err := h.answers.Post(r.Context(), *me, chi.URLParam(r, "questionId"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HandleListAnswers: GET /api/questions/{questionId}/answers
func (h *QuestionHandler) HandleListAnswers(w http.ResponseWriter, r *http.Request) {
	answers, err := h.answers.List(r.Context(), chi.URLParam(r, "questionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}
